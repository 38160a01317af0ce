package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-chat/backend/internal/ai"
	"companion-chat/backend/internal/storage"
	"companion-chat/backend/pkg/config"
	"companion-chat/backend/pkg/logger"
)

type stubGenerator struct{}

func (stubGenerator) GenerateText(context.Context, ai.TextRequest) (string, error) { return "hi", nil }
func (stubGenerator) GenerateImage(context.Context, string) (ai.Image, error)      { return ai.Image{}, ai.ErrNoImage }
func (stubGenerator) Name() string                                                 { return "stub" }

func TestNewWiresEverything(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("IDENTITY_PROVIDER", "dev")
	t.Setenv("AI_BREAKER_FAILURES", "2")

	c, err := New(context.Background(), config.Load(), logger.Discard(), Options{
		Store:     storage.NewMemoryKV(0),
		Generator: stubGenerator{},
	})
	require.NoError(t, err)

	assert.Equal(t, "dev", c.Session.ProviderName())
	assert.Equal(t, uint(2), c.Flows.Breaker().Stats()["failure_threshold"])

	c.Health.RunChecks(context.Background())
	status := c.Health.GetStatus()
	assert.Contains(t, status, "storage")
	assert.Contains(t, status, "generator")
	assert.Contains(t, status, "identity")
	assert.True(t, c.Health.IsSystemHealthy())

	require.NoError(t, c.Close())
	_, err = c.Session.Authenticate("anything")
	assert.Error(t, err)
}

func TestNewRefusesDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := New(context.Background(), config.Load(), logger.Discard(), Options{
		Store:     storage.NewMemoryKV(0),
		Generator: stubGenerator{},
	})
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestNewRejectsUnknownStorageBackend(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORAGE_BACKEND", "floppy")

	_, err := New(context.Background(), config.Load(), logger.Discard(), Options{Generator: stubGenerator{}})
	assert.ErrorContains(t, err, "floppy")
}
