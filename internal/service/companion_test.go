package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-chat/backend/internal/ai"
	"companion-chat/backend/internal/catalog"
	"companion-chat/backend/internal/models"
	"companion-chat/backend/internal/settings"
	"companion-chat/backend/internal/storage"
	"companion-chat/backend/pkg/logger"
)

type recordingFlows struct {
	dialogue   []ai.DialogueInput
	compliment []ai.ComplimentInput
	image      []ai.ImageInput
	err        error
}

func (f *recordingFlows) Dialogue(_ context.Context, in ai.DialogueInput) (ai.DialogueOutput, error) {
	f.dialogue = append(f.dialogue, in)
	return ai.DialogueOutput{Response: "reply from " + in.CompanionName}, f.err
}

func (f *recordingFlows) Compliment(_ context.Context, in ai.ComplimentInput) (ai.ComplimentOutput, error) {
	f.compliment = append(f.compliment, in)
	return ai.ComplimentOutput{Compliment: "lovely"}, f.err
}

func (f *recordingFlows) Image(_ context.Context, in ai.ImageInput) (ai.ImageOutput, error) {
	f.image = append(f.image, in)
	return ai.ImageOutput{ImageURL: "data:image/png;base64,AA=="}, f.err
}

func intPtr(v int) *int               { return &v }
func strPtr(v string) *string         { return &v }
func traitsPtr(v ...string) *[]string { return &v }

// unreliableKV fails every read while failReads is set.
type unreliableKV struct {
	*storage.MemoryKV
	failReads bool
}

func (kv *unreliableKV) Get(ctx context.Context, profileID, key string) ([]byte, error) {
	if kv.failReads {
		return nil, errors.New("connection reset")
	}
	return kv.MemoryKV.Get(ctx, profileID, key)
}

func newTestService(quota int64) (*CompanionService, *recordingFlows) {
	kv := storage.NewMemoryKV(quota)
	flows := &recordingFlows{}
	return NewCompanionService(settings.NewStore(kv, logger.Discard()), flows, logger.Discard()), flows
}

func TestChatUsesResolvedSettings(t *testing.T) {
	svc, flows := newTestService(0)
	ctx := context.Background()

	_, err := svc.UpdateSettings(ctx, "p1", models.SettingsUpdate{
		UserName:            strPtr("  Riya "),
		SelectedCompanionID: strPtr("kavya"),
		SelectedLanguage:    strPtr("ta"),
	})
	require.NoError(t, err)

	resp, err := svc.Chat(ctx, "p1", "u1", models.DialogueRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "kavya", resp.CompanionID)
	assert.Equal(t, "reply from Kavya", resp.Response)

	require.Len(t, flows.dialogue, 1)
	in := flows.dialogue[0]
	assert.Equal(t, "Riya", in.UserName)
	assert.Equal(t, "Tamil", in.Language)
	assert.Equal(t, "u1", in.UserID)
	assert.NotEmpty(t, in.CompanionPersona)
}

func TestChatDefaultsForNewProfile(t *testing.T) {
	svc, flows := newTestService(0)

	resp, err := svc.Chat(context.Background(), "fresh", "", models.DialogueRequest{Message: "hi", CompanionID: "no-such-id"})
	require.NoError(t, err)

	first := catalog.DefaultCompanion()
	assert.Equal(t, first.ID, resp.CompanionID)
	assert.Equal(t, "User", flows.dialogue[0].UserName)
	assert.Equal(t, catalog.DefaultLanguage().AIName, flows.dialogue[0].Language)
}

func TestComplimentPassesPhoto(t *testing.T) {
	svc, flows := newTestService(0)

	resp, err := svc.Compliment(context.Background(), "p1", models.ComplimentRequest{PhotoDataURI: "data:image/png;base64,AA==", CompanionID: "meera"})
	require.NoError(t, err)
	assert.Equal(t, "meera", resp.CompanionID)
	assert.Equal(t, "data:image/png;base64,AA==", flows.compliment[0].PhotoDataURI)
	assert.Equal(t, "Meera", flows.compliment[0].CompanionName)
}

func TestGenerateImage(t *testing.T) {
	svc, flows := newTestService(0)

	resp, err := svc.GenerateImage(context.Background(), models.ImageRequest{Prompt: "a beach"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.ImageURL, "data:image/png;base64,"))
	assert.Equal(t, "a beach", flows.image[0].Prompt)
}

func TestUpdateSettingsValidation(t *testing.T) {
	svc, _ := newTestService(0)
	ctx := context.Background()

	cases := []models.SettingsUpdate{
		{UserName: strPtr("   ")},
		{UserName: strPtr(strings.Repeat("x", MaxUserNameLength+1))},
		{SelectedCompanionID: strPtr("ghost")},
		{SelectedLanguage: strPtr("xx")},
	}
	for _, update := range cases {
		_, err := svc.UpdateSettings(ctx, "p1", update)
		assert.ErrorIs(t, err, ErrValidation)
	}

	assert.Equal(t, settings.Defaults(), svc.GetSettings(ctx, "p1"), "rejected updates save nothing")
}

func TestUpdateSettingsKeepsCustomizations(t *testing.T) {
	svc, _ := newTestService(0)
	ctx := context.Background()

	_, err := svc.Customize(ctx, "p1", "luna", models.CustomizationPatch{AffectionLevel: intPtr(60)})
	require.NoError(t, err)
	_, err = svc.UpdateSettings(ctx, "p1", models.SettingsUpdate{UserName: strPtr("Dev")})
	require.NoError(t, err)

	got := svc.GetSettings(ctx, "p1")
	assert.Equal(t, "Dev", got.UserName)
	assert.Equal(t, 60, got.CompanionCustomizations["luna"].AffectionLevel)
}

func TestCustomizeMergesAndResolves(t *testing.T) {
	svc, _ := newTestService(0)
	ctx := context.Background()

	resolved, err := svc.Customize(ctx, "p1", "aria", models.CustomizationPatch{
		SelectedTraits:  traitsPtr("Witty", "witty", "calm"),
		CustomAvatarURL: strPtr("https://example.com/aria.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"witty", "calm"}, resolved.Customization.SelectedTraits)
	assert.Equal(t, "https://example.com/aria.png", resolved.DisplayAvatar)
	assert.Equal(t, models.DefaultAffectionLevel, resolved.Customization.AffectionLevel)

	resolved, err = svc.Customize(ctx, "p1", "aria", models.CustomizationPatch{AffectionLevel: intPtr(80)})
	require.NoError(t, err)
	assert.Equal(t, []string{"witty", "calm"}, resolved.Customization.SelectedTraits)
	assert.Equal(t, 80, resolved.Customization.AffectionLevel)

	resolved, err = svc.Customize(ctx, "p1", "aria", models.CustomizationPatch{CustomAvatarURL: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, resolved.Customization.CustomAvatarURL)
	assert.Equal(t, resolved.AvatarImage, resolved.DisplayAvatar)

	other, err := svc.ResolvedCompanion(ctx, "p1", "luna")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCustomization(), other.Customization)
}

func TestCustomizeValidation(t *testing.T) {
	svc, _ := newTestService(0)
	ctx := context.Background()

	_, err := svc.Customize(ctx, "p1", "ghost", models.CustomizationPatch{AffectionLevel: intPtr(1)})
	assert.ErrorIs(t, err, ErrCompanionNotFound)

	for _, patch := range []models.CustomizationPatch{
		{},
		{AffectionLevel: intPtr(101)},
		{AffectionLevel: intPtr(-1)},
		{SelectedTraits: traitsPtr("grumpy")},
		{CustomAvatarURL: strPtr("ftp://example.com/a.png")},
		{CustomAvatarURL: strPtr("data:text/plain;base64,aGk=")},
	} {
		_, err := svc.Customize(ctx, "p1", "luna", patch)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestCustomizeQuotaExceededSavesNothing(t *testing.T) {
	svc, _ := newTestService(400)
	ctx := context.Background()

	_, err := svc.Customize(ctx, "p1", "luna", models.CustomizationPatch{AffectionLevel: intPtr(33)})
	require.NoError(t, err)
	before := svc.GetSettings(ctx, "p1")

	big := "data:image/png;base64," + strings.Repeat("QUFB", 200)
	_, err = svc.Customize(ctx, "p1", "aria", models.CustomizationPatch{CustomAvatarURL: &big})
	assert.ErrorIs(t, err, settings.ErrStorageQuotaExceeded)

	assert.Equal(t, before, svc.GetSettings(ctx, "p1"))
}

func TestWritesRefusedWhenRecordUnreadable(t *testing.T) {
	kv := &unreliableKV{MemoryKV: storage.NewMemoryKV(0)}
	svc := NewCompanionService(settings.NewStore(kv, logger.Discard()), &recordingFlows{}, logger.Discard())
	ctx := context.Background()

	_, err := svc.UpdateSettings(ctx, "p1", models.SettingsUpdate{UserName: strPtr("Alice")})
	require.NoError(t, err)
	_, err = svc.Customize(ctx, "p1", "luna", models.CustomizationPatch{AffectionLevel: intPtr(80)})
	require.NoError(t, err)
	before := svc.GetSettings(ctx, "p1")

	kv.failReads = true
	_, err = svc.Customize(ctx, "p1", "aria", models.CustomizationPatch{AffectionLevel: intPtr(30)})
	assert.ErrorIs(t, err, settings.ErrStorageUnavailable)
	_, err = svc.UpdateSettings(ctx, "p1", models.SettingsUpdate{SelectedLanguage: strPtr("hi")})
	assert.ErrorIs(t, err, settings.ErrStorageUnavailable)

	kv.failReads = false
	after := svc.GetSettings(ctx, "p1")
	assert.Equal(t, before, after)
	assert.Equal(t, "Alice", after.UserName)
	assert.Equal(t, 80, after.CompanionCustomizations["luna"].AffectionLevel)
}

func TestResolvedCompanionUnknown(t *testing.T) {
	svc, _ := newTestService(0)

	_, err := svc.ResolvedCompanion(context.Background(), "p1", "ghost")
	assert.ErrorIs(t, err, ErrCompanionNotFound)
}

func TestClearSettings(t *testing.T) {
	svc, _ := newTestService(0)
	ctx := context.Background()

	_, err := svc.UpdateSettings(ctx, "p1", models.SettingsUpdate{UserName: strPtr("Dev")})
	require.NoError(t, err)
	require.NoError(t, svc.ClearSettings(ctx, "p1"))

	assert.Equal(t, settings.Defaults(), svc.GetSettings(ctx, "p1"))
}
