// Package secrets resolves API keys from HashiCorp Vault with an environment fallback.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"

	"companion-chat/backend/pkg/cache"
	"companion-chat/backend/pkg/config"
	"companion-chat/backend/pkg/logger"
)

// Common errors
var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrNoVaultToken   = errors.New("no vault token provided")
	ErrNoVaultAddress = errors.New("no vault address provided")
)

// Well-known secret keys
const (
	KeyGeminiAPIKey   = "gemini_api_key"
	KeyOpenAIAPIKey   = "openai_api_key"
	KeyFirebaseAPIKey = "firebase_api_key"
	KeyJWTSecret      = "jwt_secret"
)

// Manager provides access to secrets
type Manager interface {
	GetSecret(ctx context.Context, key string) (string, error)
	GetSecretWithDefault(ctx context.Context, key, defaultValue string) string
}

// VaultManager reads one KV v2 secret whose fields are the individual secrets. Keys
// missing from Vault, or all keys when Vault is disabled, are looked up in the
// environment as upper-cased names.
type VaultManager struct {
	client *vault.Client
	mount  string
	path   string
	cache  *cache.Cache
	lookup func(string) (string, bool)
	log    *logger.Logger
}

// NewVaultManager creates a manager from the Vault section of cfg
func NewVaultManager(cfg *config.Config, log *logger.Logger) (*VaultManager, error) {
	m := &VaultManager{
		mount:  cfg.Vault.Mount,
		path:   cfg.Vault.SecretsPath,
		cache:  cache.New(cache.Options{DefaultExpiration: 5 * time.Minute, CleanupInterval: 10 * time.Minute}),
		lookup: os.LookupEnv,
		log:    log.WithComponent("secrets"),
	}
	if !cfg.Vault.Enabled {
		return m, nil
	}

	if cfg.Vault.Address == "" {
		return nil, ErrNoVaultAddress
	}
	if cfg.Vault.Token == "" {
		return nil, ErrNoVaultToken
	}
	if m.mount == "" {
		m.mount = "secret"
	}
	if m.path == "" {
		m.path = "companion-chat"
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Vault.Address
	vaultConfig.Timeout = 10 * time.Second
	vaultConfig.MaxRetries = 2

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Vault.Token)
	if cfg.Vault.Namespace != "" {
		client.SetNamespace(cfg.Vault.Namespace)
	}
	m.client = client

	return m, nil
}

// GetSecret returns the secret from cache, Vault or the environment, in that order
func (m *VaultManager) GetSecret(ctx context.Context, key string) (string, error) {
	if v, ok := m.cache.Get(key); ok {
		return v.(string), nil
	}

	if m.client != nil {
		value, err := m.getFromVault(ctx, key)
		switch {
		case err == nil:
			m.cache.Set(key, value)
			return value, nil
		case errors.Is(err, ErrSecretNotFound):
			m.log.Debug("Secret not in Vault, trying environment", "key", key)
		default:
			return "", err
		}
	}

	value, err := m.getFromEnvironment(key)
	if err != nil {
		return "", err
	}
	m.cache.Set(key, value)
	return value, nil
}

// GetSecretWithDefault returns defaultValue when the secret cannot be resolved
func (m *VaultManager) GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrSecretNotFound) {
			m.log.Warn("Failed to get secret, using default value",
				"key", key,
				"error", err.Error(),
			)
		}
		return defaultValue
	}
	return value
}

// Close releases the cache janitor
func (m *VaultManager) Close() {
	m.cache.Close()
}

func (m *VaultManager) getFromVault(ctx context.Context, key string) (string, error) {
	secret, err := m.client.KVv2(m.mount).Get(ctx, m.path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("failed to read secret %s/%s: %w", m.mount, m.path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	value, ok := secret.Data[key].(string)
	if !ok || value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}

func (m *VaultManager) getFromEnvironment(key string) (string, error) {
	envKey := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
	value, ok := m.lookup(envKey)
	if !ok || value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}
