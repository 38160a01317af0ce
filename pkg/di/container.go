// Package di wires the application's components from configuration.
package di

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"companion-chat/backend/internal/ai"
	"companion-chat/backend/internal/auth"
	"companion-chat/backend/internal/service"
	"companion-chat/backend/internal/settings"
	"companion-chat/backend/internal/storage"
	"companion-chat/backend/pkg/config"
	"companion-chat/backend/pkg/health"
	"companion-chat/backend/pkg/jwt"
	"companion-chat/backend/pkg/logger"
	"companion-chat/backend/pkg/middleware"
	"companion-chat/backend/pkg/resilience"
	"companion-chat/backend/pkg/secrets"
)

const defaultJWTSecret = "default-jwt-secret-do-not-use-in-production"

// Container holds all the dependencies for the application
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	Secrets     *secrets.VaultManager
	Store       storage.KV
	Settings    *settings.Store
	Flows       *ai.Flows
	Tokens      *jwt.Service
	Session     *auth.Session
	Companions  *service.CompanionService
	Health      *health.Checker
	RateLimiter *middleware.RateLimiter
}

// Options overrides components, mostly for tests. Nil fields are built from config.
type Options struct {
	Store     storage.KV
	Generator ai.Generator
	Provider  auth.IdentityProvider
}

// New builds every component and initializes the auth session
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}
	built := false
	defer func() {
		if !built {
			_ = c.Close()
		}
	}()

	var err error
	c.Secrets, err = secrets.NewVaultManager(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create secrets manager: %w", err)
	}

	c.Store = opts.Store
	if c.Store == nil {
		if c.Store, err = storage.NewFromConfig(cfg, log); err != nil {
			return nil, fmt.Errorf("failed to open profile storage: %w", err)
		}
	}
	c.Settings = settings.NewStore(c.Store, log)

	gen := opts.Generator
	if gen == nil {
		gen, err = ai.NewGenerator(ctx, cfg, ai.Keys{
			Gemini: c.Secrets.GetSecretWithDefault(ctx, secrets.KeyGeminiAPIKey, cfg.AI.GeminiAPIKey),
			OpenAI: c.Secrets.GetSecretWithDefault(ctx, secrets.KeyOpenAIAPIKey, cfg.AI.OpenAIAPIKey),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create generator: %w", err)
		}
	}

	breakerCfg := resilience.DefaultConfig("generator-" + gen.Name())
	if cfg.AI.BreakerFailures > 0 {
		breakerCfg.FailureThreshold = cfg.AI.BreakerFailures
	}
	if cfg.AI.BreakerCooldown > 0 {
		breakerCfg.Cooldown = cfg.AI.BreakerCooldown
	}
	breakerCfg.IsFailure = ai.CountsAgainstBreaker
	c.Flows = ai.NewFlows(gen, log,
		ai.WithTimeout(cfg.AI.RequestTimeout),
		ai.WithBreaker(resilience.NewCircuitBreaker(breakerCfg, log)),
	)

	jwtSecret := c.Secrets.GetSecretWithDefault(ctx, secrets.KeyJWTSecret, cfg.JWT.Secret)
	if cfg.IsProduction() && jwtSecret == defaultJWTSecret {
		return nil, errors.New("JWT_SECRET must be set in production")
	}
	if c.Tokens, err = jwt.NewService(jwtSecret, cfg.JWT.Expiry, cfg.JWT.Issuer); err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	provider := opts.Provider
	if provider == nil {
		firebaseKey := c.Secrets.GetSecretWithDefault(ctx, secrets.KeyFirebaseAPIKey, cfg.Auth.FirebaseAPIKey)
		if provider, err = auth.NewProvider(cfg, firebaseKey, log); err != nil {
			return nil, fmt.Errorf("failed to create identity provider: %w", err)
		}
	}
	c.Session = auth.NewSession(provider, c.Store, c.Tokens, log)
	if err = c.Session.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize auth session: %w", err)
	}

	c.Companions = service.NewCompanionService(c.Settings, c.Flows, log)

	c.Health = health.NewChecker(log, cfg.Observability.ServiceName)
	c.Health.RegisterStorageCheck(cfg.Storage.Backend, c.Store.Ping)
	c.Health.RegisterBreakerCheck("generator", c.Flows.Breaker())
	c.Health.RegisterCheck("identity", false, func(ctx context.Context) (health.Status, string, error) {
		if err := provider.Ping(ctx); err != nil {
			return health.StatusDegraded, provider.Name() + " unreachable", err
		}
		return health.StatusUp, provider.Name() + " reachable", nil
	})

	limiterOpts := middleware.DefaultRateLimiterOptions()
	if cfg.Security.RateLimit > 0 {
		limiterOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	}
	if cfg.Security.RateLimitBurst > 0 {
		limiterOpts.Burst = cfg.Security.RateLimitBurst
	}
	c.RateLimiter = middleware.NewRateLimiter(log, limiterOpts)

	built = true
	return c, nil
}

// Close releases every component that holds resources. It is safe on a partially built container.
func (c *Container) Close() error {
	var errs []error
	if c.RateLimiter != nil {
		c.RateLimiter.Close()
	}
	if c.Session != nil {
		errs = append(errs, c.Session.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.Secrets != nil {
		c.Secrets.Close()
	}
	return errors.Join(errs...)
}
