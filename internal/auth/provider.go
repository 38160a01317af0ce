package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"companion-chat/backend/pkg/cache"
	"companion-chat/backend/pkg/config"
	"companion-chat/backend/pkg/logger"
)

var (
	// ErrInvalidPhone means the number is not in E.164 form or the provider refused it.
	ErrInvalidPhone = errors.New("invalid phone number")
	// ErrInvalidCode means the verification code is wrong, expired or already used.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrProvider wraps identity provider outages.
	ErrProvider = errors.New("identity provider failure")
)

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// NormalizePhone strips formatting characters and checks for E.164 form.
func NormalizePhone(phone string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
	if !e164.MatchString(cleaned) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return cleaned, nil
}

// PhoneIdentity is what a provider knows after a successful confirmation.
type PhoneIdentity struct {
	UserID      string
	PhoneNumber string
}

// IdentityProvider performs phone OTP verification. Delivery of the code and any bot
// checks are the provider's business.
type IdentityProvider interface {
	Name() string
	StartVerification(ctx context.Context, phone, recaptchaToken string) (verificationID string, err error)
	ConfirmVerification(ctx context.Context, verificationID, code string) (PhoneIdentity, error)
	Ping(ctx context.Context) error
	Close() error
}

// NewProvider builds the provider selected by IDENTITY_PROVIDER.
func NewProvider(cfg *config.Config, firebaseAPIKey string, log *logger.Logger) (IdentityProvider, error) {
	switch strings.ToLower(cfg.Auth.Provider) {
	case "firebase":
		return NewFirebaseProvider(firebaseAPIKey, cfg.Auth.FirebaseURL, nil)
	case "", "dev":
		if cfg.IsProduction() {
			return nil, errors.New("the dev identity provider is not allowed in production")
		}
		return NewDevProvider(cache.New(cache.Options{
			DefaultExpiration: cfg.Auth.OTPTTL,
			CleanupInterval:   cfg.Auth.OTPTTL,
			MaxItems:          10000,
		}), log), nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Auth.Provider)
	}
}
