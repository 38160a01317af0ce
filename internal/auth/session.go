// Package auth holds the sign-in session: guest mode, phone OTP sign-in through an
// identity provider, and the tokens that bind requests to a profile.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"companion-chat/backend/internal/models"
	"companion-chat/backend/internal/storage"
	"companion-chat/backend/pkg/jwt"
	"companion-chat/backend/pkg/logger"
	"companion-chat/backend/pkg/observability"
)

// GuestModeKey is the storage key of the guest flag inside a profile namespace.
const GuestModeKey = "isGuestMode"

var (
	// ErrSessionNotReady is returned by calls made before Init succeeded.
	ErrSessionNotReady = errors.New("auth session not initialized")
	// ErrSessionClosed is returned by calls made after Close.
	ErrSessionClosed = errors.New("auth session closed")
	// ErrAlreadySignedIn is returned when a phone user asks for a guest session.
	ErrAlreadySignedIn = errors.New("already signed in")
)

type sessionState int

const (
	stateNew sessionState = iota
	stateReady
	stateClosed
)

// Session is the process's authentication context. It is constructed once, initialized
// with Init, passed explicitly to whatever needs it, and released with Close.
type Session struct {
	provider IdentityProvider
	kv       storage.KV
	tokens   *jwt.Service
	log      *logger.Logger

	mu    sync.RWMutex
	state sessionState
}

// NewSession creates a session. It does no I/O until Init.
func NewSession(provider IdentityProvider, kv storage.KV, tokens *jwt.Service, log *logger.Logger) *Session {
	return &Session{
		provider: provider,
		kv:       kv,
		tokens:   tokens,
		log:      log.WithComponent("auth"),
	}
}

// Init checks that the identity provider and the store are usable.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateClosed:
		return ErrSessionClosed
	case stateReady:
		return nil
	}

	if err := s.provider.Ping(ctx); err != nil {
		return fmt.Errorf("identity provider %s: %w", s.provider.Name(), err)
	}
	if err := s.kv.Ping(ctx); err != nil {
		return fmt.Errorf("profile store: %w", err)
	}

	s.state = stateReady
	s.log.Info("Auth session ready", "provider", s.provider.Name())
	return nil
}

// Close releases provider resources. Later calls fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateClosed {
		return nil
	}
	s.state = stateClosed
	return s.provider.Close()
}

func (s *Session) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.state {
	case stateNew:
		return ErrSessionNotReady
	case stateClosed:
		return ErrSessionClosed
	}
	return nil
}

// SignInAsGuest marks the profile as a guest and returns a token for it. An empty
// profileID starts a new profile. Callers signed in with a phone (non-empty userID) are
// refused rather than downgraded; they sign out first.
func (s *Session) SignInAsGuest(ctx context.Context, profileID, userID string) (models.SignInResponse, error) {
	if err := s.ready(); err != nil {
		return models.SignInResponse{}, err
	}
	if userID != "" {
		return models.SignInResponse{}, ErrAlreadySignedIn
	}
	if profileID == "" {
		profileID = uuid.NewString()
	}

	if err := s.kv.Set(ctx, profileID, GuestModeKey, []byte("true")); err != nil {
		return models.SignInResponse{}, fmt.Errorf("set guest flag: %w", err)
	}

	token, err := s.tokens.GenerateToken(profileID, "", true)
	if err != nil {
		return models.SignInResponse{}, err
	}

	observability.Global().SignIns.WithLabelValues("guest").Inc()
	logger.FromContext(ctx, s.log).Info("Guest signed in", "profile_id", profileID)

	return models.SignInResponse{
		Identity: models.Identity{ProfileID: profileID, Guest: true},
		Token:    token,
	}, nil
}

// StartPhoneSignIn asks the provider to send a code and returns the verification id.
func (s *Session) StartPhoneSignIn(ctx context.Context, phone, recaptchaToken string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	return s.provider.StartVerification(ctx, normalized, recaptchaToken)
}

// ConfirmPhoneSignIn completes a phone sign-in. The guest flag of the profile is cleared
// and a user token is returned. An empty profileID starts a new profile.
func (s *Session) ConfirmPhoneSignIn(ctx context.Context, profileID, verificationID, code string) (models.SignInResponse, error) {
	if err := s.ready(); err != nil {
		return models.SignInResponse{}, err
	}
	if strings.TrimSpace(verificationID) == "" || strings.TrimSpace(code) == "" {
		return models.SignInResponse{}, ErrInvalidCode
	}

	ident, err := s.provider.ConfirmVerification(ctx, verificationID, strings.TrimSpace(code))
	if err != nil {
		return models.SignInResponse{}, err
	}

	if profileID == "" {
		profileID = uuid.NewString()
	}
	if err := s.clearGuestFlag(ctx, profileID); err != nil {
		return models.SignInResponse{}, err
	}

	token, err := s.tokens.GenerateToken(profileID, ident.UserID, false)
	if err != nil {
		return models.SignInResponse{}, err
	}

	observability.Global().SignIns.WithLabelValues("phone").Inc()
	logger.FromContext(ctx, s.log).Info("Phone sign-in completed",
		"profile_id", profileID,
		"user_id", ident.UserID,
	)

	return models.SignInResponse{
		Identity: models.Identity{
			ProfileID:   profileID,
			UserID:      ident.UserID,
			PhoneNumber: ident.PhoneNumber,
		},
		Token: token,
	}, nil
}

// SignOut clears the guest flag. Tokens are stateless and simply stop being presented.
func (s *Session) SignOut(ctx context.Context, profileID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.clearGuestFlag(ctx, profileID)
}

// IsGuest reports whether the guest flag is set for the profile.
func (s *Session) IsGuest(ctx context.Context, profileID string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	v, err := s.kv.Get(ctx, profileID, GuestModeKey)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read guest flag: %w", err)
	}
	return string(v) == "true", nil
}

// Authenticate validates a bearer token.
func (s *Session) Authenticate(token string) (*jwt.Claims, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.tokens.ValidateToken(token)
}

// ProviderName names the configured identity provider.
func (s *Session) ProviderName() string {
	return s.provider.Name()
}

func (s *Session) clearGuestFlag(ctx context.Context, profileID string) error {
	if err := s.kv.Delete(ctx, profileID, GuestModeKey); err != nil {
		return fmt.Errorf("clear guest flag: %w", err)
	}
	return nil
}
