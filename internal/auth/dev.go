package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"companion-chat/backend/pkg/cache"
	"companion-chat/backend/pkg/logger"
)

type pendingCode struct {
	phone string
	hash  []byte
}

// DevProvider verifies phones locally. The code is written to the log instead of being
// sent by SMS, and only its bcrypt hash is kept.
type DevProvider struct {
	pending *cache.Cache
	log     *logger.Logger
	// codeFn is replaceable in tests.
	codeFn func() (string, error)
}

// NewDevProvider stores pending verifications in c; c's default expiration is the code TTL.
func NewDevProvider(c *cache.Cache, log *logger.Logger) *DevProvider {
	return &DevProvider{pending: c, log: log.WithComponent("auth-dev"), codeFn: randomCode}
}

func (p *DevProvider) Name() string { return "dev" }

func (p *DevProvider) StartVerification(ctx context.Context, phone, _ string) (string, error) {
	code, err := p.codeFn()
	if err != nil {
		return "", fmt.Errorf("%w: generate code: %v", ErrProvider, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: hash code: %v", ErrProvider, err)
	}

	id := uuid.NewString()
	p.pending.Set(id, pendingCode{phone: phone, hash: hash})

	logger.FromContext(ctx, p.log).Info("Verification code issued",
		"verification_id", id,
		"phone", phone,
		"code", code,
	)
	return id, nil
}

func (p *DevProvider) ConfirmVerification(_ context.Context, verificationID, code string) (PhoneIdentity, error) {
	// Codes are single use: a wrong guess burns the verification too.
	v, ok := p.pending.Take(verificationID)
	if !ok {
		return PhoneIdentity{}, fmt.Errorf("%w: unknown or expired verification", ErrInvalidCode)
	}
	pending := v.(pendingCode)
	if err := bcrypt.CompareHashAndPassword(pending.hash, []byte(code)); err != nil {
		return PhoneIdentity{}, ErrInvalidCode
	}

	return PhoneIdentity{UserID: devUserID(pending.phone), PhoneNumber: pending.phone}, nil
}

func (p *DevProvider) Ping(context.Context) error { return nil }

func (p *DevProvider) Close() error {
	p.pending.Close()
	return nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// devUserID is stable per phone number so repeated sign-ins map to the same user.
func devUserID(phone string) string {
	sum := sha256.Sum256([]byte(phone))
	return "dev-" + hex.EncodeToString(sum[:8])
}
