// Package jwt signs and validates the bearer tokens that identify a profile.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Roles carried in tokens
const (
	RoleGuest = "guest"
	RoleUser  = "user"
)

// Claims identifies the profile a request acts on
type Claims struct {
	ProfileID string `json:"profile_id"`
	UserID    string `json:"user_id,omitempty"`
	Guest     bool   `json:"guest"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Service signs tokens with an HMAC secret
type Service struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewService creates a new JWT service. The secret must not be empty.
func NewService(secret string, expiry time.Duration, issuer string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt: secret is required")
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Service{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// GenerateToken signs a token for the given profile
func (s *Service) GenerateToken(profileID, userID string, guest bool) (string, error) {
	if profileID == "" {
		return "", errors.New("jwt: profile id is required")
	}

	role := RoleUser
	if guest {
		role = RoleGuest
	}

	now := s.now()
	claims := &Claims{
		ProfileID: profileID,
		UserID:    userID,
		Guest:     guest,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profileID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ProfileID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
