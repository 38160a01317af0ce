package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultFirebaseURL = "https://identitytoolkit.googleapis.com"

// FirebaseProvider uses the Identity Toolkit REST API for phone sign-in.
type FirebaseProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewFirebaseProvider creates a provider. An empty baseURL targets Google; a nil client
// gets a 15 second timeout.
func NewFirebaseProvider(apiKey, baseURL string, client *http.Client) (*FirebaseProvider, error) {
	if apiKey == "" {
		return nil, errors.New("firebase: api key is required")
	}
	if baseURL == "" {
		baseURL = defaultFirebaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &FirebaseProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}, nil
}

func (p *FirebaseProvider) Name() string { return "firebase" }

func (p *FirebaseProvider) StartVerification(ctx context.Context, phone, recaptchaToken string) (string, error) {
	body, err := p.post(ctx, "accounts:sendVerificationCode", map[string]string{
		"phoneNumber":    phone,
		"recaptchaToken": recaptchaToken,
	})
	if err != nil {
		return "", err
	}

	sessionInfo := gjson.GetBytes(body, "sessionInfo").String()
	if sessionInfo == "" {
		return "", fmt.Errorf("%w: response has no sessionInfo", ErrProvider)
	}
	return sessionInfo, nil
}

func (p *FirebaseProvider) ConfirmVerification(ctx context.Context, verificationID, code string) (PhoneIdentity, error) {
	body, err := p.post(ctx, "accounts:signInWithPhoneNumber", map[string]string{
		"sessionInfo": verificationID,
		"code":        code,
	})
	if err != nil {
		return PhoneIdentity{}, err
	}

	res := gjson.GetManyBytes(body, "localId", "phoneNumber")
	if res[0].String() == "" {
		return PhoneIdentity{}, fmt.Errorf("%w: response has no localId", ErrProvider)
	}
	return PhoneIdentity{UserID: res[0].String(), PhoneNumber: res[1].String()}, nil
}

// Ping checks configuration only; the API has no cheap unauthenticated probe.
func (p *FirebaseProvider) Ping(context.Context) error {
	if p.apiKey == "" {
		return errors.New("firebase: api key is required")
	}
	return nil
}

func (p *FirebaseProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func (p *FirebaseProvider) post(ctx context.Context, method string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("firebase: encode request: %w", err)
	}

	endpoint := p.baseURL + "/v1/" + method + "?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("firebase: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProvider, method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read response: %v", ErrProvider, method, err)
	}
	if resp.StatusCode >= 300 {
		return nil, firebaseError(method, resp.StatusCode, body)
	}
	return body, nil
}

// firebaseError maps Identity Toolkit error messages such as "INVALID_CODE" or
// "INVALID_PHONE_NUMBER : TOO_SHORT" onto the package errors.
func firebaseError(method string, status int, body []byte) error {
	message := gjson.GetBytes(body, "error.message").String()
	reason, _, _ := strings.Cut(message, " ")

	switch reason {
	case "INVALID_CODE", "SESSION_EXPIRED", "INVALID_SESSION_INFO", "MISSING_CODE", "CODE_EXPIRED":
		return fmt.Errorf("%w: %s", ErrInvalidCode, message)
	case "INVALID_PHONE_NUMBER", "MISSING_PHONE_NUMBER":
		return fmt.Errorf("%w: %s", ErrInvalidPhone, message)
	}
	return fmt.Errorf("%w: %s returned %d: %s", ErrProvider, method, status, message)
}
