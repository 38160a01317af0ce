package models

// Identity is the signed-in principal behind a token.
type Identity struct {
	ProfileID   string `json:"profileId"`
	UserID      string `json:"userId"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Guest       bool   `json:"guest"`
}

// SignInResponse is returned by every sign-in endpoint.
type SignInResponse struct {
	Identity Identity `json:"identity"`
	Token    string   `json:"token"`
}

// PhoneStartRequest begins a phone sign-in.
type PhoneStartRequest struct {
	PhoneNumber    string `json:"phoneNumber" binding:"required"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// PhoneStartResponse identifies the pending verification.
type PhoneStartResponse struct {
	VerificationID string `json:"verificationId"`
}

// PhoneConfirmRequest completes a phone sign-in with the received code.
type PhoneConfirmRequest struct {
	VerificationID string `json:"verificationId" binding:"required"`
	Code           string `json:"code" binding:"required"`
}
