package models

// Request and response bodies of the chat endpoints.

// DialogueRequest is a user message addressed to the selected companion.
type DialogueRequest struct {
	Message     string `json:"message" binding:"required"`
	CompanionID string `json:"companionId,omitempty"`
}

// DialogueResponse carries the companion's reply.
type DialogueResponse struct {
	Response    string `json:"response"`
	CompanionID string `json:"companionId"`
}

// ImageRequest asks for a generated image.
type ImageRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// ImageResponse is a MIME-typed base64 data URI.
type ImageResponse struct {
	ImageURL string `json:"imageUrl"`
}

// ComplimentRequest carries the user's photo as a data URI.
type ComplimentRequest struct {
	PhotoDataURI string `json:"photoDataUri" binding:"required"`
	CompanionID  string `json:"companionId,omitempty"`
}

// ComplimentResponse carries the companion's compliment.
type ComplimentResponse struct {
	Compliment  string `json:"compliment"`
	CompanionID string `json:"companionId"`
}
