// Package ai builds prompts for the three generation flows (dialogue, image and photo
// compliment), forwards them to a hosted model and substitutes canned text when the
// model has nothing usable to say.
package ai

import "errors"

// DefaultLanguage is used when a caller leaves the language empty.
const DefaultLanguage = "English"

var (
	// ErrInvalidInput is returned before any model call when a required field is missing.
	ErrInvalidInput = errors.New("invalid input")
	// ErrGeneration wraps network and model failures. Callers should offer a manual retry.
	ErrGeneration = errors.New("generation failed")
	// ErrNoImage means the model answered but produced no image.
	ErrNoImage = errors.New("no image generated")
	// ErrBlocked is returned by generators when the provider's safety filter rejected the
	// prompt or the output.
	ErrBlocked = errors.New("blocked by safety filter")
)

// DialogueInput is everything the dialogue flow needs, already resolved to plain strings.
type DialogueInput struct {
	UserID           string
	Message          string
	UserName         string
	CompanionID      string
	CompanionName    string
	CompanionPersona string
	Language         string
}

// DialogueOutput is the companion's reply.
type DialogueOutput struct {
	Response string `json:"response"`
}

// ImageInput is a free text image prompt.
type ImageInput struct {
	Prompt string
}

// ImageOutput carries a data URI of the form data:<mime>;base64,<payload>.
type ImageOutput struct {
	ImageURL string `json:"imageUrl"`
}

// ComplimentInput is the photo compliment request.
type ComplimentInput struct {
	PhotoDataURI     string
	UserName         string
	CompanionName    string
	CompanionPersona string
	Language         string
}

// ComplimentOutput is the compliment text.
type ComplimentOutput struct {
	Compliment string `json:"compliment"`
}
