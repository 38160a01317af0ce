package ai

import (
	"context"
	"fmt"
	"strings"

	"companion-chat/backend/pkg/config"
)

// TextRequest is one text generation call. Image, when set, is sent inline with the prompt.
type TextRequest struct {
	System string
	Prompt string
	Image  *Image
}

// Generator is a hosted generative model.
type Generator interface {
	// GenerateText returns the model's text. Safety blocks are reported as ErrBlocked.
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	// GenerateImage returns the first image the model produced. A response without an
	// image is reported as ErrNoImage and safety blocks as ErrBlocked.
	GenerateImage(ctx context.Context, prompt string) (Image, error)
	Name() string
}

// Keys carries provider credentials, usually resolved from the secrets manager.
type Keys struct {
	Gemini string
	OpenAI string
}

// NewGenerator builds the generator selected by AI_PROVIDER.
func NewGenerator(ctx context.Context, cfg *config.Config, keys Keys) (Generator, error) {
	ai := cfg.AI
	switch strings.ToLower(ai.Provider) {
	case "", "gemini":
		return NewGeminiGenerator(ctx, keys.Gemini, ai.TextModel, ai.ImageModel)
	case "openai":
		return NewOpenAIGenerator(keys.OpenAI, ai.OpenAIBaseURL, ai.TextModel, ai.ImageModel)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", ai.Provider)
	}
}
