package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var geminiSafety = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
}

// GeminiGenerator talks to the Gemini API.
type GeminiGenerator struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

// NewGeminiGenerator creates a Gemini API client.
func NewGeminiGenerator(ctx context.Context, apiKey, textModel, imageModel string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	return newGeminiGeneratorWithConfig(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, textModel, imageModel)
}

func newGeminiGeneratorWithConfig(ctx context.Context, cfg *genai.ClientConfig, textModel, imageModel string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiGenerator{client: client, textModel: textModel, imageModel: imageModel}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

func (g *GeminiGenerator) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}

	cfg := &genai.GenerateContentConfig{SafetySettings: geminiSafety}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.textModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate text: %w", err)
	}
	if err := geminiBlocked(resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, part := range geminiParts(resp) {
		if part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

func (g *GeminiGenerator) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	cfg := &genai.GenerateContentConfig{SafetySettings: geminiSafety}
	// Image models reject requests that do not also allow text output.
	cfg.ResponseModalities = append(cfg.ResponseModalities, "TEXT", "IMAGE")

	resp, err := g.client.Models.GenerateContent(ctx, g.imageModel, genai.Text(prompt), cfg)
	if err != nil {
		return Image{}, fmt.Errorf("gemini: generate image: %w", err)
	}
	if err := geminiBlocked(resp); err != nil {
		return Image{}, err
	}

	for _, part := range geminiParts(resp) {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = "image/png"
			}
			return Image{MIMEType: mimeType, Data: part.InlineData.Data}, nil
		}
	}
	return Image{}, ErrNoImage
}

func geminiBlocked(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return fmt.Errorf("%w: prompt blocked (%s)", ErrBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	switch reason := resp.Candidates[0].FinishReason; reason {
	case genai.FinishReasonSafety, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent:
		return fmt.Errorf("%w: response blocked (%s)", ErrBlocked, reason)
	}
	return nil
}

func geminiParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return nil
	}
	return c.Content.Parts
}
