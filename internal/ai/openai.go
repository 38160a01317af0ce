package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator talks to OpenAI or any API compatible with it.
type OpenAIGenerator struct {
	client     *openai.Client
	textModel  string
	imageModel string
}

// NewOpenAIGenerator creates a client. An empty baseURL uses api.openai.com.
func NewOpenAIGenerator(apiKey, baseURL, textModel, imageModel string) (*OpenAIGenerator, error) {
	if apiKey == "" && baseURL == "" {
		return nil, errors.New("openai: api key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return newOpenAIGeneratorWithConfig(cfg, textModel, imageModel), nil
}

func newOpenAIGeneratorWithConfig(cfg openai.ClientConfig, textModel, imageModel string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:     openai.NewClientWithConfig(cfg),
		textModel:  textModel,
		imageModel: imageModel,
	}
}

func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.Image != nil {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    req.Image.DataURI(),
				Detail: openai.ImageURLDetailLow,
			}},
		}
	} else {
		user.Content = req.Prompt
	}
	messages = append(messages, user)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.textModel,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", fmt.Errorf("%w: content filter", ErrBlocked)
	}
	return choice.Message.Content, nil
}

func (g *OpenAIGenerator) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.imageModel,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == "content_policy_violation" {
			return Image{}, fmt.Errorf("%w: %s", ErrBlocked, apiErr.Message)
		}
		return Image{}, fmt.Errorf("openai: create image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return Image{}, ErrNoImage
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return Image{}, fmt.Errorf("openai: decode image: %w", err)
	}
	return Image{MIMEType: "image/png", Data: data}, nil
}
