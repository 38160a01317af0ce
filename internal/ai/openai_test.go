package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAITestServer(t *testing.T, handler http.HandlerFunc) *OpenAIGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return newOpenAIGeneratorWithConfig(cfg, "gpt-4o-mini", "dall-e-3")
}

func TestOpenAIGenerateText(t *testing.T) {
	var got openai.ChatCompletionRequest
	gen := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hello Riya"},"finish_reason":"stop"}]}`))
	})

	text, err := gen.GenerateText(context.Background(), TextRequest{System: "be nice", Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "Hello Riya", text)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "hi", got.Messages[1].Content)
}

func TestOpenAIContentFilterIsBlocked(t *testing.T) {
	gen := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"content_filter"}]}`))
	})

	_, err := gen.GenerateText(context.Background(), TextRequest{Prompt: "hi"})
	assert.True(t, errors.Is(err, ErrBlocked))
}

func TestOpenAIGenerateImage(t *testing.T) {
	gen := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"b64_json":"aGVsbG8="}]}`))
	})

	img, err := gen.GenerateImage(context.Background(), "a cat")

	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, []byte("hello"), img.Data)
}

func TestOpenAIEmptyImageResponse(t *testing.T) {
	gen := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	})

	_, err := gen.GenerateImage(context.Background(), "a cat")
	assert.ErrorIs(t, err, ErrNoImage)
}
