// Package ai talks to language-model providers for invoice text extraction,
// reminder drafting and dashboard insights.
package ai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/akarpov87/invoicehub/internal/errs"
)

// Provider names accepted in requests.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Default chat models per provider.
const (
	DefaultOpenAIModel = "gpt-4.1-mini"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// geminiBaseURL is Gemini's OpenAI-compatible endpoint, so both providers
// share one client implementation.
const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// Completer sends a single prompt to a language-model provider and returns
// the raw text of its reply. Implementations make exactly one call; there is
// no retry policy.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatClient is a Completer over an OpenAI-compatible chat completion API.
type ChatClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a ChatClient against the OpenAI API.
func NewOpenAIClient(apiKey, model string) *ChatClient {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &ChatClient{client: openai.NewClient(apiKey), model: model}
}

// NewGeminiClient builds a ChatClient against Gemini's OpenAI-compatible API.
func NewGeminiClient(apiKey, model string) *ChatClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = geminiBaseURL
	return &ChatClient{client: openai.NewClientWithConfig(cfg), model: model}
}

// NewChatClientWithDeps builds a ChatClient from an existing client, for tests.
func NewChatClientWithDeps(client *openai.Client, model string) *ChatClient {
	return &ChatClient{client: client, model: model}
}

// Complete performs one chat completion round trip.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: provider returned no text", errs.ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}
