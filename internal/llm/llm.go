package llm

import (
	"context"
	"fmt"

	"github.com/comigor/darshini/internal/config"
	"github.com/sashabaranov/go-openai"
)

// OpenAIClient streams chat completions from any OpenAI-compatible endpoint.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewClient creates a new OpenAI client
func NewClient(cfg config.LLMConfig) *OpenAIClient {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(config),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Stream opens a streaming chat completion over messages.
func (c *OpenAIClient) Stream(ctx context.Context, messages []Message) (Stream, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Stream:      true,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	s, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("open completion stream: %w", err)
	}
	return &openAIStream{stream: s}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAIStream) Recv() (Fragment, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return Fragment{}, err
	}
	if len(resp.Choices) == 0 {
		return Fragment{}, nil
	}

	choice := resp.Choices[0]
	f := Fragment{FinishReason: string(choice.FinishReason)}
	if choice.Delta.Content != "" {
		text := choice.Delta.Content
		f.Text = &text
	}
	return f, nil
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}
