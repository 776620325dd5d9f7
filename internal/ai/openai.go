package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIExecutor executes prompts against an OpenAI-compatible API.
type OpenAIExecutor struct {
	client *openai.Client
}

// NewOpenAIExecutor constructs an executor for the given credentials. An
// empty baseURL targets the official OpenAI endpoint.
func NewOpenAIExecutor(apiKey, baseURL string) *OpenAIExecutor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIExecutor{client: openai.NewClientWithConfig(cfg)}
}

// Execute sends one chat completion request and returns the first choice.
func (e *OpenAIExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	if e == nil || e.client == nil {
		return Result{}, fmt.Errorf("ai: executor not initialized")
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if req.ResponseFormat != nil && *req.ResponseFormat == "json" {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, errChat := e.client.CreateChatCompletion(ctx, chatReq)
	if errChat != nil {
		return Result{}, fmt.Errorf("ai: chat completion: %w", errChat)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("ai: chat completion returned no choices")
	}

	choice := resp.Choices[0]
	return Result{
		Content: choice.Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		FinishReason: string(choice.FinishReason),
	}, nil
}
