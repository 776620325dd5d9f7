package ai

import "context"

// Chat message roles understood by the executor.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries the fully resolved parameters for one prompt execution.
type Request struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	Temperature    float64   `json:"temperature"`
	MaxTokens      int       `json:"max_tokens"`
	ResponseFormat *string   `json:"response_format,omitempty"`
}

// Usage reports token consumption for one execution.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the provider's answer to one prompt execution.
type Result struct {
	Content      string `json:"content"`
	Usage        Usage  `json:"usage"`
	FinishReason string `json:"finish_reason"`
}

// Executor sends one assembled prompt to an LLM provider.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}
