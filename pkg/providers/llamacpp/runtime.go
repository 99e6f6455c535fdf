package llamacpp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter/usage"
)

// DefaultServerURL is where llama-server listens by default.
const DefaultServerURL = "http://localhost:8080"

// Turn is one ChatML message handed to the runtime. Roles are limited to
// system, user and assistant.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is a raw inference call.
type GenerateRequest struct {
	Turns       []Turn
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Generation is the raw model output.
type Generation struct {
	Text  string
	Usage usage.TokenCount
}

// Runtime performs raw text inference over a ChatML conversation. It knows
// nothing about tools.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (Generation, error)
}

// RuntimeFunc adapts a function to the Runtime interface.
type RuntimeFunc func(ctx context.Context, req GenerateRequest) (Generation, error)

// Generate calls f.
func (f RuntimeFunc) Generate(ctx context.Context, req GenerateRequest) (Generation, error) {
	return f(ctx, req)
}

// ServerRuntime runs inference on a llama.cpp server through its
// OpenAI-compatible chat endpoint. Tools are never sent.
type ServerRuntime struct {
	modeladapter.ModelAdapter
}

var _ Runtime = (*ServerRuntime)(nil)

// NewServerRuntime creates a runtime for the llama.cpp server at baseURL.
// model is informational; the server answers with whatever it has loaded.
func NewServerRuntime(baseURL, model string, client *http.Client) *ServerRuntime {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}

	r := &ServerRuntime{}
	r.BaseURL = strings.TrimRight(baseURL, "/")
	r.Client = client
	r.Name = model

	return r
}

type serverRequest struct {
	Model       string  `json:"model,omitempty"`
	Messages    []Turn  `json:"messages"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Stream      bool    `json:"stream"`
}

type serverResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate implements Runtime.
func (r *ServerRuntime) Generate(ctx context.Context, req GenerateRequest) (Generation, error) {
	body := serverRequest{
		Model:       r.Name,
		Messages:    req.Turns,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
	}

	var resp serverResponse
	if err := r.PostJSON(ctx, "/v1/chat/completions", body, &resp); err != nil {
		return Generation{}, fmt.Errorf("llama server: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Generation{}, fmt.Errorf("llama server: %w", errors.New("empty choices in response"))
	}

	tc := usage.TokenCount{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	r.Usage.Add(tc)

	return Generation{Text: resp.Choices[0].Message.Content, Usage: tc}, nil
}
