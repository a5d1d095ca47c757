package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrEmptyResponse means the provider answered without usable content.
	ErrEmptyResponse = errors.New("llm returned empty content")
	// ErrToolLoop means the model kept calling tools past the round limit.
	ErrToolLoop = errors.New("llm exceeded tool call rounds")
	// ErrUnknownTool means the model invoked a tool the request did not offer.
	ErrUnknownTool = errors.New("llm invoked unknown tool")
)

// Client abstracts a chat-completion provider with structured output.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is one schema-constrained generation.
type Request struct {
	System      string
	User        string
	Schema      Schema
	Tools       []Tool
	Temperature *float64
	// RequiredTool, when set, must be called in the first round. Later rounds
	// leave the choice to the model.
	RequiredTool string
	// MaxToolRounds bounds model->tool->model round trips; zero uses the default.
	MaxToolRounds int
}

// Schema names the JSON schema the response must satisfy.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Tool is a capability the model may invoke during one request. Handlers are
// request-scoped closures; they must not reach into shared mutable state.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     func(ctx context.Context, args json.RawMessage) (string, error)
}

// Response carries the raw JSON content produced by the model.
type Response struct {
	Content   json.RawMessage
	Model     string
	ToolCalls int
	Usage     Usage
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// FindTool returns the tool with the given name.
func FindTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
