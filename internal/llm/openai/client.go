package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"shoppa-backend/internal/llm"
	"shoppa-backend/internal/shared/telemetry"
)

const defaultMaxToolRounds = 3

// Options configures one OpenAI-compatible backend. Gemini, OpenAI and local
// llama.cpp servers all speak this protocol; BaseURL selects which.
type Options struct {
	Name       string
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Client over the Chat Completions API.
type Client struct {
	name  string
	model string
	api   oai.Client
}

// NewClient constructs a client. Retries are disabled: provider failover is
// decided by the caller.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("model is required for provider %q", opts.Name)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("api key is required for provider %q", opts.Name)
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = "openai"
	}
	return &Client{
		name:  name,
		model: opts.Model,
		api:   oai.NewClient(reqOpts...),
	}, nil
}

// Name returns the provider label used in logs.
func (c *Client) Name() string { return c.name }

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Generate runs a schema-constrained completion, servicing tool calls until
// the model produces content.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(req.System),
			oai.UserMessage(req.User),
		},
	}
	if req.Schema.Definition != nil {
		params.ResponseFormat = oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &oai.ResponseFormatJSONSchemaParam{
				JSONSchema: oai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.Schema.Name,
					Description: oai.String(req.Schema.Description),
					Schema:      req.Schema.Definition,
					Strict:      oai.Bool(true),
				},
			},
		}
	}
	if req.Temperature != nil && supportsTemperature(c.model) {
		params.Temperature = oai.Float(*req.Temperature)
	}
	for _, t := range req.Tools {
		params.Tools = append(params.Tools, oai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: oai.String(t.Description),
			Parameters:  shared.FunctionParameters(toolParameters(t.Parameters)),
		}))
	}

	maxRounds := req.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxToolRounds
	}

	if req.RequiredTool != "" {
		params.ToolChoice = oai.ChatCompletionToolChoiceOptionUnionParam{
			OfFunctionToolChoice: &oai.ChatCompletionNamedToolChoiceParam{
				Function: oai.ChatCompletionNamedToolChoiceFunctionParam{Name: req.RequiredTool},
			},
		}
	}

	var out llm.Response
	for round := 0; ; round++ {
		completion, err := c.api.Chat.Completions.New(ctx, params)
		params.ToolChoice = oai.ChatCompletionToolChoiceOptionUnionParam{}
		if err != nil {
			return llm.Response{}, c.wrapError(err)
		}
		out.Model = completion.Model
		out.Usage.PromptTokens += completion.Usage.PromptTokens
		out.Usage.CompletionTokens += completion.Usage.CompletionTokens
		out.Usage.TotalTokens += completion.Usage.TotalTokens
		if len(completion.Choices) == 0 {
			return llm.Response{}, fmt.Errorf("%s: response missing choices: %w", c.name, llm.ErrEmptyResponse)
		}
		msg := completion.Choices[0].Message

		if len(msg.ToolCalls) == 0 {
			content := stripCodeFence(msg.Content)
			if content == "" {
				if msg.Refusal != "" {
					return llm.Response{}, fmt.Errorf("%s: model refused: %s: %w", c.name, msg.Refusal, llm.ErrEmptyResponse)
				}
				return llm.Response{}, fmt.Errorf("%s: %w", c.name, llm.ErrEmptyResponse)
			}
			out.Content = json.RawMessage(content)
			logUsage(c.name, c.model, out)
			return out, nil
		}

		if round >= maxRounds {
			return llm.Response{}, fmt.Errorf("%s: %w after %d rounds", c.name, llm.ErrToolLoop, round)
		}
		params.Messages = append(params.Messages, msg.ToParam())
		for _, call := range msg.ToolCalls {
			out.ToolCalls++
			result := c.runTool(ctx, req.Tools, call.Function.Name, call.Function.Arguments)
			params.Messages = append(params.Messages, oai.ToolMessage(result, call.ID))
		}
	}
}

func (c *Client) runTool(ctx context.Context, tools []llm.Tool, name, args string) string {
	tool, ok := llm.FindTool(tools, name)
	if !ok || tool.Handler == nil {
		telemetry.Warn("llm.tool.unknown", map[string]any{"provider": c.name, "tool": name})
		return errorPayload(fmt.Errorf("%w: %s", llm.ErrUnknownTool, name))
	}
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	result, err := tool.Handler(ctx, json.RawMessage(args))
	if err != nil {
		telemetry.Warn("llm.tool.failed", map[string]any{"provider": c.name, "tool": name, "error": err})
		return errorPayload(err)
	}
	return result
}

func (c *Client) wrapError(err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: http status %d: %w", c.name, apiErr.StatusCode, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request timeout: %w", c.name, err)
	}
	return fmt.Errorf("%s: %w", c.name, err)
}

func toolParameters(params map[string]any) map[string]any {
	if params != nil {
		return params
	}
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}

func errorPayload(err error) string {
	raw, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(raw)
}

// stripCodeFence removes a ```json fence some compatible backends add even in
// structured-output mode.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimPrefix(content, "json")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// supportsTemperature is false for reasoning models that reject the parameter.
func supportsTemperature(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, "gpt-5"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return false
	default:
		return true
	}
}

func logUsage(provider, model string, resp llm.Response) {
	telemetry.Info("llm.response", map[string]any{
		"provider":          provider,
		"model":             model,
		"response_model":    resp.Model,
		"tool_calls":        resp.ToolCalls,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
	})
}

var _ llm.Client = (*Client)(nil)
