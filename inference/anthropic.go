package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/telistry/switchboard/core/fault"
	"github.com/telistry/switchboard/core/protocol"
)

// Client is the Anthropic Messages API backend. The system prompt template is
// loaded once at construction; per-turn context is rendered into it on every
// invocation.
type Client struct {
	cfg    Config
	api    anthropic.Client
	system string
}

// NewClient builds a Client from cfg. The API key is required; extra request
// options are appended after the configured ones, so tests can redirect the
// base URL.
func NewClient(cfg Config, apiKey string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, fault.NewConfiguration("anthropic api key is empty", nil)
	}
	system, err := LoadSystemPrompt(cfg.SystemPromptPath)
	if err != nil {
		return nil, fault.NewConfiguration("system prompt unavailable", err)
	}

	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(cfg.Timeout()),
	}
	options = append(options, opts...)

	return &Client{
		cfg:    cfg,
		api:    anthropic.NewClient(options...),
		system: system,
	}, nil
}

// Invoke generates one assistant reply. Tool definitions are offered only on
// the primary invocation; a follow-up carrying a tool round offers none, so
// the backend must answer in text.
func (c *Client) Invoke(ctx context.Context, req Request) (*Reply, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: BuildSystemPrompt(c.system, req.Context)}},
		Messages:  buildMessages(req),
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(c.cfg.Temperature)
	}
	if req.Round == nil && len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyErr(err)
	}
	return parseReply(msg)
}

// buildMessages converts the history window, plus the tool round when
// present, into API message params. Entries with no text are skipped; the API
// rejects empty content.
func buildMessages(req Request) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(req.History)+2)
	for _, m := range req.History {
		blocks := textBlocks(m)
		if len(blocks) == 0 {
			continue
		}
		if m.Role == protocol.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}
	if req.Round != nil {
		messages = append(messages, roundMessages(req.Round)...)
	}
	return messages
}

func textBlocks(m protocol.Message) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range m.Content {
		if part.Type != "text" || part.Text == "" {
			continue
		}
		blocks = append(blocks, anthropic.NewTextBlock(part.Text))
	}
	return blocks
}

// roundMessages replays one tool cycle: the assistant message that requested
// the calls, then a user message carrying the results. Results without their
// antecedent tool_use blocks are an API contract violation.
func roundMessages(round *ToolRound) []anthropic.MessageParam {
	assistant := make([]anthropic.ContentBlockParamUnion, 0, len(round.Calls)+1)
	if round.Text != "" {
		assistant = append(assistant, anthropic.NewTextBlock(round.Text))
	}
	for _, call := range round.Calls {
		assistant = append(assistant, anthropic.ContentBlockParamUnion{
			OfToolUse: &anthropic.ToolUseBlockParam{
				ID:    call.ID,
				Name:  call.Name,
				Input: json.RawMessage(call.Input),
			},
		})
	}

	results := make([]anthropic.ContentBlockParamUnion, 0, len(round.Results))
	for _, res := range round.Results {
		results = append(results, anthropic.ContentBlockParamUnion{
			OfToolResult: &anthropic.ToolResultBlockParam{
				ToolUseID: res.CallID,
				IsError:   anthropic.Bool(res.IsError),
				Content: []anthropic.ToolResultBlockParamContentUnion{
					{OfText: &anthropic.TextBlockParam{Text: res.Content}},
				},
			},
		})
	}

	return []anthropic.MessageParam{
		anthropic.NewAssistantMessage(assistant...),
		anthropic.NewUserMessage(results...),
	}
}

func buildTools(defs []protocol.Tool) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := def.InputSchema["properties"]; ok {
			schema.Properties = props
		}
		if required, ok := def.InputSchema["required"]; ok {
			schema.ExtraFields = map[string]any{"required": required}
		}

		tool := anthropic.ToolParam{
			Name:        def.Name,
			InputSchema: schema,
		}
		if def.Description != "" {
			tool.Description = anthropic.String(def.Description)
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return tools
}

// parseReply walks the response content blocks, concatenating text and
// collecting tool calls, then derives the action verdict.
func parseReply(msg *anthropic.Message) (*Reply, error) {
	var text strings.Builder
	var calls []protocol.ToolCall
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(variant.Text)
		case anthropic.ToolUseBlock:
			input, err := json.Marshal(variant.Input)
			if err != nil {
				return nil, fault.NewBackendFatal(fmt.Errorf("failed to decode input for tool %s: %w", variant.Name, err))
			}
			calls = append(calls, protocol.ToolCall{ID: variant.ID, Name: variant.Name, Input: input})
		}
	}

	stop := string(msg.StopReason)
	reply := &Reply{
		Text:       text.String(),
		ToolCalls:  calls,
		StopReason: stop,
	}
	reply.Action = DeriveAction(stop, calls, reply.Text)
	return reply, nil
}
