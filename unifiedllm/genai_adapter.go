package unifiedllm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// GenAIAdapter implements ProviderAdapter for the "google" provider using
// the Google Gen AI SDK. Unlike the gollm backend it surfaces native
// function calls, so tool calls arrive as structured parts rather than
// text to parse.
type GenAIAdapter struct {
	client *genai.Client
	model  string
}

// NewGenAIAdapter creates a Gemini-backed adapter. If model is empty the
// catalog's latest google model is used.
func NewGenAIAdapter(ctx context.Context, apiKey, model string) (*GenAIAdapter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if model == "" {
		if info := GetLatestModel("google"); info != nil {
			model = info.ID
		}
	}
	return &GenAIAdapter{client: client, model: model}, nil
}

// Name returns the provider identifier.
func (a *GenAIAdapter) Name() string { return "google" }

// Complete sends a blocking request and returns the full response.
func (a *GenAIAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	model, contents, config := a.translateRequest(req)

	resp, err := a.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, a.translateError(err)
	}

	return a.buildResponse(model, resp), nil
}

// Stream sends a request and returns a channel of stream events. Text parts
// are forwarded as deltas as they arrive; function call parts are surfaced
// as tool call events and collected into the finish event's response.
func (a *GenAIAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	model, contents, config := a.translateRequest(req)

	streamCtx, cancel := context.WithCancel(ctx)
	iter := a.client.Models.GenerateContentStream(streamCtx, model, contents, config)

	ch := make(chan StreamEvent, 64)

	go func() {
		defer close(ch)
		defer cancel()

		ch <- StreamEvent{Type: StreamStart}

		textID := "text_0"
		started := false
		var fullText strings.Builder
		var toolCalls []ToolCall
		var usage Usage

		for resp, err := range iter {
			if err != nil {
				ch <- StreamEvent{Type: StreamError, Error: a.translateError(err)}
				return
			}
			if resp == nil {
				continue
			}
			if resp.UsageMetadata != nil {
				usage = usageFromMetadata(resp.UsageMetadata)
			}

			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if part.Text != "" && !part.Thought {
						if !started {
							ch <- StreamEvent{Type: TextStart, TextID: textID}
							started = true
						}
						ch <- StreamEvent{Type: TextDelta, Delta: part.Text, TextID: textID}
						fullText.WriteString(part.Text)
					}
					if part.FunctionCall != nil {
						call, err := toolCallFromFunctionCall(part.FunctionCall)
						if err != nil {
							ch <- StreamEvent{Type: StreamError, Error: err}
							return
						}
						toolCalls = append(toolCalls, call)
						c := call
						ch <- StreamEvent{Type: ToolCallStart, ToolCall: &c}
						ch <- StreamEvent{Type: ToolCallEnd, ToolCall: &c}
					}
				}
			}
		}

		if started {
			ch <- StreamEvent{Type: TextEnd, TextID: textID}
		}

		resp := a.assembleResponse(model, fullText.String(), toolCalls, usage)
		ch <- StreamEvent{
			Type:         StreamFinish,
			FinishReason: &resp.FinishReason,
			Usage:        &resp.Usage,
			Response:     resp,
		}
	}()

	return ch, nil
}

// translateRequest converts a unified Request into genai call arguments.
func (a *GenAIAdapter) translateRequest(req Request) (string, []*genai.Content, *genai.GenerateContentConfig) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	var systemInstruction *genai.Content
	var contents []*genai.Content
	toolNames := make(map[string]string) // tool call ID -> name

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			text := msg.TextContent()
			if systemInstruction == nil {
				systemInstruction = &genai.Content{Parts: []*genai.Part{{Text: text}}}
			} else {
				systemInstruction.Parts = append(systemInstruction.Parts, &genai.Part{Text: text})
			}
		case RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.TextContent()}},
			})
		case RoleAssistant:
			var parts []*genai.Part
			if text := msg.TextContent(); text != "" {
				parts = append(parts, &genai.Part{Text: text})
			}
			for _, tc := range msg.ToolCalls() {
				toolNames[tc.ID] = tc.Name
				var args map[string]any
				_ = json.Unmarshal(tc.Arguments, &args)
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   tc.ID,
						Name: tc.Name,
						Args: args,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
		case RoleTool:
			var parts []*genai.Part
			for _, part := range msg.Content {
				if part.Kind != ContentToolResult || part.ToolResult == nil {
					continue
				}
				name := toolNames[part.ToolResult.ToolCallID]
				response := map[string]any{"result": part.ToolResult.Content}
				if part.ToolResult.IsError {
					response = map[string]any{"error": part.ToolResult.Content}
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       part.ToolResult.ToolCallID,
						Name:     name,
						Response: response,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "user", Parts: parts})
			}
		}
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		config.Temperature = &t
	}
	if req.MaxTokens != nil {
		config.MaxOutputTokens = int32(*req.MaxTokens)
	}

	if len(req.ToolDefs) > 0 {
		var decls []*genai.FunctionDeclaration
		for _, td := range req.ToolDefs {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 td.Name,
				Description:          td.Description,
				ParametersJsonSchema: td.Parameters,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	return model, contents, config
}

// buildResponse converts a blocking GenerateContent response.
func (a *GenAIAdapter) buildResponse(model string, resp *genai.GenerateContentResponse) *Response {
	var fullText strings.Builder
	var toolCalls []ToolCall
	var usage Usage

	if resp.UsageMetadata != nil {
		usage = usageFromMetadata(resp.UsageMetadata)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" && !part.Thought {
				fullText.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				if call, err := toolCallFromFunctionCall(part.FunctionCall); err == nil {
					toolCalls = append(toolCalls, call)
				}
			}
		}
	}

	return a.assembleResponse(model, fullText.String(), toolCalls, usage)
}

// assembleResponse builds the unified Response from accumulated parts.
func (a *GenAIAdapter) assembleResponse(model, text string, toolCalls []ToolCall, usage Usage) *Response {
	var contentParts []ContentPart
	if text != "" {
		contentParts = append(contentParts, TextPart(text))
	}
	for _, tc := range toolCalls {
		contentParts = append(contentParts, ToolCallPart(tc.ID, tc.Name, tc.Arguments))
	}
	if len(contentParts) == 0 {
		contentParts = []ContentPart{TextPart("")}
	}

	finishReason := FinishReason{Reason: "stop", Raw: "stop"}
	if len(toolCalls) > 0 {
		finishReason = FinishReason{Reason: "tool_calls", Raw: "tool_calls"}
	}

	return &Response{
		ID:       "resp_" + uuid.New().String()[:8],
		Model:    model,
		Provider: "google",
		Message: Message{
			Role:    RoleAssistant,
			Content: contentParts,
		},
		FinishReason: finishReason,
		Usage:        usage,
	}
}

func usageFromMetadata(md *genai.GenerateContentResponseUsageMetadata) Usage {
	return Usage{
		InputTokens:  int(md.PromptTokenCount),
		OutputTokens: int(md.CandidatesTokenCount),
		TotalTokens:  int(md.TotalTokenCount),
	}
}

func toolCallFromFunctionCall(fc *genai.FunctionCall) (ToolCall, error) {
	args, err := json.Marshal(fc.Args)
	if err != nil {
		return ToolCall{}, fmt.Errorf("invalid function call arguments: %w", err)
	}
	id := fc.ID
	if id == "" {
		id = "call_" + uuid.New().String()[:8]
	}
	return ToolCall{ID: id, Name: fc.Name, Arguments: args}, nil
}

// translateError maps genai errors into the unified error hierarchy.
func (a *GenAIAdapter) translateError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return ErrorFromStatusCode(apiErr.Code, apiErr.Message, "google", nil)
	}
	return &NetworkError{SDKError: SDKError{Message: err.Error(), Cause: err}}
}
