package editloop

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/martinemde/redline/unifiedllm"
)

// SessionState represents the current lifecycle state of a session.
type SessionState string

const (
	StateIdle             SessionState = "idle"
	StateAwaitingResponse SessionState = "awaiting_response"
	StateStreaming        SessionState = "streaming"
	StateDispatching      SessionState = "dispatching"
	StateClosed           SessionState = "closed"
)

// SessionConfig holds configuration for a session.
type SessionConfig struct {
	Provider              string `json:"provider,omitempty"` // "openai" or "google"
	Model                 string `json:"model,omitempty"`
	MaxToolRoundsPerInput int    `json:"max_tool_rounds_per_input"`
	ToolOutputLimit       int    `json:"tool_output_limit"`
	EnableRepeatDetection bool   `json:"enable_repeat_detection"`
	RepeatDetectionWindow int    `json:"repeat_detection_window"`
}

// DefaultSessionConfig returns the default configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxToolRoundsPerInput: 50,
		ToolOutputLimit:       DefaultToolOutputLimit,
		EnableRepeatDetection: true,
		RepeatDetectionWindow: 6,
	}
}

// Session binds one document Buffer to one agent loop. It owns the
// conversation history, seeds it with the initial task prompt, drives the
// multi-turn loop against the model, and dispatches emitted tool calls
// against the editor tool registry. One session serves one human-initiated
// request through completion, including all feedback turns.
type Session struct {
	id       string
	buffer   *Buffer
	registry *ToolRegistry
	history  []Turn
	emitter  *EventEmitter
	config   SessionConfig
	state    SessionState
	client   *unifiedllm.Client
	started  bool
	mu       sync.Mutex
}

// NewSession creates a session for the given buffer and LLM client. The
// editor tools (edit, read) are registered on a fresh registry.
func NewSession(buffer *Buffer, client *unifiedllm.Client, config *SessionConfig) *Session {
	sessionID := uuid.New().String()

	cfg := DefaultSessionConfig()
	if config != nil {
		cfg = *config
	}

	registry := NewToolRegistry()
	RegisterEditorTools(registry)

	return &Session{
		id:       sessionID,
		buffer:   buffer,
		registry: registry,
		history:  make([]Turn, 0),
		emitter:  NewEventEmitter(sessionID, 256),
		config:   cfg,
		state:    StateIdle,
		client:   client,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Buffer returns the document buffer owned by this session.
func (s *Session) Buffer() *Buffer { return s.buffer }

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a copy of the conversation history.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := make([]Turn, len(s.history))
	copy(h, s.history)
	return h
}

// Events returns the event channel for the host application.
func (s *Session) Events() <-chan SessionEvent {
	return s.emitter.Events()
}

// Close terminates the session and closes the event channel.
func (s *Session) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	s.emitter.Emit(EventSessionEnd, map[string]interface{}{
		"state": string(StateClosed),
	})
	s.emitter.Close()
}

// Submit starts the session with the human's initial edit request. The
// conversation is seeded with a task prompt embedding the document's current
// text and the request, then the loop runs until the model stops emitting
// tool calls.
func (s *Session) Submit(ctx context.Context, request string) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return fmt.Errorf("session is closed")
	}
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("session already started; use Feedback for follow-up turns")
	}
	s.started = true
	s.history = append(s.history, NewUserTurn(BuildTaskPrompt(s.buffer.Contents(), request)))
	s.mu.Unlock()

	s.emitter.Emit(EventSessionStart, nil)
	s.emitter.Emit(EventUserInput, map[string]interface{}{"content": request})
	return s.run(ctx)
}

// Feedback appends a new user message to the existing conversation and
// re-enters the loop. History, including all prior tool calls and results,
// is preserved so the model has full context of its previous edits.
func (s *Session) Feedback(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return fmt.Errorf("session is closed")
	}
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("session not started; call Submit first")
	}
	s.history = append(s.history, NewUserTurn(text))
	s.mu.Unlock()

	s.emitter.Emit(EventUserInput, map[string]interface{}{"content": text})
	return s.run(ctx)
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// run is the agent loop. Each iteration sends the full history to the model,
// streams the response, and either dispatches the emitted tool calls and
// loops again, or returns control to the caller when a turn ends with zero
// tool calls. Transport failures are not retried here; they propagate.
func (s *Session) run(ctx context.Context) error {
	roundCount := 0

	for {
		s.mu.Lock()
		maxRounds := s.config.MaxToolRoundsPerInput
		s.mu.Unlock()

		if maxRounds > 0 && roundCount >= maxRounds {
			s.emitter.Emit(EventTurnLimit, map[string]interface{}{"round": roundCount})
			break
		}

		select {
		case <-ctx.Done():
			s.setState(StateIdle)
			s.emitter.Emit(EventError, map[string]interface{}{"error": ctx.Err().Error()})
			return ctx.Err()
		default:
		}

		response, err := s.streamOneTurn(ctx)
		if err != nil {
			s.setState(StateIdle)
			s.emitter.Emit(EventError, map[string]interface{}{"error": err.Error()})
			return err
		}

		toolCalls := response.ToolCallsFromResponse()
		s.mu.Lock()
		s.history = append(s.history, NewAssistantTurn(response.Text(), toolCalls, response.Usage, response.ID))
		s.mu.Unlock()

		s.emitter.Emit(EventAssistantTextEnd, map[string]interface{}{
			"text": response.Text(),
		})

		// Zero tool calls ends the turn; control returns to the human.
		if len(toolCalls) == 0 {
			break
		}

		s.setState(StateDispatching)
		roundCount++
		results := s.dispatchToolCalls(toolCalls)
		s.mu.Lock()
		s.history = append(s.history, NewToolResultsTurn(results))
		enableRepeat := s.config.EnableRepeatDetection
		repeatWindow := s.config.RepeatDetectionWindow
		historyCopy := make([]Turn, len(s.history))
		copy(historyCopy, s.history)
		s.mu.Unlock()

		if enableRepeat && DetectRepeatedCalls(historyCopy, repeatWindow) {
			note := fmt.Sprintf("The last %d tool calls repeat the same arguments. Re-read the document and try a different edit.", repeatWindow)
			s.mu.Lock()
			s.history = append(s.history, NewSystemTurn(note))
			s.mu.Unlock()
			s.emitter.Emit(EventRepeatWarning, map[string]interface{}{"message": note})
		}
	}

	s.setState(StateIdle)
	s.emitter.Emit(EventSessionEnd, map[string]interface{}{"state": string(StateIdle)})
	return nil
}

// streamOneTurn sends one request and consumes the response stream, emitting
// text deltas as they arrive. It returns the finalized response carried by
// the stream's finish event.
func (s *Session) streamOneTurn(ctx context.Context) (*unifiedllm.Response, error) {
	s.setState(StateAwaitingResponse)

	s.mu.Lock()
	messages := append([]unifiedllm.Message{unifiedllm.SystemMessage(systemPrompt)},
		ConvertHistoryToMessages(s.history)...)
	request := unifiedllm.Request{
		Model:      s.config.Model,
		Provider:   s.config.Provider,
		Messages:   messages,
		ToolDefs:   s.toolDefs(),
		ToolChoice: &unifiedllm.ToolChoice{Mode: "auto"},
	}
	s.mu.Unlock()

	events, err := s.client.Stream(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}

	s.setState(StateStreaming)

	var response *unifiedllm.Response
	for event := range events {
		switch event.Type {
		case unifiedllm.TextStart:
			s.emitter.Emit(EventAssistantTextStart, nil)
		case unifiedllm.TextDelta:
			s.emitter.Emit(EventAssistantTextDelta, map[string]interface{}{
				"delta": event.Delta,
			})
		case unifiedllm.StreamError:
			return nil, fmt.Errorf("model stream failed: %w", event.Error)
		case unifiedllm.StreamFinish:
			response = event.Response
		}
	}

	if response == nil {
		return nil, fmt.Errorf("model stream ended without a finish event")
	}
	return response, nil
}

func (s *Session) toolDefs() []unifiedllm.ToolDefinition {
	defs := s.registry.Definitions()
	sdkDefs := make([]unifiedllm.ToolDefinition, len(defs))
	for i, d := range defs {
		sdkDefs[i] = unifiedllm.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		}
	}
	return sdkDefs
}

// dispatchToolCalls executes every tool call of one turn sequentially in
// emission order. The buffer sees mutations in a fixed, reproducible order;
// there is deliberately no parallel dispatch.
func (s *Session) dispatchToolCalls(toolCalls []unifiedllm.ToolCall) []unifiedllm.ToolResult {
	results := make([]unifiedllm.ToolResult, len(toolCalls))
	for i, tc := range toolCalls {
		results[i] = s.dispatchToolCall(tc)
	}
	return results
}

// dispatchToolCall runs a single tool call through the registry. Every
// failure mode, including a panicking executor, becomes an error tool
// result; dispatch never aborts the loop.
func (s *Session) dispatchToolCall(toolCall unifiedllm.ToolCall) (result unifiedllm.ToolResult) {
	s.emitter.Emit(EventToolCallStart, map[string]interface{}{
		"tool_name": toolCall.Name,
		"call_id":   toolCall.ID,
	})

	errorResult := func(msg string) unifiedllm.ToolResult {
		s.emitter.Emit(EventToolCallEnd, map[string]interface{}{
			"call_id": toolCall.ID,
			"error":   msg,
		})
		return unifiedllm.ToolResult{
			ToolCallID: toolCall.ID,
			Content:    msg,
			IsError:    true,
		}
	}

	defer func() {
		if r := recover(); r != nil {
			ierr := &InternalToolError{Tool: toolCall.Name, Err: fmt.Errorf("panic: %v", r)}
			result = errorResult(ierr.Error())
		}
	}()

	registered := s.registry.Get(toolCall.Name)
	if registered == nil {
		ierr := &InternalToolError{Tool: toolCall.Name, Err: fmt.Errorf("unknown tool")}
		return errorResult(ierr.Error())
	}

	before := s.buffer.Contents()
	output, err := registered.Executor(toolCall.Arguments, s.buffer)
	if err != nil {
		return errorResult(err.Error())
	}

	if after := s.buffer.Contents(); after != before {
		s.emitter.Emit(EventDocumentEdited, map[string]interface{}{
			"call_id": toolCall.ID,
			"before":  before,
			"after":   after,
		})
	}

	s.mu.Lock()
	limit := s.config.ToolOutputLimit
	s.mu.Unlock()

	s.emitter.Emit(EventToolCallEnd, map[string]interface{}{
		"call_id": toolCall.ID,
		"output":  output,
	})

	return unifiedllm.ToolResult{
		ToolCallID: toolCall.ID,
		Content:    TruncateToolOutput(output, limit),
		IsError:    false,
	}
}
