package editloop

import (
	"encoding/json"
	"testing"

	"github.com/martinemde/redline/unifiedllm"
)

func assistantTurnWithCalls(calls ...unifiedllm.ToolCall) Turn {
	return NewAssistantTurn("", calls, unifiedllm.Usage{}, "")
}

func call(name, args string) unifiedllm.ToolCall {
	return unifiedllm.ToolCall{ID: "call_x", Name: name, Arguments: json.RawMessage(args)}
}

func TestDetectRepeatedCallsSinglePattern(t *testing.T) {
	history := []Turn{
		assistantTurnWithCalls(call("edit", `{"search": "a"}`)),
		assistantTurnWithCalls(call("edit", `{"search": "a"}`)),
		assistantTurnWithCalls(call("edit", `{"search": "a"}`)),
	}
	if !DetectRepeatedCalls(history, 3) {
		t.Error("expected detection of identical repeated calls")
	}
}

func TestDetectRepeatedCallsAlternatingPattern(t *testing.T) {
	history := []Turn{
		assistantTurnWithCalls(call("edit", `{"search": "a"}`)),
		assistantTurnWithCalls(call("read", `{}`)),
		assistantTurnWithCalls(call("edit", `{"search": "a"}`)),
		assistantTurnWithCalls(call("read", `{}`)),
	}
	if !DetectRepeatedCalls(history, 4) {
		t.Error("expected detection of an alternating two-call pattern")
	}
}

func TestDetectRepeatedCallsDistinctArguments(t *testing.T) {
	history := []Turn{
		assistantTurnWithCalls(call("edit", `{"search": "a"}`)),
		assistantTurnWithCalls(call("edit", `{"search": "b"}`)),
		assistantTurnWithCalls(call("edit", `{"search": "c"}`)),
	}
	if DetectRepeatedCalls(history, 3) {
		t.Error("distinct arguments must not trigger detection")
	}
}

func TestDetectRepeatedCallsTooFewCalls(t *testing.T) {
	history := []Turn{
		assistantTurnWithCalls(call("edit", `{"search": "a"}`)),
	}
	if DetectRepeatedCalls(history, 6) {
		t.Error("a short history must not trigger detection")
	}
}

func TestDetectRepeatedCallsIgnoresNonAssistantTurns(t *testing.T) {
	history := []Turn{
		assistantTurnWithCalls(call("edit", `{"search": "a"}`)),
		NewUserTurn("try again"),
		assistantTurnWithCalls(call("edit", `{"search": "a"}`)),
		NewToolResultsTurn(nil),
		assistantTurnWithCalls(call("edit", `{"search": "a"}`)),
	}
	if !DetectRepeatedCalls(history, 3) {
		t.Error("interleaved non-assistant turns must not hide repetition")
	}
}
