package editloop

import (
	"encoding/json"
	"fmt"
	"sync"
)

// ToolExecutor is the function signature for tool execution. It receives the
// raw tool call arguments and the session's document buffer.
type ToolExecutor func(arguments json.RawMessage, buf *Buffer) (string, error)

// ToolDefinition describes a tool for the LLM (serializable metadata).
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// RegisteredTool pairs a tool definition with its executor.
type RegisteredTool struct {
	Definition ToolDefinition
	Executor   ToolExecutor
}

// ToolRegistry manages tool registration and lookup.
type ToolRegistry struct {
	tools map[string]*RegisteredTool
	names []string
	mu    sync.RWMutex
}

// NewToolRegistry creates an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]*RegisteredTool),
	}
}

// Register adds or replaces a tool in the registry.
func (r *ToolRegistry) Register(tool RegisteredTool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Definition.Name]; !exists {
		r.names = append(r.names, tool.Definition.Name)
	}
	r.tools[tool.Definition.Name] = &tool
}

// Get returns a registered tool by name, or nil if not found.
func (r *ToolRegistry) Get(name string) *RegisteredTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Definitions returns all tool definitions in registration order (for
// sending to the LLM).
func (r *ToolRegistry) Definitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ToolDefinition, 0, len(r.names))
	for _, name := range r.names {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Names returns the names of all registered tools in registration order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// documentDelimiter wraps read output so the model can tell document text
// apart from surrounding conversation.
const (
	documentOpen  = "<document>"
	documentClose = "</document>"
)

// RegisterEditorTools registers the editor capability set on a ToolRegistry:
// the occurrence-exact edit tool and the read tool.
func RegisterEditorTools(reg *ToolRegistry) {
	registerEdit(reg)
	registerRead(reg)
}

func registerEdit(reg *ToolRegistry) {
	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "edit",
			Description: "Replace exact occurrences of a string in the document. The search string is matched literally and is whitespace-sensitive. The call fails unless the number of occurrences in the document equals the occurrences argument, so include enough surrounding context to make the match unambiguous.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"search": map[string]interface{}{
						"type":        "string",
						"description": "Exact text to find. Must not be empty.",
					},
					"replace": map[string]interface{}{
						"type":        "string",
						"description": "Replacement text. May be empty to delete the match.",
					},
					"occurrences": map[string]interface{}{
						"type":        "integer",
						"description": "Expected number of occurrences of the search text. Default: 1.",
					},
				},
				"required": []string{"search", "replace"},
			},
		},
		Executor: func(arguments json.RawMessage, buf *Buffer) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			search, ok := GetStringArg(args, "search")
			if !ok {
				return "", fmt.Errorf("search is required")
			}
			replace, ok := GetStringArg(args, "replace")
			if !ok {
				return "", fmt.Errorf("replace is required")
			}
			occurrences, ok := GetIntArg(args, "occurrences")
			if !ok {
				occurrences = 1
			}

			n, err := buf.Replace(search, replace, occurrences)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Replaced %d occurrence(s).", n), nil
		},
	})
}

func registerRead(reg *ToolRegistry) {
	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "read",
			Description: "Return the full current document contents. Use this to re-inspect the document after edits instead of relying on stale context.",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		Executor: func(_ json.RawMessage, buf *Buffer) (string, error) {
			return documentOpen + "\n" + buf.Contents() + "\n" + documentClose, nil
		},
	})
}

// ParseToolArguments unmarshals tool call arguments into a map for
// validation and access.
func ParseToolArguments(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

// GetStringArg extracts a string argument from parsed tool arguments.
func GetStringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetIntArg extracts an integer argument from parsed tool arguments.
func GetIntArg(args map[string]interface{}, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
