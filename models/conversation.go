package models

// Conversation roles for the agent tool loop.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn is one entry in the agent conversation. Assistant turns may carry
// tool calls; tool turns carry the matching results.
type Turn struct {
	Role        string       `json:"role"`
	Content     string       `json:"content,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolCall is a capability invocation requested by the reasoning model.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult is the structured payload a tool execution feeds back into the
// conversation. Tool failures are reported inside the payload (an "error"
// key), never as run failures, so the model can react to them.
type ToolResult struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
}
