package core

import "fmt"

// ActionType discriminates the variants an action parser can produce.
type ActionType int

const (
	// ActionFinalAnswer terminates the session with an answer for the user.
	ActionFinalAnswer ActionType = iota
	// ActionToolInvocation requests execution of a named tool or capability.
	ActionToolInvocation
	// ActionParsingError records reasoner output that matched no known shape.
	ActionParsingError
)

// String returns the string representation of the action type.
func (t ActionType) String() string {
	switch t {
	case ActionFinalAnswer:
		return "final_answer"
	case ActionToolInvocation:
		return "tool_invocation"
	case ActionParsingError:
		return "parsing_error"
	default:
		return "unknown"
	}
}

// ToolInvocation is a request to execute a named tool or capability with
// structured arguments. Arguments are whatever the reasoner supplied; schema
// validation happens at dispatch, not here.
type ToolInvocation struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// MaskFields returns the masking directive attached to the invocation, if
// any. The reasoner opts into output masking by passing a "mask_fields"
// argument listing column names; the security validator and the executing
// tool both consult it.
func (inv ToolInvocation) MaskFields() []string {
	raw, ok := inv.Args["mask_fields"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		fields := make([]string, 0, len(v))
		for _, f := range v {
			if s, ok := f.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	default:
		return nil
	}
}

// Action is the tagged variant produced by the action parser and consumed
// immediately by the agent loop. Exactly one of the variant fields is
// meaningful, selected by Type. Actions are never persisted.
type Action struct {
	Type ActionType

	// Thought is the reasoner's stated reasoning for this step, when present.
	Thought string

	// Answer carries the final answer text for ActionFinalAnswer.
	Answer string

	// Invocation carries the requested tool call for ActionToolInvocation.
	Invocation *ToolInvocation

	// RawText and Reason describe the offending output for ActionParsingError.
	RawText string
	Reason  string
}

// FinalAnswer constructs a terminating action.
func FinalAnswer(thought, answer string) Action {
	return Action{Type: ActionFinalAnswer, Thought: thought, Answer: answer}
}

// Invoke constructs a tool invocation action.
func Invoke(thought, tool string, args map[string]any) Action {
	if args == nil {
		args = map[string]any{}
	}
	return Action{
		Type:       ActionToolInvocation,
		Thought:    thought,
		Invocation: &ToolInvocation{Tool: tool, Args: args},
	}
}

// ParsingErrorf constructs a parsing-error action carrying the offending text
// and a human-readable reason the loop can feed back to the reasoner.
func ParsingErrorf(raw string, format string, args ...any) Action {
	return Action{
		Type:    ActionParsingError,
		RawText: raw,
		Reason:  fmt.Sprintf(format, args...),
	}
}

// Describe renders a short, loggable summary of the action.
func (a Action) Describe() string {
	switch a.Type {
	case ActionFinalAnswer:
		return "finish"
	case ActionToolInvocation:
		if a.Invocation != nil {
			return a.Invocation.Tool
		}
		return "tool_invocation"
	case ActionParsingError:
		return fmt.Sprintf("parsing_error: %s", a.Reason)
	default:
		return "unknown"
	}
}
