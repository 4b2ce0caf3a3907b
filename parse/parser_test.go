package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/registry"
	"github.com/querypilot/querypilot/tool"
)

func testCatalog(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	execSQL := tool.NewFunctionTool("execute_sql", "Run a SQL query",
		tool.Schema{
			"sql":   {Type: "string", Required: true},
			"limit": {Type: "integer", Default: 100},
		},
		func(_ context.Context, _ map[string]any) (string, error) { return "", nil })
	require.NoError(t, r.RegisterTool(execSQL))
	require.NoError(t, r.Freeze())
	return r
}

func TestParser_ToolInvocation(t *testing.T) {
	p := NewParser(testCatalog(t))

	action := p.Parse(`{"thought": "need the rows", "tool_call": {"name": "execute_sql", "args": {"sql": "SELECT 1"}}}`)

	require.Equal(t, core.ActionToolInvocation, action.Type)
	assert.Equal(t, "need the rows", action.Thought)
	assert.Equal(t, "execute_sql", action.Invocation.Tool)
	assert.Equal(t, "SELECT 1", action.Invocation.Args["sql"])
	assert.Equal(t, 100, action.Invocation.Args["limit"], "schema default applied")
}

func TestParser_FinalAnswer(t *testing.T) {
	p := NewParser(testCatalog(t))

	action := p.Parse(`{"thought": "done", "tool_call": {"name": "finish", "args": {"answer": "There are 42 orders."}}}`)

	require.Equal(t, core.ActionFinalAnswer, action.Type)
	assert.Equal(t, "There are 42 orders.", action.Answer)
}

func TestParser_FencedJSON(t *testing.T) {
	p := NewParser(testCatalog(t))

	text := "Here is my action:\n```json\n{\"tool_call\": {\"name\": \"execute_sql\", \"args\": {\"sql\": \"SELECT 1\"}}}\n```"
	action := p.Parse(text)

	require.Equal(t, core.ActionToolInvocation, action.Type)
	assert.Equal(t, "execute_sql", action.Invocation.Tool)
}

func TestParser_DirectCallShape(t *testing.T) {
	p := NewParser(testCatalog(t))

	action := p.Parse(`{"name": "execute_sql", "arguments": {"sql": "SELECT 1"}}`)

	require.Equal(t, core.ActionToolInvocation, action.Type)
	assert.Equal(t, "execute_sql", action.Invocation.Tool)
}

func TestParser_MalformedOutputs(t *testing.T) {
	p := NewParser(testCatalog(t))

	tests := []struct {
		name string
		text string
	}{
		{"plain prose", "I think I should look at the orders table."},
		{"empty", ""},
		{"truncated json", `{"tool_call": {"name": "exec`},
		{"no tool call", `{"thought": "hmm"}`},
		{"nameless call", `{"tool_call": {"args": {}}}`},
		{"finish without answer", `{"tool_call": {"name": "finish", "args": {}}}`},
		{"unknown tool", `{"tool_call": {"name": "drop_tables", "args": {}}}`},
		{"missing required arg", `{"tool_call": {"name": "execute_sql", "args": {}}}`},
		{"wrong arg type", `{"tool_call": {"name": "execute_sql", "args": {"sql": 7}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := p.Parse(tt.text)
			require.Equal(t, core.ActionParsingError, action.Type)
			assert.NotEmpty(t, action.Reason)
			assert.Equal(t, tt.text, action.RawText)
		})
	}
}

func TestParser_UnknownToolNamesAvailable(t *testing.T) {
	p := NewParser(testCatalog(t))

	action := p.Parse(`{"tool_call": {"name": "drop_tables", "args": {}}}`)

	require.Equal(t, core.ActionParsingError, action.Type)
	assert.Contains(t, action.Reason, "execute_sql")
}
