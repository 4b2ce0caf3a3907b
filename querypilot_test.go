package querypilot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/model"
	"github.com/querypilot/querypilot/tool"
)

func echoTool() *tool.FunctionTool {
	return tool.NewFunctionTool("echo", "Echo the input message",
		tool.Schema{"message": {Type: "string", Required: true}},
		func(_ context.Context, args map[string]any) (string, error) {
			return args["message"].(string), nil
		})
}

func echoConfig(name string) core.AgentConfig {
	return core.AgentConfig{
		Name:           name,
		ReasoningModel: "mock",
		MaxIterations:  3,
		EnabledTools:   []string{"echo"},
		Security:       core.SecurityPolicy{AllowedTools: []string{"echo"}, Version: "v1"},
		Retry:          core.RetryPolicy{MaxAttempts: 1},
	}
}

func TestQueryPilot_EndToEnd(t *testing.T) {
	qp := New()
	require.NoError(t, qp.RegisterTool(echoTool()))
	require.NoError(t, qp.Freeze())

	m := model.NewMock("mock").Script(
		`{"thought": "echo it", "tool_call": {"name": "echo", "args": {"message": "hi"}}}`,
		`{"thought": "done", "tool_call": {"name": "finish", "args": {"answer": "It said hi."}}}`,
	)
	require.NoError(t, qp.AddAgent(echoConfig("echoer"), m))
	assert.Equal(t, []string{"echoer"}, qp.Agents())

	result, err := qp.Ask(context.Background(), "say hi")
	require.NoError(t, err)
	assert.Equal(t, "It said hi.", result.Answer)
}

func TestQueryPilot_LoadManifest(t *testing.T) {
	manifest := `
agents:
  - name: echoer
    reasoning_model: mock
    max_iterations: 3
    enabled_tools: [echo]
`
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	qp := New()
	require.NoError(t, qp.RegisterTool(echoTool()))
	require.NoError(t, qp.Freeze())

	resolve := func(name string) (model.Model, error) {
		if name != "mock" {
			return nil, fmt.Errorf("unknown model %q", name)
		}
		return model.NewMock("mock").Script(
			`{"tool_call": {"name": "finish", "args": {"answer": "loaded"}}}`,
		), nil
	}
	require.NoError(t, qp.LoadManifest(path, resolve))

	result, err := qp.Route(context.Background(), "echoer", "anything")
	require.NoError(t, err)
	assert.Equal(t, "loaded", result.Answer)

	err = qp.LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"), resolve)
	assert.Error(t, err)
}
