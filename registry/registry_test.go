package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/tool"
)

func newTool(name string, opts ...tool.FunctionToolOption) *tool.FunctionTool {
	return tool.NewFunctionTool(name, "test tool "+name, tool.Schema{},
		func(_ context.Context, _ map[string]any) (string, error) {
			return name + "-payload", nil
		}, opts...)
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterTool(newTool("alpha")))
	require.NoError(t, r.RegisterTool(newTool("beta")))
	require.NoError(t, r.Freeze())

	entry, err := r.Resolve("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", entry.Name())
	assert.True(t, entry.SideEffectFree)

	_, err = r.Resolve("gamma")
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "gamma", nf.Name)
	assert.Equal(t, []string{"alpha", "beta"}, nf.Available)
}

func TestRegistry_DuplicateNames(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterTool(newTool("alpha")))
	assert.Error(t, r.RegisterTool(newTool("alpha")))

	cap := tool.NewCapability("alpha", "collides with a tool", tool.Schema{},
		tool.CapabilityStep{Tool: "alpha"})
	assert.Error(t, r.RegisterCapability(cap))
}

func TestRegistry_FrozenRejectsRegistration(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterTool(newTool("alpha")))
	require.NoError(t, r.Freeze())
	assert.True(t, r.Frozen())

	assert.Error(t, r.RegisterTool(newTool("beta")))
	cap := tool.NewCapability("combo", "late capability", tool.Schema{},
		tool.CapabilityStep{Tool: "alpha"})
	assert.Error(t, r.RegisterCapability(cap))
}

func TestRegistry_FreezeVerifiesConstituents(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterTool(newTool("alpha")))
	cap := tool.NewCapability("combo", "references a missing tool", tool.Schema{},
		tool.CapabilityStep{Tool: "alpha"},
		tool.CapabilityStep{Tool: "missing"})
	require.NoError(t, r.RegisterCapability(cap))

	err := r.Freeze()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestRegistry_CapabilitySideEffectDerivation(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterTool(newTool("pure")))
	require.NoError(t, r.RegisterTool(newTool("writer", tool.WithSideEffects())))

	pureCap := tool.NewCapability("pure_combo", "only pure steps", tool.Schema{},
		tool.CapabilityStep{Tool: "pure"})
	mixedCap := tool.NewCapability("mixed_combo", "one effectful step", tool.Schema{},
		tool.CapabilityStep{Tool: "pure"},
		tool.CapabilityStep{Tool: "writer"})
	require.NoError(t, r.RegisterCapability(pureCap))
	require.NoError(t, r.RegisterCapability(mixedCap))
	require.NoError(t, r.Freeze())

	entry, err := r.Resolve("pure_combo")
	require.NoError(t, err)
	assert.True(t, entry.SideEffectFree)

	entry, err = r.Resolve("mixed_combo")
	require.NoError(t, err)
	assert.False(t, entry.SideEffectFree)
}

func TestRegistry_Entries(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterTool(newTool("beta")))
	require.NoError(t, r.RegisterTool(newTool("alpha")))
	require.NoError(t, r.Freeze())

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "alpha", entries[0].Name())
	assert.Equal(t, "beta", entries[1].Name())
	assert.Equal(t, "test tool alpha", entries[0].Description())
}
