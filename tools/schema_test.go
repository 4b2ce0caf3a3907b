package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/core"
)

func introspectionFixture() StaticSchema {
	return StaticSchema{
		"orders":    {{Name: "id", Type: "INTEGER"}, {Name: "total", Type: "REAL"}},
		"customers": {{Name: "id", Type: "INTEGER"}, {Name: "email", Type: "TEXT"}},
	}
}

func TestListTablesTool(t *testing.T) {
	list := NewListTablesTool(introspectionFixture())

	result := list.Call(context.Background(), map[string]any{})

	require.True(t, result.OK)
	var tables []string
	require.NoError(t, json.Unmarshal([]byte(result.Payload), &tables))
	assert.Equal(t, []string{"customers", "orders"}, tables)
	assert.True(t, list.SideEffectFree())
}

func TestGetSchemaTool(t *testing.T) {
	get := NewGetSchemaTool(introspectionFixture())

	result := get.Call(context.Background(), map[string]any{"table": "orders"})
	require.True(t, result.OK)
	var schema map[string][]ColumnInfo
	require.NoError(t, json.Unmarshal([]byte(result.Payload), &schema))
	require.Len(t, schema, 1)
	assert.Equal(t, "total", schema["orders"][1].Name)

	result = get.Call(context.Background(), map[string]any{})
	require.True(t, result.OK)
	require.NoError(t, json.Unmarshal([]byte(result.Payload), &schema))
	assert.Len(t, schema, 2)
}

func TestGetSchemaTool_UnknownTable(t *testing.T) {
	get := NewGetSchemaTool(introspectionFixture())

	result := get.Call(context.Background(), map[string]any{"table": "missing"})

	require.False(t, result.OK)
	assert.Equal(t, core.FailureFatal, result.Kind)
	assert.Contains(t, result.Message, "missing")
}
