package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/model"
	"github.com/querypilot/querypilot/tool"
)

// fakeQuerier returns canned rows and records the last query.
type fakeQuerier struct {
	rows      []map[string]any
	err       error
	lastQuery string
	lastLimit int
}

func (f *fakeQuerier) Query(_ context.Context, query string, limit int) ([]map[string]any, error) {
	f.lastQuery = query
	f.lastLimit = limit
	return f.rows, f.err
}

func TestStripSQLFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT 1;", "SELECT 1"},
		{"```sql\nSELECT id FROM orders;\n```", "SELECT id FROM orders"},
		{"```\nSELECT 1\n```", "SELECT 1"},
		{"  SELECT 1  \n", "SELECT 1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripSQLFences(tt.in))
	}
}

func TestMaskRows(t *testing.T) {
	rows := []map[string]any{
		{"id": 1, "Email": "a@example.com", "total": 10.5},
		{"id": 2, "Email": "b@example.com", "total": 3.0},
	}

	masked := MaskRows(rows, []string{"email"})
	assert.Equal(t, MaskedValue, masked[0]["Email"])
	assert.Equal(t, MaskedValue, masked[1]["Email"])
	assert.Equal(t, 1, masked[0]["id"])

	// Originals untouched.
	assert.Equal(t, "a@example.com", rows[0]["Email"])

	assert.Equal(t, rows, MaskRows(rows, nil))
}

func TestExecuteSQLTool(t *testing.T) {
	q := &fakeQuerier{rows: []map[string]any{{"id": 1, "email": "a@example.com"}}}
	execute := NewExecuteSQLTool(q)

	result := execute.Call(context.Background(), map[string]any{
		"sql":         "SELECT id, email FROM customers",
		"mask_fields": []any{"email"},
	})

	require.True(t, result.OK)
	assert.Equal(t, "SELECT id, email FROM customers", q.lastQuery)
	assert.Equal(t, 100, q.lastLimit, "default limit applied")
	assert.Contains(t, result.Payload, `"email":"***"`)
	assert.True(t, execute.SideEffectFree())
}

func TestExecuteSQLTool_TransientDatabaseError(t *testing.T) {
	q := &fakeQuerier{err: tool.NewToolError("execute_sql", "database is locked", tool.CodeUnavailable)}
	execute := NewExecuteSQLTool(q)

	result := execute.Call(context.Background(), map[string]any{"sql": "SELECT 1"})

	require.False(t, result.OK)
	assert.Equal(t, core.FailureTransient, result.Kind)
	assert.True(t, result.Retryable)
}

func TestExecuteSQLTool_FatalQueryError(t *testing.T) {
	q := &fakeQuerier{err: errors.New("no such table: nope")}
	execute := NewExecuteSQLTool(q)

	result := execute.Call(context.Background(), map[string]any{"sql": "SELECT * FROM nope"})

	require.False(t, result.OK)
	assert.Equal(t, core.FailureFatal, result.Kind)
}

func TestGenerateSQLTool(t *testing.T) {
	m := model.NewMock("mock").Script("```sql\nSELECT COUNT(*) FROM orders;\n```")
	generate := NewGenerateSQLTool(m, "orders(id integer, total real)")

	result := generate.Call(context.Background(), map[string]any{"question": "How many orders?"})

	require.True(t, result.OK)
	assert.Equal(t, "SELECT COUNT(*) FROM orders", result.Payload)

	prompts := m.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0].Prompt, "orders(id integer, total real)")
	assert.Contains(t, prompts[0].Prompt, "How many orders?")
}

func TestGenerateSQLTool_CorrectionContext(t *testing.T) {
	m := model.NewMock("mock").Script("SELECT id FROM orders")
	generate := NewGenerateSQLTool(m, "orders(id integer)")

	result := generate.Call(context.Background(), map[string]any{
		"question":           "List order ids",
		"correction_context": "table 'users' not permitted",
	})

	require.True(t, result.OK)
	assert.Contains(t, m.Prompts()[0].Prompt, "table 'users' not permitted")
}

func TestSQLiteDB_QueryAndSchema(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.Exec(ctx, `CREATE TABLE orders (id INTEGER PRIMARY KEY, total REAL NOT NULL)`))
	require.NoError(t, db.Exec(ctx, `INSERT INTO orders (id, total) VALUES (1, 10.5), (2, 3.0), (3, 7.25)`))

	rows, err := db.Query(ctx, "SELECT id, total FROM orders ORDER BY id", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2, "limit applied")
	assert.EqualValues(t, 1, rows[0]["id"])

	tables, err := db.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, tables)

	columns, err := db.Columns(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "id", columns[0].Name)
	assert.True(t, columns[0].Primary)
	assert.False(t, columns[1].Nullable)

	_, err = db.Columns(ctx, "missing")
	assert.Error(t, err)

	_, err = db.Query(ctx, "SELECT * FROM missing", 10)
	require.Error(t, err)
	var te *tool.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, tool.CodeExecution, te.Code)
}

func TestRenderSchema(t *testing.T) {
	schema := StaticSchema{
		"orders":    {{Name: "id", Type: "INTEGER"}, {Name: "total", Type: "REAL"}},
		"customers": {{Name: "id", Type: "INTEGER"}, {Name: "email", Type: "TEXT"}},
	}

	text, err := RenderSchema(context.Background(), schema)
	require.NoError(t, err)
	assert.Equal(t, "customers(id integer, email text)\norders(id integer, total real)", text)
}
