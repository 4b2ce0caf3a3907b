package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/querypilot/querypilot/tool"
)

// ColumnInfo describes one column of an introspected table.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Primary  bool   `json:"primary,omitempty"`
}

// SchemaProvider introspects the database the agent is configured against.
// SQLiteDB implements it; other backends plug in the same way.
type SchemaProvider interface {
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]ColumnInfo, error)
}

// NewListTablesTool builds the list_tables tool.
func NewListTablesTool(p SchemaProvider, opts ...tool.FunctionToolOption) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"list_tables",
		"List the tables available in the database",
		tool.Schema{},
		func(ctx context.Context, _ map[string]any) (string, error) {
			tables, err := p.Tables(ctx)
			if err != nil {
				return "", err
			}
			payload, err := json.Marshal(tables)
			if err != nil {
				return "", tool.NewToolError("list_tables", err.Error(), tool.CodeExecution)
			}
			return string(payload), nil
		},
		opts...,
	)
}

// NewGetSchemaTool builds the get_schema tool. With a table argument it
// describes that table; without one it describes every table.
func NewGetSchemaTool(p SchemaProvider, opts ...tool.FunctionToolOption) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"get_schema",
		"Describe table columns and types",
		tool.Schema{
			"table": {Type: "string", Description: "Table to describe; omit for all tables"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			table, _ := args["table"].(string)

			schema := map[string][]ColumnInfo{}
			if table != "" {
				columns, err := p.Columns(ctx, table)
				if err != nil {
					return "", err
				}
				schema[table] = columns
			} else {
				tables, err := p.Tables(ctx)
				if err != nil {
					return "", err
				}
				for _, name := range tables {
					columns, err := p.Columns(ctx, name)
					if err != nil {
						return "", err
					}
					schema[name] = columns
				}
			}

			payload, err := json.Marshal(schema)
			if err != nil {
				return "", tool.NewToolError("get_schema", err.Error(), tool.CodeExecution)
			}
			return string(payload), nil
		},
		opts...,
	)
}

// RenderSchema produces the plain-text schema description handed to the SQL
// generation prompt: one "table(column type, ...)" line per table.
func RenderSchema(ctx context.Context, p SchemaProvider) (string, error) {
	tables, err := p.Tables(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, table := range tables {
		columns, err := p.Columns(ctx, table)
		if err != nil {
			return "", err
		}
		parts := make([]string, len(columns))
		for i, col := range columns {
			parts[i] = fmt.Sprintf("%s %s", col.Name, strings.ToLower(col.Type))
		}
		fmt.Fprintf(&b, "%s(%s)\n", table, strings.Join(parts, ", "))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// StaticSchema is an in-memory SchemaProvider for tests and examples where
// no live database is wanted. Table order follows insertion of the map's
// sorted keys at call time.
type StaticSchema map[string][]ColumnInfo

// Tables implements SchemaProvider.
func (s StaticSchema) Tables(_ context.Context) ([]string, error) {
	tables := make([]string, 0, len(s))
	for name := range s {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	return tables, nil
}

// Columns implements SchemaProvider.
func (s StaticSchema) Columns(_ context.Context, table string) ([]ColumnInfo, error) {
	columns, ok := s[table]
	if !ok {
		return nil, tool.NewToolError("get_schema", fmt.Sprintf("table %q not found", table), tool.CodeValidation)
	}
	return columns, nil
}
