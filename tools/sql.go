package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/querypilot/querypilot/model"
	"github.com/querypilot/querypilot/tool"
)

// Querier executes a read-only query and returns its rows. Implementations
// own connection pooling; the tool layer treats exhaustion and connectivity
// errors as transient via tool.ToolError codes.
type Querier interface {
	Query(ctx context.Context, query string, limit int) ([]map[string]any, error)
}

// sqlGenerationPrompt instructs the model to emit exactly one SELECT
// statement. The schema and optional correction context are appended.
const sqlGenerationPrompt = `You are an expert SQL developer. Generate exactly one SQL SELECT statement
answering the question below. Use only the tables and columns in the schema.
Return only the SQL, no explanation and no code fences.

Schema:
%s

Question: %s`

// NewGenerateSQLTool builds the generate_sql tool: question in, a single
// SELECT statement out. The statement is NOT trusted; callers route it
// through the security gate before execution (the answer_sql capability does
// this automatically).
func NewGenerateSQLTool(reasoner model.Model, schema string, opts ...tool.FunctionToolOption) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"generate_sql",
		"Generate a SQL SELECT statement answering a natural language question",
		tool.Schema{
			"question": {Type: "string", Required: true, Description: "Natural language question to answer with SQL"},
			"correction_context": {Type: "string",
				Description: "Validation or execution error from a previous attempt, to steer regeneration"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			question, _ := args["question"].(string)
			prompt := fmt.Sprintf(sqlGenerationPrompt, schema, question)
			if correction, _ := args["correction_context"].(string); correction != "" {
				prompt += fmt.Sprintf("\n\nA previous attempt failed with: %s\nGenerate a corrected statement.", correction)
			}

			resp, err := reasoner.Complete(ctx, model.Request{Prompt: prompt})
			if err != nil {
				return "", tool.NewToolError("generate_sql", err.Error(), tool.CodeUnavailable)
			}

			statement := StripSQLFences(resp.Text)
			if statement == "" {
				return "", tool.NewToolError("generate_sql", "model returned no SQL", tool.CodeExecution)
			}
			return statement, nil
		},
		opts...,
	)
}

// NewExecuteSQLTool builds the execute_sql tool. Rows come back as a JSON
// array; columns named in mask_fields are masked in the output. Validation
// of the statement itself (operation, tables, sensitive columns) happens in
// the security gate before this tool ever runs.
func NewExecuteSQLTool(q Querier, opts ...tool.FunctionToolOption) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"execute_sql",
		"Execute a read-only SQL query and return the rows as JSON",
		tool.Schema{
			"sql":         {Type: "string", Required: true, Description: "SQL SELECT statement to execute"},
			"limit":       {Type: "integer", Default: 100, Description: "Maximum number of rows to return"},
			"mask_fields": {Type: "array", Description: "Column names to mask in the output"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["sql"].(string)
			limit := intArg(args["limit"], 100)

			rows, err := q.Query(ctx, query, limit)
			if err != nil {
				return "", err
			}

			masked := MaskRows(rows, maskFields(args))
			payload, err := json.Marshal(masked)
			if err != nil {
				return "", tool.NewToolError("execute_sql", err.Error(), tool.CodeExecution)
			}
			return string(payload), nil
		},
		opts...,
	)
}

// MaskedValue replaces masked column values in tool output.
const MaskedValue = "***"

// MaskRows returns a copy of rows with the named columns replaced by
// MaskedValue. Column matching is case-insensitive.
func MaskRows(rows []map[string]any, fields []string) []map[string]any {
	if len(fields) == 0 {
		return rows
	}
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		masked := make(map[string]any, len(row))
		for col, val := range row {
			if containsFold(fields, col) {
				masked[col] = MaskedValue
				continue
			}
			masked[col] = val
		}
		out[i] = masked
	}
	return out
}

// StripSQLFences removes a surrounding markdown code fence and a trailing
// semicolon from model-generated SQL.
func StripSQLFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```sql")
		s = strings.TrimPrefix(s, "```")
		if i := strings.Index(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSuffix(strings.TrimSpace(s), ";")
}

func maskFields(args map[string]any) []string {
	switch v := args["mask_fields"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func intArg(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return fallback
}

func containsFold(set []string, name string) bool {
	for _, s := range set {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}
