package tools

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/querypilot/querypilot/tool"
)

// SQLiteDB backs the execute_sql and schema tools with a SQLite database.
// It implements both Querier and SchemaProvider. The pool inside
// database/sql is shared across sessions; pool exhaustion surfaces as a
// transient tool error.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at path. Use ":memory:"
// for an ephemeral database.
func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db %q: %w", path, err)
	}
	return &SQLiteDB{db: db}, nil
}

// NewSQLiteDB wraps an existing handle, for callers managing their own pool.
func NewSQLiteDB(db *sql.DB) *SQLiteDB {
	return &SQLiteDB{db: db}
}

// Close releases the underlying pool.
func (s *SQLiteDB) Close() error { return s.db.Close() }

// Exec runs a statement directly, for loading fixtures and migrations. It is
// not reachable from agent tool dispatch.
func (s *SQLiteDB) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

// Query implements Querier. Rows are returned as generic maps so the tool
// layer can serialize and mask them without schema knowledge.
func (s *SQLiteDB) Query(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifySQLiteError("execute_sql", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, tool.NewToolError("execute_sql", err.Error(), tool.CodeExecution)
	}

	var out []map[string]any
	for rows.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}
		values := make([]any, len(columns))
		scans := make([]any, len(columns))
		for i := range values {
			scans[i] = &values[i]
		}
		if err := rows.Scan(scans...); err != nil {
			return nil, tool.NewToolError("execute_sql", err.Error(), tool.CodeExecution)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLiteError("execute_sql", err)
	}
	if out == nil {
		out = []map[string]any{}
	}
	return out, nil
}

// Tables implements SchemaProvider.
func (s *SQLiteDB) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, classifySQLiteError("list_tables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, tool.NewToolError("list_tables", err.Error(), tool.CodeExecution)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Columns implements SchemaProvider using PRAGMA table_info.
func (s *SQLiteDB) Columns(ctx context.Context, table string) ([]ColumnInfo, error) {
	if !validIdentifier(table) {
		return nil, tool.NewToolError("get_schema", fmt.Sprintf("invalid table name %q", table), tool.CodeValidation)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, classifySQLiteError("get_schema", err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			cid        int
			name       string
			typ        string
			notNull    int
			defaultVal any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, tool.NewToolError("get_schema", err.Error(), tool.CodeExecution)
		}
		columns = append(columns, ColumnInfo{
			Name:     name,
			Type:     typ,
			Nullable: notNull == 0,
			Primary:  pk > 0,
		})
	}
	if len(columns) == 0 {
		return nil, tool.NewToolError("get_schema", fmt.Sprintf("table %q not found", table), tool.CodeValidation)
	}
	return columns, rows.Err()
}

// classifySQLiteError maps driver errors onto tool error codes so the retry
// controller sees connectivity problems as transient and query mistakes as
// fatal.
func classifySQLiteError(toolName string, err error) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "locked") || strings.Contains(lower, "busy") ||
		strings.Contains(lower, "connection") {
		return tool.NewToolError(toolName, msg, tool.CodeUnavailable)
	}
	return tool.NewToolError(toolName, msg, tool.CodeExecution)
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
