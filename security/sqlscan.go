package security

import (
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/sql"
)

// Node kinds produced by the tree-sitter SQL grammar that the scanner cares
// about. Table references appear as object_reference nodes in relation
// position (FROM/JOIN); a qualified column like o.id nests an
// object_reference for the qualifier inside a field node, and a relation's
// declared alias is a bare identifier child of the relation.
const (
	sqlNodeProgram         = "program"
	sqlNodeStatement       = "statement"
	sqlNodeRelation        = "relation"
	sqlNodeObjectReference = "object_reference"
	sqlNodeField           = "field"
	sqlNodeIdentifier      = "identifier"
	sqlNodeError           = "ERROR"
)

// QueryShape is the structural summary of a SQL string the validator checks
// against policy: the leading operation verb, every referenced table and
// column, the statement count and whether the parse produced error nodes.
type QueryShape struct {
	Operation  string   // lowercased leading keyword, e.g. "select"
	Tables     []string // lowercased referenced table names
	Columns    []string // lowercased referenced column identifiers
	Statements int
	Malformed  bool
}

// ScanQuery parses a SQL string and extracts its shape. The scanner never
// executes anything; it reads the syntax tree only. A query the grammar
// cannot parse comes back with Malformed set rather than an error, so the
// validator can turn it into a rejection reason.
func ScanQuery(ctx context.Context, query string) (QueryShape, error) {
	shape := QueryShape{Operation: leadingVerb(query)}

	src := []byte(query)
	parser := sitter.NewParser()
	parser.SetLanguage(sql.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return QueryShape{}, err
	}
	defer tree.Close()

	tables := map[string]struct{}{}
	columns := map[string]struct{}{}
	aliases := map[string]struct{}{}
	walk(tree.RootNode(), src, &shape, tables, columns, aliases)

	// A declared alias is never a table in its own right, even if the
	// grammar surfaced it as a reference somewhere.
	for alias := range aliases {
		delete(tables, alias)
	}

	shape.Tables = sortedKeys(tables)
	shape.Columns = sortedKeys(columns)
	return shape, nil
}

func walk(node *sitter.Node, src []byte, shape *QueryShape, tables, columns, aliases map[string]struct{}) {
	if node == nil {
		return
	}

	switch node.Type() {
	case sqlNodeStatement:
		shape.Statements++
	case sqlNodeError:
		shape.Malformed = true
	case sqlNodeRelation:
		// The bare identifier child of a relation is its declared alias.
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.Type() == sqlNodeIdentifier {
				aliases[strings.ToLower(child.Content(src))] = struct{}{}
			}
		}
	case sqlNodeObjectReference:
		// Qualifiers of a field (alias.column or table.column) reference the
		// FROM-clause relations, which are collected there; counting them
		// here would turn every alias into a phantom table.
		if parent := node.Parent(); parent != nil && parent.Type() == sqlNodeField {
			break
		}
		if name := referenceName(node, src); name != "" {
			tables[name] = struct{}{}
		}
	case sqlNodeField:
		// The last identifier is the column; earlier ones qualify it.
		name := ""
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.Type() == sqlNodeIdentifier {
				name = child.Content(src)
			}
		}
		if name != "" {
			columns[strings.ToLower(name)] = struct{}{}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), src, shape, tables, columns, aliases)
	}
}

// referenceName returns the last identifier of an object_reference, dropping
// any schema qualifier, lowercased.
func referenceName(node *sitter.Node, src []byte) string {
	name := ""
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == sqlNodeIdentifier {
			name = child.Content(src)
		}
	}
	return strings.ToLower(name)
}

// leadingVerb returns the first whitespace-delimited token of the query,
// lowercased. Leading SQL line comments are skipped so a commented preamble
// cannot disguise the operation.
func leadingVerb(query string) string {
	for _, line := range strings.Split(query, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return strings.ToLower(fields[0])
		}
	}
	return ""
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
