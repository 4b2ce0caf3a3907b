// Package security implements the policy gate applied to every tool
// invocation whose payload is derived from reasoner output, principally
// generated SQL. Validation is a pure function of the invocation and the
// policy: no I/O, no mutation, deterministic verdicts.
package security

import (
	"context"
	"strings"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
)

// Argument names whose string value is treated as a SQL payload.
var queryArgNames = []string{"sql", "query"}

// Argument names whose values name columns, checked against the sensitive
// set even when no SQL payload is present (field-extraction targets).
var columnArgNames = []string{"field", "fields", "column", "columns", "group_by"}

// Validator evaluates invocations against a security policy. Checks run in a
// fixed order and short-circuit on the first failure, each producing a
// specific reason string the loop can feed back to the reasoner.
type Validator struct {
	logger logging.Logger
}

// ValidatorOptions configures a Validator.
type ValidatorOptions struct {
	Logger logging.Logger
}

// NewValidator creates a Validator.
func NewValidator(optFns ...func(o *ValidatorOptions)) *Validator {
	opts := ValidatorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Validator{logger: opts.Logger}
}

// Validate applies the ordered checks:
//
//  1. the tool or capability name is in the policy's allowed set;
//  2. if an argument carries a SQL payload, its operation verb is allowed,
//     it parses as a single well-formed statement, and every referenced
//     table is in the allowed-table set;
//  3. no argument references a sensitive column without the invocation
//     carrying a mask_fields directive covering it.
//
// The ctx bounds the embedded query parse only; verdicts themselves depend
// on nothing but the invocation and the policy.
func (v *Validator) Validate(ctx context.Context, inv core.ToolInvocation, policy core.SecurityPolicy) core.Verdict {
	if !policy.AllowsTool(inv.Tool) {
		return v.reject(inv, "tool '%s' not permitted", inv.Tool)
	}

	masked := inv.MaskFields()

	if query := queryArg(inv.Args); query != "" {
		verdict := v.validateQuery(ctx, inv, query, policy, masked)
		if !verdict.Allowed {
			return verdict
		}
	}

	for _, name := range columnArgNames {
		for _, column := range stringValues(inv.Args[name]) {
			if policy.IsSensitive(column) && !containsFold(masked, column) {
				return v.reject(inv, "column '%s' is sensitive and requires a mask_fields directive", column)
			}
		}
	}

	return core.Allow()
}

func (v *Validator) validateQuery(ctx context.Context, inv core.ToolInvocation, query string, policy core.SecurityPolicy, masked []string) core.Verdict {
	verb := leadingVerb(query)
	if !policy.AllowsOperation(verb) {
		return v.reject(inv, "operation '%s' not permitted", strings.ToUpper(verb))
	}

	shape, err := ScanQuery(ctx, query)
	if err != nil {
		return v.reject(inv, "query could not be analyzed: %v", err)
	}
	if shape.Malformed {
		return v.reject(inv, "query is not well-formed SQL")
	}
	if shape.Statements > 1 {
		return v.reject(inv, "multiple statements not permitted")
	}

	for _, table := range shape.Tables {
		if !policy.AllowsTable(table) {
			return v.reject(inv, "table '%s' not permitted", table)
		}
	}

	for _, column := range shape.Columns {
		if policy.IsSensitive(column) && !containsFold(masked, column) {
			return v.reject(inv, "column '%s' is sensitive and requires a mask_fields directive", column)
		}
	}

	return core.Allow()
}

func (v *Validator) reject(inv core.ToolInvocation, format string, args ...any) core.Verdict {
	verdict := core.Reject(format, args...)
	v.logger.Warn("security.rejected", "tool", inv.Tool, "reason", verdict.Reason)
	return verdict
}

// queryArg returns the first non-empty SQL payload among the recognized
// argument names.
func queryArg(args map[string]any) string {
	for _, name := range queryArgNames {
		if s, ok := args[name].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// stringValues flattens a string, []string or []any argument value into its
// string elements.
func stringValues(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func containsFold(set []string, name string) bool {
	for _, s := range set {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}
