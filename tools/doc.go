// Package tools provides the built-in database and log analysis tool suite:
// SQL generation and execution, schema introspection, log parsing and
// pattern detection, field extraction and value bucketing, plus the
// capabilities composing them. Every tool is a tool.FunctionTool; model
// backed tools take a model.Model and stay provider agnostic.
package tools
