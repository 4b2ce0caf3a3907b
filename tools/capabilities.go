package tools

import "github.com/querypilot/querypilot/tool"

// NewAnswerSQLCapability composes generate_sql and execute_sql into the
// answer_sql capability: a natural language question goes in, query results
// come out. The generated statement is threaded into execute_sql's sql
// argument and the execution step is gated, so the derived statement is
// validated against the security policy before it touches the database.
func NewAnswerSQLCapability() *tool.Capability {
	return tool.NewCapability(
		"answer_sql",
		"Answer a natural language question by generating and executing a SQL query",
		tool.Schema{
			"question":    {Type: "string", Required: true, Description: "Natural language question to answer"},
			"limit":       {Type: "integer", Default: 100, Description: "Maximum number of rows to return"},
			"mask_fields": {Type: "array", Description: "Column names to mask in the output"},
		},
		tool.CapabilityStep{Tool: "generate_sql", OutputAs: "sql"},
		tool.CapabilityStep{Tool: "execute_sql", Gated: true},
	)
}

// NewAnalyzeLogsCapability composes parse_logs and detect_patterns into the
// analyze_logs capability: raw log text in, a structured pattern report out.
func NewAnalyzeLogsCapability() *tool.Capability {
	return tool.NewCapability(
		"analyze_logs",
		"Parse raw log text and detect patterns, errors and anomalies in it",
		tool.Schema{
			"log_data":     {Type: "string", Required: true, Description: "Raw log text to analyze"},
			"pattern_type": {Type: "string", Default: "errors", Description: "What to look for: errors, anomalies or trends"},
		},
		tool.CapabilityStep{Tool: "parse_logs", OutputAs: "log_data"},
		tool.CapabilityStep{Tool: "detect_patterns"},
	)
}
