package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/querypilot/querypilot/model"
	"github.com/querypilot/querypilot/tool"
)

// NewParseLogsTool builds the parse_logs tool: normalizes raw log text into
// a JSON array of entries. JSON input (object, array, or one object per
// line) is decoded directly; logfmt-style "key=value" lines are split into
// fields; anything else becomes {"message": line} entries.
func NewParseLogsTool(opts ...tool.FunctionToolOption) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"parse_logs",
		"Parse raw log text into structured JSON entries",
		tool.Schema{
			"log_data": {Type: "string", Required: true, Description: "Raw log text to parse"},
		},
		func(_ context.Context, args map[string]any) (string, error) {
			raw, _ := args["log_data"].(string)
			entries := parseLogEntries(raw)
			payload, err := json.Marshal(entries)
			if err != nil {
				return "", tool.NewToolError("parse_logs", err.Error(), tool.CodeExecution)
			}
			return string(payload), nil
		},
		opts...,
	)
}

// patternPrompt mirrors the structure expected from detect_patterns: a JSON
// report with summary, patterns, anomalies and recommendations.
const patternPrompt = `You are an expert log analysis specialist. Analyze the log entries below and
perform a %s analysis. Respond with a single JSON object of this shape and
nothing else:

{"summary": {"total_log_entries": <number>, "analysis_type": %q, "key_findings": "<text>", "severity_assessment": "critical|high|medium|low|info"},
 "patterns": [{"pattern_name": "<name>", "description": "<text>", "frequency": "<text>", "significance": "<text>"}],
 "anomalies": [{"anomaly_type": "<type>", "description": "<text>", "potential_impact": "<text>"}],
 "recommendations": [{"priority": "high|medium|low", "recommendation": "<text>", "rationale": "<text>"}]}

Log entries:
%s`

// NewDetectPatternsTool builds the detect_patterns tool: model-backed
// pattern and anomaly detection over parsed log entries.
func NewDetectPatternsTool(reasoner model.Model, opts ...tool.FunctionToolOption) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"detect_patterns",
		"Detect patterns and anomalies in parsed log entries",
		tool.Schema{
			"log_data":     {Type: "string", Required: true, Description: "Parsed log entries (JSON)"},
			"pattern_type": {Type: "string", Default: "errors", Description: "What to look for: errors, anomalies or trends"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			logData, _ := args["log_data"].(string)
			patternType, _ := args["pattern_type"].(string)
			if patternType == "" {
				patternType = "errors"
			}

			prompt := fmt.Sprintf(patternPrompt, patternType, patternType, logData)
			resp, err := reasoner.Complete(ctx, model.Request{Prompt: prompt})
			if err != nil {
				return "", tool.NewToolError("detect_patterns", err.Error(), tool.CodeUnavailable)
			}
			return resp.Text, nil
		},
		opts...,
	)
}

// parseLogEntries normalizes raw text into a slice of structured entries.
func parseLogEntries(raw string) []map[string]any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return []map[string]any{}
	}

	// Whole input as one JSON document.
	var asArray []map[string]any
	if err := json.Unmarshal([]byte(trimmed), &asArray); err == nil {
		return asArray
	}
	var asObject map[string]any
	if err := json.Unmarshal([]byte(trimmed), &asObject); err == nil {
		return []map[string]any{asObject}
	}

	// Line by line: JSON lines, logfmt, or plain text.
	var entries []map[string]any
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err == nil {
			entries = append(entries, obj)
			continue
		}
		if fields := parseLogfmt(line); len(fields) > 0 {
			entries = append(entries, fields)
			continue
		}
		entries = append(entries, map[string]any{"message": line})
	}
	return entries
}

// parseLogfmt splits a "key=value key2=value2" line. Lines without at least
// one key=value pair return nil.
func parseLogfmt(line string) map[string]any {
	fields := map[string]any{}
	for _, token := range strings.Fields(line) {
		key, value, found := strings.Cut(token, "=")
		if !found || key == "" {
			continue
		}
		fields[key] = strings.Trim(value, `"`)
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
