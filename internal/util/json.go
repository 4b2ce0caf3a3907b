package util

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

var labelRe = regexp.MustCompile(`(?im)^(?:thought|tool call|response):\s*`)

// ExtractJSONObject locates a JSON object inside raw reasoner text that may
// carry extra content: markdown fences, "Thought:"/"Response:" labels, or
// surrounding prose. It returns the decoded object and true on success.
//
// Strategy, in order:
//  1. strip labels and fenced code blocks, try a direct parse
//  2. scan for the outermost balanced {...} span and parse that
func ExtractJSONObject(text string) (map[string]any, bool) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil, false
	}

	clean = labelRe.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)

	if strings.HasPrefix(clean, "```") {
		if m := fenceRe.FindStringSubmatch(clean); m != nil {
			clean = strings.TrimSpace(m[1])
		}
	}

	if obj, ok := tryDecode(clean); ok {
		return obj, true
	}

	// Outermost balanced braces. String-aware scanning is deliberately
	// skipped: a brace inside a string literal only produces a candidate
	// span that fails to decode, and the scan moves on.
	depth := 0
	start := -1
	for i, ch := range clean {
		switch ch {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					if obj, ok := tryDecode(clean[start : i+1]); ok {
						return obj, true
					}
					start = -1
				}
			}
		}
	}

	return nil, false
}

func tryDecode(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	if obj == nil {
		return nil, false
	}
	return obj, true
}

// CanonicalJSON renders a value as deterministic JSON: map keys are emitted
// in sorted order at every level (encoding/json already sorts map keys).
// Used for cache fingerprints.
func CanonicalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
