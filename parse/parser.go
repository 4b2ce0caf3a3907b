// Package parse converts raw reasoner output into a structured core.Action.
// The parser is a pure function of the text and the tool catalog: malformed
// output of any kind becomes a ParsingError action carrying a reason the
// loop can feed back to the reasoner, never a fault.
package parse

import (
	"strings"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/util"
	"github.com/querypilot/querypilot/registry"
	"github.com/querypilot/querypilot/tool"
)

// FinishTool is the pseudo-tool name the reasoner uses to deliver its final
// answer. It is never registered; the parser intercepts it.
const FinishTool = "finish"

// Catalog is the read-only registry surface the parser needs: name lookup
// with the declared schema. *registry.Registry satisfies it.
type Catalog interface {
	Lookup(name string) (registry.Entry, bool)
	Names() []string
}

// Parser recognizes the action contract in reasoner output. The expected
// shape is a JSON object:
//
//	{"thought": "...", "tool_call": {"name": "...", "args": {...}}}
//
// with the finish pseudo-tool carrying the final answer in args.answer. The
// object may arrive bare, inside a fenced code block, or embedded in prose;
// recovery of the JSON span is handled by util.ExtractJSONObject.
type Parser struct {
	catalog Catalog
}

// NewParser creates a Parser bound to a tool catalog.
func NewParser(catalog Catalog) *Parser {
	return &Parser{catalog: catalog}
}

// Parse returns exactly one Action for the given reasoner text.
func (p *Parser) Parse(text string) core.Action {
	obj, ok := util.ExtractJSONObject(text)
	if !ok {
		return core.ParsingErrorf(text, "no JSON object found in output; respond with a single JSON object containing a tool_call or a finish call")
	}

	thought, _ := obj["thought"].(string)

	call := toolCallObject(obj)
	if call == nil {
		return core.ParsingErrorf(text, "JSON object has no tool_call; include a tool_call with a name and args")
	}

	name, _ := call["name"].(string)
	if strings.TrimSpace(name) == "" {
		return core.ParsingErrorf(text, "tool_call has no name")
	}

	args := callArgs(call)

	if name == FinishTool {
		answer, _ := args["answer"].(string)
		if strings.TrimSpace(answer) == "" {
			return core.ParsingErrorf(text, "finish call has no answer; provide args.answer with the final answer text")
		}
		return core.FinalAnswer(thought, answer)
	}

	entry, ok := p.catalog.Lookup(name)
	if !ok {
		return core.ParsingErrorf(text, "unknown tool %q; available tools: %s", name, strings.Join(p.catalog.Names(), ", "))
	}

	normalized, err := tool.ValidateArgs(args, entry.Schema())
	if err != nil {
		return core.ParsingErrorf(text, "invalid arguments for tool %q: %v", name, err)
	}

	return core.Invoke(thought, name, normalized)
}

// toolCallObject finds the call object: nested under tool_call, or the
// top-level object itself when it carries a name directly.
func toolCallObject(obj map[string]any) map[string]any {
	if call, ok := obj["tool_call"].(map[string]any); ok {
		return call
	}
	if _, ok := obj["name"].(string); ok {
		return obj
	}
	return nil
}

// callArgs accepts both "args" and "arguments" as the argument key.
func callArgs(call map[string]any) map[string]any {
	if args, ok := call["args"].(map[string]any); ok {
		return args
	}
	if args, ok := call["arguments"].(map[string]any); ok {
		return args
	}
	return map[string]any{}
}
