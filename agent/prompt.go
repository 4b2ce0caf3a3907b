package agent

import (
	"fmt"
	"strings"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/util"
	"github.com/querypilot/querypilot/model"
	"github.com/querypilot/querypilot/registry"
)

// systemTemplate is rendered once per session with the agent's identity and
// tool catalog. The response contract below it is what the parse package
// recognizes.
const systemTemplate = `You are {{.name}}. {{.description}}

You work in steps. At each step, think about what to do next, then respond
with exactly one JSON object and nothing else:

{"thought": "<your reasoning>", "tool_call": {"name": "<tool>", "args": {<arguments>}}}

When you know the final answer, respond with:

{"thought": "<your reasoning>", "tool_call": {"name": "finish", "args": {"answer": "<final answer>"}}}

Available tools:
{{.tools}}

Rules:
- Use only the tools listed above.
- Provide every required argument with the declared type.
- If an observation reports an error, correct your next step instead of repeating it.`

// buildSystemPrompt renders the session's system prompt from the agent's
// identity and enabled catalog.
func buildSystemPrompt(name, description string, entries []registry.Entry) string {
	rendered, err := util.RenderTemplate(systemTemplate, map[string]any{
		"name":        name,
		"description": description,
		"tools":       renderCatalog(entries),
	})
	if err != nil {
		return systemTemplate
	}
	return rendered
}

// renderCatalog lists each entry with its argument schema, one block per
// tool, in the fixed order the catalog provides.
func renderCatalog(entries []registry.Entry) string {
	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "- %s: %s\n", entry.Name(), entry.Description())
		schema := entry.Schema()
		for _, arg := range schema.Names() {
			spec := schema[arg]
			requirement := "optional"
			if spec.Required {
				requirement = "required"
			}
			fmt.Fprintf(&b, "    %s (%s, %s)", arg, spec.Type, requirement)
			if spec.Description != "" {
				fmt.Fprintf(&b, ": %s", spec.Description)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// buildUserPrompt renders the question plus the scratchpad so far. The
// trailing "Thought:" cue prompts the model for its next step.
func buildUserPrompt(question string, steps []core.Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", question)
	for _, step := range steps {
		b.WriteString("\n")
		if step.Thought != "" {
			fmt.Fprintf(&b, "Thought: %s\n", step.Thought)
		}
		fmt.Fprintf(&b, "Action: %s\n", renderAction(step.Action))
		fmt.Fprintf(&b, "Observation: %s\n", step.Observation)
	}
	b.WriteString("\nThought:")
	return b.String()
}

// renderAction writes an invocation as tool name plus canonical args, so the
// model sees exactly what it asked for on the previous step.
func renderAction(a core.Action) string {
	if a.Type == core.ActionToolInvocation && a.Invocation != nil {
		return fmt.Sprintf("%s %s", a.Invocation.Tool, util.CanonicalJSON(a.Invocation.Args))
	}
	return a.Describe()
}

// buildRequest assembles the model request for the next iteration.
func (a *Agent) buildRequest(s *session) model.Request {
	return model.Request{
		System: buildSystemPrompt(a.cfg.Name, a.cfg.Description, a.catalog.Entries()),
		Prompt: buildUserPrompt(s.question, s.pad.Steps()),
	}
}
