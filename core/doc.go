// Package core provides the foundational domain types shared by the agent
// execution loop and its collaborators. It defines the core abstractions for:
//
//   - Actions (the structured decision extracted from reasoner output)
//   - Tool results (success / failure with retryability classification)
//   - Validation verdicts (allow / reject with a specific reason)
//   - The Scratchpad (the ordered Thought/Action/Observation trace of a session)
//   - Agent configuration (model, budgets, security policy, retry, cache)
//
// The package intentionally keeps implementation concerns (parsing, policy
// enforcement, tool execution, orchestration) out of scope, exposing small
// value types so the surrounding packages stay free of cyclic dependencies.
package core
