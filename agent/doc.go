// Package agent implements the reason/act/observe loop that turns a
// declarative agent configuration into a running session.
//
// One Agent serves many concurrent sessions; each Run call owns its own
// scratchpad and retry state, while the registry (read-only) and the result
// cache (synchronized) are shared. Within a session the loop is strictly
// sequential: every step's prompt depends on the previous step's
// observation.
//
// Per iteration the loop invokes the reasoning model, parses its output into
// an action, gates tool invocations through the security validator, and
// dispatches allowed invocations through the retry controller and result
// cache to the registry. Parsing errors and policy rejections are not
// faults: they become corrective observations fed back to the reasoner, each
// consuming one iteration slot.
package agent
