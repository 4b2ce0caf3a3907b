// Package model defines the provider-agnostic reasoning engine boundary.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Let providers (OpenAI, Anthropic) hide their SDKs behind one interface
//   - Facilitate deterministic scripting for tests (Mock)
//
// The agent loop hands a model the full prompt text and receives raw text
// back; action structure is recovered by the parse package, never by the
// provider adapters.
package model
