package model

import (
	"context"
	"fmt"
	"sync"
)

// Request is the normalized reasoning engine input: a system prompt carrying
// the agent's instructions and tool catalog, and the user-turn prompt
// carrying the question plus the scratchpad so far.
type Request struct {
	System string `json:"system"`
	Prompt string `json:"prompt"`
}

// TokenUsage captures token usage statistics for a completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a completed generation.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface the agent loop requires of a reasoning
// engine. Complete blocks until the provider returns or ctx is done.
type Model interface {
	Complete(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// Mock is a scripted in-memory Model for tests and examples. Each Complete
// call consumes the next scripted response in order; calling past the end of
// the script is an error. Safe for concurrent use.
type Mock struct {
	mu        sync.Mutex
	info      Info
	responses []string
	errs      map[int]error
	calls     int
	prompts   []Request
}

// NewMock constructs a Mock with the given name.
func NewMock(name string) *Mock {
	return &Mock{
		info: Info{Name: name, Provider: "mock"},
		errs: make(map[int]error),
	}
}

// Script appends responses to return in order.
func (m *Mock) Script(responses ...string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
	return m
}

// FailAt makes the i-th call (0-based) return err instead of its scripted
// response.
func (m *Mock) FailAt(i int, err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[i] = err
	return m
}

// Complete implements Model.
func (m *Mock) Complete(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++
	m.prompts = append(m.prompts, req)

	if err, ok := m.errs[i]; ok {
		return Response{}, err
	}
	if i >= len(m.responses) {
		return Response{}, fmt.Errorf("mock model %q: no scripted response for call %d", m.info.Name, i+1)
	}
	return Response{Text: m.responses[i], FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *Mock) Info() Info { return m.info }

// Calls returns how many times Complete was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns the requests seen so far, in order.
func (m *Mock) Prompts() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.prompts))
	copy(out, m.prompts)
	return out
}
