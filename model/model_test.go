package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_ScriptedResponsesInOrder(t *testing.T) {
	m := NewMock("test").Script("first", "second")

	resp, err := m.Complete(context.Background(), Request{Prompt: "a"})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text)

	resp, err = m.Complete(context.Background(), Request{Prompt: "b"})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text)

	_, err = m.Complete(context.Background(), Request{Prompt: "c"})
	assert.Error(t, err)

	assert.Equal(t, 3, m.Calls())
	prompts := m.Prompts()
	require.Len(t, prompts, 3)
	assert.Equal(t, "a", prompts[0].Prompt)
}

func TestMock_FailAt(t *testing.T) {
	boom := errors.New("rate limited")
	m := NewMock("test").Script("first", "second").FailAt(0, boom)

	_, err := m.Complete(context.Background(), Request{Prompt: "a"})
	assert.ErrorIs(t, err, boom)

	resp, err := m.Complete(context.Background(), Request{Prompt: "b"})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text)
}

func TestMock_ContextCanceled(t *testing.T) {
	m := NewMock("test").Script("first")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Complete(ctx, Request{Prompt: "a"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.Calls())
}
