package core

import "github.com/google/uuid"

// NewID generates a unique identifier for sessions and traces.
func NewID() string { return uuid.NewString() }
