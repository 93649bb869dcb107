package rag

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable marks a vector store backend that cannot be reached.
// Callers are expected to fall back to the in-memory store rather than abort.
var ErrBackendUnavailable = errors.New("vector store backend unavailable")

// ConfigError is a fatal configuration problem, surfaced at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// StageError wraps a failure with the pipeline stage it happened in, so the
// API layer can map it to a response without parsing error text.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
