package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures for delivery payloads
type ErrorKind string

const (
	ErrorKindInvalidRequest       ErrorKind = "invalid_request"
	ErrorKindPreprocessingTimeout ErrorKind = "preprocessing_timeout"
	ErrorKindPreprocessingFailed  ErrorKind = "preprocessing_failed"
	ErrorKindTranslationBackend   ErrorKind = "translation_backend_error"
	ErrorKindStoreUnavailable     ErrorKind = "store_unavailable"
)

// ErrAlreadyTerminal is returned by the store when a transition out of a
// terminal state is attempted. Callers discard the stale update.
var ErrAlreadyTerminal = errors.New("sub-job already in terminal state")

// ErrSubJobNotFound is returned by the store for unknown sub-job ids
var ErrSubJobNotFound = errors.New("sub-job not found")

// ErrWaiterExists is returned when a second waiter registers for a sub-job
// id that already has an active waiter in this process.
var ErrWaiterExists = errors.New("waiter already registered for sub-job")

// PipelineError is an error scoped to a single language's pipeline.
// It never propagates across the dispatcher boundary to sibling languages.
type PipelineError struct {
	Kind     ErrorKind
	Language string
	Err      error
}

func (e *PipelineError) Error() string {
	if e.Language != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Kind, e.Language, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// KindOf extracts the error kind from an error chain, or empty string
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
