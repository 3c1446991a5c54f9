package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrGeneration   = errors.New("generation failed")
)

// StateError is returned when a transition is attempted from the wrong status.
type StateError struct {
	Kind   string
	ID     string
	Action string
	From   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in status %q", e.Action, e.Kind, e.ID, e.From)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

// GenerationError wraps a failed content generator call.
type GenerationError struct {
	Step string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}
