package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/h2o/internal/ir"
)

// RuntimeError is an error detected while setting up or running a
// simulation. None of them are retried: every failure in this domain is
// either a startup problem or a broken sink.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Species and Atom identify the actor involved, when there is one.
	Species ir.Species
	Atom    int64

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeResource indicates a shared resource could not be acquired.
	ErrCodeResource RuntimeErrorCode = "RESOURCE_UNAVAILABLE"

	// ErrCodeSpawn indicates an actor could not be started.
	ErrCodeSpawn RuntimeErrorCode = "SPAWN_FAILED"

	// ErrCodeSink indicates an event could not be written.
	ErrCodeSink RuntimeErrorCode = "SINK_FAILED"

	// ErrCodeCancelled indicates the run context ended before the run did.
	ErrCodeCancelled RuntimeErrorCode = "CANCELLED"
)

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Species != "" {
		msg = fmt.Sprintf("%s (atom=%s %d)", msg, e.Species, e.Atom)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewResourceError reports a failure to acquire a shared resource.
func NewResourceError(message string, err error) *RuntimeError {
	return &RuntimeError{Code: ErrCodeResource, Message: message, Err: err}
}

// NewSpawnError reports a failure to start an actor.
func NewSpawnError(sp ir.Species, err error) *RuntimeError {
	return &RuntimeError{Code: ErrCodeSpawn, Message: "cannot start atom", Species: sp, Err: err}
}

// NewSinkError reports a failed event write.
func NewSinkError(r Record, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeSink,
		Message: fmt.Sprintf("cannot write %s event", r.Kind),
		Species: r.Species,
		Atom:    r.Atom,
		Err:     err,
	}
}

// NewCancelledError reports a run that ended early because of ctx.
func NewCancelledError(cause error) *RuntimeError {
	return &RuntimeError{Code: ErrCodeCancelled, Message: "run cancelled", Err: cause}
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsResourceError reports whether err is a resource acquisition failure.
func IsResourceError(err error) bool {
	return hasCode(err, ErrCodeResource)
}

// IsSinkError reports whether err is a failed event write.
func IsSinkError(err error) bool {
	return hasCode(err, ErrCodeSink)
}

// IsCancelled reports whether err means the run was cancelled.
func IsCancelled(err error) bool {
	return hasCode(err, ErrCodeCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
