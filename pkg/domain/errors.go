package domain

import (
	"errors"
	"fmt"
)

// ErrStateNotFound is returned when a user has no active conversation in
// the state store.
var ErrStateNotFound = errors.New("conversation state not found")

// ErrUnknownThread is returned when a persisted record names a thread key
// with no registered definition.
var ErrUnknownThread = errors.New("unknown thread")

// ErrUnknownEmoji is returned by reaction handlers when the user reacted
// with an emoji the current step does not recognize. Recoverable: the user
// is re-prompted and stays on the same node.
var ErrUnknownEmoji = errors.New("unrecognized emoji reaction")

// ErrUnknownSuccessor indicates a handler emitted a step key with no
// matching successor node. This is a tree/handler mismatch, not a user
// mistake, and aborts the turn.
var ErrUnknownSuccessor = errors.New("no successor for step key")

// ErrCascadeDepth indicates a chain of control-hook overrides failed to
// stabilize within the engine's cascade bound.
var ErrCascadeDepth = errors.New("auto-advance cascade exceeded depth limit")

// ErrEmptyTree is returned by a builder that produced no nodes, e.g. when
// a guild has no contribution tasks configured.
var ErrEmptyTree = errors.New("thread builder produced no steps")

// TerminateThreadError aborts the current turn with a message for the
// user. The state record is left in place so the user can retry the same
// step with corrected input.
type TerminateThreadError struct {
	// Reason is sent verbatim to the user.
	Reason string
}

func (e *TerminateThreadError) Error() string {
	return e.Reason
}

// Terminatef builds a TerminateThreadError with a formatted user message.
func Terminatef(format string, args ...any) *TerminateThreadError {
	return &TerminateThreadError{Reason: fmt.Sprintf(format, args...)}
}
