package flow

import (
	"context"

	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// Handler is the unit of dialogue behavior: one step of a conversation.
// Concrete steps implement the operations they need and embed StepBase
// for the rest.
type Handler interface {
	// Name returns the step key. It doubles as the discriminator token
	// that selects this step among its siblings, so it must be unique
	// within a fork.
	Name() domain.StepKey

	// IsReaction reports whether this step consumes an emoji reaction
	// rather than a free-form reply.
	IsReaction() bool

	// Send emits the step's prompt and returns the sent message (the next
	// reaction target) plus optional metadata to replace the carried bag.
	// A nil message keeps the previous prompt reference; nil metadata
	// carries the previous bag forward unchanged.
	Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error)

	// Save validates and commits the previous turn's free-form answer.
	// It may return a *domain.TerminateThreadError with a user-facing
	// message on invalid input.
	Save(ctx context.Context, ev *ports.Message, guildID, userID string) error

	// HandleReaction interprets a reaction, returning the successor's step
	// key (empty selects the default successor) and whether the following
	// turn should skip the previous node's Save. Returns
	// domain.ErrUnknownEmoji for reactions the step does not recognize.
	HandleReaction(ctx context.Context, r *ports.Reaction) (domain.StepKey, bool, error)

	// ControlHook is consulted after Send. A non-empty step key redirects
	// the flow to that successor and re-runs the turn on the same event;
	// domain.StepEnd terminates the flow.
	ControlHook(ctx context.Context, ev *ports.Message, userID string) (domain.StepKey, error)
}

// StepBase provides default no-op implementations for the optional
// Handler operations. Concrete steps embed it and override what they use.
type StepBase struct{}

// IsReaction defaults to false: the step consumes a free-form reply.
func (StepBase) IsReaction() bool { return false }

// Send defaults to sending nothing and keeping the previous prompt.
func (StepBase) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	return nil, nil, nil
}

// Save defaults to a no-op: the step has no answer to commit.
func (StepBase) Save(ctx context.Context, ev *ports.Message, guildID, userID string) error {
	return nil
}

// HandleReaction defaults to rejecting every emoji.
func (StepBase) HandleReaction(ctx context.Context, r *ports.Reaction) (domain.StepKey, bool, error) {
	return "", false, domain.ErrUnknownEmoji
}

// ControlHook defaults to no override.
func (StepBase) ControlHook(ctx context.Context, ev *ports.Message, userID string) (domain.StepKey, error) {
	return "", nil
}
