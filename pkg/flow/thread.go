package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// maxCascade bounds the number of control-hook auto-advances a single
// inbound event may trigger. A handler whose hook never stabilizes would
// otherwise recurse forever.
const maxCascade = 10

const (
	reactInsteadNotice = "Please react with one of the above emojis to continue!"
	staleReactionNotice = "Emoji reaction on the wrong message. Please react to your most recent message."
	unknownEmojiNotice = "In order to move to the following step please react with one of the already existing emojis."
)

// Thread drives one user's traversal of a step tree for a single inbound
// event. It is rebuilt per event; only the state record survives between
// events.
type Thread struct {
	key       domain.ThreadKey
	userID    string
	guildID   string
	messageID string
	metadata  map[string]any

	root *Node
	step *Node
	skip bool

	// handoff marks that a step jumped to another thread, which now owns
	// the state record. The current turn stops persisting.
	handoff bool

	def      Definition
	registry *Registry
	store    ports.StateStore
	msgr     ports.Messenger
	log      *slog.Logger
}

// Key returns the thread's conversation type.
func (t *Thread) Key() domain.ThreadKey { return t.key }

// UserID returns the user this thread belongs to.
func (t *Thread) UserID() string { return t.userID }

// GuildID returns the community the conversation is scoped to. May be
// empty until a guild-select step resolves it.
func (t *Thread) GuildID() string { return t.guildID }

// SetGuildID rebinds the conversation to a community. Called by steps
// that resolve or switch the guild mid-flow.
func (t *Thread) SetGuildID(guildID string) { t.guildID = guildID }

// Step returns the node the thread currently sits on.
func (t *Thread) Step() *Node { return t.step }

// Messenger exposes the chat capability to steps built around this
// thread.
func (t *Thread) Messenger() ports.Messenger { return t.msgr }

// Meta reads a metadata value carried between turns.
func (t *Thread) Meta(key string) (any, bool) {
	v, ok := t.metadata[key]
	return v, ok
}

// MetaString reads a metadata value as a string; absent or non-string
// values yield "".
func (t *Thread) MetaString(key string) string {
	s, _ := t.metadata[key].(string)
	return s
}

// SetMeta writes a metadata value. The bag is persisted with the record
// at the end of the turn.
func (t *Thread) SetMeta(key string, value any) {
	if t.metadata == nil {
		t.metadata = make(map[string]any)
	}
	t.metadata[key] = value
}

// HandleMessage runs one turn of the reply protocol against the inbound
// message.
func (t *Thread) HandleMessage(ctx context.Context, msg *ports.Message) error {
	return t.runTurn(ctx, msg, 0)
}

func (t *Thread) runTurn(ctx context.Context, msg *ports.Message, depth int) error {
	if depth > maxCascade {
		return fmt.Errorf("%w: thread %s step %s", domain.ErrCascadeDepth, t.key, t.step.ID())
	}

	handler := t.step.Handler()
	t.log.Debug("running turn",
		"thread", t.key,
		"step", handler.Name(),
		"node", t.step.ID(),
		"depth", depth,
	)

	// A reaction step cannot consume a free-form reply. Correct the user
	// and leave the record untouched so they can react to the live prompt.
	if handler.IsReaction() {
		_, err := t.msgr.SendMessage(ctx, msg.ChannelID, reactInsteadNotice)
		return err
	}

	// The reply answers the previous node's prompt; commit it there first.
	if prev := t.step.Previous(); prev != nil && !t.skip {
		if err := prev.Handler().Save(ctx, msg, t.guildID, t.userID); err != nil {
			return err
		}
	}
	t.skip = false

	prompt, metadata, err := handler.Send(ctx, msg, t.userID)
	if err != nil {
		return err
	}
	if t.handoff {
		// Another thread owns the record now.
		return nil
	}
	if metadata != nil {
		t.metadata = metadata
	}
	if prompt != nil {
		t.messageID = prompt.ID
	}

	if len(t.step.Successors()) == 0 {
		t.log.Info("thread complete", "thread", t.key, "user_id", t.userID)
		return t.store.Delete(ctx, t.userID)
	}

	override, err := handler.ControlHook(ctx, msg, t.userID)
	if err != nil {
		return err
	}
	if t.handoff {
		return nil
	}
	if override != "" {
		if override == domain.StepEnd {
			t.log.Info("thread ended by control hook", "thread", t.key, "user_id", t.userID)
			return t.store.Delete(ctx, t.userID)
		}
		next, err := t.step.Successor(override)
		if err != nil {
			return err
		}
		t.step = next
		return t.runTurn(ctx, msg, depth+1)
	}

	next := t.step.First()
	record := &domain.StateRecord{
		Thread:    t.key,
		Step:      next.ID(),
		GuildID:   t.guildID,
		MessageID: t.messageID,
		Metadata:  t.metadata,
	}
	return t.store.Save(ctx, t.userID, record)
}

// HandleReaction runs one turn of the reaction protocol.
func (t *Thread) HandleReaction(ctx context.Context, r *ports.Reaction) error {
	t.log.Debug("handling reaction",
		"thread", t.key,
		"step", t.step.Handler().Name(),
		"emoji", r.Emoji,
	)

	// Reactions on anything but the active prompt are stale.
	if r.MessageID != t.messageID {
		_, err := t.msgr.SendMessage(ctx, r.ChannelID, staleReactionNotice)
		return err
	}

	key, skip, err := t.step.Handler().HandleReaction(ctx, r)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownEmoji) {
			// Recoverable: the user stays on the same node and may retry.
			_, sendErr := t.msgr.SendMessage(ctx, r.ChannelID, unknownEmojiNotice)
			return sendErr
		}
		return err
	}

	if key == "" {
		next := t.step.First()
		if next == nil {
			return t.store.Delete(ctx, t.userID)
		}
		key = next.Handler().Name()
	}

	next, err := t.step.Successor(key)
	if err != nil {
		return err
	}
	t.step = next
	t.skip = skip

	// Re-enter the reply protocol on the reaction's source event so the
	// successor's prompt goes out without waiting for further input.
	ev := &ports.Message{
		ID:        r.MessageID,
		ChannelID: r.ChannelID,
		AuthorID:  r.UserID,
	}
	return t.runTurn(ctx, ev, 0)
}

// Rebuild reconstructs the step tree and relocates the current node by
// its identifier. Steps that change the inputs a builder consults (e.g. a
// guild-select resolving the community that owns a variable-length task
// list) call this so the rest of the event sees the fresh tree.
func (t *Thread) Rebuild(ctx context.Context) error {
	root, err := t.def.Steps(ctx, t)
	if err != nil {
		return fmt.Errorf("rebuild thread %s: %w", t.key, err)
	}
	node := root.Find(t.step.ID())
	if node == nil {
		return fmt.Errorf("rebuild thread %s: node %s no longer present", t.key, t.step.ID())
	}
	t.root = root
	t.step = node
	return nil
}

// JumpTo hands the conversation over to another thread: the target is
// hydrated at its root and runs its first turn on the same event,
// overwriting the state record. The current thread stops persisting.
func (t *Thread) JumpTo(ctx context.Context, key domain.ThreadKey, ev *ports.Message) error {
	t.handoff = true

	record := domain.NewStateRecord(key, RootID(), t.guildID, ev.ID)
	record.Metadata = t.metadata

	target, err := t.registry.Hydrate(ctx, record, t.userID)
	if err != nil {
		return fmt.Errorf("jump to thread %s: %w", key, err)
	}
	return target.HandleMessage(ctx, ev)
}
