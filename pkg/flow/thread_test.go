package flow

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlabs/hearth/internal/adapters/memory"
	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// scriptStep is a configurable handler for driving the engine in tests.
type scriptStep struct {
	StepBase
	key        domain.StepKey
	msgr       ports.Messenger
	prompt     string
	meta       map[string]any
	isReaction bool

	saved   *[]string
	saveErr error

	hookKey domain.StepKey

	reactKey  domain.StepKey
	reactSkip bool
	reactErr  error
}

func (s *scriptStep) Name() domain.StepKey { return s.key }

func (s *scriptStep) IsReaction() bool { return s.isReaction }

func (s *scriptStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	if s.prompt == "" {
		return nil, s.meta, nil
	}
	msg, err := s.msgr.SendMessage(ctx, ev.ChannelID, s.prompt)
	return msg, s.meta, err
}

func (s *scriptStep) Save(ctx context.Context, ev *ports.Message, guildID, userID string) error {
	if s.saved != nil {
		*s.saved = append(*s.saved, fmt.Sprintf("%s=%s", s.key, ev.Content))
	}
	return s.saveErr
}

func (s *scriptStep) HandleReaction(ctx context.Context, r *ports.Reaction) (domain.StepKey, bool, error) {
	return s.reactKey, s.reactSkip, s.reactErr
}

func (s *scriptStep) ControlHook(ctx context.Context, ev *ports.Message, userID string) (domain.StepKey, error) {
	return s.hookKey, nil
}

// scriptDef adapts a build closure into a Definition.
type scriptDef struct {
	key   domain.ThreadKey
	build func(ctx context.Context, t *Thread) (*Node, error)
}

func (d *scriptDef) Key() domain.ThreadKey { return d.key }

func (d *scriptDef) Steps(ctx context.Context, t *Thread) (*Node, error) {
	return d.build(ctx, t)
}

type fixture struct {
	store    *memory.Store
	msgr     *memory.Messenger
	registry *Registry
}

func newFixture(t *testing.T, defs ...Definition) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		msgr:  memory.NewMessenger(),
	}
	f.registry = NewRegistry(Deps{Store: f.store, Messenger: f.msgr})
	f.registry.MustRegister(defs...)
	return f
}

func (f *fixture) hydrate(t *testing.T, userID string) *Thread {
	t.Helper()
	record, err := f.store.Load(context.Background(), userID)
	require.NoError(t, err)
	thread, err := f.registry.Hydrate(context.Background(), record, userID)
	require.NoError(t, err)
	return thread
}

func (f *fixture) record(t *testing.T, userID string) *domain.StateRecord {
	t.Helper()
	record, err := f.store.Load(context.Background(), userID)
	require.NoError(t, err)
	return record
}

const (
	testUser    = "user-1"
	testChannel = "dm-1"
)

func reply(content string) *ports.Message {
	return &ports.Message{ID: "in-1", ChannelID: testChannel, AuthorID: testUser, Content: content}
}

func TestLinearAdvance(t *testing.T) {
	var saves []string
	def := &scriptDef{key: "quiz"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "q1", msgr: f.msgr, prompt: "first?", saved: &saves})
		root.Append(&scriptStep{key: "q2", msgr: f.msgr, prompt: "second?", saved: &saves}).
			Append(&scriptStep{key: "q3", msgr: f.msgr, prompt: "done", saved: &saves})
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Start(ctx, "quiz", testUser, "g1", reply("")))

	record := f.record(t, testUser)
	root, err := def.build(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, root.First().ID(), record.Step)
	assert.Equal(t, "first?", f.msgr.LastSent().Message.Content)

	thread := f.hydrate(t, testUser)
	require.NoError(t, thread.HandleMessage(ctx, reply("answer one")))

	// The reply was committed to the previous node before the next prompt.
	assert.Equal(t, []string{"q1=answer one"}, saves)
	assert.Equal(t, "second?", f.msgr.LastSent().Message.Content)
	assert.Equal(t, root.First().First().ID(), f.record(t, testUser).Step)
}

func TestTerminalStepDeletesRecord(t *testing.T) {
	def := &scriptDef{key: "oneshot"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		return NewNode(&scriptStep{key: "only", msgr: f.msgr, prompt: "bye"}), nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Start(ctx, "oneshot", testUser, "", reply("")))

	_, err := f.store.Load(ctx, testUser)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
	assert.Equal(t, "bye", f.msgr.LastSent().Message.Content)
}

func TestReactionStepRejectsReply(t *testing.T) {
	def := &scriptDef{key: "confirm"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "emoji", msgr: f.msgr, isReaction: true})
		root.Append(&scriptStep{key: "after", msgr: f.msgr, prompt: "next"})
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Seed(ctx, "confirm", testUser, "", "prompt-1", nil))

	thread := f.hydrate(t, testUser)
	require.NoError(t, thread.HandleMessage(ctx, reply("typed instead")))

	assert.Contains(t, f.msgr.LastSent().Message.Content, "react")
	// Record untouched: still parked on the root awaiting the reaction.
	assert.Equal(t, RootID(), f.record(t, testUser).Step)
}

func TestForkSelectionByReaction(t *testing.T) {
	def := &scriptDef{key: "fork"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "choose", msgr: f.msgr, isReaction: true, reactKey: "b"})
		root.Fork(
			NewNode(&scriptStep{key: "a", msgr: f.msgr, prompt: "went a"}),
			NewNode(&scriptStep{key: "b", msgr: f.msgr, prompt: "went b"}),
		)
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Seed(ctx, "fork", testUser, "", "prompt-1", nil))

	thread := f.hydrate(t, testUser)
	err := thread.HandleReaction(ctx, &ports.Reaction{
		UserID: testUser, ChannelID: testChannel, MessageID: "prompt-1", Emoji: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "went b", f.msgr.LastSent().Message.Content)
}

func TestReactionDefaultsToFirstSuccessor(t *testing.T) {
	def := &scriptDef{key: "fork"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "choose", msgr: f.msgr, isReaction: true})
		root.Fork(
			NewNode(&scriptStep{key: "a", msgr: f.msgr, prompt: "went a"}),
			NewNode(&scriptStep{key: "b", msgr: f.msgr, prompt: "went b"}),
		)
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Seed(ctx, "fork", testUser, "", "prompt-1", nil))

	thread := f.hydrate(t, testUser)
	err := thread.HandleReaction(ctx, &ports.Reaction{
		UserID: testUser, ChannelID: testChannel, MessageID: "prompt-1", Emoji: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "went a", f.msgr.LastSent().Message.Content)
}

func TestSkipSuppressesSave(t *testing.T) {
	var saves []string
	def := &scriptDef{key: "optional"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "maybe", msgr: f.msgr, isReaction: true, reactSkip: true, saved: &saves})
		root.Append(&scriptStep{key: "after", msgr: f.msgr, prompt: "moving on", saved: &saves})
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Seed(ctx, "optional", testUser, "", "prompt-1", nil))

	thread := f.hydrate(t, testUser)
	err := thread.HandleReaction(ctx, &ports.Reaction{
		UserID: testUser, ChannelID: testChannel, MessageID: "prompt-1", Emoji: "⏭",
	})
	require.NoError(t, err)

	assert.Empty(t, saves)
	assert.Equal(t, "moving on", f.msgr.LastSent().Message.Content)
}

func TestStaleReactionProducesNoStateChange(t *testing.T) {
	def := &scriptDef{key: "confirm"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "emoji", msgr: f.msgr, isReaction: true})
		root.Append(&scriptStep{key: "after", msgr: f.msgr, prompt: "next"})
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Seed(ctx, "confirm", testUser, "", "prompt-1", nil))

	thread := f.hydrate(t, testUser)
	err := thread.HandleReaction(ctx, &ports.Reaction{
		UserID: testUser, ChannelID: testChannel, MessageID: "some-older-prompt", Emoji: "x",
	})
	require.NoError(t, err)

	assert.Contains(t, f.msgr.LastSent().Message.Content, "most recent")
	assert.Equal(t, RootID(), f.record(t, testUser).Step)
}

func TestUnknownEmojiReprompts(t *testing.T) {
	def := &scriptDef{key: "confirm"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "emoji", msgr: f.msgr, isReaction: true, reactErr: domain.ErrUnknownEmoji})
		root.Append(&scriptStep{key: "after", msgr: f.msgr, prompt: "next"})
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Seed(ctx, "confirm", testUser, "", "prompt-1", nil))

	thread := f.hydrate(t, testUser)
	err := thread.HandleReaction(ctx, &ports.Reaction{
		UserID: testUser, ChannelID: testChannel, MessageID: "prompt-1", Emoji: "?",
	})
	require.NoError(t, err)

	assert.Contains(t, f.msgr.LastSent().Message.Content, "already existing emojis")
	assert.Equal(t, RootID(), f.record(t, testUser).Step)
}

func TestUnknownSuccessorTokenAbortsTurn(t *testing.T) {
	def := &scriptDef{key: "confirm"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "emoji", msgr: f.msgr, isReaction: true, reactKey: "nonexistent"})
		root.Append(&scriptStep{key: "after", msgr: f.msgr, prompt: "next"})
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Seed(ctx, "confirm", testUser, "", "prompt-1", nil))

	thread := f.hydrate(t, testUser)
	err := thread.HandleReaction(ctx, &ports.Reaction{
		UserID: testUser, ChannelID: testChannel, MessageID: "prompt-1", Emoji: "x",
	})
	assert.ErrorIs(t, err, domain.ErrUnknownSuccessor)
}

func TestControlHookOverrideCascades(t *testing.T) {
	def := &scriptDef{key: "trigger"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		// verify fires straight into "pass" on the same event.
		root := NewNode(&scriptStep{key: "verify", msgr: f.msgr, hookKey: "pass"})
		root.Fork(
			NewNode(&scriptStep{key: "fail", msgr: f.msgr, prompt: "failed"}),
			NewNode(&scriptStep{key: "pass", msgr: f.msgr, prompt: "verified!"}),
		)
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Start(ctx, "trigger", testUser, "", reply("proof")))

	// One inbound event produced the pass prompt without further input,
	// and pass is terminal so the record is gone.
	assert.Equal(t, "verified!", f.msgr.LastSent().Message.Content)
	_, err := f.store.Load(ctx, testUser)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestControlHookEndSentinelDeletesRecord(t *testing.T) {
	def := &scriptDef{key: "bail"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "check", msgr: f.msgr, prompt: "checking", hookKey: domain.StepEnd})
		root.Append(&scriptStep{key: "never", msgr: f.msgr, prompt: "unreachable"})
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Start(ctx, "bail", testUser, "", reply("")))

	_, err := f.store.Load(ctx, testUser)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
	assert.Equal(t, "checking", f.msgr.LastSent().Message.Content)
}

func TestCascadeDepthBound(t *testing.T) {
	def := &scriptDef{key: "loop"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "n0", msgr: f.msgr, hookKey: "n1"})
		node := root
		for i := 1; i < 15; i++ {
			node = node.Append(&scriptStep{
				key:     domain.StepKey(fmt.Sprintf("n%d", i)),
				msgr:    f.msgr,
				hookKey: domain.StepKey(fmt.Sprintf("n%d", i+1)),
			})
		}
		return root, nil
	}

	ctx := context.Background()
	err := f.registry.Start(ctx, "loop", testUser, "", reply(""))
	assert.ErrorIs(t, err, domain.ErrCascadeDepth)
}

func TestMetadataCarryForward(t *testing.T) {
	def := &scriptDef{key: "meta"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "set", msgr: f.msgr, prompt: "a",
			meta: map[string]any{"color": "green"}})
		root.Append(&scriptStep{key: "keep", msgr: f.msgr, prompt: "b"}).
			Append(&scriptStep{key: "tail", msgr: f.msgr, prompt: "c"})
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Start(ctx, "meta", testUser, "", reply("")))
	assert.Equal(t, "green", f.record(t, testUser).Metadata["color"])

	// A step returning nil metadata leaves the bag untouched.
	thread := f.hydrate(t, testUser)
	require.NoError(t, thread.HandleMessage(ctx, reply("next")))
	assert.Equal(t, "green", f.record(t, testUser).Metadata["color"])
}

func TestJumpToHandsRecordToTargetThread(t *testing.T) {
	f := &fixture{store: memory.NewStore(), msgr: memory.NewMessenger()}
	f.registry = NewRegistry(Deps{Store: f.store, Messenger: f.msgr})

	target := &scriptDef{key: "target"}
	target.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "greet", msgr: f.msgr, prompt: "welcome over here"})
		root.Append(&scriptStep{key: "after", msgr: f.msgr, prompt: "tail"})
		return root, nil
	}

	source := &scriptDef{key: "source"}
	source.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&jumpStep{thread: th})
		root.Append(&scriptStep{key: "unused", msgr: f.msgr, prompt: "never"})
		return root, nil
	}
	f.registry.MustRegister(source, target)

	ctx := context.Background()
	require.NoError(t, f.registry.Start(ctx, "source", testUser, "g1", reply("")))

	record := f.record(t, testUser)
	assert.Equal(t, domain.ThreadKey("target"), record.Thread)
	assert.Equal(t, "welcome over here", f.msgr.LastSent().Message.Content)
}

// jumpStep hands over to the "target" thread from its Send.
type jumpStep struct {
	StepBase
	thread *Thread
}

func (s *jumpStep) Name() domain.StepKey { return "jump" }

func (s *jumpStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	return nil, nil, s.thread.JumpTo(ctx, "target", ev)
}

// growStep sets the guild and rebuilds, so the tree gains its
// guild-dependent branch mid-event.
type growStep struct {
	StepBase
	thread *Thread
}

func (s *growStep) Name() domain.StepKey { return "pick" }

func (s *growStep) IsReaction() bool { return true }

func (s *growStep) HandleReaction(ctx context.Context, r *ports.Reaction) (domain.StepKey, bool, error) {
	s.thread.SetGuildID("g42")
	if err := s.thread.Rebuild(ctx); err != nil {
		return "", false, err
	}
	return "", false, nil
}

func TestRebuildRelocatesAcrossGuildDependentTree(t *testing.T) {
	f := &fixture{store: memory.NewStore(), msgr: memory.NewMessenger()}
	f.registry = NewRegistry(Deps{Store: f.store, Messenger: f.msgr})

	def := &scriptDef{key: "grow"}
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&growStep{thread: th})
		if th.GuildID() == "" {
			return root, nil
		}
		root.Append(&scriptStep{key: "task", msgr: f.msgr, prompt: "task for " + th.GuildID()})
		return root, nil
	}
	f.registry.MustRegister(def)

	ctx := context.Background()
	require.NoError(t, f.registry.Seed(ctx, "grow", testUser, "", "prompt-1", nil))

	thread := f.hydrate(t, testUser)
	err := thread.HandleReaction(ctx, &ports.Reaction{
		UserID: testUser, ChannelID: testChannel, MessageID: "prompt-1", Emoji: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "task for g42", f.msgr.LastSent().Message.Content)
}

// The end-to-end onboarding shape: a reaction fork at the root, "no"
// leading to a free-text capture whose save commits the display name.
func TestOnboardingDisplayNameScenario(t *testing.T) {
	var saves []string
	def := &scriptDef{key: "onboarding"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{key: "confirmDisplayName", msgr: f.msgr, isReaction: true, reactKey: "no"})
		nodeA := NewNode(&scriptStep{key: "yes", msgr: f.msgr, prompt: "keeping your name"})
		nodeB := NewNode(&scriptStep{
			key:    "no",
			msgr:   f.msgr,
			prompt: "What would you like your display name to be?",
			saved:  &saves,
		})
		nodeB.Append(&scriptStep{key: "submitted", msgr: f.msgr, prompt: "saved!", saved: &saves})
		root.Fork(nodeA, nodeB)
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Seed(ctx, "onboarding", testUser, "c1", "prompt-1", nil))

	// User reacts "no": nodeB's prompt goes out and the record parks on
	// nodeB's successor, waiting for the reply that answers nodeB.
	thread := f.hydrate(t, testUser)
	err := thread.HandleReaction(ctx, &ports.Reaction{
		UserID: testUser, ChannelID: testChannel, MessageID: "prompt-1", Emoji: "👎",
	})
	require.NoError(t, err)
	assert.Equal(t, "What would you like your display name to be?", f.msgr.LastSent().Message.Content)

	record := f.record(t, testUser)
	root, err := def.build(ctx, nil)
	require.NoError(t, err)
	nodeB, err := root.Successor("no")
	require.NoError(t, err)
	assert.Equal(t, nodeB.First().ID(), record.Step)

	// User replies "Alex": nodeB.save commits it, then the successor
	// prompts. Being terminal, it also clears the record.
	thread = f.hydrate(t, testUser)
	require.NoError(t, thread.HandleMessage(ctx, reply("Alex")))

	assert.Equal(t, []string{"no=Alex"}, saves)
	assert.Equal(t, "saved!", f.msgr.LastSent().Message.Content)
	_, err = f.store.Load(ctx, testUser)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestSaveErrorAbortsTurnAndKeepsRecord(t *testing.T) {
	var saves []string
	def := &scriptDef{key: "strict"}
	f := newFixture(t, def)
	def.build = func(ctx context.Context, th *Thread) (*Node, error) {
		root := NewNode(&scriptStep{
			key: "wallet", msgr: f.msgr, prompt: "wallet?",
			saved: &saves, saveErr: domain.Terminatef("not a valid address"),
		})
		root.Append(&scriptStep{key: "after", msgr: f.msgr, prompt: "next"}).
			Append(&scriptStep{key: "tail", msgr: f.msgr, prompt: "end"})
		return root, nil
	}

	ctx := context.Background()
	require.NoError(t, f.registry.Start(ctx, "strict", testUser, "", reply("")))
	before := f.record(t, testUser)

	thread := f.hydrate(t, testUser)
	err := thread.HandleMessage(ctx, reply("garbage"))

	var terminate *domain.TerminateThreadError
	require.ErrorAs(t, err, &terminate)
	assert.Equal(t, "not a valid address", terminate.Reason)

	// The record survives so the user can retry the same step.
	after := f.record(t, testUser)
	assert.Equal(t, before.Step, after.Step)
}
