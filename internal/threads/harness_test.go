package threads_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hearthlabs/hearth/internal/adapters/memory"
	"github.com/hearthlabs/hearth/internal/threads"
	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/flow"
	"github.com/hearthlabs/hearth/pkg/ports"
)

const (
	testUser    = "u-1"
	testChannel = "dm-1"
)

// fixture wires the full thread set against in-memory adapters and drives
// turns the way the dispatcher does: load the record, hydrate, handle.
type fixture struct {
	t        *testing.T
	store    *memory.Store
	msgr     *memory.Messenger
	profiles *memory.ProfileStore
	registry *flow.Registry
}

func newFixture(t *testing.T, opts ...func(*threads.Services)) *fixture {
	t.Helper()

	store := memory.NewStore()
	msgr := memory.NewMessenger()
	profiles := memory.NewProfileStore()

	svc := threads.Services{Profiles: profiles, Messenger: msgr}
	for _, opt := range opts {
		opt(&svc)
	}

	registry := flow.NewRegistry(flow.Deps{Store: store, Messenger: msgr})
	registry.MustRegister(threads.Definitions(svc)...)

	return &fixture{t: t, store: store, msgr: msgr, profiles: profiles, registry: registry}
}

func (f *fixture) start(key domain.ThreadKey, guildID string) {
	f.t.Helper()
	err := f.registry.Start(context.Background(), key, testUser, guildID, &ports.Message{
		ID:        uuid.NewString(),
		ChannelID: testChannel,
		AuthorID:  testUser,
	})
	require.NoError(f.t, err)
}

func (f *fixture) seed(key domain.ThreadKey, guildID, promptID string, metadata map[string]any) {
	f.t.Helper()
	err := f.registry.Seed(context.Background(), key, testUser, guildID, promptID, metadata)
	require.NoError(f.t, err)
}

func (f *fixture) record() *domain.StateRecord {
	f.t.Helper()
	record, err := f.store.Load(context.Background(), testUser)
	require.NoError(f.t, err)
	return record
}

func (f *fixture) reply(content string) error {
	f.t.Helper()
	ctx := context.Background()
	record, err := f.store.Load(ctx, testUser)
	require.NoError(f.t, err)
	thread, err := f.registry.Hydrate(ctx, record, testUser)
	require.NoError(f.t, err)
	return thread.HandleMessage(ctx, &ports.Message{
		ID:        uuid.NewString(),
		ChannelID: testChannel,
		AuthorID:  testUser,
		Content:   content,
	})
}

// react applies an emoji to the active prompt.
func (f *fixture) react(emoji string) error {
	f.t.Helper()
	ctx := context.Background()
	record, err := f.store.Load(ctx, testUser)
	require.NoError(f.t, err)
	thread, err := f.registry.Hydrate(ctx, record, testUser)
	require.NoError(f.t, err)
	return thread.HandleReaction(ctx, &ports.Reaction{
		UserID:    testUser,
		ChannelID: testChannel,
		MessageID: record.MessageID,
		Emoji:     emoji,
	})
}

func (f *fixture) lastContent() string {
	f.t.Helper()
	last := f.msgr.LastSent()
	require.NotNil(f.t, last)
	return last.Message.Content
}

func (f *fixture) requireFinished() {
	f.t.Helper()
	_, err := f.store.Load(context.Background(), testUser)
	require.ErrorIs(f.t, err, domain.ErrStateNotFound)
}

func (f *fixture) findProfile(guildID string) *ports.UserProfile {
	f.t.Helper()
	profile, err := f.profiles.FindUser(context.Background(), testUser, guildID)
	require.NoError(f.t, err)
	return profile
}
