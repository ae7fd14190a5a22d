package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlabs/hearth/internal/adapters/memory"
	"github.com/hearthlabs/hearth/pkg/domain"
)

func TestRegisterRejectsDuplicateKey(t *testing.T) {
	r := NewRegistry(Deps{Store: memory.NewStore(), Messenger: memory.NewMessenger()})
	def := &scriptDef{key: "dup", build: func(ctx context.Context, th *Thread) (*Node, error) {
		return NewNode(step("only")), nil
	}}
	require.NoError(t, r.Register(def))
	assert.Error(t, r.Register(def))
}

func TestHydrateUnknownThread(t *testing.T) {
	r := NewRegistry(Deps{Store: memory.NewStore(), Messenger: memory.NewMessenger()})
	record := domain.NewStateRecord("ghost", RootID(), "", "")
	_, err := r.Hydrate(context.Background(), record, testUser)
	assert.ErrorIs(t, err, domain.ErrUnknownThread)
}

func TestHydrateUnknownNode(t *testing.T) {
	r := NewRegistry(Deps{Store: memory.NewStore(), Messenger: memory.NewMessenger()})
	def := &scriptDef{key: "tiny", build: func(ctx context.Context, th *Thread) (*Node, error) {
		return NewNode(step("only")), nil
	}}
	r.MustRegister(def)

	record := domain.NewStateRecord("tiny", "bogus-node-id", "", "")
	_, err := r.Hydrate(context.Background(), record, testUser)
	assert.Error(t, err)
}

func TestSeedPositionsRecordAtRoot(t *testing.T) {
	store := memory.NewStore()
	r := NewRegistry(Deps{Store: store, Messenger: memory.NewMessenger()})
	def := &scriptDef{key: "seeded", build: func(ctx context.Context, th *Thread) (*Node, error) {
		return NewNode(step("root")), nil
	}}
	r.MustRegister(def)

	ctx := context.Background()
	meta := map[string]any{"guilds": map[string]string{"👽": "g1"}}
	require.NoError(t, r.Seed(ctx, "seeded", testUser, "", "prompt-9", meta))

	record, err := store.Load(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, RootID(), record.Step)
	assert.Equal(t, "prompt-9", record.MessageID)
	assert.Equal(t, meta, record.Metadata)
}
