package ports

import (
	"context"
	"testing"
	"time"

	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore
// implementation adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	userID := "contract-test-user-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		record := domain.NewStateRecord(domain.ThreadOnboarding, "abcd1234", "guild-1", "msg-1")
		record.Metadata["handle"] = "kevin"

		err := store.Save(ctx, userID, record)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, record.Thread, loaded.Thread)
		assert.Equal(t, record.Step, loaded.Step)
		assert.Equal(t, record.GuildID, loaded.GuildID)
		assert.Equal(t, record.MessageID, loaded.MessageID)
		assert.Equal(t, "kevin", loaded.Metadata["handle"])
	})

	t.Run("Overwrite", func(t *testing.T) {
		// One record per user: a second save replaces the first.
		first := domain.NewStateRecord(domain.ThreadOnboarding, "step-a", "", "")
		second := domain.NewStateRecord(domain.ThreadReport, "step-b", "guild-2", "msg-2")

		require.NoError(t, store.Save(ctx, userID, first))
		require.NoError(t, store.Save(ctx, userID, second))

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, domain.ThreadReport, loaded.Thread)
		assert.Equal(t, "step-b", loaded.Step)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+userID)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, userID, domain.NewStateRecord(domain.ThreadOnboarding, "step", "", ""))
		require.NoError(t, err)

		err = store.Delete(ctx, userID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "Load after Delete should return ErrStateNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := userID + "-1"
		id2 := userID + "-2"
		_ = store.Save(ctx, id1, domain.NewStateRecord(domain.ThreadOnboarding, "step", "", ""))
		_ = store.Save(ctx, id2, domain.NewStateRecord(domain.ThreadReport, "step", "", ""))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		users, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, users, id1)
		assert.Contains(t, users, id2)
	})
}
