package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlabs/hearth/internal/adapters/memory"
	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, memory.NewStore())
}

func TestMemoryStore_CloneOnReadAndWrite(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	record := domain.NewStateRecord(domain.ThreadOnboarding, "step-1", "g1", "m1")
	require.NoError(t, store.Save(ctx, "u1", record))

	// Mutating the caller's record after save must not leak into the store.
	record.Step = "mutated"
	loaded, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "step-1", loaded.Step)
}

func TestProfileStore_UserLifecycle(t *testing.T) {
	profiles := memory.NewProfileStore()
	ctx := context.Background()

	found, err := profiles.FindUser(ctx, "discord-1", "g1")
	require.NoError(t, err)
	assert.Nil(t, found)

	created, err := profiles.CreateUser(ctx, "discord-1", "g1")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	require.NoError(t, profiles.UpdateUserField(ctx, created.ID, ports.FieldHandle, "kevin"))

	found, err = profiles.FindUser(ctx, "discord-1", "g1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "kevin", found.Handle)

	assert.Error(t, profiles.UpdateUserField(ctx, created.ID, "nonsense", "x"))
}

func TestProfileStore_ListUserGuilds(t *testing.T) {
	profiles := memory.NewProfileStore()
	ctx := context.Background()

	_, err := profiles.CreateGuild(ctx, "g1")
	require.NoError(t, err)
	require.NoError(t, profiles.UpdateGuildField(ctx, "g1", "guild_name", "First Guild"))

	_, err = profiles.CreateUser(ctx, "discord-1", "g1")
	require.NoError(t, err)
	_, err = profiles.CreateUser(ctx, "discord-1", "g2")
	require.NoError(t, err)
	_, err = profiles.CreateUser(ctx, "discord-2", "g1")
	require.NoError(t, err)

	guilds, err := profiles.ListUserGuilds(ctx, "discord-1")
	require.NoError(t, err)
	assert.Len(t, guilds, 2)
}

func TestProfileStore_GuildContributions(t *testing.T) {
	profiles := memory.NewProfileStore()
	ctx := context.Background()

	user, err := profiles.CreateUser(ctx, "discord-1", "g1")
	require.NoError(t, err)
	require.NoError(t, profiles.UpdateUserField(ctx, user.ID, ports.FieldDisplayName, "Alex"))

	old := time.Now().AddDate(0, 0, -30)
	recent := time.Now().AddDate(0, 0, -1)
	profiles.AddContribution(user.ID, ports.Contribution{Activity: "docs", SubmittedAt: old, Points: 5})
	profiles.AddContribution(user.ID, ports.Contribution{Activity: "code", SubmittedAt: recent, Points: 10})

	since := time.Now().AddDate(0, 0, -7)
	contributions, err := profiles.ListGuildContributions(ctx, "g1", &since)
	require.NoError(t, err)
	require.Len(t, contributions, 1)
	assert.Equal(t, "code", contributions[0].Activity)
	assert.Equal(t, "Alex", contributions[0].Contributor)
}
