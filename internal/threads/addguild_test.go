package threads_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlabs/hearth/pkg/domain"
)

const newGuildID = "123456789012345678"

func TestAddGuildRegistersNewGuild(t *testing.T) {
	f := newFixture(t)

	f.start(domain.ThreadAddGuild, "")
	assert.Contains(t, f.lastContent(), "What is the ID of the guild")

	// A fresh ID creates the record and cascades into the name question.
	require.NoError(t, f.reply(newGuildID))
	assert.Equal(t, "What is the friendly name of the guild you'd like to add?", f.lastContent())
	assert.Equal(t, newGuildID, f.record().GuildID)

	require.NoError(t, f.reply("Acme Collective"))
	f.requireFinished()
	assert.Contains(t, f.lastContent(), "Thanks for adding Acme Collective as a new guild!")

	guild, err := f.profiles.FindGuild(context.Background(), newGuildID)
	require.NoError(t, err)
	require.NotNil(t, guild)
	assert.Equal(t, "Acme Collective", guild.Name)
}

func TestAddGuildRejectsNonNumericID(t *testing.T) {
	f := newFixture(t)

	f.start(domain.ThreadAddGuild, "")
	before := f.record().Step

	err := f.reply("not-a-guild-id")
	var terr *domain.TerminateThreadError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "not-a-guild-id is not a valid guild id!", terr.Reason)
	assert.Equal(t, before, f.record().Step)
}

func TestAddGuildExistingMemberIsTurnedAway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.profiles.CreateGuild(ctx, newGuildID)
	require.NoError(t, err)
	require.NoError(t, f.profiles.UpdateGuildField(ctx, newGuildID, "guild_name", "Acme"))
	_, err = f.profiles.CreateUser(ctx, testUser, newGuildID)
	require.NoError(t, err)

	f.start(domain.ThreadAddGuild, "")

	err = f.reply(newGuildID)
	var terr *domain.TerminateThreadError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, terr.Reason, "has already been added as Acme")
}

func TestAddGuildExistingGuildHandsOffToOnboarding(t *testing.T) {
	f := newFixture(t)
	_, err := f.profiles.CreateGuild(context.Background(), newGuildID)
	require.NoError(t, err)

	f.start(domain.ThreadAddGuild, "")
	require.NoError(t, f.reply(newGuildID))

	// The guild exists but the user holds no profile there: the record now
	// belongs to onboarding, positioned after its opening prompt.
	record := f.record()
	assert.Equal(t, domain.ThreadOnboarding, record.Thread)
	assert.Equal(t, newGuildID, record.GuildID)
	assert.Contains(t, f.lastContent(), "Would you like your display name to be")
}
