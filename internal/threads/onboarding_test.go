package threads_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlabs/hearth/internal/threads"
	"github.com/hearthlabs/hearth/pkg/domain"
)

const (
	testGuild  = "1001"
	testWallet = "0x00112233445566778899aabbccddeeff00112233"
)

var testSignature = strings.Repeat("ab", 65)

func withHomeGuild(id string) func(*threads.Services) {
	return func(s *threads.Services) { s.HomeGuildID = id }
}

// runDataChain drives onboarding from the display-name confirmation through
// the wallet signature, leaving the record parked on the congrats node with
// the forum question as the active prompt.
func runDataChain(f *fixture) {
	f.start(domain.ThreadOnboarding, testGuild)
	require.NoError(f.t, f.react(threads.YesEmoji))
	require.NoError(f.t, f.reply("@alice"))
	require.NoError(f.t, f.reply("https://twitter.com/alice/status/12345"))
	require.NoError(f.t, f.reply(testWallet))
	require.NoError(f.t, f.reply(testSignature))
}

func TestOnboardingAcceptsPlatformDisplayName(t *testing.T) {
	f := newFixture(t)

	runDataChain(f)
	require.NoError(t, f.reply("alice-forum"))

	f.requireFinished()
	assert.Equal(t, "Congratulations on completing onboarding to guild-1001!", f.lastContent())

	profile := f.findProfile(testGuild)
	require.NotNil(t, profile)
	assert.Equal(t, "user-u-1", profile.DisplayName)
	assert.Equal(t, "alice", profile.Handle)
	assert.Equal(t, testWallet, profile.Wallet)
	assert.Equal(t, "alice-forum", profile.Forum)
}

func TestOnboardingChosenDisplayName(t *testing.T) {
	f := newFixture(t)

	f.start(domain.ThreadOnboarding, testGuild)
	require.NoError(t, f.react(threads.NoEmoji))
	assert.Equal(t, "What would you like your display name to be?", f.lastContent())

	require.NoError(t, f.reply("Alex"))
	assert.Equal(t, "What social handle would you like to associate with this guild?", f.lastContent())

	profile := f.findProfile(testGuild)
	require.NotNil(t, profile)
	assert.Equal(t, "Alex", profile.DisplayName)
}

func TestOnboardingEmptyDisplayNameRetries(t *testing.T) {
	f := newFixture(t)

	f.start(domain.ThreadOnboarding, testGuild)
	require.NoError(t, f.react(threads.NoEmoji))
	before := f.record().Step

	err := f.reply("   ")
	var terr *domain.TerminateThreadError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "A display name can't be empty, please try again.", terr.Reason)

	// Record stays on the same node so the user can retry.
	assert.Equal(t, before, f.record().Step)
}

func TestOnboardingRejectsMalformedPostURL(t *testing.T) {
	f := newFixture(t)

	f.start(domain.ThreadOnboarding, testGuild)
	require.NoError(t, f.react(threads.YesEmoji))
	require.NoError(t, f.reply("@alice"))

	err := f.reply("https://example.com/not-a-post")
	var terr *domain.TerminateThreadError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, terr.Reason, "was not in the expected format")
}

func TestOnboardingRejectsMismatchedHandlePost(t *testing.T) {
	f := newFixture(t)

	f.start(domain.ThreadOnboarding, testGuild)
	require.NoError(t, f.react(threads.YesEmoji))
	require.NoError(t, f.reply("@alice"))

	err := f.reply("https://twitter.com/bob/status/99")
	var terr *domain.TerminateThreadError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, terr.Reason, "does not match the supplied handle alice")
}

func TestOnboardingRejectsInvalidWallet(t *testing.T) {
	f := newFixture(t)

	f.start(domain.ThreadOnboarding, testGuild)
	require.NoError(t, f.react(threads.YesEmoji))
	require.NoError(t, f.reply("@alice"))
	require.NoError(t, f.reply("https://twitter.com/alice/status/12345"))

	err := f.reply("0x123")
	var terr *domain.TerminateThreadError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, terr.Reason, "is not a valid wallet address")
}

func TestOnboardingRejectsInvalidSignature(t *testing.T) {
	f := newFixture(t)

	f.start(domain.ThreadOnboarding, testGuild)
	require.NoError(t, f.react(threads.YesEmoji))
	require.NoError(t, f.reply("@alice"))
	require.NoError(t, f.reply("https://twitter.com/alice/status/12345"))
	require.NoError(t, f.reply(testWallet))

	err := f.reply("not a signature")
	var terr *domain.TerminateThreadError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "The response wasn't a correct signature!", terr.Reason)
}

func TestOnboardingSkipForumKeepsForumEmpty(t *testing.T) {
	f := newFixture(t)

	runDataChain(f)
	require.NoError(t, f.react(threads.SkipEmoji))

	f.requireFinished()
	profile := f.findProfile(testGuild)
	require.NotNil(t, profile)
	assert.Empty(t, profile.Forum)
	assert.Equal(t, "Congratulations on completing onboarding to guild-1001!", f.lastContent())
}

func TestOnboardingOffersHomeProfile(t *testing.T) {
	f := newFixture(t, withHomeGuild("home"))

	runDataChain(f)
	require.NoError(t, f.reply("alice-forum"))

	assert.Equal(t, "Would you like to be onboarded to the guild-home guild as well?", f.lastContent())
	assert.Equal(t, domain.ThreadOnboarding, f.record().Thread)
}

func TestOnboardingHomeOfferSkippedWhenProfileExists(t *testing.T) {
	f := newFixture(t, withHomeGuild("home"))
	_, err := f.profiles.CreateUser(context.Background(), testUser, "home")
	require.NoError(t, err)

	runDataChain(f)
	require.NoError(t, f.reply("alice-forum"))
	f.requireFinished()
}

func TestOnboardingHomeOfferRejected(t *testing.T) {
	f := newFixture(t, withHomeGuild("home"))

	runDataChain(f)
	require.NoError(t, f.reply("alice-forum"))
	require.NoError(t, f.react(threads.NoEmoji))

	f.requireFinished()
	assert.Equal(t, "No problem! You are free to join at any time.", f.lastContent())
}

func TestOnboardingHomeOfferReusesProfile(t *testing.T) {
	f := newFixture(t, withHomeGuild("home"))

	runDataChain(f)
	require.NoError(t, f.reply("alice-forum"))
	require.NoError(t, f.react(threads.YesEmoji))
	assert.Equal(t, "Would you like to reuse your profile data from the 1001 guild?", f.lastContent())

	require.NoError(t, f.react(threads.YesEmoji))
	f.requireFinished()

	home := f.findProfile("home")
	require.NotNil(t, home)
	assert.Equal(t, "user-u-1", home.DisplayName)
	assert.Equal(t, "alice", home.Handle)
	assert.Equal(t, testWallet, home.Wallet)
	assert.Equal(t, "alice-forum", home.Forum)
}

func TestOnboardingHomeOfferResubmitsForHomeGuild(t *testing.T) {
	f := newFixture(t, withHomeGuild("home"))

	runDataChain(f)
	require.NoError(t, f.reply("alice-forum"))
	require.NoError(t, f.react(threads.YesEmoji))

	// Declining reuse re-runs data collection scoped to the home guild.
	require.NoError(t, f.react(threads.NoEmoji))
	assert.Equal(t, "What would you like your display name to be?", f.lastContent())
	assert.Equal(t, "home", f.record().GuildID)

	require.NoError(t, f.reply("Homie"))
	home := f.findProfile("home")
	require.NotNil(t, home)
	assert.Equal(t, "Homie", home.DisplayName)
}
