package ports

import (
	"context"
	"time"
)

// Profile field names accepted by UpdateUserField.
const (
	FieldDisplayName = "display_name"
	FieldHandle      = "handle"
	FieldWallet      = "wallet"
	FieldForum       = "forum"
)

// UserProfile is a user's record in the profile backend, scoped to one
// guild.
type UserProfile struct {
	ID          string
	DiscordID   string
	GuildID     string
	DisplayName string
	Handle      string
	Wallet      string
	Forum       string
}

// GuildProfile is a community's record in the profile backend.
type GuildProfile struct {
	ID         string
	GuildID    string
	Name       string
	ReportLink string
}

// Contribution is a reported community contribution.
type Contribution struct {
	// Contributor is the display name of the reporting member. Only
	// populated on guild-wide listings.
	Contributor string

	Activity    string
	Status      string
	SubmittedAt time.Time
	EngagedAt   time.Time
	Points      int
}

// ContributionTask is a guild-configured onboarding contribution. Tasks
// are ordered; each becomes a run of nodes in the initial-contribution
// tree.
type ContributionTask struct {
	Order        int
	Instructions string
}

// ProfileStore is the external profile/community backend. Consumed only
// inside step Save and ControlHook implementations; the flow engine itself
// never touches it.
//
// Find methods return (nil, nil) when no record exists.
type ProfileStore interface {
	FindUser(ctx context.Context, discordID, guildID string) (*UserProfile, error)
	CreateUser(ctx context.Context, discordID, guildID string) (*UserProfile, error)
	UpdateUserField(ctx context.Context, profileID, field, value string) error

	// ListUserGuilds returns the guilds the user holds a profile in.
	ListUserGuilds(ctx context.Context, discordID string) ([]GuildProfile, error)

	FindGuild(ctx context.Context, guildID string) (*GuildProfile, error)
	CreateGuild(ctx context.Context, guildID string) (*GuildProfile, error)
	UpdateGuildField(ctx context.Context, guildID, field, value string) error

	// ListContributions returns a user's reported contributions, newest
	// first. A nil since means no lower bound.
	ListContributions(ctx context.Context, profileID string, since *time.Time) ([]Contribution, error)

	// ListGuildContributions returns every member's contributions within a
	// guild, newest first. A nil since means no lower bound.
	ListGuildContributions(ctx context.Context, guildID string, since *time.Time) ([]Contribution, error)

	// ListContributionTasks returns the guild's configured contribution
	// tasks in ascending order.
	ListContributionTasks(ctx context.Context, guildID string) ([]ContributionTask, error)
}
