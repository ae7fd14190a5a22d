package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// ProfileStore implements ports.ProfileStore with in-process maps. Used
// by tests and dev mode.
type ProfileStore struct {
	mu            sync.RWMutex
	users         map[string]*ports.UserProfile  // keyed by profile ID
	guilds        map[string]*ports.GuildProfile // keyed by guild ID
	contributions map[string][]ports.Contribution
	tasks         map[string][]ports.ContributionTask
}

// NewProfileStore creates an empty in-memory profile backend.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		users:         make(map[string]*ports.UserProfile),
		guilds:        make(map[string]*ports.GuildProfile),
		contributions: make(map[string][]ports.Contribution),
		tasks:         make(map[string][]ports.ContributionTask),
	}
}

// FindUser returns the profile for a discord user within a guild, or nil.
func (p *ProfileStore) FindUser(ctx context.Context, discordID, guildID string) (*ports.UserProfile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, u := range p.users {
		if u.DiscordID == discordID && u.GuildID == guildID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

// CreateUser creates a profile for a discord user within a guild.
func (p *ProfileStore) CreateUser(ctx context.Context, discordID, guildID string) (*ports.UserProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	user := &ports.UserProfile{
		ID:        uuid.NewString(),
		DiscordID: discordID,
		GuildID:   guildID,
	}
	p.users[user.ID] = user
	clone := *user
	return &clone, nil
}

// UpdateUserField sets a single profile field.
func (p *ProfileStore) UpdateUserField(ctx context.Context, profileID, field, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.users[profileID]
	if !ok {
		return fmt.Errorf("no profile %s", profileID)
	}
	switch field {
	case ports.FieldDisplayName:
		user.DisplayName = value
	case ports.FieldHandle:
		user.Handle = value
	case ports.FieldWallet:
		user.Wallet = value
	case ports.FieldForum:
		user.Forum = value
	default:
		return fmt.Errorf("unknown profile field %q", field)
	}
	return nil
}

// ListUserGuilds returns the guilds the user holds a profile in.
func (p *ProfileStore) ListUserGuilds(ctx context.Context, discordID string) ([]ports.GuildProfile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []ports.GuildProfile
	for _, u := range p.users {
		if u.DiscordID != discordID {
			continue
		}
		if guild, ok := p.guilds[u.GuildID]; ok {
			out = append(out, *guild)
		} else {
			out = append(out, ports.GuildProfile{GuildID: u.GuildID, Name: u.GuildID})
		}
	}
	return out, nil
}

// FindGuild returns the guild profile, or nil.
func (p *ProfileStore) FindGuild(ctx context.Context, guildID string) (*ports.GuildProfile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	guild, ok := p.guilds[guildID]
	if !ok {
		return nil, nil
	}
	clone := *guild
	return &clone, nil
}

// CreateGuild registers a community.
func (p *ProfileStore) CreateGuild(ctx context.Context, guildID string) (*ports.GuildProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	guild := &ports.GuildProfile{
		ID:      uuid.NewString(),
		GuildID: guildID,
	}
	p.guilds[guildID] = guild
	clone := *guild
	return &clone, nil
}

// UpdateGuildField sets a single guild field.
func (p *ProfileStore) UpdateGuildField(ctx context.Context, guildID, field, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	guild, ok := p.guilds[guildID]
	if !ok {
		return fmt.Errorf("no guild %s", guildID)
	}
	switch field {
	case "guild_name":
		guild.Name = value
	case "report_link":
		guild.ReportLink = value
	default:
		return fmt.Errorf("unknown guild field %q", field)
	}
	return nil
}

// ListContributions returns a user's contributions, optionally bounded.
func (p *ProfileStore) ListContributions(ctx context.Context, profileID string, since *time.Time) ([]ports.Contribution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []ports.Contribution
	for _, c := range p.contributions[profileID] {
		if since != nil && c.SubmittedAt.Before(*since) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// ListGuildContributions returns every member's contributions within a
// guild, optionally bounded.
func (p *ProfileStore) ListGuildContributions(ctx context.Context, guildID string, since *time.Time) ([]ports.Contribution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []ports.Contribution
	for profileID, contributions := range p.contributions {
		user, ok := p.users[profileID]
		if !ok || user.GuildID != guildID {
			continue
		}
		for _, c := range contributions {
			if since != nil && c.SubmittedAt.Before(*since) {
				continue
			}
			c.Contributor = user.DisplayName
			out = append(out, c)
		}
	}
	return out, nil
}

// AddContribution records a contribution for tests and dev seeding.
func (p *ProfileStore) AddContribution(profileID string, c ports.Contribution) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contributions[profileID] = append(p.contributions[profileID], c)
}

// ListContributionTasks returns the guild's configured tasks in order.
func (p *ProfileStore) ListContributionTasks(ctx context.Context, guildID string) ([]ports.ContributionTask, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]ports.ContributionTask(nil), p.tasks[guildID]...), nil
}

// SetContributionTasks configures a guild's tasks for tests and dev
// seeding.
func (p *ProfileStore) SetContributionTasks(guildID string, tasks []ports.ContributionTask) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks[guildID] = tasks
}
