package threads

import (
	"context"
	"fmt"

	"github.com/hearthlabs/hearth/pkg/ports"
)

// Services bundles the external capabilities the step handlers consume.
type Services struct {
	Profiles  ports.ProfileStore
	Messenger ports.Messenger

	// HomeGuildID is the bot operator's own community. Completing
	// onboarding elsewhere offers a profile there too.
	HomeGuildID string

	// ReportFormFmt formats a guild ID into the contribution reporting
	// form URL, used when the guild profile carries no explicit link.
	ReportFormFmt string
}

// findOrCreateUser resolves a user's profile within a guild, creating it
// on first contact.
func (s Services) findOrCreateUser(ctx context.Context, discordID, guildID string) (*ports.UserProfile, error) {
	profile, err := s.Profiles.FindUser(ctx, discordID, guildID)
	if err != nil {
		return nil, fmt.Errorf("find user %s in guild %s: %w", discordID, guildID, err)
	}
	if profile != nil {
		return profile, nil
	}
	profile, err = s.Profiles.CreateUser(ctx, discordID, guildID)
	if err != nil {
		return nil, fmt.Errorf("create user %s in guild %s: %w", discordID, guildID, err)
	}
	return profile, nil
}
