package threads

import (
	"context"

	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/flow"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// guildChoices is the metadata shape seeded by commands that open a
// guild-selection prompt: one picker emoji per guild the user belongs to.
type guildChoices struct {
	Guilds map[string]string `mapstructure:"guilds"`
}

// selectGuildStep is the shared reaction step that resolves which
// community a flow operates on. The command that opened the flow sends an
// embed listing the user's guilds with one picker emoji each; the
// selected guild is the reaction with at least two votes (the bot's own
// plus the user's).
type selectGuildStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *selectGuildStep) Name() domain.StepKey { return domain.StepSelectGuildEmoji }

func (s *selectGuildStep) IsReaction() bool { return true }

func (s *selectGuildStep) HandleReaction(ctx context.Context, r *ports.Reaction) (domain.StepKey, bool, error) {
	var choices guildChoices
	if err := flow.DecodeMeta(s.thread, &choices); err != nil {
		return "", false, err
	}

	counts, err := s.svc.Messenger.ReactionCounts(ctx, r.ChannelID, r.MessageID)
	if err != nil {
		return "", false, err
	}

	for _, rc := range counts {
		if rc.Count < 2 {
			continue
		}
		guildID, ok := choices.Guilds[rc.Emoji]
		if !ok {
			continue
		}
		s.thread.SetGuildID(guildID)
		// The tree may depend on the guild (e.g. its task list); rebuild
		// before the engine resolves the successor.
		if err := s.thread.Rebuild(ctx); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return "", false, domain.ErrUnknownEmoji
}
