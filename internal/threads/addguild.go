package threads

import (
	"context"
	"strconv"
	"strings"

	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/flow"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// Metadata keys carried by the add-guild flow.
const (
	guildIDMetaKey   = "guild_id"
	guildNameMetaKey = "guild_name"
)

// AddGuild builds the community-registration conversation: prompt for the
// platform guild ID, check and create the backend record, prompt for a
// friendly name.
type AddGuild struct {
	svc Services
}

// NewAddGuild creates the add-guild definition.
func NewAddGuild(svc Services) *AddGuild {
	return &AddGuild{svc: svc}
}

func (a *AddGuild) Key() domain.ThreadKey { return domain.ThreadAddGuild }

func (a *AddGuild) Steps(ctx context.Context, t *flow.Thread) (*flow.Node, error) {
	root := flow.NewNode(&addGuildPromptIDStep{svc: a.svc})
	root.Append(&addGuildCheckStep{svc: a.svc, thread: t}).
		Append(&addGuildPromptNameStep{svc: a.svc, thread: t}).
		Append(&addGuildSuccessStep{svc: a.svc, thread: t})
	return root, nil
}

// addGuildPromptIDStep asks for the platform ID of the guild to add.
type addGuildPromptIDStep struct {
	flow.StepBase
	svc Services
}

func (s *addGuildPromptIDStep) Name() domain.StepKey { return domain.StepAddGuildPromptID }

func (s *addGuildPromptIDStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		"What is the ID of the guild you'd like to add? (You can find this by "+
			"right-clicking the guild icon and clicking \"Copy ID\")")
	return msg, nil, err
}

// addGuildCheckStep is a trigger step: it validates the supplied ID,
// creates the backend record when the guild is new, and routes existing
// members away or new members into onboarding.
type addGuildCheckStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *addGuildCheckStep) Name() domain.StepKey { return domain.StepAddGuildCheckExists }

func parseGuildID(content string) (string, error) {
	raw := strings.TrimSpace(content)
	if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
		return "", domain.Terminatef("%s is not a valid guild id!", raw)
	}
	return raw, nil
}

func (s *addGuildCheckStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	guildID, err := parseGuildID(ev.Content)
	if err != nil {
		return nil, nil, err
	}
	return nil, map[string]any{guildIDMetaKey: guildID}, nil
}

func (s *addGuildCheckStep) ControlHook(ctx context.Context, ev *ports.Message, userID string) (domain.StepKey, error) {
	guildID, err := parseGuildID(ev.Content)
	if err != nil {
		return "", err
	}
	s.thread.SetGuildID(guildID)

	guild, err := s.svc.Profiles.FindGuild(ctx, guildID)
	if err != nil {
		return "", err
	}
	if guild == nil {
		if _, err := s.svc.Profiles.CreateGuild(ctx, guildID); err != nil {
			return "", err
		}
		return domain.StepAddGuildPromptName, nil
	}

	user, err := s.svc.Profiles.FindUser(ctx, userID, guildID)
	if err != nil {
		return "", err
	}
	if user != nil {
		return "", domain.Terminatef(
			"It looks like guild %s has already been added as %s, and you're "+
				"already a member! You can report your contributions with the "+
				"report command.", guildID, guild.Name)
	}

	// Guild exists but the user has no profile: drop them straight into
	// onboarding for it.
	return "", s.thread.JumpTo(ctx, domain.ThreadOnboarding, ev)
}

// addGuildPromptNameStep asks for and commits the friendly guild name.
type addGuildPromptNameStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *addGuildPromptNameStep) Name() domain.StepKey { return domain.StepAddGuildPromptName }

func (s *addGuildPromptNameStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		"What is the friendly name of the guild you'd like to add?")
	return msg, nil, err
}

func (s *addGuildPromptNameStep) Save(ctx context.Context, ev *ports.Message, guildID, userID string) error {
	name := strings.TrimSpace(ev.Content)
	if name == "" {
		return domain.Terminatef("A guild name can't be empty, please try again.")
	}
	targetGuild := s.thread.MetaString(guildIDMetaKey)
	if targetGuild == "" {
		targetGuild = guildID
	}
	if err := s.svc.Profiles.UpdateGuildField(ctx, targetGuild, "guild_name", name); err != nil {
		return err
	}
	s.thread.SetMeta(guildNameMetaKey, name)
	return nil
}

// addGuildSuccessStep confirms the registration. Terminal.
type addGuildSuccessStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *addGuildSuccessStep) Name() domain.StepKey { return domain.StepAddGuildSuccess }

func (s *addGuildSuccessStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	name := s.thread.MetaString(guildNameMetaKey)
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		"Thanks for adding "+name+" as a new guild! You can now report your "+
			"contributions using the report command.")
	return msg, nil, err
}
