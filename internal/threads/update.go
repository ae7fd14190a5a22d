package threads

import (
	"context"
	"fmt"
	"strings"

	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/flow"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// fieldMetaKey carries the profile field chosen via emoji until the new
// value arrives on the next turn.
const fieldMetaKey = "field"

// updatableFields lists the profile fields a user can change, in the
// order they are offered. Order is part of the emoji assignment and must
// stay stable across rebuilds.
var updatableFields = []struct {
	Field string
	Label string
}{
	{ports.FieldDisplayName, "Display Name"},
	{ports.FieldHandle, "Social Handle"},
	{ports.FieldWallet, "Wallet Address"},
	{ports.FieldForum, "Forum Handle"},
}

// UpdateProfile builds the profile-update conversation: select a guild,
// pick a field via emoji, supply the new value.
type UpdateProfile struct {
	svc Services
}

// NewUpdateProfile creates the update-profile definition.
func NewUpdateProfile(svc Services) *UpdateProfile {
	return &UpdateProfile{svc: svc}
}

func (u *UpdateProfile) Key() domain.ThreadKey { return domain.ThreadUpdateProfile }

func (u *UpdateProfile) Steps(ctx context.Context, t *flow.Thread) (*flow.Node, error) {
	root := flow.NewNode(&selectGuildStep{svc: u.svc, thread: t})
	root.Append(&fieldSelectStep{svc: u.svc, thread: t}).
		Append(&fieldChoiceEmojiStep{thread: t}).
		Append(&updateFieldStep{svc: u.svc, thread: t}).
		Append(&fieldUpdatedStep{svc: u.svc})
	return root, nil
}

// fieldSelectStep shows the profile with one picker emoji per updatable
// field and parks the emoji→field mapping in metadata.
type fieldSelectStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *fieldSelectStep) Name() domain.StepKey { return domain.StepUserUpdateFieldSelect }

func (s *fieldSelectStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	profile, err := s.svc.Profiles.FindUser(ctx, userID, s.thread.GuildID())
	if err != nil {
		return nil, nil, err
	}
	if profile == nil {
		return nil, nil, domain.Terminatef(
			"You don't have a profile in that guild yet. Run the join command first!")
	}

	values := map[string]string{
		ports.FieldDisplayName: profile.DisplayName,
		ports.FieldHandle:      profile.Handle,
		ports.FieldWallet:      profile.Wallet,
		ports.FieldForum:       profile.Forum,
	}

	emojis := PickerEmojis(len(updatableFields))
	embed := &ports.Embed{
		Description: "Please select one of the following fields to update via emoji",
	}
	metadata := make(map[string]any, len(updatableFields))
	for i, f := range updatableFields {
		embed.Fields = append(embed.Fields, ports.EmbedField{
			Name:  fmt.Sprintf("%s %s", f.Label, emojis[i]),
			Value: values[f.Field],
		})
		metadata[emojis[i]] = f.Field
	}

	msg, err := s.svc.Messenger.SendEmbed(ctx, ev.ChannelID, embed)
	if err != nil {
		return nil, nil, err
	}
	for _, emoji := range emojis {
		if err := s.svc.Messenger.AddReaction(ctx, msg.ChannelID, msg.ID, emoji); err != nil {
			return nil, nil, err
		}
	}
	return msg, metadata, nil
}

// fieldChoiceEmojiStep resolves the picked emoji into the field name and
// replaces the metadata bag with just that choice.
type fieldChoiceEmojiStep struct {
	flow.StepBase
	thread *flow.Thread
}

func (s *fieldChoiceEmojiStep) Name() domain.StepKey { return domain.StepUpdateProfileFieldEmoji }

func (s *fieldChoiceEmojiStep) IsReaction() bool { return true }

func (s *fieldChoiceEmojiStep) HandleReaction(ctx context.Context, r *ports.Reaction) (domain.StepKey, bool, error) {
	field, ok := s.thread.Meta(r.Emoji)
	if !ok {
		return "", false, domain.ErrUnknownEmoji
	}
	s.thread.SetMeta(fieldMetaKey, field)
	return "", false, nil
}

// updateFieldStep asks for and commits the new field value.
type updateFieldStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *updateFieldStep) Name() domain.StepKey { return domain.StepUpdateField }

func (s *updateFieldStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID, "What value would you like to use instead?")
	return msg, nil, err
}

func (s *updateFieldStep) Save(ctx context.Context, ev *ports.Message, guildID, userID string) error {
	field := s.thread.MetaString(fieldMetaKey)
	if field == "" {
		return fmt.Errorf("no field present to update")
	}
	profile, err := s.svc.Profiles.FindUser(ctx, userID, guildID)
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("no profile for user %s in guild %s", userID, guildID)
	}
	return s.svc.Profiles.UpdateUserField(ctx, profile.ID, field, strings.TrimSpace(ev.Content))
}

// fieldUpdatedStep thanks the user and ends the thread.
type fieldUpdatedStep struct {
	flow.StepBase
	svc Services
}

func (s *fieldUpdatedStep) Name() domain.StepKey { return domain.StepCongratsFieldUpdate }

func (s *fieldUpdatedStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID, "Thank you! Your profile has been updated.")
	return msg, nil, err
}
