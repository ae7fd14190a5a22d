package threads

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/flow"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// Metadata keys the onboarding flow carries between turns: values are
// collected first and committed to the profile backend only once
// verified.
const (
	handleMetaKey = "handle"
	walletMetaKey = "wallet"
)

const verificationPhrase = "hearth asked me to post this so it knows this account is mine"

// handlePostPattern matches a link to a public post:
// https://social.example/<handle>/posts/<id> style URLs on the platforms
// we accept.
var handlePostPattern = regexp.MustCompile(`^https://(?:twitter\.com|x\.com)/([^/]+)/status/([0-9]+)`)

// walletPattern is a 0x-prefixed 40-hex-digit address.
var walletPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// signaturePattern is a 65-byte hex signature, with or without 0x.
var signaturePattern = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{130}$`)

// Onboarding builds the profile-creation conversation: confirm or choose
// a display name, collect and verify a social handle and a wallet, pick
// up an optional forum handle, and finally offer a profile in the home
// community.
type Onboarding struct {
	svc Services
}

// NewOnboarding creates the onboarding definition.
func NewOnboarding(svc Services) *Onboarding {
	return &Onboarding{svc: svc}
}

func (o *Onboarding) Key() domain.ThreadKey { return domain.ThreadOnboarding }

// Steps assembles the onboarding tree. The data-collection chain appears
// under three different paths (accepted name, chosen name, home-guild
// re-onboarding), so it is built fresh each time it is grafted.
func (o *Onboarding) Steps(ctx context.Context, t *flow.Thread) (*flow.Node, error) {
	dataChain := func() *flow.Node {
		root := flow.NewNode(&addHandleStep{svc: o.svc, thread: t})
		root.Append(&promptHandlePostStep{svc: o.svc}).
			Append(&verifyHandleStep{svc: o.svc, thread: t}).
			Append(&addWalletStep{svc: o.svc, thread: t}).
			Append(&promptSignatureStep{svc: o.svc}).
			Append(&verifySignatureStep{svc: o.svc, thread: t}).
			Append(&addForumStep{svc: o.svc}).
			Append(&congratsStep{svc: o.svc, thread: t})
		return root
	}

	homeSteps := func() *flow.Node {
		reuse := flow.NewNode(&homeProfileReuseStep{svc: o.svc, thread: t})
		resubmit := flow.NewNode(&displayNameSubmitStep{svc: o.svc, thread: t})
		resubmit.AppendNode(dataChain())

		accept := flow.NewNode(&homeProfileAcceptStep{svc: o.svc, thread: t})
		accept.Append(&homeProfileAcceptEmojiStep{svc: o.svc, thread: t}).
			Fork(reuse, resubmit)

		reject := flow.NewNode(&homeProfileRejectStep{svc: o.svc})

		prompt := flow.NewNode(&homeProfilePromptStep{svc: o.svc})
		prompt.Append(&homeProfilePromptEmojiStep{}).
			Fork(accept, reject)

		// The check node gates the offer on both the reply and the
		// reaction path, ending the thread when no offer applies.
		root := flow.NewNode(&homeOfferCheckStep{svc: o.svc, thread: t})
		root.AppendNode(prompt)
		return root
	}

	// The congrats node at the end of a completed chain redirects into the
	// home-community offer.
	withHomeOffer := func(chain *flow.Node) *flow.Node {
		tail := chain
		for tail.First() != nil {
			tail = tail.First()
		}
		tail.AppendNode(homeSteps())
		return chain
	}

	mainChain := withHomeOffer(dataChain())

	chosenName := flow.NewNode(&displayNameSubmitStep{svc: o.svc, thread: t})
	chosenName.AppendNode(withHomeOffer(dataChain()))

	root := flow.NewNode(&displayNameConfirmStep{svc: o.svc})
	root.Append(&displayNameConfirmEmojiStep{svc: o.svc}).
		Fork(chosenName, mainChain)
	return root, nil
}

// displayNameConfirmStep asks whether the platform display name should be
// used for the profile.
type displayNameConfirmStep struct {
	flow.StepBase
	svc Services
}

func (s *displayNameConfirmStep) Name() domain.StepKey { return domain.StepUserDisplayConfirm }

func (s *displayNameConfirmStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	user, err := s.svc.Messenger.FetchUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		fmt.Sprintf("Would you like your display name to be `%s`?", user.DisplayName))
	if err != nil {
		return nil, nil, err
	}
	for _, emoji := range []string{YesEmoji, NoEmoji} {
		if err := s.svc.Messenger.AddReaction(ctx, msg.ChannelID, msg.ID, emoji); err != nil {
			return nil, nil, err
		}
	}
	return msg, nil, nil
}

// displayNameConfirmEmojiStep resolves the confirmation reaction. On
// acceptance it commits the platform name when the next turn runs.
type displayNameConfirmEmojiStep struct {
	flow.StepBase
	svc Services
}

func (s *displayNameConfirmEmojiStep) Name() domain.StepKey {
	return domain.StepUserDisplayConfirmEmoji
}

func (s *displayNameConfirmEmojiStep) IsReaction() bool { return true }

func (s *displayNameConfirmEmojiStep) HandleReaction(ctx context.Context, r *ports.Reaction) (domain.StepKey, bool, error) {
	switch r.Emoji {
	case NoEmoji:
		return domain.StepUserDisplaySubmit, false, nil
	case YesEmoji:
		return domain.StepAddUserHandle, false, nil
	}
	return "", false, domain.ErrUnknownEmoji
}

func (s *displayNameConfirmEmojiStep) Save(ctx context.Context, ev *ports.Message, guildID, userID string) error {
	user, err := s.svc.Messenger.FetchUser(ctx, userID)
	if err != nil {
		return err
	}
	profile, err := s.svc.findOrCreateUser(ctx, userID, guildID)
	if err != nil {
		return err
	}
	return s.svc.Profiles.UpdateUserField(ctx, profile.ID, ports.FieldDisplayName, user.DisplayName)
}

// displayNameSubmitStep asks for and commits a chosen display name.
type displayNameSubmitStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *displayNameSubmitStep) Name() domain.StepKey { return domain.StepUserDisplaySubmit }

func (s *displayNameSubmitStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID, "What would you like your display name to be?")
	return msg, nil, err
}

func (s *displayNameSubmitStep) Save(ctx context.Context, ev *ports.Message, guildID, userID string) error {
	name := strings.TrimSpace(ev.Content)
	if name == "" {
		return domain.Terminatef("A display name can't be empty, please try again.")
	}
	profile, err := s.svc.findOrCreateUser(ctx, userID, guildID)
	if err != nil {
		return err
	}
	return s.svc.Profiles.UpdateUserField(ctx, profile.ID, ports.FieldDisplayName, name)
}

// addHandleStep asks for the social handle to associate with the guild.
// The handle is parked in metadata until verified.
type addHandleStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *addHandleStep) Name() domain.StepKey { return domain.StepAddUserHandle }

func (s *addHandleStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		"What social handle would you like to associate with this guild?")
	return msg, nil, err
}

func (s *addHandleStep) Save(ctx context.Context, ev *ports.Message, guildID, userID string) error {
	handle := strings.ReplaceAll(strings.TrimSpace(ev.Content), "@", "")
	if handle == "" {
		return domain.Terminatef("That doesn't look like a handle, please try again.")
	}
	s.thread.SetMeta(handleMetaKey, handle)
	return nil
}

// promptHandlePostStep instructs the user to prove handle ownership by
// posting the verification phrase.
type promptHandlePostStep struct {
	flow.StepBase
	svc Services
}

func (s *promptHandlePostStep) Name() domain.StepKey { return domain.StepPromptHandlePost }

func (s *promptHandlePostStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendEmbed(ctx, ev.ChannelID, &ports.Embed{
		Title: "To verify your handle, please post the below message from your" +
			" selected account, and reply with the URL to the post",
		Description: verificationPhrase,
	})
	return msg, nil, err
}

// verifyHandleStep is a trigger step: it verifies the posted URL against
// the parked handle, commits the handle, and cascades straight into the
// wallet question.
type verifyHandleStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *verifyHandleStep) Name() domain.StepKey { return domain.StepVerifyUserHandle }

func (s *verifyHandleStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	handle := s.thread.MetaString(handleMetaKey)
	url := strings.TrimSpace(ev.Content)

	match := handlePostPattern.FindStringSubmatch(url)
	if match == nil {
		return nil, nil, domain.Terminatef("Post URL %s was not in the expected format", url)
	}
	if match[1] != handle {
		return nil, nil, domain.Terminatef(
			"Post profile %s does not match the supplied handle %s", match[1], handle)
	}

	profile, err := s.svc.findOrCreateUser(ctx, userID, s.thread.GuildID())
	if err != nil {
		return nil, nil, err
	}
	if err := s.svc.Profiles.UpdateUserField(ctx, profile.ID, ports.FieldHandle, handle); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

func (s *verifyHandleStep) ControlHook(ctx context.Context, ev *ports.Message, userID string) (domain.StepKey, error) {
	return domain.StepAddUserWallet, nil
}

// addWalletStep asks for and validates a wallet address, parking it in
// metadata until the signature check passes.
type addWalletStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *addWalletStep) Name() domain.StepKey { return domain.StepAddUserWallet }

func (s *addWalletStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		"What wallet address would you like to associate with this guild?")
	return msg, nil, err
}

func (s *addWalletStep) Save(ctx context.Context, ev *ports.Message, guildID, userID string) error {
	address := strings.TrimSpace(ev.Content)
	if !walletPattern.MatchString(address) {
		return domain.Terminatef("Supplied address %s is not a valid wallet address", address)
	}
	s.thread.SetMeta(walletMetaKey, address)
	return nil
}

// promptSignatureStep asks the user to sign the verification phrase.
type promptSignatureStep struct {
	flow.StepBase
	svc Services
}

func (s *promptSignatureStep) Name() domain.StepKey { return domain.StepPromptWalletSignature }

func (s *promptSignatureStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	if _, err := s.svc.Messenger.SendEmbed(ctx, ev.ChannelID, &ports.Embed{
		Title: "Verification instructions",
		Description: "Sign the message below with the wallet you supplied and" +
			" reply with the resulting signature.",
	}); err != nil {
		return nil, nil, err
	}
	msg, err := s.svc.Messenger.SendEmbed(ctx, ev.ChannelID, &ports.Embed{
		Title:       "Please sign the below message with your wallet",
		Description: verificationPhrase,
	})
	return msg, nil, err
}

// verifySignatureStep is a trigger step: it checks the supplied signature
// shape, commits the parked wallet, and cascades into the forum question.
type verifySignatureStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *verifySignatureStep) Name() domain.StepKey { return domain.StepVerifyWalletSignature }

func (s *verifySignatureStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	signature := strings.TrimSpace(ev.Content)
	if !signaturePattern.MatchString(signature) {
		return nil, nil, domain.Terminatef("The response wasn't a correct signature!")
	}

	wallet := s.thread.MetaString(walletMetaKey)
	profile, err := s.svc.findOrCreateUser(ctx, userID, s.thread.GuildID())
	if err != nil {
		return nil, nil, err
	}
	if err := s.svc.Profiles.UpdateUserField(ctx, profile.ID, ports.FieldWallet, wallet); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

func (s *verifySignatureStep) ControlHook(ctx context.Context, ev *ports.Message, userID string) (domain.StepKey, error) {
	return domain.StepAddUserForum, nil
}

// addForumStep asks for the optional forum handle. The question can be
// skipped with the skip emoji, handled by the congrats node that follows.
type addForumStep struct {
	flow.StepBase
	svc Services
}

func (s *addForumStep) Name() domain.StepKey { return domain.StepAddUserForum }

func (s *addForumStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		fmt.Sprintf("What forum handle would you like to associate with this guild?"+
			" React with %s to skip.", SkipEmoji))
	return msg, nil, err
}

func (s *addForumStep) Save(ctx context.Context, ev *ports.Message, guildID, userID string) error {
	forum := strings.TrimSpace(ev.Content)
	if forum == "" {
		return nil
	}
	profile, err := s.svc.findOrCreateUser(ctx, userID, guildID)
	if err != nil {
		return err
	}
	return s.svc.Profiles.UpdateUserField(ctx, profile.ID, ports.FieldForum, forum)
}

// congratsStep closes onboarding for the guild and decides, via its
// control hook, whether to offer a profile in the home community.
type congratsStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *congratsStep) Name() domain.StepKey { return domain.StepOnboardingCongrats }

func (s *congratsStep) congratulate(ctx context.Context, channelID string) (*ports.Message, error) {
	guild, err := s.svc.Messenger.FetchGuild(ctx, s.thread.GuildID())
	if err != nil {
		return nil, err
	}
	return s.svc.Messenger.SendMessage(ctx, channelID,
		fmt.Sprintf("Congratulations on completing onboarding to %s!", guild.Name))
}

func (s *congratsStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.congratulate(ctx, ev.ChannelID)
	return msg, nil, err
}

// HandleReaction covers the skip emoji on the preceding forum question:
// the congrats message still goes out, and the following turn must not
// commit a forum answer.
func (s *congratsStep) HandleReaction(ctx context.Context, r *ports.Reaction) (domain.StepKey, bool, error) {
	if strings.Contains(r.Emoji, SkipEmoji) {
		if _, err := s.congratulate(ctx, r.ChannelID); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return "", false, domain.ErrUnknownEmoji
}

func (s *congratsStep) ControlHook(ctx context.Context, ev *ports.Message, userID string) (domain.StepKey, error) {
	return domain.StepHomeOfferCheck, nil
}

// homeOfferCheckStep is a silent trigger step deciding whether the
// home-community offer applies. It sits between congrats and the offer so
// both a final reply and a skip reaction pass through the same gate.
type homeOfferCheckStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *homeOfferCheckStep) Name() domain.StepKey { return domain.StepHomeOfferCheck }

func (s *homeOfferCheckStep) ControlHook(ctx context.Context, ev *ports.Message, userID string) (domain.StepKey, error) {
	if s.svc.HomeGuildID == "" || s.thread.GuildID() == s.svc.HomeGuildID {
		return domain.StepEnd, nil
	}
	profile, err := s.svc.Profiles.FindUser(ctx, userID, s.svc.HomeGuildID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return domain.StepHomeProfilePrompt, nil
	}
	return domain.StepEnd, nil
}

// homeProfilePromptStep asks whether the user also wants a profile in the
// home community.
type homeProfilePromptStep struct {
	flow.StepBase
	svc Services
}

func (s *homeProfilePromptStep) Name() domain.StepKey { return domain.StepHomeProfilePrompt }

func (s *homeProfilePromptStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	guild, err := s.svc.Messenger.FetchGuild(ctx, s.svc.HomeGuildID)
	if err != nil {
		return nil, nil, err
	}
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		fmt.Sprintf("Would you like to be onboarded to the %s guild as well?", guild.Name))
	if err != nil {
		return nil, nil, err
	}
	for _, emoji := range []string{YesEmoji, NoEmoji} {
		if err := s.svc.Messenger.AddReaction(ctx, msg.ChannelID, msg.ID, emoji); err != nil {
			return nil, nil, err
		}
	}
	return msg, nil, nil
}

type homeProfilePromptEmojiStep struct {
	flow.StepBase
}

func (s *homeProfilePromptEmojiStep) Name() domain.StepKey {
	return domain.StepHomeProfilePromptEmoji
}

func (s *homeProfilePromptEmojiStep) IsReaction() bool { return true }

func (s *homeProfilePromptEmojiStep) HandleReaction(ctx context.Context, r *ports.Reaction) (domain.StepKey, bool, error) {
	switch r.Emoji {
	case NoEmoji:
		return domain.StepHomeProfileReject, false, nil
	case YesEmoji:
		return domain.StepHomeProfileAccept, false, nil
	}
	return "", false, domain.ErrUnknownEmoji
}

// homeProfileRejectStep closes the offer politely. Terminal.
type homeProfileRejectStep struct {
	flow.StepBase
	svc Services
}

func (s *homeProfileRejectStep) Name() domain.StepKey { return domain.StepHomeProfileReject }

func (s *homeProfileRejectStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		"No problem! You are free to join at any time.")
	return msg, nil, err
}

// homeProfileAcceptStep asks whether to reuse the freshly collected guild
// profile for the home community.
type homeProfileAcceptStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *homeProfileAcceptStep) Name() domain.StepKey { return domain.StepHomeProfileAccept }

func (s *homeProfileAcceptStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	guild, err := s.svc.Profiles.FindGuild(ctx, s.thread.GuildID())
	if err != nil {
		return nil, nil, err
	}
	name := s.thread.GuildID()
	if guild != nil && guild.Name != "" {
		name = guild.Name
	}
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		fmt.Sprintf("Would you like to reuse your profile data from the %s guild?", name))
	if err != nil {
		return nil, nil, err
	}
	for _, emoji := range []string{YesEmoji, NoEmoji} {
		if err := s.svc.Messenger.AddReaction(ctx, msg.ChannelID, msg.ID, emoji); err != nil {
			return nil, nil, err
		}
	}
	return msg, nil, nil
}

// homeProfileAcceptEmojiStep creates the home profile and routes to reuse
// or to a fresh data-collection pass scoped to the home guild.
type homeProfileAcceptEmojiStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *homeProfileAcceptEmojiStep) Name() domain.StepKey {
	return domain.StepHomeProfileAcceptEmoji
}

func (s *homeProfileAcceptEmojiStep) IsReaction() bool { return true }

func (s *homeProfileAcceptEmojiStep) HandleReaction(ctx context.Context, r *ports.Reaction) (domain.StepKey, bool, error) {
	if r.Emoji != YesEmoji && r.Emoji != NoEmoji {
		return "", false, domain.ErrUnknownEmoji
	}
	if _, err := s.svc.findOrCreateUser(ctx, r.UserID, s.svc.HomeGuildID); err != nil {
		return "", false, err
	}
	if r.Emoji == NoEmoji {
		// Collect everything again, this time for the home guild.
		s.thread.SetGuildID(s.svc.HomeGuildID)
		return domain.StepUserDisplaySubmit, false, nil
	}
	return domain.StepHomeProfileReuse, false, nil
}

// homeProfileReuseStep copies the guild profile onto the home profile and
// shows the result. Terminal.
type homeProfileReuseStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *homeProfileReuseStep) Name() domain.StepKey { return domain.StepHomeProfileReuse }

func (s *homeProfileReuseStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	source, err := s.svc.Profiles.FindUser(ctx, userID, s.thread.GuildID())
	if err != nil {
		return nil, nil, err
	}
	if source == nil {
		return nil, nil, fmt.Errorf("no profile to reuse for user %s in guild %s", userID, s.thread.GuildID())
	}
	target, err := s.svc.findOrCreateUser(ctx, userID, s.svc.HomeGuildID)
	if err != nil {
		return nil, nil, err
	}

	for field, value := range map[string]string{
		ports.FieldDisplayName: source.DisplayName,
		ports.FieldHandle:      source.Handle,
		ports.FieldWallet:      source.Wallet,
		ports.FieldForum:       source.Forum,
	} {
		if value == "" {
			continue
		}
		if err := s.svc.Profiles.UpdateUserField(ctx, target.ID, field, value); err != nil {
			return nil, nil, err
		}
	}

	msg, err := s.svc.Messenger.SendEmbed(ctx, ev.ChannelID, &ports.Embed{
		Description: "We updated your home profile!",
		Fields: []ports.EmbedField{
			{Name: "Display Name", Value: source.DisplayName},
			{Name: "Handle", Value: source.Handle},
			{Name: "Wallet Address", Value: source.Wallet},
			{Name: "Forum Handle", Value: source.Forum},
		},
	})
	return msg, nil, err
}
