package domain

// ThreadKey names a category of multi-turn conversation. The key is
// persisted in the state record so an inbound event can be routed back to
// the thread that owns it.
type ThreadKey string

const (
	ThreadOnboarding           ThreadKey = "onboarding"
	ThreadUpdateProfile        ThreadKey = "update_profile"
	ThreadGuildSelect          ThreadKey = "guild_select"
	ThreadReport               ThreadKey = "report"
	ThreadPoints               ThreadKey = "points"
	ThreadAddGuild             ThreadKey = "add_guild"
	ThreadInitialContributions ThreadKey = "initial_contributions"
)

// StepKey names a single step within a thread. Step keys double as the
// discriminator tokens used to select among a node's successors, so they
// must be unique among siblings.
type StepKey string

// StepEnd is the sentinel a control hook returns to terminate a flow
// instead of advancing to a successor.
const StepEnd StepKey = "end"

// Onboarding steps.
const (
	StepUserDisplayConfirm      StepKey = "user_display_confirm"
	StepUserDisplayConfirmEmoji StepKey = "user_display_confirm_emoji"
	StepUserDisplaySubmit       StepKey = "user_display_submit"
	StepAddUserHandle           StepKey = "add_user_handle"
	StepPromptHandlePost        StepKey = "prompt_handle_post"
	StepVerifyUserHandle        StepKey = "verify_user_handle"
	StepAddUserWallet           StepKey = "add_user_wallet"
	StepPromptWalletSignature   StepKey = "prompt_wallet_signature"
	StepVerifyWalletSignature   StepKey = "verify_wallet_signature"
	StepAddUserForum            StepKey = "add_user_forum"
	StepOnboardingCongrats      StepKey = "onboarding_congrats"
	StepHomeOfferCheck          StepKey = "home_offer_check"
	StepHomeProfilePrompt       StepKey = "home_profile_prompt"
	StepHomeProfilePromptEmoji  StepKey = "home_profile_prompt_emoji"
	StepHomeProfileReject       StepKey = "home_profile_reject"
	StepHomeProfileAccept       StepKey = "home_profile_accept"
	StepHomeProfileAcceptEmoji  StepKey = "home_profile_accept_emoji"
	StepHomeProfileReuse        StepKey = "home_profile_reuse"
)

// Profile update steps.
const (
	StepSelectGuildEmoji       StepKey = "select_guild_emoji"
	StepUserUpdateFieldSelect  StepKey = "user_update_field_select"
	StepUpdateProfileFieldEmoji StepKey = "update_profile_field_emoji"
	StepUpdateField            StepKey = "update_field"
	StepCongratsFieldUpdate    StepKey = "congrats_field_update"
)

// Guild select / thread jump steps.
const (
	StepOverrideThread StepKey = "override_thread"
)

// Report and points steps.
const (
	StepReportLink    StepKey = "report_link"
	StepDisplayPoints StepKey = "display_points"
)

// Add-guild steps.
const (
	StepAddGuildPromptID   StepKey = "add_guild_prompt_id"
	StepAddGuildCheckExists StepKey = "add_guild_check_exists"
	StepAddGuildPromptName StepKey = "add_guild_prompt_name"
	StepAddGuildSuccess    StepKey = "add_guild_success"
)

// Initial contribution steps. The same step key may appear at several
// depths of the task chain; node identifiers stay unique because they hash
// the full path.
const (
	StepContributionInstruction  StepKey = "contribution_instruction"
	StepContributionConfirmEmoji StepKey = "contribution_confirm_emoji"
	StepContributionAccept       StepKey = "contribution_accept"
	StepContributionReject       StepKey = "contribution_reject"
	StepContributionReportHint   StepKey = "contribution_report_hint"
)
