package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/hearthlabs/hearth/internal/bot"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// Gateway owns the discordgo session: it registers the slash commands and
// feeds gateway events into the dispatcher.
type Gateway struct {
	session    *discordgo.Session
	dispatcher *bot.Dispatcher
	log        *slog.Logger
}

// NewGateway builds a gateway over an authenticated but unopened session.
func NewGateway(session *discordgo.Session, dispatcher *bot.Dispatcher, log *slog.Logger) *Gateway {
	return &Gateway{session: session, dispatcher: dispatcher, log: log}
}

// Open connects to the gateway, registers handlers and slash commands,
// and returns once the session is live.
func (g *Gateway) Open(ctx context.Context) error {
	g.session.Identify.Intents = discordgo.IntentsDirectMessages |
		discordgo.IntentsDirectMessageReactions |
		discordgo.IntentsGuildMessages

	g.session.AddHandler(g.onMessageCreate)
	g.session.AddHandler(g.onReactionAdd)
	g.session.AddHandler(g.onInteraction)

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	if err := g.registerCommands(ctx); err != nil {
		g.session.Close()
		return err
	}
	g.log.Info("gateway connected", "user", g.session.State.User.Username)
	return nil
}

// Close disconnects from the gateway.
func (g *Gateway) Close() error {
	return g.session.Close()
}

var commandDefinitions = []*discordgo.ApplicationCommand{
	{
		Name:        "join",
		Description: "Get onboarded to this community",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "wallet",
			Description: "Your ethereum wallet address (no ENS)",
			Required:    true,
		}},
	},
	{
		Name:        "report",
		Description: "Get the link to report a contribution",
	},
	{
		Name:        "update",
		Description: "Update your profile for a community",
	},
	{
		Name:        "points",
		Description: "List your contributions for a community",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "days",
			Description: "Reporting window in days",
			Required:    true,
			Choices:     dayChoices(),
		}},
	},
	{
		Name:        "add-guild",
		Description: "Register a new guild to report contributions to",
	},
	{
		Name:        "contributions",
		Description: "Walk through a community's starter contributions",
	},
}

func dayChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := []*discordgo.ApplicationCommandOptionChoice{}
	for _, d := range []string{"1", "7", "30", "90", "180", "365", "all"} {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: d, Value: d})
	}
	return choices
}

func (g *Gateway) registerCommands(ctx context.Context) error {
	appID := g.session.State.User.ID
	for _, cmd := range commandDefinitions {
		if _, err := g.session.ApplicationCommandCreate(appID, "", cmd, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("register command %s: %w", cmd.Name, err)
		}
	}
	return nil
}

func (g *Gateway) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	msg := &ports.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		Content:   m.Content,
	}
	if err := g.dispatcher.DispatchMessage(context.Background(), msg); err != nil {
		g.log.Error("dispatching message", "user_id", m.Author.ID, "err", err)
	}
}

func (g *Gateway) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.UserID == s.State.User.ID {
		return
	}
	reaction := &ports.Reaction{
		UserID:    r.UserID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		Emoji:     r.Emoji.Name,
	}
	if err := g.dispatcher.DispatchReaction(context.Background(), reaction); err != nil {
		g.log.Error("dispatching reaction", "user_id", r.UserID, "err", err)
	}
}

func (g *Gateway) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	ctx := context.Background()

	user := i.User
	if user == nil && i.Member != nil {
		user = i.Member.User
	}
	if user == nil || user.Bot {
		return
	}

	data := i.ApplicationCommandData()
	var err error
	switch data.Name {
	case "join":
		err = g.handleJoin(ctx, i, user, data)
	case "report":
		err = g.withDMChannel(ctx, i, user, func(channelID string) error {
			return g.dispatcher.Report(ctx, user.ID, i.GuildID, channelID)
		})
	case "update":
		err = g.withDMChannel(ctx, i, user, func(channelID string) error {
			return g.dispatcher.UpdateProfile(ctx, user.ID, channelID)
		})
	case "points":
		err = g.withDMChannel(ctx, i, user, func(channelID string) error {
			return g.dispatcher.Points(ctx, user.ID, i.GuildID, channelID, optionValue(data, "days"))
		})
	case "add-guild":
		err = g.withDMChannel(ctx, i, user, func(channelID string) error {
			return g.dispatcher.AddGuild(ctx, user.ID, channelID)
		})
	case "contributions":
		err = g.withDMChannel(ctx, i, user, func(channelID string) error {
			return g.dispatcher.InitialContributions(ctx, user.ID, channelID)
		})
	default:
		return
	}
	if err != nil {
		g.log.Error("handling command", "command", data.Name, "user_id", user.ID, "err", err)
	}
}

func (g *Gateway) handleJoin(ctx context.Context, i *discordgo.InteractionCreate, user *discordgo.User, data discordgo.ApplicationCommandInteractionData) error {
	if i.GuildID == "" {
		return g.respond(ctx, i, "Please run the join command inside the guild you want to join.")
	}
	channel, err := g.session.UserChannelCreate(user.ID, discordgo.WithContext(ctx))
	if err != nil {
		return g.respond(ctx, i, "Please enable DMs in order to use this bot!")
	}
	if err := g.respond(ctx, i, "Check your DMs to continue onboarding"); err != nil {
		return err
	}
	return g.dispatcher.Join(ctx, user.ID, i.GuildID, channel.ID, optionValue(data, "wallet"))
}

// withDMChannel acknowledges the interaction and runs fn against the
// user's DM channel, where all conversations take place.
func (g *Gateway) withDMChannel(ctx context.Context, i *discordgo.InteractionCreate, user *discordgo.User, fn func(channelID string) error) error {
	channel, err := g.session.UserChannelCreate(user.ID, discordgo.WithContext(ctx))
	if err != nil {
		return g.respond(ctx, i, "Please enable DMs in order to use this bot!")
	}
	if err := g.respond(ctx, i, "Check your DMs!"); err != nil {
		return err
	}
	return fn(channel.ID)
}

func (g *Gateway) respond(ctx context.Context, i *discordgo.InteractionCreate, content string) error {
	return g.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
}

func optionValue(data discordgo.ApplicationCommandInteractionData, name string) string {
	return optionString(data.Options, name)
}

func optionString(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}
