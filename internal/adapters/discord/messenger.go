// Package discord adapts the discordgo client to the bot's messenger port
// and wires gateway events into the dispatcher.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hearthlabs/hearth/pkg/ports"
)

// Messenger implements ports.Messenger over a discordgo session.
type Messenger struct {
	session *discordgo.Session
}

// NewMessenger wraps an open discordgo session.
func NewMessenger(session *discordgo.Session) *Messenger {
	return &Messenger{session: session}
}

// SendMessage posts plain text to a channel.
func (m *Messenger) SendMessage(ctx context.Context, channelID, content string) (*ports.Message, error) {
	msg, err := m.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("send message to %s: %w", channelID, err)
	}
	return messageFromDiscord(msg), nil
}

// SendEmbed posts a rich embed to a channel.
func (m *Messenger) SendEmbed(ctx context.Context, channelID string, embed *ports.Embed) (*ports.Message, error) {
	fields := make([]*discordgo.MessageEmbedField, 0, len(embed.Fields))
	for _, f := range embed.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value})
	}
	msg, err := m.session.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Fields:      fields,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("send embed to %s: %w", channelID, err)
	}
	return messageFromDiscord(msg), nil
}

// AddReaction applies an emoji to a message.
func (m *Messenger) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := m.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add reaction to %s: %w", messageID, err)
	}
	return nil
}

// ReactionCounts reports the reactions currently on a message.
func (m *Messenger) ReactionCounts(ctx context.Context, channelID, messageID string) ([]ports.ReactionCount, error) {
	msg, err := m.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch message %s: %w", messageID, err)
	}
	counts := make([]ports.ReactionCount, 0, len(msg.Reactions))
	for _, r := range msg.Reactions {
		counts = append(counts, ports.ReactionCount{Emoji: r.Emoji.Name, Count: r.Count})
	}
	return counts, nil
}

// FetchUser resolves a user by ID.
func (m *Messenger) FetchUser(ctx context.Context, userID string) (*ports.User, error) {
	user, err := m.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", userID, err)
	}
	return &ports.User{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.GlobalName,
	}, nil
}

// FetchGuild resolves a guild by ID.
func (m *Messenger) FetchGuild(ctx context.Context, guildID string) (*ports.Guild, error) {
	guild, err := m.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch guild %s: %w", guildID, err)
	}
	return &ports.Guild{ID: guild.ID, Name: guild.Name}, nil
}

func messageFromDiscord(msg *discordgo.Message) *ports.Message {
	out := &ports.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		Content:   msg.Content,
	}
	if msg.Author != nil {
		out.AuthorID = msg.Author.ID
	}
	return out
}
