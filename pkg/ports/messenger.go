package ports

import "context"

// Message is a chat message, inbound or outbound. Outbound prompts carry
// only ID and ChannelID; inbound events also carry the author and content.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
}

// Reaction is an emoji applied to a message.
type Reaction struct {
	UserID    string
	ChannelID string
	MessageID string
	Emoji     string
}

// ReactionCount pairs an emoji with the number of users who applied it.
type ReactionCount struct {
	Emoji string
	Count int
}

// EmbedField is a single name/value pair inside an embed.
type EmbedField struct {
	Name  string
	Value string
}

// Embed is a rich message payload.
type Embed struct {
	Title       string
	Description string
	Fields      []EmbedField
}

// User is the chat platform's view of a user.
type User struct {
	ID          string
	Username    string
	DisplayName string
}

// Guild is the chat platform's view of a community.
type Guild struct {
	ID   string
	Name string
}

// Messenger is the narrow chat-platform capability consumed by step
// handlers. Implementations wrap the real gateway client; tests use an
// in-memory fake.
type Messenger interface {
	// SendMessage posts plain text to a channel and returns the sent
	// message, usable as the next prompt reference.
	SendMessage(ctx context.Context, channelID, content string) (*Message, error)

	// SendEmbed posts a rich embed to a channel.
	SendEmbed(ctx context.Context, channelID string, embed *Embed) (*Message, error)

	// AddReaction applies an emoji to a message, typically to present the
	// user with reaction choices.
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error

	// ReactionCounts reports the reactions currently on a message. Used by
	// multi-way forks where the discriminator is "the emoji with at least
	// two votes" (bot + user).
	ReactionCounts(ctx context.Context, channelID, messageID string) ([]ReactionCount, error)

	// FetchUser resolves a user by ID.
	FetchUser(ctx context.Context, userID string) (*User, error)

	// FetchGuild resolves a guild by ID.
	FetchGuild(ctx context.Context, guildID string) (*Guild, error)
}
