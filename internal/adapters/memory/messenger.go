package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// Messenger implements ports.Messenger in memory, recording everything it
// sends. Tests inspect Sent and seed Reactions/Users/Guilds as needed.
type Messenger struct {
	mu sync.Mutex

	// Sent holds every outbound message in order.
	Sent []SentMessage

	// Reactions maps "channelID/messageID" to seeded reaction counts.
	Reactions map[string][]ports.ReactionCount

	// Users and Guilds back FetchUser and FetchGuild.
	Users  map[string]*ports.User
	Guilds map[string]*ports.Guild
}

// SentMessage is one recorded outbound message.
type SentMessage struct {
	Message ports.Message
	Embed   *ports.Embed
	Emojis  []string // reactions the bot added to its own message
}

// NewMessenger creates an empty recording messenger.
func NewMessenger() *Messenger {
	return &Messenger{
		Reactions: make(map[string][]ports.ReactionCount),
		Users:     make(map[string]*ports.User),
		Guilds:    make(map[string]*ports.Guild),
	}
}

// SendMessage records a plain text message and returns it with a fresh ID.
func (m *Messenger) SendMessage(ctx context.Context, channelID, content string) (*ports.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := ports.Message{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		Content:   content,
	}
	m.Sent = append(m.Sent, SentMessage{Message: msg})
	clone := msg
	return &clone, nil
}

// SendEmbed records an embed message.
func (m *Messenger) SendEmbed(ctx context.Context, channelID string, embed *ports.Embed) (*ports.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := ports.Message{
		ID:        uuid.NewString(),
		ChannelID: channelID,
	}
	m.Sent = append(m.Sent, SentMessage{Message: msg, Embed: embed})
	clone := msg
	return &clone, nil
}

// AddReaction records an emoji the bot applied to one of its messages.
func (m *Messenger) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.Sent {
		if m.Sent[i].Message.ID == messageID {
			m.Sent[i].Emojis = append(m.Sent[i].Emojis, emoji)
			return nil
		}
	}
	return fmt.Errorf("no message %s to react to", messageID)
}

// ReactionCounts returns seeded counts for a message.
func (m *Messenger) ReactionCounts(ctx context.Context, channelID, messageID string) ([]ports.ReactionCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Reactions[channelID+"/"+messageID], nil
}

// SeedReactions sets the reaction counts a message will report.
func (m *Messenger) SeedReactions(channelID, messageID string, counts []ports.ReactionCount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reactions[channelID+"/"+messageID] = counts
}

// FetchUser resolves a seeded user; unseeded IDs resolve to a stub so
// flows that only display names keep working in tests.
func (m *Messenger) FetchUser(ctx context.Context, userID string) (*ports.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.Users[userID]; ok {
		clone := *u
		return &clone, nil
	}
	return &ports.User{ID: userID, Username: "user-" + userID, DisplayName: "user-" + userID}, nil
}

// FetchGuild resolves a seeded guild; unseeded IDs resolve to a stub.
func (m *Messenger) FetchGuild(ctx context.Context, guildID string) (*ports.Guild, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.Guilds[guildID]; ok {
		clone := *g
		return &clone, nil
	}
	return &ports.Guild{ID: guildID, Name: "guild-" + guildID}, nil
}

// LastSent returns the most recent outbound message, or nil.
func (m *Messenger) LastSent() *SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Sent) == 0 {
		return nil
	}
	last := m.Sent[len(m.Sent)-1]
	return &last
}
