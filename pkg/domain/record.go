package domain

// StateRecord is the single persisted artifact of a conversation: one
// record per user, keyed by the user's id in the state store. Everything
// else (the step tree, the controller) is rebuilt from scratch on every
// inbound event.
type StateRecord struct {
	// Thread routes the record back to the conversation type that owns it.
	Thread ThreadKey `json:"thread"`

	// Step is the path-derived identifier of the node the user sits on.
	Step string `json:"step"`

	// GuildID is the community the conversation belongs to. May be empty
	// until a guild-select step resolves it.
	GuildID string `json:"guild_id"`

	// MessageID references the most recent outbound prompt. Reactions on
	// any other message are stale and ignored.
	MessageID string `json:"message_id"`

	// Metadata is an opaque bag carried forward between turns. Handlers
	// read and write named keys; the engine only merges it.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewStateRecord creates a record positioned at the given step.
func NewStateRecord(thread ThreadKey, step, guildID, messageID string) *StateRecord {
	return &StateRecord{
		Thread:    thread,
		Step:      step,
		GuildID:   guildID,
		MessageID: messageID,
		Metadata:  make(map[string]any),
	}
}
