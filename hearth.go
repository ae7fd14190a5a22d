// Package hearth is a contribution-tracking community bot: it drives
// multi-turn chat conversations (onboarding, profile updates, guild
// registration, contribution reporting) as persistent step trees.
//
// The flow engine lives in pkg/flow, the conversation definitions in
// internal/threads, and the runnable bot in cmd/hearth.
package hearth

// Version is the current hearth release.
const Version = "0.1.0"
