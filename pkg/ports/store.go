package ports

import (
	"context"

	"github.com/hearthlabs/hearth/pkg/domain"
)

// StateStore defines the interface for persisting conversation state.
// One record per user; starting a new flow overwrites any record already
// in progress.
type StateStore interface {
	// Save persists the record for a given user ID.
	Save(ctx context.Context, userID string, record *domain.StateRecord) error

	// Load retrieves the record for a given user ID.
	// Returns domain.ErrStateNotFound if the user has no active conversation.
	Load(ctx context.Context, userID string) (*domain.StateRecord, error)

	// Delete removes the record for a given user ID.
	Delete(ctx context.Context, userID string) error

	// List returns the IDs of users with an active conversation.
	List(ctx context.Context) ([]string, error)
}
