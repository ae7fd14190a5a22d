package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hearthlabs/hearth/internal/logging"
	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// Definition is the per-conversation-type logic that assembles a step
// tree. Builders may consult external state (e.g. a guild's configured
// contribution tasks) to decide tree shape, but must stay deterministic
// in step keys so identifiers are stable across rebuilds.
type Definition interface {
	// Key names the conversation type this definition builds.
	Key() domain.ThreadKey

	// Steps builds the tree and returns its root. The thread is the one
	// about to traverse the tree; steps may close over it to read or
	// rebind the guild and metadata. Must return domain.ErrEmptyTree when
	// no nodes could be produced.
	Steps(ctx context.Context, t *Thread) (*Node, error)
}

// Deps bundles the external capabilities the engine hands to threads.
type Deps struct {
	Store     ports.StateStore
	Messenger ports.Messenger
	Logger    *slog.Logger
}

// Registry maps thread keys to definitions and hydrates controllers from
// persisted state records.
type Registry struct {
	defs map[domain.ThreadKey]Definition
	deps Deps
}

// NewRegistry creates a registry with the given dependencies.
func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	return &Registry{
		defs: make(map[domain.ThreadKey]Definition),
		deps: deps,
	}
}

// Register adds a definition. A duplicate key is a wiring error.
func (r *Registry) Register(def Definition) error {
	if _, exists := r.defs[def.Key()]; exists {
		return fmt.Errorf("thread %q already registered", def.Key())
	}
	r.defs[def.Key()] = def
	return nil
}

// MustRegister is Register that panics on error, for static wiring.
func (r *Registry) MustRegister(defs ...Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// Hydrate rebuilds a thread from a persisted state record: the definition
// is looked up, the tree rebuilt, and the current node located by its
// identifier.
func (r *Registry) Hydrate(ctx context.Context, record *domain.StateRecord, userID string) (*Thread, error) {
	def, ok := r.defs[record.Thread]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownThread, record.Thread)
	}

	metadata := record.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}

	t := &Thread{
		key:       record.Thread,
		userID:    userID,
		guildID:   record.GuildID,
		messageID: record.MessageID,
		metadata:  metadata,
		def:       def,
		registry:  r,
		store:     r.deps.Store,
		msgr:      r.deps.Messenger,
		log:       r.deps.Logger,
	}

	root, err := def.Steps(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("build thread %s: %w", record.Thread, err)
	}
	if root == nil {
		return nil, fmt.Errorf("build thread %s: %w", record.Thread, domain.ErrEmptyTree)
	}

	node := root.Find(record.Step)
	if node == nil {
		return nil, fmt.Errorf("thread %s has no node %s", record.Thread, record.Step)
	}

	t.root = root
	t.step = node
	return t, nil
}

// Start begins a flow at its root and runs the first turn on the given
// event: the root step's prompt goes out and the record is persisted at
// the root's successor.
func (r *Registry) Start(ctx context.Context, key domain.ThreadKey, userID, guildID string, ev *ports.Message) error {
	record := domain.NewStateRecord(key, RootID(), guildID, ev.ID)
	t, err := r.Hydrate(ctx, record, userID)
	if err != nil {
		return err
	}
	return t.HandleMessage(ctx, ev)
}

// Seed persists a record positioned at a flow's root without running a
// turn. Used by commands that send the opening prompt themselves, e.g. a
// reaction-rooted guild select.
func (r *Registry) Seed(ctx context.Context, key domain.ThreadKey, userID, guildID, promptID string, metadata map[string]any) error {
	record := domain.NewStateRecord(key, RootID(), guildID, promptID)
	if metadata != nil {
		record.Metadata = metadata
	}
	return r.deps.Store.Save(ctx, userID, record)
}
