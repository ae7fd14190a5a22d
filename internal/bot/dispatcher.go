// Package bot routes inbound chat events into the flow engine and exposes
// the command entry points that open conversations.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hearthlabs/hearth/internal/ops"
	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/flow"
	"github.com/hearthlabs/hearth/pkg/ports"
	"github.com/hearthlabs/hearth/pkg/session"
)

const processErrorNotice = "I couldn't process that, sorry! Please try again."

// Dispatcher serializes a user's events and drives their active
// conversation one turn per event.
type Dispatcher struct {
	sessions *session.Manager
	store    ports.StateStore
	registry *flow.Registry
	profiles ports.ProfileStore
	msgr     ports.Messenger
	metrics  *ops.Metrics
	log      *slog.Logger
}

// New creates a dispatcher. metrics may be nil when no registry is wired
// (tests).
func New(sessions *session.Manager, store ports.StateStore, registry *flow.Registry, profiles ports.ProfileStore, msgr ports.Messenger, metrics *ops.Metrics, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sessions: sessions,
		store:    store,
		registry: registry,
		profiles: profiles,
		msgr:     msgr,
		metrics:  metrics,
		log:      log,
	}
}

// DispatchMessage feeds a reply into the user's active conversation. A
// message from a user with no active conversation is ignored.
func (d *Dispatcher) DispatchMessage(ctx context.Context, msg *ports.Message) error {
	defer d.timeTurn()()
	return d.sessions.WithLock(ctx, msg.AuthorID, func(ctx context.Context) error {
		record, err := d.store.Load(ctx, msg.AuthorID)
		if errors.Is(err, domain.ErrStateNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		t, err := d.registry.Hydrate(ctx, record, msg.AuthorID)
		if err != nil {
			return err
		}

		d.observeTurn(record.Thread, "message")
		return d.finishTurn(ctx, t.Key(), msg.ChannelID, msg.AuthorID,
			t.HandleMessage(ctx, msg))
	})
}

// DispatchReaction feeds an emoji reaction into the user's active
// conversation. Reactions from users with no active conversation are
// ignored.
func (d *Dispatcher) DispatchReaction(ctx context.Context, r *ports.Reaction) error {
	defer d.timeTurn()()
	return d.sessions.WithLock(ctx, r.UserID, func(ctx context.Context) error {
		record, err := d.store.Load(ctx, r.UserID)
		if errors.Is(err, domain.ErrStateNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		t, err := d.registry.Hydrate(ctx, record, r.UserID)
		if err != nil {
			return err
		}

		d.observeTurn(record.Thread, "reaction")
		return d.finishTurn(ctx, t.Key(), r.ChannelID, r.UserID,
			t.HandleReaction(ctx, r))
	})
}

// finishTurn translates a turn's outcome into user feedback. A
// TerminateThreadError carries its own message and leaves the record in
// place for a retry; anything else gets the generic notice and is logged.
func (d *Dispatcher) finishTurn(ctx context.Context, key domain.ThreadKey, channelID, userID string, turnErr error) error {
	if turnErr == nil {
		if d.metrics != nil {
			if _, err := d.store.Load(ctx, userID); errors.Is(err, domain.ErrStateNotFound) {
				d.metrics.ThreadsFinished.WithLabelValues(string(key)).Inc()
			}
		}
		return nil
	}

	var terminate *domain.TerminateThreadError
	if errors.As(turnErr, &terminate) {
		_, err := d.msgr.SendMessage(ctx, channelID, terminate.Reason)
		return err
	}

	d.log.Error("turn failed",
		"thread", key,
		"user_id", userID,
		"err", turnErr,
	)
	if d.metrics != nil {
		d.metrics.TurnErrors.WithLabelValues(string(key)).Inc()
	}
	_, err := d.msgr.SendMessage(ctx, channelID, processErrorNotice)
	return err
}

func (d *Dispatcher) observeTurn(key domain.ThreadKey, kind string) {
	if d.metrics == nil {
		return
	}
	d.metrics.TurnsTotal.WithLabelValues(string(key), kind).Inc()
}

// timeTurn returns a stop function feeding the turn-duration histogram.
func (d *Dispatcher) timeTurn() func() {
	if d.metrics == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		d.metrics.TurnDuration.Observe(time.Since(start).Seconds())
	}
}
