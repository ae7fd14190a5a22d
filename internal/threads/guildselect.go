package threads

import (
	"context"

	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/flow"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// threadNameMetaKey names the thread a guild-select flow hands over to
// once the guild is resolved. Seeded by the command that opened the flow.
const threadNameMetaKey = "thread_name"

// GuildSelect is the thread commands open when they need a guild before
// they can do anything else: a shared guild-selection prompt followed by
// a jump into the real thread.
type GuildSelect struct {
	svc Services
}

// NewGuildSelect creates the guild-select definition.
func NewGuildSelect(svc Services) *GuildSelect {
	return &GuildSelect{svc: svc}
}

func (g *GuildSelect) Key() domain.ThreadKey { return domain.ThreadGuildSelect }

func (g *GuildSelect) Steps(ctx context.Context, t *flow.Thread) (*flow.Node, error) {
	root := flow.NewNode(&selectGuildStep{svc: g.svc, thread: t})
	root.Append(&jumpThreadStep{thread: t})
	return root, nil
}

// jumpThreadStep hands the conversation over to the thread named in
// metadata, now that the guild is known.
type jumpThreadStep struct {
	flow.StepBase
	thread *flow.Thread
}

func (s *jumpThreadStep) Name() domain.StepKey { return domain.StepOverrideThread }

func (s *jumpThreadStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	target := domain.ThreadKey(s.thread.MetaString(threadNameMetaKey))
	if target == "" {
		return nil, nil, domain.ErrUnknownThread
	}
	return nil, nil, s.thread.JumpTo(ctx, target, ev)
}
