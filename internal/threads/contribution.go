package threads

import (
	"context"
	"fmt"
	"sort"

	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/flow"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// InitialContributions walks a new member through the guild's configured
// starter tasks: one instruction plus a yes/no confirmation per task. The
// chain's length depends on the guild, which only becomes known once the
// select step resolves it, so the builder returns a bare select root until
// then and the select step rebuilds the tree mid-event.
type InitialContributions struct {
	svc Services
}

// NewInitialContributions creates the initial-contributions definition.
func NewInitialContributions(svc Services) *InitialContributions {
	return &InitialContributions{svc: svc}
}

func (c *InitialContributions) Key() domain.ThreadKey { return domain.ThreadInitialContributions }

func (c *InitialContributions) Steps(ctx context.Context, t *flow.Thread) (*flow.Node, error) {
	root := flow.NewNode(&selectGuildStep{svc: c.svc, thread: t})
	if t.GuildID() == "" {
		return root, nil
	}

	tasks, err := c.svc.Profiles.ListContributionTasks(ctx, t.GuildID())
	if err != nil {
		return nil, fmt.Errorf("list contribution tasks for guild %s: %w", t.GuildID(), err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: guild %s has no contribution tasks", domain.ErrEmptyTree, t.GuildID())
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Order < tasks[j].Order })

	// Assemble inside out: the hint sits past the last task's accept, and
	// each earlier task's accept leads into the next instruction.
	tail := flow.NewNode(&contributionReportHintStep{svc: c.svc})
	for i := len(tasks) - 1; i >= 0; i-- {
		tail = taskSubtree(c.svc, tasks[i], tail)
	}
	root.AppendNode(tail)
	return root, nil
}

// taskSubtree builds instruction → confirm → (accept → next, reject) for a
// single task and returns the instruction node.
func taskSubtree(svc Services, task ports.ContributionTask, next *flow.Node) *flow.Node {
	instr := flow.NewNode(&contributionInstructionStep{svc: svc, task: task})
	confirm := instr.Append(&contributionConfirmEmojiStep{svc: svc})

	accept := flow.NewNode(&contributionAcceptStep{svc: svc, next: next.Handler().Name()})
	accept.AppendNode(next)
	confirm.Fork(accept, flow.NewNode(&contributionRejectStep{svc: svc}))
	return instr
}

// contributionInstructionStep presents one task's instructions and seeds
// the yes/no reactions on the prompt.
type contributionInstructionStep struct {
	flow.StepBase
	svc  Services
	task ports.ContributionTask
}

func (s *contributionInstructionStep) Name() domain.StepKey {
	return domain.StepContributionInstruction
}

func (s *contributionInstructionStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		s.task.Instructions+"\n\nReact with "+YesEmoji+" once you've completed "+
			"this task, or "+NoEmoji+" to skip it for now.")
	if err != nil {
		return nil, nil, err
	}
	for _, emoji := range []string{YesEmoji, NoEmoji} {
		if err := s.svc.Messenger.AddReaction(ctx, msg.ChannelID, msg.ID, emoji); err != nil {
			return nil, nil, err
		}
	}
	return msg, nil, nil
}

// contributionConfirmEmojiStep routes the yes/no reaction: yes advances
// into the accept subtree, no ends the chain with the reject message.
type contributionConfirmEmojiStep struct {
	flow.StepBase
	svc Services
}

func (s *contributionConfirmEmojiStep) Name() domain.StepKey {
	return domain.StepContributionConfirmEmoji
}

func (s *contributionConfirmEmojiStep) IsReaction() bool { return true }

func (s *contributionConfirmEmojiStep) HandleReaction(ctx context.Context, r *ports.Reaction) (domain.StepKey, bool, error) {
	switch r.Emoji {
	case YesEmoji:
		return domain.StepContributionAccept, false, nil
	case NoEmoji:
		return domain.StepContributionReject, false, nil
	}
	return "", false, domain.ErrUnknownEmoji
}

// contributionAcceptStep acknowledges the task and cascades straight into
// its successor (the next instruction, or the report hint) without waiting
// for another reply.
type contributionAcceptStep struct {
	flow.StepBase
	svc  Services
	next domain.StepKey
}

func (s *contributionAcceptStep) Name() domain.StepKey { return domain.StepContributionAccept }

func (s *contributionAcceptStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID, "Nice work!")
	return msg, nil, err
}

func (s *contributionAcceptStep) ControlHook(ctx context.Context, ev *ports.Message, userID string) (domain.StepKey, error) {
	return s.next, nil
}

// contributionRejectStep ends the chain when the user declines a task.
// Terminal.
type contributionRejectStep struct {
	flow.StepBase
	svc Services
}

func (s *contributionRejectStep) Name() domain.StepKey { return domain.StepContributionReject }

func (s *contributionRejectStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		"No problem! You can come back to the remaining tasks whenever "+
			"you're ready.")
	return msg, nil, err
}

// contributionReportHintStep closes out the chain once every task has been
// confirmed. Terminal.
type contributionReportHintStep struct {
	flow.StepBase
	svc Services
}

func (s *contributionReportHintStep) Name() domain.StepKey {
	return domain.StepContributionReportHint
}

func (s *contributionReportHintStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
		"That's every starter task! From here on, report your contributions "+
			"with the report command.")
	return msg, nil, err
}
