package threads

import (
	"context"
	"fmt"

	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/flow"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// Report is a single-step thread sending the guild's contribution
// reporting form link.
type Report struct {
	svc Services
}

// NewReport creates the report definition.
func NewReport(svc Services) *Report {
	return &Report{svc: svc}
}

func (r *Report) Key() domain.ThreadKey { return domain.ThreadReport }

func (r *Report) Steps(ctx context.Context, t *flow.Thread) (*flow.Node, error) {
	return flow.NewNode(&reportLinkStep{svc: r.svc, thread: t}), nil
}

type reportLinkStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *reportLinkStep) Name() domain.StepKey { return domain.StepReportLink }

func (s *reportLinkStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	guildID := s.thread.GuildID()

	link := ""
	guild, err := s.svc.Profiles.FindGuild(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}
	if guild != nil {
		link = guild.ReportLink
	}
	if link == "" && s.svc.ReportFormFmt != "" {
		link = fmt.Sprintf(s.svc.ReportFormFmt, guildID)
	}
	if link == "" {
		return nil, nil, domain.Terminatef("No reporting form was configured for this guild.")
	}

	content := "Woohoo! Nice job! Community contributions are what keeps your " +
		"community thriving \U0001F31E. Report your contributions via the form " +
		"\U0001F449 " + link
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID, content)
	return msg, map[string]any{"msg": content}, err
}
