package threads

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/hearthlabs/hearth/pkg/domain"
	"github.com/hearthlabs/hearth/pkg/flow"
	"github.com/hearthlabs/hearth/pkg/ports"
)

// pointsWindow is the metadata shape seeded by the points command.
type pointsWindow struct {
	// Days is a day count or "all".
	Days string `mapstructure:"days"`
}

// Points is a single-step thread rendering the user's contribution table
// for a reporting window.
type Points struct {
	svc Services
}

// NewPoints creates the points definition.
func NewPoints(svc Services) *Points {
	return &Points{svc: svc}
}

func (p *Points) Key() domain.ThreadKey { return domain.ThreadPoints }

func (p *Points) Steps(ctx context.Context, t *flow.Thread) (*flow.Node, error) {
	return flow.NewNode(&displayPointsStep{svc: p.svc, thread: t}), nil
}

type displayPointsStep struct {
	flow.StepBase
	svc    Services
	thread *flow.Thread
}

func (s *displayPointsStep) Name() domain.StepKey { return domain.StepDisplayPoints }

func (s *displayPointsStep) Send(ctx context.Context, ev *ports.Message, userID string) (*ports.Message, map[string]any, error) {
	profile, err := s.svc.Profiles.FindUser(ctx, userID, s.thread.GuildID())
	if err != nil {
		return nil, nil, err
	}
	if profile == nil {
		return nil, nil, domain.Terminatef(
			"You don't have a profile in that guild yet. Run the join command first!")
	}

	var window pointsWindow
	if err := flow.DecodeMeta(s.thread, &window); err != nil {
		return nil, nil, err
	}

	var since *time.Time
	if window.Days != "" && window.Days != "all" {
		days, err := strconv.Atoi(window.Days)
		if err != nil {
			return nil, nil, domain.Terminatef("%s is not a valid number of days", window.Days)
		}
		cutoff := time.Now().AddDate(0, 0, -days)
		since = &cutoff
	}

	contributions, err := s.svc.Profiles.ListContributions(ctx, profile.ID, since)
	if err != nil {
		return nil, nil, err
	}
	if len(contributions) == 0 {
		msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID,
			"No contributions found for that period. Report some with the report command!")
		return msg, nil, err
	}

	content := "```\n" + renderPointsTable(contributions) + "```"
	msg, err := s.svc.Messenger.SendMessage(ctx, ev.ChannelID, content)
	return msg, map[string]any{"msg": content}, err
}

func renderPointsTable(contributions []ports.Contribution) string {
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.SetHeader([]string{"Engagement", "Status", "Submitted", "Engaged", "Points"})
	for _, c := range contributions {
		table.Append([]string{
			c.Activity,
			c.Status,
			c.SubmittedAt.Format("2006-01-02"),
			c.EngagedAt.Format("2006-01-02"),
			fmt.Sprintf("%d", c.Points),
		})
	}
	table.Render()
	return sb.String()
}
