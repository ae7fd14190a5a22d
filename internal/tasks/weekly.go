package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/hearthlabs/hearth/pkg/ports"
)

// WeeklyReportName is the mark-store key for the weekly contribution
// report.
const WeeklyReportName = "weekly_contribution_report"

// WeeklyReport posts each guild's contributions from the past week to the
// operator's reporting channel.
type WeeklyReport struct {
	profiles  ports.ProfileStore
	messenger ports.Messenger
	channelID string
	guildIDs  []string
	log       *slog.Logger
}

// NewWeeklyReport configures the weekly contribution summary for the
// given guilds.
func NewWeeklyReport(profiles ports.ProfileStore, messenger ports.Messenger, channelID string, guildIDs []string, log *slog.Logger) *WeeklyReport {
	return &WeeklyReport{
		profiles:  profiles,
		messenger: messenger,
		channelID: channelID,
		guildIDs:  guildIDs,
		log:       log,
	}
}

// Task wraps the report as a Friday job for the runner.
func (w *WeeklyReport) Task() Task {
	return Task{
		Name:    WeeklyReportName,
		Cadence: OnceWeekly(time.Friday),
		Fn:      w.Run,
	}
}

// Run generates and posts the report once.
func (w *WeeklyReport) Run(ctx context.Context) error {
	if w.channelID == "" {
		w.log.Info("weekly report channel not configured, skipping")
		return nil
	}

	names := make([]string, 0, len(w.guildIDs))
	for _, guildID := range w.guildIDs {
		names = append(names, w.guildName(ctx, guildID))
	}

	_, err := w.messenger.SendEmbed(ctx, w.channelID, &ports.Embed{
		Title: "Weekly contribution report for " + time.Now().Format("2006-01-02"),
		Description: "Contributions submitted over the past week for each " +
			"active guild are listed below.",
		Fields: []ports.EmbedField{
			{Name: "Reporting guilds", Value: strings.Join(names, ", ")},
		},
	})
	if err != nil {
		return fmt.Errorf("send report header: %w", err)
	}

	since := time.Now().AddDate(0, 0, -7)
	for i, guildID := range w.guildIDs {
		contributions, err := w.profiles.ListGuildContributions(ctx, guildID, &since)
		if err != nil {
			return fmt.Errorf("list contributions for guild %s: %w", guildID, err)
		}

		content := names[i] + ": no contributions reported this week."
		if len(contributions) > 0 {
			content = names[i] + "\n```\n" + renderReportTable(contributions) + "```"
		}
		if _, err := w.messenger.SendMessage(ctx, w.channelID, content); err != nil {
			return fmt.Errorf("send report for guild %s: %w", guildID, err)
		}
	}
	return nil
}

func (w *WeeklyReport) guildName(ctx context.Context, guildID string) string {
	guild, err := w.profiles.FindGuild(ctx, guildID)
	if err != nil || guild == nil || guild.Name == "" {
		return guildID
	}
	return guild.Name
}

func renderReportTable(contributions []ports.Contribution) string {
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.SetHeader([]string{"Member", "Engagement", "Status", "Submitted", "Points"})
	for _, c := range contributions {
		table.Append([]string{
			c.Contributor,
			c.Activity,
			c.Status,
			c.SubmittedAt.Format("2006-01-02"),
			fmt.Sprintf("%d", c.Points),
		})
	}
	table.Render()
	return sb.String()
}
