package threads

import "github.com/hearthlabs/hearth/pkg/flow"

// Definitions returns every conversation this bot knows how to run, ready
// to be registered with a flow registry.
func Definitions(svc Services) []flow.Definition {
	return []flow.Definition{
		NewOnboarding(svc),
		NewUpdateProfile(svc),
		NewGuildSelect(svc),
		NewReport(svc),
		NewPoints(svc),
		NewAddGuild(svc),
		NewInitialContributions(svc),
	}
}
