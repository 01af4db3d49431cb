package summary

import (
	"context"

	"github.com/fleetguard/fleetguard-controller/internal/logic/tracker"
)

// Sender delivers the fleet summary to the notification channel.
type Sender interface {
	NotifySummary(ctx context.Context, episodes []tracker.Episode) error
}

// StatsSource exposes the current breach state of the fleet.
type StatsSource interface {
	ActiveEpisodes() []tracker.Episode
}
