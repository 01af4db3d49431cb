package watch

import (
	"context"

	"github.com/fleetguard/fleetguard-controller/internal/logic/tracker"
)

// Repository is the port interface for the management panel API.
// Implementations are provided by adapters in the outbound layer.
type Repository interface {
	ListInstancesQuery(ctx context.Context) ([]tracker.Instance, error)

	GetResourcesQuery(
		ctx context.Context,
		instanceID string,
	) (*tracker.Snapshot, error)

	KillInstanceCommand(
		ctx context.Context,
		instanceID string,
	) error
}

// Notifier delivers escalation messages to the external notification
// channel. Delivery is best effort; callers log and swallow failures.
type Notifier interface {
	NotifyOveruse(
		ctx context.Context,
		inst tracker.Instance,
		snap tracker.Snapshot,
	) error

	NotifyTermination(
		ctx context.Context,
		inst tracker.Instance,
		snap tracker.Snapshot,
	) error
}
