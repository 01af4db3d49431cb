package tracker

import "time"

// Instance is one monitored hosted application instance as reported by the
// management panel. Instances are re-resolved on every poll cycle and never
// persisted.
type Instance struct {
	ID       string
	Name     string
	Category string
	Limits   Limits
}

// Limits holds the configured resource ceilings for an instance. The panel
// reports memory and disk limits in megabytes and CPU in percent. A zero
// value means the resource is unconstrained.
type Limits struct {
	CPUPercent float64
	MemoryMB   int64
	DiskMB     int64
}

// Snapshot is an instantaneous resource usage reading for one instance.
// Memory and disk arrive in bytes, CPU in percent.
type Snapshot struct {
	CPUPercent  float64
	MemoryBytes int64
	DiskBytes   int64
}

// Episode describes one active breach episode for reporting purposes.
type Episode struct {
	InstanceID string
	Name       string
	Category   string
	Since      time.Time
	Notified   bool
}
