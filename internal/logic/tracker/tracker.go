package tracker

import (
	"sort"
	"sync"
	"time"
)

// Action is the escalation decision produced by a single evaluation.
type Action int

const (
	// ActionNone means no escalation step is due.
	ActionNone Action = iota

	// ActionNotify means the overuse report should be delivered now.
	ActionNotify

	// ActionTerminate means the instance should be killed now.
	ActionTerminate
)

func (a Action) String() string {
	switch a {
	case ActionNotify:
		return "notify"
	case ActionTerminate:
		return "terminate"
	case ActionNone:
	}

	return "none"
}

// Thresholds configures the escalation windows. ReportAfter is uniform
// across categories; KillAfter applies unless the instance category has an
// entry in KillAfterByCategory.
type Thresholds struct {
	ReportAfter         time.Duration
	KillAfter           time.Duration
	KillAfterByCategory map[string]time.Duration
}

// episode is the per-instance breach record. It exists only while the
// instance is in breach; absence means "not breaching or already resolved".
type episode struct {
	name     string
	category string
	since    time.Time
	notified bool
}

// Tracker owns the per-instance breach episodes. Evaluations from one poll
// batch run on separate goroutines, so the episode map is mutex-serialized.
// The tracker performs no I/O and cannot fail.
type Tracker struct {
	thresholds Thresholds
	mu         sync.Mutex
	episodes   map[string]*episode
}

// New creates a tracker with the given escalation thresholds.
func New(thresholds Thresholds) *Tracker {
	return &Tracker{
		thresholds: thresholds,
		episodes:   make(map[string]*episode),
	}
}

const (
	bytesPerGB = float64(1 << 30)
	mbPerGB    = float64(1 << 10)
)

// InBreach reports whether the snapshot meets or exceeds any configured
// (non-zero) limit. Comparison is inclusive; memory and disk are compared
// in gigabytes after converting bytes (usage) and megabytes (limit).
func InBreach(limits Limits, snap Snapshot) bool {
	if limits.CPUPercent > 0 && snap.CPUPercent >= limits.CPUPercent {
		return true
	}

	if limits.MemoryMB > 0 && float64(snap.MemoryBytes)/bytesPerGB >= float64(limits.MemoryMB)/mbPerGB {
		return true
	}

	if limits.DiskMB > 0 && float64(snap.DiskBytes)/bytesPerGB >= float64(limits.DiskMB)/mbPerGB {
		return true
	}

	return false
}

// Evaluate advances the instance's episode state for the given snapshot and
// returns the escalation action that is due now.
//
// Transitions:
//   - first breach observation creates the episode, no action;
//   - Notify fires once per episode when the breach age reaches ReportAfter;
//   - Terminate fires when the breach age reaches the category's kill
//     threshold and ends the episode unconditionally;
//   - recovery deletes the episode, so a later breach starts a fresh clock.
func (t *Tracker) Evaluate(inst Instance, snap Snapshot, now time.Time) Action {
	t.mu.Lock()
	defer t.mu.Unlock()

	ep, exists := t.episodes[inst.ID]

	if !InBreach(inst.Limits, snap) {
		if exists {
			delete(t.episodes, inst.ID)
		}

		return ActionNone
	}

	if !exists {
		t.episodes[inst.ID] = &episode{
			name:     inst.Name,
			category: inst.Category,
			since:    now,
		}

		return ActionNone
	}

	age := now.Sub(ep.since)

	if age >= t.killAfter(inst.Category) {
		delete(t.episodes, inst.ID)

		return ActionTerminate
	}

	if !ep.notified && age >= t.thresholds.ReportAfter {
		ep.notified = true

		return ActionNotify
	}

	return ActionNone
}

// ActiveEpisodes returns a copy of all active breach episodes, ordered by
// instance ID.
func (t *Tracker) ActiveEpisodes() []Episode {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Episode, 0, len(t.episodes))
	for id, ep := range t.episodes {
		out = append(out, Episode{
			InstanceID: id,
			Name:       ep.name,
			Category:   ep.category,
			Since:      ep.since,
			Notified:   ep.notified,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].InstanceID < out[j].InstanceID
	})

	return out
}

// ActiveCount returns the number of active breach episodes.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.episodes)
}

func (t *Tracker) killAfter(category string) time.Duration {
	if d, ok := t.thresholds.KillAfterByCategory[category]; ok {
		return d
	}

	return t.thresholds.KillAfter
}
