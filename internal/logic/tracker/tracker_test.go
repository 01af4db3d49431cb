package tracker_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fleetguard/fleetguard-controller/internal/logic/tracker"
)

const mib = int64(1) << 20

func testThresholds() tracker.Thresholds {
	return tracker.Thresholds{
		ReportAfter: 7200 * time.Second,
		KillAfter:   10800 * time.Second,
		KillAfterByCategory: map[string]time.Duration{
			"premium": 18000 * time.Second,
		},
	}
}

func testInstance(category string) tracker.Instance {
	return tracker.Instance{
		ID:       "a1b2c3",
		Name:     "game-7",
		Category: category,
		Limits: tracker.Limits{
			CPUPercent: 150,
			MemoryMB:   4096,
			DiskMB:     10240,
		},
	}
}

func overSnapshot() tracker.Snapshot {
	return tracker.Snapshot{
		CPUPercent:  180,
		MemoryBytes: 5 * 1024 * mib,
		DiskBytes:   mib,
	}
}

func underSnapshot() tracker.Snapshot {
	return tracker.Snapshot{
		CPUPercent:  10,
		MemoryBytes: 512 * mib,
		DiskBytes:   mib,
	}
}

func TestInBreach(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		limits tracker.Limits
		snap   tracker.Snapshot
		want   bool
	}{
		{
			name:   "all limits zero is never a breach",
			limits: tracker.Limits{},
			snap: tracker.Snapshot{
				CPUPercent:  900,
				MemoryBytes: 64 * 1024 * mib,
				DiskBytes:   64 * 1024 * mib,
			},
			want: false,
		},
		{
			name:   "usage exactly at cpu limit is inclusive",
			limits: tracker.Limits{CPUPercent: 150},
			snap:   tracker.Snapshot{CPUPercent: 150},
			want:   true,
		},
		{
			name:   "usage exactly at memory limit is inclusive",
			limits: tracker.Limits{MemoryMB: 4096},
			snap:   tracker.Snapshot{MemoryBytes: 4096 * mib},
			want:   true,
		},
		{
			name:   "usage exactly at disk limit is inclusive",
			limits: tracker.Limits{DiskMB: 10240},
			snap:   tracker.Snapshot{DiskBytes: 10240 * mib},
			want:   true,
		},
		{
			name:   "usage just under every limit",
			limits: tracker.Limits{CPUPercent: 150, MemoryMB: 4096, DiskMB: 10240},
			snap: tracker.Snapshot{
				CPUPercent:  149.9,
				MemoryBytes: 4096*mib - 1,
				DiskBytes:   10240*mib - 1,
			},
			want: false,
		},
		{
			name:   "single exceeded limit is enough",
			limits: tracker.Limits{CPUPercent: 150, MemoryMB: 4096, DiskMB: 10240},
			snap: tracker.Snapshot{
				CPUPercent:  10,
				MemoryBytes: 8192 * mib,
				DiskBytes:   mib,
			},
			want: true,
		},
		{
			name:   "zero limit ignores high usage of that resource",
			limits: tracker.Limits{CPUPercent: 150},
			snap: tracker.Snapshot{
				CPUPercent:  10,
				MemoryBytes: 64 * 1024 * mib,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, tracker.InBreach(tt.limits, tt.snap))
		})
	}
}

func TestTracker_Evaluate_NotifyOncePerEpisode(t *testing.T) {
	t.Parallel()

	trk := tracker.New(testThresholds())
	inst := testInstance("standard")
	t0 := time.Now()

	require.Equal(t, tracker.ActionNone, trk.Evaluate(inst, overSnapshot(), t0))
	require.Equal(t, tracker.ActionNone, trk.Evaluate(inst, overSnapshot(), t0.Add(3600*time.Second)))
	require.Equal(t, tracker.ActionNotify, trk.Evaluate(inst, overSnapshot(), t0.Add(7200*time.Second)))

	// Still breaching past the report threshold: the notify flag suppresses
	// a repeat until the episode ends.
	require.Equal(t, tracker.ActionNone, trk.Evaluate(inst, overSnapshot(), t0.Add(7300*time.Second)))
	require.Equal(t, 1, trk.ActiveCount())
}

func TestTracker_Evaluate_TerminateEndsEpisode(t *testing.T) {
	t.Parallel()

	trk := tracker.New(testThresholds())
	inst := testInstance("standard")
	t0 := time.Now()

	require.Equal(t, tracker.ActionNone, trk.Evaluate(inst, overSnapshot(), t0))
	require.Equal(t, tracker.ActionNotify, trk.Evaluate(inst, overSnapshot(), t0.Add(7200*time.Second)))
	require.Equal(t, tracker.ActionTerminate, trk.Evaluate(inst, overSnapshot(), t0.Add(10800*time.Second)))
	require.Zero(t, trk.ActiveCount())

	// A breach observed after termination starts a fresh episode with a
	// fresh clock.
	require.Equal(t, tracker.ActionNone, trk.Evaluate(inst, overSnapshot(), t0.Add(11000*time.Second)))
	require.Equal(t, 1, trk.ActiveCount())
}

func TestTracker_Evaluate_TerminateWithoutPriorNotify(t *testing.T) {
	t.Parallel()

	trk := tracker.New(testThresholds())
	inst := testInstance("standard")
	t0 := time.Now()

	require.Equal(t, tracker.ActionNone, trk.Evaluate(inst, overSnapshot(), t0))

	// Kill threshold crossed before any evaluation hit the report window:
	// terminate wins regardless of the notified state.
	require.Equal(t, tracker.ActionTerminate, trk.Evaluate(inst, overSnapshot(), t0.Add(10800*time.Second)))
	require.Zero(t, trk.ActiveCount())
}

func TestTracker_Evaluate_RecoveryResetsClock(t *testing.T) {
	t.Parallel()

	trk := tracker.New(testThresholds())
	inst := testInstance("standard")
	t0 := time.Now()

	require.Equal(t, tracker.ActionNone, trk.Evaluate(inst, overSnapshot(), t0))
	require.Equal(t, tracker.ActionNone, trk.Evaluate(inst, underSnapshot(), t0.Add(100*time.Second)))
	require.Zero(t, trk.ActiveCount())

	// Second breach at t0+200: the clock restarts there, so crossing
	// t0+7200 must not trigger the notify yet.
	require.Equal(t, tracker.ActionNone, trk.Evaluate(inst, overSnapshot(), t0.Add(200*time.Second)))
	require.Equal(t, tracker.ActionNone, trk.Evaluate(inst, overSnapshot(), t0.Add(7200*time.Second)))
	require.Equal(t, tracker.ActionNotify, trk.Evaluate(inst, overSnapshot(), t0.Add(7400*time.Second)))
}

func TestTracker_Evaluate_CategoryKillOverride(t *testing.T) {
	t.Parallel()

	trk := tracker.New(testThresholds())
	inst := testInstance("premium")
	t0 := time.Now()

	require.Equal(t, tracker.ActionNone, trk.Evaluate(inst, overSnapshot(), t0))
	require.Equal(t, tracker.ActionNotify, trk.Evaluate(inst, overSnapshot(), t0.Add(7200*time.Second)))

	// Default kill threshold passed, override not reached yet.
	require.Equal(t, tracker.ActionNone, trk.Evaluate(inst, overSnapshot(), t0.Add(10800*time.Second)))
	require.Equal(t, 1, trk.ActiveCount())

	require.Equal(t, tracker.ActionTerminate, trk.Evaluate(inst, overSnapshot(), t0.Add(18000*time.Second)))
	require.Zero(t, trk.ActiveCount())
}

func TestTracker_ActiveEpisodes(t *testing.T) {
	t.Parallel()

	trk := tracker.New(testThresholds())
	t0 := time.Now()

	first := testInstance("standard")
	first.ID = "bbb"

	second := testInstance("premium")
	second.ID = "aaa"
	second.Name = "game-9"

	trk.Evaluate(first, overSnapshot(), t0)
	trk.Evaluate(second, overSnapshot(), t0.Add(time.Second))

	episodes := trk.ActiveEpisodes()
	require.Len(t, episodes, 2)
	require.Equal(t, "aaa", episodes[0].InstanceID)
	require.Equal(t, "game-9", episodes[0].Name)
	require.Equal(t, "premium", episodes[0].Category)
	require.False(t, episodes[0].Notified)
	require.Equal(t, "bbb", episodes[1].InstanceID)
	require.Equal(t, t0, episodes[1].Since)
}
