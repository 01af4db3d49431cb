package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pollCyclesTotal = promauto.With(prometheus.DefaultRegisterer).NewCounter(
	prometheus.CounterOpts{
		Name: "fleetguard_poll_cycles_total",
		Help: "Total number of poll cycles, including cycles degraded by a directory failure.",
	},
)

var directoryFailuresTotal = promauto.With(prometheus.DefaultRegisterer).NewCounter(
	prometheus.CounterOpts{
		Name: "fleetguard_directory_failures_total",
		Help: "Total number of poll cycles skipped because the instance directory could not be listed.",
	},
)

var snapshotFetchFailuresTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "fleetguard_snapshot_fetch_failures_total",
		Help: "Total number of resource snapshot fetches that degraded to no data for a cycle.",
	},
	[]string{"instance"},
)

var overuseNotificationsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "fleetguard_overuse_notifications_total",
		Help: "Total number of overuse reports emitted after a sustained breach.",
	},
	[]string{"category"},
)

var terminationsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "fleetguard_terminations_total",
		Help: "Total number of forced terminations issued after a prolonged breach.",
	},
	[]string{"category"},
)

var activeBreachEpisodes = promauto.With(prometheus.DefaultRegisterer).NewGauge(
	prometheus.GaugeOpts{
		Name: "fleetguard_active_breach_episodes",
		Help: "Number of instances currently tracked as breaching their limits.",
	},
)

// RecordPollCycle increments the cycle counter.
func RecordPollCycle() {
	pollCyclesTotal.Inc()
}

// RecordDirectoryFailure increments the degraded-cycle counter.
func RecordDirectoryFailure() {
	directoryFailuresTotal.Inc()
}

// RecordSnapshotFetchFailure increments the fetch failure counter for one instance.
func RecordSnapshotFetchFailure(instance string) {
	snapshotFetchFailuresTotal.WithLabelValues(instance).Inc()
}

// RecordOveruseNotification increments the overuse report counter.
func RecordOveruseNotification(category string) {
	overuseNotificationsTotal.WithLabelValues(category).Inc()
}

// RecordTermination increments the forced termination counter.
func RecordTermination(category string) {
	terminationsTotal.WithLabelValues(category).Inc()
}

// SetActiveBreachEpisodes updates the active episode gauge.
func SetActiveBreachEpisodes(count int) {
	activeBreachEpisodes.Set(float64(count))
}
