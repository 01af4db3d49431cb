package webhook

import (
	"fmt"
	"strings"
	"time"

	"github.com/fleetguard/fleetguard-controller/internal/logic/tracker"
)

type payload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Footer      footer `json:"footer"`
	Timestamp   string `json:"timestamp"`
}

type footer struct {
	Text string `json:"text"`
}

const bytesPerGB = float64(1 << 30)

// renderUsageReport lists each resource's usage against its configured
// limit. Unconstrained resources show usage only.
func renderUsageReport(inst tracker.Instance, snap tracker.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Instance `%s` (%s), category `%s`\n", inst.ID, inst.Name, inst.Category)

	fmt.Fprintf(&b, "CPU: %.1f%%%s\n", snap.CPUPercent, limitSuffix(inst.Limits.CPUPercent > 0, "%.0f%%", inst.Limits.CPUPercent))
	fmt.Fprintf(&b, "Memory: %.2f GB%s\n",
		float64(snap.MemoryBytes)/bytesPerGB,
		limitSuffix(inst.Limits.MemoryMB > 0, "%d MB", inst.Limits.MemoryMB),
	)
	fmt.Fprintf(&b, "Disk: %.2f GB%s",
		float64(snap.DiskBytes)/bytesPerGB,
		limitSuffix(inst.Limits.DiskMB > 0, "%d MB", inst.Limits.DiskMB),
	)

	return b.String()
}

func limitSuffix[T float64 | int64](constrained bool, format string, limit T) string {
	if !constrained {
		return " (unlimited)"
	}

	return " / " + fmt.Sprintf(format, limit)
}

func renderSummary(episodes []tracker.Episode, now time.Time) string {
	if len(episodes) == 0 {
		return "No instances are currently over their limits."
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%d instance(s) currently over limits:\n", len(episodes))

	for _, ep := range episodes {
		fmt.Fprintf(&b, "- `%s` (%s): breaching for %s, notified=%t\n",
			ep.InstanceID,
			ep.Name,
			now.Sub(ep.Since).Round(time.Second),
			ep.Notified,
		)
	}

	return strings.TrimRight(b.String(), "\n")
}
