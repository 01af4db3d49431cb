package config

import "time"

// Env key constants. All controller configuration env vars use FLEETGUARD_
// prefix; duration values support explicit units (e.g. 5m, 40s, 2h).

// Base URL of the management panel API (required).
const envKeyPanelURL = "FLEETGUARD_PANEL_URL"

// Application-scope bearer token used for the instance listing (required).
const envKeyApplicationToken = "FLEETGUARD_APPLICATION_TOKEN"

// Client-scope bearer token used for per-instance operations (required).
const envKeyClientToken = "FLEETGUARD_CLIENT_TOKEN"

// Webhook URL for overage reports and termination audit entries (required).
const envKeyWebhookURL = "FLEETGUARD_WEBHOOK_URL"

// Log level: debug, info, warn, error.
const envKeyLogLevel = "FLEETGUARD_LOG_LEVEL"

// Log format: json or text.
const envKeyLogFormat = "FLEETGUARD_LOG_FORMAT"

// Port for health/readiness HTTP server.
const envKeyHTTPPort = "FLEETGUARD_HTTP_PORT"

// Port for Prometheus metrics (GET /metrics).
const envKeyMetricsPort = "FLEETGUARD_METRICS_PORT"

// Number of instances fetched and evaluated concurrently per batch.
const envKeyBatchSize = "FLEETGUARD_BATCH_SIZE"

// Pause between two consecutive batches within one poll cycle.
const (
	envKeyBatchDelay = "FLEETGUARD_BATCH_DELAY"
	envMinBatchDelay = time.Second
)

// Sleep between two poll cycles.
const (
	envKeyCycleDelay = "FLEETGUARD_CYCLE_DELAY"
	envMinCycleDelay = 30 * time.Second
)

// Breach age after which the overuse report is sent (uniform across categories).
const (
	envKeyReportAfter = "FLEETGUARD_REPORT_AFTER"
	envMinReportAfter = time.Minute
)

// Breach age after which the instance is killed (default for all categories).
const (
	envKeyKillAfter = "FLEETGUARD_KILL_AFTER"
	envMinKillAfter = time.Minute
)

// Per-category kill threshold overrides, e.g. "premium=5h,partner=8h".
const envKeyKillAfterOverrides = "FLEETGUARD_KILL_AFTER_OVERRIDES"

// Comma-separated category tags excluded from monitoring.
const envKeyExcludedCategories = "FLEETGUARD_EXCLUDED_CATEGORIES"

// Cron schedule for the fleet usage summary (standard 5-field spec,
// CRON_TZ= prefix supported). Empty disables the summary.
const envKeySummarySchedule = "FLEETGUARD_SUMMARY_SCHEDULE"

// Health check interval for component pings. Units: s, m, h (e.g. 10s, 1m).
const (
	envKeyHealthInterval = "FLEETGUARD_HEALTH_INTERVAL"
	envMinHealthInterval = time.Second
)
