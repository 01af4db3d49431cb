package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cron "github.com/netresearch/go-cron"
)

const (
	defaultBatchSize   = 5
	defaultBatchDelay  = 5 * time.Second
	defaultCycleDelay  = 5 * time.Minute
	defaultReportAfter = 2 * time.Hour
	defaultKillAfter   = 3 * time.Hour

	defaultHealthInterval = 10 * time.Second
)

var scheduleParser = cron.MustNewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

type Config struct {
	PanelURL         string
	ApplicationToken string
	ClientToken      string
	WebhookURL       string

	BatchSize  int
	BatchDelay time.Duration
	CycleDelay time.Duration

	ReportAfter         time.Duration
	KillAfter           time.Duration
	KillAfterByCategory map[string]time.Duration
	ExcludedCategories  []string

	SummarySchedule string

	HealthInterval time.Duration
	LogLevel       string
	LogFormat      string
	HTTPPort       string
	MetricsPort    string
}

func Load() (*Config, error) {
	cfg := &Config{
		PanelURL:         os.Getenv(envKeyPanelURL),
		ApplicationToken: os.Getenv(envKeyApplicationToken),
		ClientToken:      os.Getenv(envKeyClientToken),
		WebhookURL:       os.Getenv(envKeyWebhookURL),
		SummarySchedule:  os.Getenv(envKeySummarySchedule),
		LogLevel:         getEnvOrDefault(envKeyLogLevel, "info"),
		LogFormat:        getEnvOrDefault(envKeyLogFormat, "json"),
		HTTPPort:         getEnvOrDefault(envKeyHTTPPort, "8080"),
		MetricsPort:      getEnvOrDefault(envKeyMetricsPort, "9090"),
	}

	for key, value := range map[string]string{
		envKeyPanelURL:         cfg.PanelURL,
		envKeyApplicationToken: cfg.ApplicationToken,
		envKeyClientToken:      cfg.ClientToken,
		envKeyWebhookURL:       cfg.WebhookURL,
	} {
		if value == "" {
			return nil, fmt.Errorf("%s: %w", key, errRequiredEnvMissing)
		}
	}

	batchSize, err := getEnvInt(envKeyBatchSize, defaultBatchSize)
	if err != nil {
		return nil, err
	}

	if batchSize < 1 {
		return nil, fmt.Errorf("%s must be at least 1, got %d", envKeyBatchSize, batchSize)
	}

	cfg.BatchSize = batchSize

	durations := []struct {
		key      string
		fallback time.Duration
		minimum  time.Duration
		out      *time.Duration
	}{
		{envKeyBatchDelay, defaultBatchDelay, envMinBatchDelay, &cfg.BatchDelay},
		{envKeyCycleDelay, defaultCycleDelay, envMinCycleDelay, &cfg.CycleDelay},
		{envKeyReportAfter, defaultReportAfter, envMinReportAfter, &cfg.ReportAfter},
		{envKeyKillAfter, defaultKillAfter, envMinKillAfter, &cfg.KillAfter},
		{envKeyHealthInterval, defaultHealthInterval, envMinHealthInterval, &cfg.HealthInterval},
	}

	for _, d := range durations {
		value, err := getEnvDuration(d.key, d.fallback, d.minimum)
		if err != nil {
			return nil, err
		}

		*d.out = value
	}

	if cfg.KillAfter < cfg.ReportAfter {
		return nil, fmt.Errorf("%s (%s) must not be below %s (%s)",
			envKeyKillAfter, cfg.KillAfter, envKeyReportAfter, cfg.ReportAfter)
	}

	overrides, err := parseKillAfterOverrides(os.Getenv(envKeyKillAfterOverrides))
	if err != nil {
		return nil, err
	}

	cfg.KillAfterByCategory = overrides
	cfg.ExcludedCategories = splitList(os.Getenv(envKeyExcludedCategories))

	if cfg.SummarySchedule != "" {
		if _, err := scheduleParser.Parse(withDefaultTZ(cfg.SummarySchedule)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", envKeySummarySchedule, err)
		}
	}

	return cfg, nil
}

// ParseSummarySchedule parses a summary cron spec, defaulting the timezone
// to UTC when the spec has no CRON_TZ=/TZ= prefix.
func ParseSummarySchedule(spec string) (cron.Schedule, error) {
	schedule, err := scheduleParser.Parse(withDefaultTZ(spec))
	if err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	return schedule, nil
}

func withDefaultTZ(spec string) string {
	if strings.HasPrefix(spec, "CRON_TZ=") || strings.HasPrefix(spec, "TZ=") {
		return spec
	}

	return "CRON_TZ=UTC " + spec
}

// parseKillAfterOverrides parses "category=duration" pairs separated by
// commas, e.g. "premium=5h,partner=8h".
func parseKillAfterOverrides(raw string) (map[string]time.Duration, error) {
	if raw == "" {
		return nil, nil
	}

	out := make(map[string]time.Duration)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		category, value, found := strings.Cut(pair, "=")
		if !found || category == "" {
			return nil, fmt.Errorf("parse %s: %w: %q", envKeyKillAfterOverrides, errMalformedOverride, pair)
		}

		duration, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", envKeyKillAfterOverrides, err)
		}

		out[strings.TrimSpace(category)] = duration
	}

	return out, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	return value, nil
}

func getEnvDuration(key string, defaultValue, minimum time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	if value < minimum {
		return 0, fmt.Errorf("%s must be at least %s, got %s", key, minimum, value)
	}

	return value, nil
}
