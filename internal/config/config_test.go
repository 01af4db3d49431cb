package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fleetguard/fleetguard-controller/internal/config"
)

func requiredEnv() map[string]string {
	return map[string]string{
		"FLEETGUARD_PANEL_URL":         "https://panel.example.com/api",
		"FLEETGUARD_APPLICATION_TOKEN": "app-token",
		"FLEETGUARD_CLIENT_TOKEN":      "client-token",
		"FLEETGUARD_WEBHOOK_URL":       "https://hooks.example.com/abc",
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		giveEnv map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			name:    "all defaults",
			giveEnv: requiredEnv(),
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()

				require.Equal(t, "https://panel.example.com/api", cfg.PanelURL)
				require.Equal(t, 5, cfg.BatchSize)
				require.Equal(t, 5*time.Second, cfg.BatchDelay)
				require.Equal(t, 5*time.Minute, cfg.CycleDelay)
				require.Equal(t, 2*time.Hour, cfg.ReportAfter)
				require.Equal(t, 3*time.Hour, cfg.KillAfter)
				require.Empty(t, cfg.KillAfterByCategory)
				require.Empty(t, cfg.ExcludedCategories)
				require.Empty(t, cfg.SummarySchedule)
				require.Equal(t, 10*time.Second, cfg.HealthInterval)
				require.Equal(t, "info", cfg.LogLevel)
				require.Equal(t, "json", cfg.LogFormat)
				require.Equal(t, "8080", cfg.HTTPPort)
				require.Equal(t, "9090", cfg.MetricsPort)
			},
		},
		{
			name: "explicit values",
			giveEnv: merge(requiredEnv(), map[string]string{
				"FLEETGUARD_BATCH_SIZE":           "10",
				"FLEETGUARD_BATCH_DELAY":          "2s",
				"FLEETGUARD_CYCLE_DELAY":          "10m",
				"FLEETGUARD_REPORT_AFTER":         "1h",
				"FLEETGUARD_KILL_AFTER":           "90m",
				"FLEETGUARD_KILL_AFTER_OVERRIDES": "premium=5h, partner=8h",
				"FLEETGUARD_EXCLUDED_CATEGORIES":  "internal, staging",
				"FLEETGUARD_SUMMARY_SCHEDULE":     "0 8 * * *",
				"FLEETGUARD_LOG_LEVEL":            "debug",
				"FLEETGUARD_LOG_FORMAT":           "text",
			}),
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()

				require.Equal(t, 10, cfg.BatchSize)
				require.Equal(t, 2*time.Second, cfg.BatchDelay)
				require.Equal(t, 10*time.Minute, cfg.CycleDelay)
				require.Equal(t, time.Hour, cfg.ReportAfter)
				require.Equal(t, 90*time.Minute, cfg.KillAfter)
				require.Equal(t, map[string]time.Duration{
					"premium": 5 * time.Hour,
					"partner": 8 * time.Hour,
				}, cfg.KillAfterByCategory)
				require.Equal(t, []string{"internal", "staging"}, cfg.ExcludedCategories)
				require.Equal(t, "0 8 * * *", cfg.SummarySchedule)
				require.Equal(t, "debug", cfg.LogLevel)
				require.Equal(t, "text", cfg.LogFormat)
			},
		},
		{
			name:    "missing panel url",
			giveEnv: merge(requiredEnv(), map[string]string{"FLEETGUARD_PANEL_URL": ""}),
			wantErr: true,
		},
		{
			name:    "missing webhook url",
			giveEnv: merge(requiredEnv(), map[string]string{"FLEETGUARD_WEBHOOK_URL": ""}),
			wantErr: true,
		},
		{
			name:    "invalid batch size",
			giveEnv: merge(requiredEnv(), map[string]string{"FLEETGUARD_BATCH_SIZE": "zero"}),
			wantErr: true,
		},
		{
			name:    "batch size below one",
			giveEnv: merge(requiredEnv(), map[string]string{"FLEETGUARD_BATCH_SIZE": "0"}),
			wantErr: true,
		},
		{
			name:    "cycle delay below minimum",
			giveEnv: merge(requiredEnv(), map[string]string{"FLEETGUARD_CYCLE_DELAY": "5s"}),
			wantErr: true,
		},
		{
			name:    "invalid duration unit",
			giveEnv: merge(requiredEnv(), map[string]string{"FLEETGUARD_REPORT_AFTER": "7200"}),
			wantErr: true,
		},
		{
			name: "kill after below report after",
			giveEnv: merge(requiredEnv(), map[string]string{
				"FLEETGUARD_REPORT_AFTER": "3h",
				"FLEETGUARD_KILL_AFTER":   "2h",
			}),
			wantErr: true,
		},
		{
			name:    "malformed override pair",
			giveEnv: merge(requiredEnv(), map[string]string{"FLEETGUARD_KILL_AFTER_OVERRIDES": "premium"}),
			wantErr: true,
		},
		{
			name:    "override with bad duration",
			giveEnv: merge(requiredEnv(), map[string]string{"FLEETGUARD_KILL_AFTER_OVERRIDES": "premium=fast"}),
			wantErr: true,
		},
		{
			name:    "invalid summary schedule",
			giveEnv: merge(requiredEnv(), map[string]string{"FLEETGUARD_SUMMARY_SCHEDULE": "not a cron"}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.giveEnv {
				t.Setenv(key, value)
			}

			cfg, err := config.Load()
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestParseSummarySchedule(t *testing.T) {
	t.Parallel()

	t.Run("defaults to UTC", func(t *testing.T) {
		t.Parallel()

		schedule, err := config.ParseSummarySchedule("0 8 * * *")
		require.NoError(t, err)

		after := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		next := schedule.Next(after)
		require.Equal(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), next.UTC())
	})

	t.Run("explicit timezone prefix preserved", func(t *testing.T) {
		t.Parallel()

		_, err := config.ParseSummarySchedule("CRON_TZ=Europe/Berlin 0 8 * * *")
		require.NoError(t, err)
	})

	t.Run("invalid spec", func(t *testing.T) {
		t.Parallel()

		_, err := config.ParseSummarySchedule("61 8 * * *")
		require.Error(t, err)
	})
}

func merge(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))

	for k, v := range base {
		out[k] = v
	}

	for k, v := range extra {
		out[k] = v
	}

	return out
}
