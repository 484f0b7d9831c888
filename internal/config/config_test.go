package config

import (
	"os"
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "postgres://db", "default", "postgres://db"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "120", 30, 120},
		{"uses default for empty", "TEST_INT_2", "", 30, 30},
		{"uses default for non-numeric", "TEST_INT_3", "soon", 30, 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestLoad_ReconcileDefaults(t *testing.T) {
	for _, key := range []string{"RECONCILE_CRON", "STALE_AFTER_MINUTES", "STALE_BATCH_SIZE", "AUTO_CLOSE_AFTER_HOURS", "AUTO_CLOSE_BATCH_SIZE"} {
		os.Unsetenv(key)
	}

	cfg := Load()
	if cfg.ReconcileCron != "@every 5m" {
		t.Errorf("Expected default cron spec, got %q", cfg.ReconcileCron)
	}
	if cfg.StaleAfterMin != 30 || cfg.StaleBatchSize != 100 {
		t.Errorf("Unexpected staleness defaults: %d/%d", cfg.StaleAfterMin, cfg.StaleBatchSize)
	}
	if cfg.AutoCloseAfterHrs != 48 || cfg.AutoCloseBatchSize != 50 {
		t.Errorf("Unexpected auto-close defaults: %d/%d", cfg.AutoCloseAfterHrs, cfg.AutoCloseBatchSize)
	}
}
