package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"SPEEDDATE_CONFIG",
			"SPEEDDATE_HTTP_PORT",
			"SPEEDDATE_SQLITE_DSN",
			"SPEEDDATE_INITIAL_AGE_WINDOW",
			"SPEEDDATE_EXTENDED_AGE_WINDOW",
			"SPEEDDATE_ROUND_DURATION",
			"SPEEDDATE_BREAK_DURATION",
			"SPEEDDATE_STREAM_BUFFER",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:speeddate.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.InitialAgeWindow != 3 || cfg.ExtendedAgeWindow != 4 {
			t.Fatalf("unexpected default age windows: %d/%d", cfg.InitialAgeWindow, cfg.ExtendedAgeWindow)
		}
		if cfg.RoundDurationS != 180 || cfg.BreakDurationS != 60 {
			t.Fatalf("unexpected default durations: %d/%d", cfg.RoundDurationS, cfg.BreakDurationS)
		}
	})

	t.Run("parses numeric fields", func(t *testing.T) {
		t.Setenv("SPEEDDATE_HTTP_PORT", "9090")
		t.Setenv("SPEEDDATE_SQLITE_DSN", "file:/tmp/speeddate.db")
		t.Setenv("SPEEDDATE_INITIAL_AGE_WINDOW", "2")
		t.Setenv("SPEEDDATE_EXTENDED_AGE_WINDOW", "5")
		t.Setenv("SPEEDDATE_ROUND_DURATION", "300")
		t.Setenv("SPEEDDATE_BREAK_DURATION", "90")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/speeddate.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.InitialAgeWindow != 2 || cfg.ExtendedAgeWindow != 5 {
			t.Fatalf("unexpected age windows: %d/%d", cfg.InitialAgeWindow, cfg.ExtendedAgeWindow)
		}
		if cfg.RoundDurationS != 300 || cfg.BreakDurationS != 90 {
			t.Fatalf("unexpected durations: %d/%d", cfg.RoundDurationS, cfg.BreakDurationS)
		}
	})

	t.Run("errors on invalid values", func(t *testing.T) {
		t.Setenv("SPEEDDATE_HTTP_PORT", "not-a-port")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid port")
		}
		expected := "環境変数の値が不正です: SPEEDDATE_HTTP_PORT"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("rejects an extended window narrower than the initial one", func(t *testing.T) {
		t.Setenv("SPEEDDATE_INITIAL_AGE_WINDOW", "5")
		t.Setenv("SPEEDDATE_EXTENDED_AGE_WINDOW", "3")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when the extended window is narrower")
		}
	})

	t.Run("reads the YAML file and lets environment variables win", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		contents := "http_port: 7000\nround_duration_s: 240\nsqlite_dsn: file:from-yaml.db\n"
		if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		t.Setenv("SPEEDDATE_CONFIG", path)
		t.Setenv("SPEEDDATE_HTTP_PORT", "7070")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 7070 {
			t.Fatalf("expected environment override 7070, got %d", cfg.HTTPPort)
		}
		if cfg.RoundDurationS != 240 {
			t.Fatalf("expected round duration 240 from file, got %d", cfg.RoundDurationS)
		}
		if cfg.SQLiteDSN != "file:from-yaml.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
	})
}
