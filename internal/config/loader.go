package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime settings of the speed-dating service. Values
// come from an optional YAML file first, then from environment variables,
// which win on conflict.
type Config struct {
	HTTPPort          int    `yaml:"http_port"`
	SQLiteDSN         string `yaml:"sqlite_dsn"`
	InitialAgeWindow  int    `yaml:"initial_age_window"`
	ExtendedAgeWindow int    `yaml:"extended_age_window"`
	RoundDurationS    int    `yaml:"round_duration_s"`
	BreakDurationS    int    `yaml:"break_duration_s"`
	StreamBuffer      int    `yaml:"stream_buffer"`
}

func defaults() Config {
	return Config{
		HTTPPort:          8080,
		SQLiteDSN:         "file:speeddate.db",
		InitialAgeWindow:  3,
		ExtendedAgeWindow: 4,
		RoundDurationS:    180,
		BreakDurationS:    60,
		StreamBuffer:      8,
	}
}

// Load resolves configuration from SPEEDDATE_CONFIG (a YAML file, optional)
// and the SPEEDDATE_* environment variables. Invalid values are reported with
// localized error messages.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("SPEEDDATE_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	invalid := make([]string, 0, 2)

	intVars := []struct {
		key     string
		target  *int
		minimum int
	}{
		{"SPEEDDATE_HTTP_PORT", &cfg.HTTPPort, 1},
		{"SPEEDDATE_INITIAL_AGE_WINDOW", &cfg.InitialAgeWindow, 0},
		{"SPEEDDATE_EXTENDED_AGE_WINDOW", &cfg.ExtendedAgeWindow, 0},
		{"SPEEDDATE_ROUND_DURATION", &cfg.RoundDurationS, 1},
		{"SPEEDDATE_BREAK_DURATION", &cfg.BreakDurationS, 1},
		{"SPEEDDATE_STREAM_BUFFER", &cfg.StreamBuffer, 1},
	}
	for _, entry := range intVars {
		value := strings.TrimSpace(os.Getenv(entry.key))
		if value == "" {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < entry.minimum {
			invalid = append(invalid, entry.key)
			continue
		}
		*entry.target = parsed
	}

	if dsn := strings.TrimSpace(os.Getenv("SPEEDDATE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if cfg.ExtendedAgeWindow < cfg.InitialAgeWindow {
		invalid = append(invalid, "SPEEDDATE_EXTENDED_AGE_WINDOW")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルを読み込めません: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("設定ファイルの形式が不正です: %w", err)
	}
	return nil
}
