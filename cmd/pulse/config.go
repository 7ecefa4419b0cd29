// CLAUDE:SUMMARY YAML config with defaults, .env and PULSE_* environment overrides, validation, and slog logger construction.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/aadhaar-pulse/pkg/cleaner"
	"github.com/hazyhaar/aadhaar-pulse/pkg/pipeline"
)

type ledgerConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type quicConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type config struct {
	Addr           string       `yaml:"addr"`
	RawDir         string       `yaml:"raw_dir"`
	CleanedDir     string       `yaml:"cleaned_dir"`
	SourceEncoding string       `yaml:"source_encoding"`
	Gazetteer      string       `yaml:"gazetteer"`
	StateCutoff    float64      `yaml:"state_cutoff"`
	Ledger         ledgerConfig `yaml:"ledger"`
	LogLevel       string       `yaml:"log_level"`
	LogFormat      string       `yaml:"log_format"`
	QUIC           quicConfig   `yaml:"quic"`
}

func defaultConfig() config {
	return config{
		Addr:        ":8420",
		RawDir:      "data",
		CleanedDir:  "data/cleaned",
		StateCutoff: cleaner.DefaultCutoff,
		Ledger:      ledgerConfig{Driver: "json"},
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// loadConfig reads path over the defaults, then applies .env and environment
// overrides. A missing config or .env file is not an error.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv(os.Getenv)

	return cfg, cfg.validate()
}

func (c *config) applyEnv(getenv func(string) string) {
	for key, dst := range map[string]*string{
		"PULSE_ADDR":          &c.Addr,
		"PULSE_RAW_DIR":       &c.RawDir,
		"PULSE_CLEANED_DIR":   &c.CleanedDir,
		"PULSE_LEDGER_DRIVER": &c.Ledger.Driver,
		"PULSE_LEDGER_DSN":    &c.Ledger.DSN,
		"LOG_LEVEL":           &c.LogLevel,
		"LOG_FORMAT":          &c.LogFormat,
	} {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
}

func (c config) validate() error {
	if err := cleaner.ValidateCutoff(c.StateCutoff); err != nil {
		return fmt.Errorf("state_cutoff: %w", err)
	}
	switch c.Ledger.Driver {
	case "", "json", "sqlite", "postgres":
	default:
		return fmt.Errorf("ledger.driver: unknown driver %q", c.Ledger.Driver)
	}
	if c.Ledger.Driver == "postgres" && c.Ledger.DSN == "" {
		return errors.New("ledger.dsn is required for postgres")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format: unknown format %q", c.LogFormat)
	}
	return nil
}

func (c config) pipeline(logger *slog.Logger) pipeline.Config {
	return pipeline.Config{
		RawDir:         c.RawDir,
		CleanedDir:     c.CleanedDir,
		SourceEncoding: c.SourceEncoding,
		GazetteerPath:  c.Gazetteer,
		StateCutoff:    c.StateCutoff,
		LedgerDriver:   c.Ledger.Driver,
		LedgerDSN:      c.Ledger.DSN,
		Logger:         logger,
	}
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

func newLogger(w io.Writer, c config) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
