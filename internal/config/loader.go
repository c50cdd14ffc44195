package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Data backend
	if cfg.Data.Backend != "" && !cfg.Data.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("data.backend %q is invalid; valid values: file, postgres", cfg.Data.Backend))
	}
	if cfg.Data.Backend == BackendPostgres && cfg.Data.PostgresDSN == "" {
		errs = append(errs, errors.New("data.postgres_dsn is required when data.backend is postgres"))
	}
	if cfg.Data.Backend != BackendPostgres && cfg.Data.PostgresDSN != "" {
		slog.Warn("data.postgres_dsn is set but data.backend is not postgres; the DSN will be ignored")
	}
	if cfg.Data.BackupsToKeep < 0 {
		errs = append(errs, fmt.Errorf("data.backups_to_keep %d must not be negative", cfg.Data.BackupsToKeep))
	}

	// Practice thresholds
	p := cfg.Practice
	if p.CompletionThreshold < 0 || p.CompletionThreshold > 100 {
		errs = append(errs, fmt.Errorf("practice.completion_threshold %.2f is out of range (0, 100]", p.CompletionThreshold))
	}
	if p.CorrectThreshold < 0 || p.CorrectThreshold > 1 {
		errs = append(errs, fmt.Errorf("practice.correct_threshold %.2f is out of range (0, 1]", p.CorrectThreshold))
	}
	if p.SimilarThreshold < 0 || p.SimilarThreshold > 1 {
		errs = append(errs, fmt.Errorf("practice.similar_threshold %.2f is out of range (0, 1]", p.SimilarThreshold))
	}
	if p.CorrectThreshold != 0 && p.SimilarThreshold != 0 && p.SimilarThreshold >= p.CorrectThreshold {
		errs = append(errs, fmt.Errorf("practice.similar_threshold %.2f must be below practice.correct_threshold %.2f", p.SimilarThreshold, p.CorrectThreshold))
	}

	return errors.Join(errs...)
}
