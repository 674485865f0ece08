// Package config loads pagetrans settings from YAML or TOML files and the
// environment, and layers them under command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Flag names shared with the CLI. A flag the user set on the command line
// is never overridden by a file or environment value.
const (
	FlagBaseline         = "baseline"
	FlagLanguages        = "languages"
	FlagBackend          = "backend"
	FlagBackendURL       = "url"
	FlagModel            = "model"
	FlagMaxBatchSize     = "batch-size"
	FlagRequestTimeout   = "timeout"
	FlagBatchDelay       = "batch-delay"
	FlagMaxRetries       = "max-retries"
	FlagBaseDelay        = "base-delay"
	FlagMaxLogSize       = "max-log-size"
	FlagExcludeSelectors = "exclude"
	FlagMarkerAttribute  = "marker"
	FlagBatchEndpoint    = "batch-endpoint"
	FlagCacheURL         = "cache"
	FlagCacheTTL         = "cache-ttl"
)

// File mirrors the tunable part of pipeline.Config, with durations kept as
// strings so both file formats stay readable.
type File struct {
	BaselineLanguage   string   `yaml:"baseline_language" toml:"baseline_language"`
	SupportedLanguages []string `yaml:"supported_languages" toml:"supported_languages"`
	Backend            string   `yaml:"backend" toml:"backend"`
	BackendURL         string   `yaml:"backend_url" toml:"backend_url"`
	Model              string   `yaml:"model" toml:"model"`
	MaxBatchSize       int      `yaml:"max_batch_size" toml:"max_batch_size"`
	RequestTimeout     string   `yaml:"request_timeout" toml:"request_timeout"`
	BatchDelay         string   `yaml:"batch_delay" toml:"batch_delay"`
	MaxRetries         *int     `yaml:"max_retries" toml:"max_retries"`
	BaseDelay          string   `yaml:"base_delay" toml:"base_delay"`
	MaxLogSize         int      `yaml:"max_log_size" toml:"max_log_size"`
	ExcludeSelectors   []string `yaml:"exclude_selectors" toml:"exclude_selectors"`
	MarkerAttribute    string   `yaml:"marker_attribute" toml:"marker_attribute"`
	BatchEndpoint      *bool    `yaml:"batch_endpoint" toml:"batch_endpoint"`
	CacheURL           string   `yaml:"cache_url" toml:"cache_url"`
	CacheTTL           string   `yaml:"cache_ttl" toml:"cache_ttl"`
}

// Load reads a configuration file, choosing the format by extension:
// .yaml/.yml or .toml. Unknown keys are rejected.
func Load(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return f, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return f, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return f, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .toml)", ext)
	}
	return f, nil
}

// DefaultPath returns the first existing pagetrans config in the user's
// config directory, or "" when there is none.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		p := filepath.Join(dir, "pagetrans", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadDotEnv loads KEY=value pairs from the given .env files into the
// process environment without overriding variables that are already set.
// Missing files are ignored; with no paths, ./.env is tried.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}
