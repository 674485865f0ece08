package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kisanseva/pagetrans/internal/pipeline"
)

// Environment variables read by ApplyEnv.
const (
	EnvBackend    = "PAGETRANS_BACKEND"
	EnvBackendURL = "PAGETRANS_BACKEND_URL"
	EnvModel      = "PAGETRANS_MODEL"
	EnvBaseline   = "PAGETRANS_BASELINE_LANGUAGE"
	EnvLanguages  = "PAGETRANS_SUPPORTED_LANGUAGES"
	EnvBatchSize  = "PAGETRANS_MAX_BATCH_SIZE"
	EnvTimeout    = "PAGETRANS_REQUEST_TIMEOUT"
	EnvMaxRetries = "PAGETRANS_MAX_RETRIES"
	EnvCacheURL   = "PAGETRANS_CACHE_URL"
)

// ApplyFile copies the values set in f into cfg, skipping flags in changed.
func ApplyFile(cfg *pipeline.Config, f File, changed map[string]bool) error {
	s := newSetter(changed)

	s.setString(FlagBaseline, f.BaselineLanguage, &cfg.BaselineLang)
	s.setList(FlagLanguages, f.SupportedLanguages, &cfg.SupportedLanguages)
	s.setString(FlagBackend, f.Backend, &cfg.Backend)
	s.setString(FlagBackendURL, f.BackendURL, &cfg.BackendURL)
	s.setString(FlagModel, f.Model, &cfg.Model)
	s.setInt(FlagMaxBatchSize, f.MaxBatchSize, &cfg.MaxBatchSize)
	s.setInt(FlagMaxLogSize, f.MaxLogSize, &cfg.MaxLogSize)
	s.setList(FlagExcludeSelectors, f.ExcludeSelectors, &cfg.ExcludeSelectors)
	s.setString(FlagMarkerAttribute, f.MarkerAttribute, &cfg.MarkerAttribute)
	s.setBool(FlagBatchEndpoint, f.BatchEndpoint, &cfg.BatchEndpoint)
	s.setString(FlagCacheURL, f.CacheURL, &cfg.CacheURL)
	if f.MaxRetries != nil && !changed[FlagMaxRetries] {
		cfg.MaxRetries = *f.MaxRetries
	}

	if err := s.setDuration(FlagRequestTimeout, f.RequestTimeout, &cfg.RequestTimeout); err != nil {
		return err
	}
	if err := s.setDuration(FlagBatchDelay, f.BatchDelay, &cfg.BatchDelay); err != nil {
		return err
	}
	if err := s.setDuration(FlagCacheTTL, f.CacheTTL, &cfg.CacheTTL); err != nil {
		return err
	}
	return s.setDuration(FlagBaseDelay, f.BaseDelay, &cfg.BaseDelay)
}

// ApplyEnv copies PAGETRANS_* variables into cfg, skipping flags in changed.
// lookup defaults to os.LookupEnv.
func ApplyEnv(cfg *pipeline.Config, changed map[string]bool, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}
	s := newSetter(changed)

	s.setString(FlagBackend, get(EnvBackend), &cfg.Backend)
	s.setString(FlagBackendURL, get(EnvBackendURL), &cfg.BackendURL)
	s.setString(FlagModel, get(EnvModel), &cfg.Model)
	s.setString(FlagBaseline, get(EnvBaseline), &cfg.BaselineLang)
	s.setString(FlagCacheURL, get(EnvCacheURL), &cfg.CacheURL)
	if v := get(EnvLanguages); v != "" {
		s.setList(FlagLanguages, SplitList(v), &cfg.SupportedLanguages)
	}
	if err := s.setIntFromString(FlagMaxBatchSize, get(EnvBatchSize), &cfg.MaxBatchSize); err != nil {
		return err
	}
	if err := s.setIntFromString(FlagMaxRetries, get(EnvMaxRetries), &cfg.MaxRetries); err != nil {
		return err
	}
	return s.setDuration(FlagRequestTimeout, get(EnvTimeout), &cfg.RequestTimeout)
}

// SplitList splits a comma-separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

type setter struct {
	changed map[string]bool
}

func newSetter(changed map[string]bool) *setter {
	return &setter{changed: changed}
}

func (s *setter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *setter) setList(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *setter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *setter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *setter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString accepts zero, unlike setInt, so max-retries can be disabled.
func (s *setter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}
