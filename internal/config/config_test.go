package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kisanseva/pagetrans/internal/pipeline"
)

const yamlConfig = `
baseline_language: en
supported_languages: [hi, ta, ur]
backend: gemini
model: gemini-2.5-flash
max_batch_size: 40
request_timeout: 15s
batch_delay: 250ms
max_retries: 0
exclude_selectors:
  - .brand
  - "#footer"
batch_endpoint: true
cache_url: memory
cache_ttl: 6h
`

const tomlConfig = `
baseline_language = "en"
supported_languages = ["hi", "bn"]
backend = "libretranslate"
backend_url = "http://translate.internal:5000"
max_batch_size = 30
base_delay = "2s"
marker_attribute = "data-keep"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	f, err := Load(writeFile(t, "pagetrans.yaml", yamlConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.Backend != "gemini" || f.MaxBatchSize != 40 || len(f.ExcludeSelectors) != 2 || f.ExcludeSelectors[1] != "#footer" {
		t.Fatalf("unexpected file %+v", f)
	}
	if f.MaxRetries == nil || *f.MaxRetries != 0 {
		t.Fatalf("explicit zero max_retries must be kept")
	}
	if f.BatchEndpoint == nil || !*f.BatchEndpoint {
		t.Fatalf("batch_endpoint not parsed")
	}
}

func TestLoad_TOML(t *testing.T) {
	f, err := Load(writeFile(t, "pagetrans.toml", tomlConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.BackendURL != "http://translate.internal:5000" || f.MarkerAttribute != "data-keep" || f.BaseDelay != "2s" {
		t.Fatalf("unexpected file %+v", f)
	}
	if f.MaxRetries != nil {
		t.Fatalf("absent max_retries must stay nil")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unknown yaml key", "c.yaml", "backend: gemini\nbogus: 1\n", "failed to parse"},
		{"unknown toml key", "c.toml", "bogus = 1\n", "failed to parse"},
		{"bad extension", "c.json", "{}", "unsupported config format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EmptyYAML(t *testing.T) {
	if _, err := Load(writeFile(t, "empty.yml", "")); err != nil {
		t.Fatalf("empty file should load, got %v", err)
	}
}

func TestApplyFile(t *testing.T) {
	f, err := Load(writeFile(t, "pagetrans.yaml", yamlConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		name    string
		changed map[string]bool
		check   func(t *testing.T, cfg pipeline.Config)
	}{
		{
			name:    "applies all values",
			changed: map[string]bool{},
			check: func(t *testing.T, cfg pipeline.Config) {
				if cfg.Backend != "gemini" || cfg.MaxBatchSize != 40 || cfg.RequestTimeout != 15*time.Second ||
					cfg.BatchDelay != 250*time.Millisecond || cfg.MaxRetries != 0 || !cfg.BatchEndpoint {
					t.Fatalf("unexpected config %+v", cfg)
				}
				if cfg.CacheURL != "memory" || cfg.CacheTTL != 6*time.Hour {
					t.Fatalf("unexpected cache settings %q %s", cfg.CacheURL, cfg.CacheTTL)
				}
				if len(cfg.SupportedLanguages) != 3 || cfg.SupportedLanguages[2] != "ur" {
					t.Fatalf("unexpected languages %v", cfg.SupportedLanguages)
				}
			},
		},
		{
			name:    "respects changed flags",
			changed: map[string]bool{FlagBackend: true, FlagMaxBatchSize: true, FlagMaxRetries: true},
			check: func(t *testing.T, cfg pipeline.Config) {
				if cfg.Backend != "libretranslate" || cfg.MaxBatchSize != 25 || cfg.MaxRetries != 3 {
					t.Fatalf("flag values overridden: %+v", cfg)
				}
				if cfg.Model != "gemini-2.5-flash" {
					t.Fatalf("unchanged keys should still apply")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := pipeline.DefaultConfig()
			if err := ApplyFile(&cfg, f, tt.changed); err != nil {
				t.Fatalf("ApplyFile failed: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestApplyFile_InvalidDuration(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	err := ApplyFile(&cfg, File{BatchDelay: "soon"}, nil)
	if err == nil || !strings.Contains(err.Error(), FlagBatchDelay) {
		t.Fatalf("expected batch-delay parse error, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvBackendURL: "http://lt:5000",
		EnvLanguages:  "hi, ta,,ur",
		EnvBatchSize:  "10",
		EnvMaxRetries: "0",
		EnvTimeout:    "3s",
		EnvModel:      "gemini-pro",
		EnvCacheURL:   "redis://cache:6379/2",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := pipeline.DefaultConfig()
	if err := ApplyEnv(&cfg, map[string]bool{FlagModel: true}, lookup); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.BackendURL != "http://lt:5000" || cfg.MaxBatchSize != 10 || cfg.MaxRetries != 0 || cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.CacheURL != "redis://cache:6379/2" {
		t.Fatalf("unexpected cache URL %q", cfg.CacheURL)
	}
	if strings.Join(cfg.SupportedLanguages, ",") != "hi,ta,ur" {
		t.Fatalf("unexpected languages %v", cfg.SupportedLanguages)
	}
	if cfg.Model != "" {
		t.Fatalf("changed flag overridden by env: %q", cfg.Model)
	}

	env[EnvBatchSize] = "many"
	if err := ApplyEnv(&cfg, nil, lookup); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "PAGETRANS_TEST_DOTENV_URL"
	path := writeFile(t, ".env", key+"=http://from-dotenv:5000\n")
	t.Setenv(key, "")
	os.Unsetenv(key)

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv(key); got != "http://from-dotenv:5000" {
		t.Fatalf("expected value from .env, got %q", got)
	}

	t.Setenv(key, "from-shell")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv(key); got != "from-shell" {
		t.Fatalf("existing variables must win, got %q", got)
	}
}

func TestSplitList(t *testing.T) {
	if got := SplitList(" a, ,b "); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("SplitList() = %v", got)
	}
}
