package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kisanseva/pagetrans/internal/auth"
	"github.com/kisanseva/pagetrans/internal/cleanup"
	"github.com/kisanseva/pagetrans/internal/config"
	"github.com/kisanseva/pagetrans/internal/files"
	"github.com/kisanseva/pagetrans/internal/language"
	"github.com/kisanseva/pagetrans/internal/logger"
	"github.com/kisanseva/pagetrans/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var (
	isTerminal        = term.IsTerminal
	getKey            = auth.GetKey
	getEnvKey         = auth.GetEnvKey
	getStatus         = auth.GetStatus
	promptForKey      = auth.PromptForAPIKey
	defaultConfigPath = config.DefaultPath
)

// commonOptions are the flags every backend-using command accepts. Flag
// values are bound straight into cfg so that, after file and environment
// layering, only flags the user changed win.
type commonOptions struct {
	cfg        pipeline.Config
	configPath string
	envFiles   []string
	allowEnv   bool
	envOnly    bool
	logLevel   string
	logFile    string
}

func newCommonOptions() *commonOptions {
	return &commonOptions{cfg: pipeline.DefaultConfig()}
}

func addCommonFlags(fs *pflag.FlagSet, opts *commonOptions) {
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML or TOML config file")
	fs.StringSliceVar(&opts.envFiles, "env-file", nil, "Load variables from .env files (default ./.env)")
	fs.StringVar(&opts.cfg.Backend, config.FlagBackend, opts.cfg.Backend, "Translation backend (libretranslate, gemini or openai)")
	fs.StringVar(&opts.cfg.BackendURL, config.FlagBackendURL, opts.cfg.BackendURL, "Backend base URL (LibreTranslate default http://localhost:5000)")
	fs.StringVar(&opts.cfg.Model, config.FlagModel, "", "LLM model name for gemini or openai")
	fs.DurationVar(&opts.cfg.RequestTimeout, config.FlagRequestTimeout, opts.cfg.RequestTimeout, "Per-request timeout")
	fs.BoolVar(&opts.cfg.BatchEndpoint, config.FlagBatchEndpoint, false, "Send each batch in one request when the backend supports it")
	fs.StringVar(&opts.cfg.BaselineLang, config.FlagBaseline, opts.cfg.BaselineLang, "Language the page is authored in")
	fs.StringSliceVar(&opts.cfg.SupportedLanguages, config.FlagLanguages, nil, "Accepted target languages (default: built-in table)")
	fs.StringVar(&opts.cfg.CacheURL, config.FlagCacheURL, "", "Translation cache: memory or redis://host:port/db (default off)")
	fs.DurationVar(&opts.cfg.CacheTTL, config.FlagCacheTTL, opts.cfg.CacheTTL, "How long cached translations stay valid")
	fs.BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API keys from environment variables")
	fs.BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.logFile, "log-file", "", "Path to save machine-readable JSONL logs")
}

// initLogging configures the global logger from the command's flags.
func initLogging(opts *commonOptions) error {
	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	var logFileW io.Writer
	if opts.logFile != "" {
		if err := files.RejectSymlinkPath(opts.logFile); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register("log file", f.Close)
		logFileW = f
	}
	logger.Init(logger.Options{Level: level, LogFile: logFileW})
	return nil
}

// resolveConfig layers defaults, the config file, .env files, PAGETRANS_*
// variables and changed flags, then resolves the backend API key.
func resolveConfig(cmd *cobra.Command, opts *commonOptions) (pipeline.Config, error) {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		changed[f.Name] = true
	})
	cfg := opts.cfg

	path := opts.configPath
	if path == "" {
		path = defaultConfigPath()
	}
	if path != "" {
		fc, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := config.ApplyFile(&cfg, fc, changed); err != nil {
			return cfg, fmt.Errorf("invalid config %s: %w", path, err)
		}
		logger.Debug("Loaded config file", "path", path)
	}

	if err := config.LoadDotEnv(opts.envFiles...); err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg, changed, nil); err != nil {
		return cfg, fmt.Errorf("invalid environment: %w", err)
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	key, source, err := resolveAPIKey(cfg.Backend, opts.allowEnv, opts.envOnly, cfg.Backend != pipeline.BackendLibreTranslate)
	if err != nil {
		return cfg, err
	}
	if key != "" {
		logger.Info("Using API Key", "service", cfg.Backend, "source", source)
	}
	cfg.APIKey = key
	return cfg, nil
}

// resolveAPIKey handles the logic for finding the API key. When required is
// false a missing key is not an error and nobody is prompted.
func resolveAPIKey(backend string, allowEnv, envOnly, required bool) (string, string, error) {
	if envOnly {
		if key, ok := getEnvKey(backend); ok {
			return key, auth.SourceEnv, nil
		}
		if !required {
			return "", "", nil
		}
		return "", "", fmt.Errorf("env-only set but %s is not set", auth.EnvVar(backend))
	}

	if key, source := getKey(backend, false); key != "" {
		return key, source, nil
	}
	if allowEnv {
		if key, ok := getEnvKey(backend); ok {
			return key, auth.SourceEnv, nil
		}
	}
	if !required {
		return "", "", nil
	}

	if isTerminal(int(os.Stdin.Fd())) {
		key, err := promptForKey(fmt.Sprintf("%s API Key (press Enter to skip): ", backendTitle(backend)))
		if err != nil {
			return "", "", fmt.Errorf("error reading API key: %w", err)
		}
		if strings.TrimSpace(key) != "" {
			return strings.TrimSpace(key), "Terminal Prompt", nil
		}
		if allowEnv {
			return "", "", fmt.Errorf("API key is required; not found in keychain or environment")
		}
		return "", "", fmt.Errorf("API key is required; not found in keychain (environment disabled by default; use --allow-env)")
	}
	return "", "", fmt.Errorf("no API key available (non-interactive shell); set keychain or use --allow-env")
}

func backendTitle(backend string) string {
	switch backend {
	case pipeline.BackendGemini:
		return "Gemini"
	case pipeline.BackendOpenAI:
		return "OpenAI"
	case pipeline.BackendLibreTranslate:
		return "LibreTranslate"
	default:
		return backend
	}
}

// resolveLanguageCode accepts a code or an English language name.
func resolveLanguageCode(input string) (string, error) {
	if lang, ok := language.GetLanguage(input); ok {
		return lang.Code, nil
	}
	needle := strings.TrimSpace(input)
	if needle == "" {
		return "", fmt.Errorf("language is empty")
	}
	for _, entry := range language.GetSupportedLanguages() {
		if strings.EqualFold(entry.Name, needle) {
			return entry.Code, nil
		}
	}
	return "", fmt.Errorf("unsupported language: %s", input)
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("Cancellation requested")
			cancel()
		case <-ctx.Done():
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
