package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kisanseva/pagetrans/internal/document"
	"github.com/kisanseva/pagetrans/internal/pipeline"
	"github.com/kisanseva/pagetrans/internal/translation"
	"github.com/kisanseva/pagetrans/internal/translator"
	"github.com/spf13/cobra"
)

type textOptions struct {
	common *commonOptions
}

func newTextCmd() *cobra.Command {
	opts := &textOptions{common: newCommonOptions()}
	cmd := &cobra.Command{
		Use:   "text [text...]",
		Short: "Translate a single string (reads stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runText(cmd, args, opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addCommonFlags(cmd.Flags(), opts.common)
	cmd.Flags().StringVar(&opts.common.cfg.SourceLang, "source", "", "Source language code (default: auto-detect)")
	cmd.Flags().StringVar(&opts.common.cfg.TargetLang, "target", "", "Target language code or name")
	cmd.Flags().IntVar(&opts.common.cfg.MaxRetries, "max-retries", opts.common.cfg.MaxRetries, "Retries for transient errors (0-10)")
	return cmd
}

func runText(cmd *cobra.Command, args []string, opts *textOptions) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = strings.TrimRight(string(b), "\r\n")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required")
	}
	if strings.TrimSpace(opts.common.cfg.TargetLang) == "" {
		return fmt.Errorf("target language is required (use --target)")
	}

	ctx, stop := signalContext()
	defer stop()
	cfg, client, closeClient, err := openClient(ctx, cmd, opts.common)
	if err != nil {
		return err
	}
	defer closeClient()

	target, err := resolveLanguageCode(cfg.TargetLang)
	if err != nil {
		return err
	}
	// The orchestrator's single-text path needs a document; an empty one
	// has nothing to extract.
	doc, err := document.Parse(strings.NewReader(""))
	if err != nil {
		return err
	}
	tcfg := translator.DefaultConfig()
	tcfg.Baseline = cfg.BaselineLang
	tcfg.Source = cfg.SourceLang
	tcfg.Policy.MaxRetries = cfg.MaxRetries
	tcfg.Policy.BaseDelay = cfg.BaseDelay
	orch, err := translator.New(doc, client, tcfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), orch.TranslateText(ctx, text, target))
	return nil
}

// openClient resolves the layered configuration and builds a backend client.
func openClient(ctx context.Context, cmd *cobra.Command, opts *commonOptions) (pipeline.Config, *translation.Client, func(), error) {
	if err := initLogging(opts); err != nil {
		return pipeline.Config{}, nil, nil, err
	}
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return cfg, nil, nil, err
	}
	cfg, notes := cfg.Normalize()
	for _, note := range notes {
		fmt.Fprintln(os.Stderr, "Note:", note)
	}
	if cfg.TargetLang == "" {
		// Validate requires a target; commands without one still need a client.
		cfg.TargetLang = cfg.BaselineLang
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, nil, err
	}
	client, closeClient, err := pipeline.OpenClient(ctx, cfg, nil)
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, client, closeClient, nil
}
