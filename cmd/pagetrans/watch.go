package main

import (
	"fmt"
	"time"

	"github.com/kisanseva/pagetrans/internal/pipeline"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	opts := newTranslateOptions()
	var delay time.Duration
	cmd := &cobra.Command{
		Use:   "watch <input.html> <output.html>",
		Short: "Translate a page again whenever it changes",
		Long: "Translate a page, then keep watching it and translate it again after every change.\n" +
			"The output file is overwritten on every run. Stop with Ctrl+C.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts, delay)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addTranslateFlags(cmd, opts)
	cmd.Flags().DurationVar(&delay, "debounce", pipeline.DefaultWatchDelay, "Quiet period after a change before translating again")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string, opts *translateOptions, delay time.Duration) error {
	cfg, err := prepareTranslateConfig(cmd, args[0], args[1], opts)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	out := cmd.OutOrStdout()
	return pipeline.WatchPageTranslation(ctx, cfg, delay, func(res pipeline.TranslationResult, err error) {
		stamp := time.Now().Format("15:04:05")
		if err != nil {
			if ctx.Err() == nil {
				fmt.Fprintf(out, "[%s] error: %v\n", stamp, err)
			}
			return
		}
		fmt.Fprintf(out, "[%s] %s: %d/%d texts applied", stamp, res.Status, res.Applied, res.Units)
		if res.ReportPath != "" {
			fmt.Fprintf(out, " (error report: %s)", res.ReportPath)
		}
		fmt.Fprintln(out)
		if opts.showErrors {
			printErrors(cmd, res)
		}
	})
}
