package main

import (
	"fmt"
	"strings"

	"github.com/kisanseva/pagetrans/internal/chunker"
	"github.com/kisanseva/pagetrans/internal/config"
	"github.com/kisanseva/pagetrans/internal/pipeline"
	"github.com/kisanseva/pagetrans/internal/version"
	"github.com/spf13/cobra"
)

func newAboutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Describe pagetrans and where it reads its settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.DefaultPath()
			if cfgPath == "" {
				cfgPath = "(none found)"
			}
			defaults := pipeline.DefaultConfig()

			var b strings.Builder
			fmt.Fprintf(&b, "pagetrans %s: translates the visible text of HTML pages in ordered batches.\n\n", version.Version)
			fmt.Fprintf(&b, "  backends:     %s\n", strings.Join([]string{
				pipeline.BackendLibreTranslate, pipeline.BackendGemini, pipeline.BackendOpenAI,
			}, ", "))
			fmt.Fprintf(&b, "  batch size:   %d (max %d)\n", defaults.MaxBatchSize, chunker.MaxBatchSize)
			fmt.Fprintf(&b, "  config file:  %s\n", cfgPath)
			b.WriteString("  environment:  PAGETRANS_* and .env files\n")
			b.WriteString("\nhttps://github.com/kisanseva/pagetrans\n")
			_, err := fmt.Fprint(cmd.OutOrStdout(), b.String())
			return err
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
