package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kisanseva/pagetrans/internal/language"
	"github.com/spf13/cobra"
)

func newLanguagesCmd() *cobra.Command {
	opts := newCommonOptions()
	var remote bool
	cmd := &cobra.Command{
		Use:     "languages",
		Aliases: []string{"list"},
		Short:   "List supported languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				return listRemoteLanguages(cmd, opts)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Supported Languages:")
			for _, l := range language.GetSupportedLanguages() {
				dir := ""
				if l.RTL {
					dir = " rtl"
				}
				fmt.Fprintf(out, "  %-12s %-16s [%s]%s\n", l.Name, l.Native, l.ID, dir)
			}
			return nil
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the backend which languages it supports")
	addCommonFlags(cmd.Flags(), opts)
	return cmd
}

func listRemoteLanguages(cmd *cobra.Command, opts *commonOptions) error {
	ctx, stop := signalContext()
	defer stop()
	cfg, client, closeClient, err := openClient(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer closeClient()

	langs, err := client.Languages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list %s languages: %w", cfg.Backend, err)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].Code < langs[j].Code })

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Languages supported by %s:\n", client.BackendName())
	for _, l := range langs {
		line := fmt.Sprintf("  %-35s [%s]", l.Name, l.Code)
		if len(l.Targets) > 0 {
			line += fmt.Sprintf(" -> %d targets", len(l.Targets))
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
	return nil
}
