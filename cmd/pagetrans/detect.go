package main

import (
	"fmt"
	"strings"

	"github.com/kisanseva/pagetrans/internal/language"
	"github.com/spf13/cobra"
)

func newDetectCmd() *cobra.Command {
	opts := newCommonOptions()
	cmd := &cobra.Command{
		Use:   "detect <text...>",
		Short: "Detect the language of a string",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				_ = cmd.Usage()
				return fmt.Errorf("text is required")
			}
			ctx, stop := signalContext()
			defer stop()
			_, client, closeClient, err := openClient(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer closeClient()

			code := client.DetectLanguage(ctx, text)
			if lang, ok := language.GetLanguage(code); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", code, lang.Name)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addCommonFlags(cmd.Flags(), opts)
	return cmd
}
