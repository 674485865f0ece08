package main

import (
	"fmt"
	"strings"

	"github.com/kisanseva/pagetrans/internal/auth"
	"github.com/spf13/cobra"
)

type envOptions struct {
	backend string
}

func newEnvCmd() *cobra.Command {
	opts := envOptions{}
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage backend API keys in OS Keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, &opts)
		},
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "gemini",
		fmt.Sprintf("Backend to manage (%s)", strings.Join(auth.Backends(), ", ")))

	cmd.AddCommand(
		newEnvSetupCmd(&opts),
		newEnvDeleteCmd(&opts),
		newEnvStatusCmd(&opts),
	)
	return cmd
}

func newEnvSetupCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Save API key to keychain (prompt only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvSetup(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newEnvDeleteCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete key from keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvDelete(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newEnvStatusCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show key status (default if no action given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func envBackend(opts *envOptions) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.backend))
	if auth.EnvVar(backend) == "" {
		return "", fmt.Errorf("invalid backend. Must be one of: %s", strings.Join(auth.Backends(), ", "))
	}
	return backend, nil
}

func runEnvSetup(cmd *cobra.Command, opts *envOptions) error {
	backend, err := envBackend(opts)
	if err != nil {
		return err
	}
	promptKey, err := promptForKey(fmt.Sprintf("%s API Key: ", backendTitle(backend)))
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	key := strings.TrimSpace(promptKey)
	if key == "" {
		return fmt.Errorf("API key is required for setup")
	}
	if err := auth.SaveKey(backend, key); err != nil {
		return fmt.Errorf("error saving key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s API key to keychain.\n", backend)
	return nil
}

func runEnvDelete(cmd *cobra.Command, opts *envOptions) error {
	backend, err := envBackend(opts)
	if err != nil {
		return err
	}
	if err := auth.DeleteKey(backend); err != nil {
		return fmt.Errorf("error deleting key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s API key from keychain.\n", backend)
	return nil
}

func runEnvStatus(cmd *cobra.Command, opts *envOptions) error {
	backend, err := envBackend(opts)
	if err != nil {
		return err
	}

	if getStatus(backend) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s API Key: Found (source=%s)\n", backend, auth.SourceKeychain)
		return nil
	}
	if envKey, ok := getEnvKey(backend); ok && envKey != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s API Key: Found (source=%s; disabled by default, use --allow-env)\n", backend, auth.SourceEnv)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s API Key: Not Found (keychain empty, %s not set)\n", backend, auth.EnvVar(backend))
	return nil
}
