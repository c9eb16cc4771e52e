package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/citygap/internal/config"
)

// newConfigValidateCmd creates the config validate command.
func newConfigValidateCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration for syntax and semantic correctness.

This includes:
- Config file version compatibility
- Mode, limit, batch size and output format
- Dataset and token file presence (warnings only)`,
		Example: `  # Validate current configuration
  citygap config validate

  # Validate and show detailed information
  citygap config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, a, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, a *app, verbose bool) error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var warnings []string
	if _, err := os.Stat(cfg.Dataset.Path); err != nil {
		warnings = append(warnings, fmt.Sprintf("dataset %s is not readable: %v", cfg.Dataset.Path, err))
	}
	if _, source, err := cfg.ResolveToken(a.lookupEnv); err != nil {
		warnings = append(warnings, err.Error())
	} else if source == config.TokenNone {
		warnings = append(warnings, fmt.Sprintf("no API token in %s or $%s; requests will be anonymous",
			cfg.Wiki.TokenFile, config.EnvToken))
	}

	for _, w := range warnings {
		cmd.Printf("Warning: %s\n", w)
	}
	cmd.Println("Configuration is valid")

	if verbose {
		cmd.Printf("  Mode:       %s\n", cfg.Search.Mode)
		cmd.Printf("  Limit:      %d\n", cfg.Search.Limit)
		cmd.Printf("  Batch size: %d\n", cfg.Search.BatchSize)
		cmd.Printf("  Dataset:    %s\n", cfg.Dataset.Path)
		cmd.Printf("  Endpoint:   %s\n", cfg.Wiki.Endpoint)
		cmd.Printf("  Output:     %s\n", cfg.Output.Format)
	}

	return nil
}
