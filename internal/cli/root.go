package cli

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/citygap/internal/cache"
	"github.com/rshade/citygap/internal/config"
	"github.com/rshade/citygap/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// writerIsTerminal reports whether w is a terminal file.
func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// skipConfigAnnotation marks commands that must run even when the config file
// cannot be loaded.
const skipConfigAnnotation = "citygap/skip-config"

// app is the state shared by every command of one invocation.
type app struct {
	lookupEnv func(string) (string, bool)
	cfg       *config.Config
	logResult *logging.LogPathResult
}

// NewRootCmd creates the root Cobra command for the citygap CLI.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithEnv(ver, os.LookupEnv)
}

// NewRootCmdWithEnv creates the root command with an explicit environment
// lookup for testability.
func NewRootCmdWithEnv(ver string, lookupEnv func(string) (string, bool)) *cobra.Command {
	a := &app{lookupEnv: lookupEnv}

	cmd := &cobra.Command{
		Use:           "citygap",
		Short:         "Find populous cities that have no Wikipedia article",
		Long:          "citygap ranks GeoNames cities by population and reports the ones English Wikipedia has no article for.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			a.cfg = cfg

			result := setupLogging(cmd, cfg)
			a.logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, a.logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file (default $CITYGAP_HOME/config.yaml or ~/.citygap/config.yaml)")
	cmd.PersistentFlags().
		String("cache-ttl", "", "enable the lookup cache with this TTL, in seconds or as a duration like 12h")
	cmd.AddCommand(newFindCmd(a), newConfigCmd(a), newCacheCmd(a))

	return cmd
}

// loadConfig loads the configuration named by --config and applies the
// persistent flag overrides. It does not validate.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadWithEnv(path, a.lookupEnv)
	if err != nil {
		if _, skip := cmd.Annotations[skipConfigAnnotation]; !skip {
			return nil, err
		}
		cfg = config.Default()
		if path != "" {
			cfg.SetConfigPath(path)
		}
	}

	if raw, _ := cmd.Flags().GetString("cache-ttl"); raw != "" {
		ttl, err := cache.ParseTTL(raw)
		if err != nil {
			return nil, err
		}
		cfg.Cache.Enabled = true
		cfg.Cache.TTLSeconds = ttl
	}

	return cfg, nil
}

const rootCmdExample = `  # Collect 10 cities, confirming each candidate
  citygap find --dataset cities15000.txt

  # Accept every candidate and print JSON
  citygap find --mode naive --limit 25 --output json

  # Reuse lookups made in the last day
  citygap find --mode naive --cache-ttl 24h

  # Write a config file with the default settings
  citygap config init`

// newConfigCmd creates the config command group.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a), newConfigValidateCmd(a))
	return cmd
}
