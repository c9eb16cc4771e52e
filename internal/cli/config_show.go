package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/citygap/internal/cache"
)

// newConfigShowCmd creates the config show command, which prints the effective
// configuration after the file, environment and flag overrides.
func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if err := cfg.Validate(); err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}

			cmd.Printf("# file: %s\n", cfg.ConfigPath())
			if cfg.Cache.Enabled {
				ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
				cmd.Printf("# cache ttl: %s\n", cache.FormatDuration(ttl))
			}
			cmd.Print(string(data))
			return nil
		},
	}
}
