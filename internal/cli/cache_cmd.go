package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/citygap/internal/cache"
)

// newCacheCmd creates the cache command group for the lookup cache.
func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Lookup cache commands"}
	cmd.AddCommand(newCacheClearCmd(a), newCacheInfoCmd(a))
	return cmd
}

func openCacheDir(a *app) (*cache.FileStore, error) {
	dir, err := a.cfg.CacheDirectory()
	if err != nil {
		return nil, err
	}
	return cache.NewFileStore(dir, true, a.cfg.Cache.TTLSeconds)
}

func newCacheClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached lookup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCacheDir(a)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			logger.Info().Ctx(cmd.Context()).Str("dir", store.Directory()).Msg("cache cleared")
			cmd.Printf("Cache cleared: %s\n", store.Directory())
			return nil
		},
	}
}

func newCacheInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the cache location and entry count",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCacheDir(a)
			if err != nil {
				return err
			}
			count, err := store.Count()
			if err != nil {
				return err
			}
			cmd.Printf("Directory: %s\n", store.Directory())
			cmd.Printf("Enabled:   %t\n", a.cfg.Cache.Enabled)
			cmd.Printf("TTL:       %s\n", cache.FormatDuration(time.Duration(store.TTL())*time.Second))
			cmd.Printf("Entries:   %d\n", count)
			return nil
		},
	}
}
