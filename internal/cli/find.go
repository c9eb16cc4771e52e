package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rshade/citygap/internal/cache"
	"github.com/rshade/citygap/internal/config"
	"github.com/rshade/citygap/internal/render"
	"github.com/rshade/citygap/internal/selection"
	"github.com/rshade/citygap/internal/wiki"
	"github.com/rshade/citygap/pkg/version"
)

// manualBanner is printed once before the first prompt in manual mode.
const manualBanner = `by default, all entries are assumed invalid. type "y" after a city name if it should be added to the list.`

// anonymousWarning is printed when no API token is configured.
const anonymousWarning = "you have not specified a personal api token. this will almost certainly result in getting rate limited."

//nolint:gochecknoglobals // Style constants.
var progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

// findFlags holds the find command's overrides. Only flags the user set are
// applied to the loaded config.
type findFlags struct {
	mode      string
	limit     int
	batchSize int
	dataset   string
	tokenFile string
	endpoint  string
	output    string
	rate      float64
	timeout   int
}

func newFindCmd(a *app) *cobra.Command {
	var flags findFlags

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find the most populous cities without an article",
		Long: `Loads the GeoNames dataset, ranks cities by population and asks the
MediaWiki API, one batch of names at a time, which of them have no article.

In naive mode every such city is collected. In manual mode each candidate is
shown and only those answered with "y" or "yes" are collected. The search stops
once --limit cities have been collected or the dataset is exhausted.

Progress and prompts go to stderr; the result list goes to stdout.`,
		Example: `  # Confirm each candidate interactively (the default)
  citygap find --dataset cities15000.txt --limit 5

  # Accept every candidate, 20 titles per request, as NDJSON
  citygap find --mode naive --batch-size 20 --output ndjson`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFind(cmd, a, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.mode, "mode", "", "selection mode: naive or manual")
	f.IntVarP(&flags.limit, "limit", "n", 0, "number of cities to collect")
	f.IntVar(&flags.batchSize, "batch-size", 0, "titles per lookup request")
	f.StringVar(&flags.dataset, "dataset", "", "path to the GeoNames tab-separated dump")
	f.StringVar(&flags.tokenFile, "token-file", "", "file holding a personal API token")
	f.StringVar(&flags.endpoint, "endpoint", "", "MediaWiki action API endpoint")
	f.StringVarP(&flags.output, "output", "o", "", "output format: table, json or ndjson")
	f.Float64Var(&flags.rate, "rate", 0, "maximum lookup requests per second (0 = unlimited)")
	f.IntVar(&flags.timeout, "timeout", 0, "per-request timeout in seconds (0 = none)")

	return cmd
}

// applyFindFlags copies explicitly set flags over cfg.
func applyFindFlags(cmd *cobra.Command, cfg *config.Config, flags findFlags) {
	changed := cmd.Flags().Changed
	if changed("mode") {
		cfg.Search.Mode = config.Mode(flags.mode)
	}
	if changed("limit") {
		cfg.Search.Limit = flags.limit
	}
	if changed("batch-size") {
		cfg.Search.BatchSize = flags.batchSize
	}
	if changed("dataset") {
		cfg.Dataset.Path = flags.dataset
	}
	if changed("token-file") {
		cfg.Wiki.TokenFile = flags.tokenFile
	}
	if changed("endpoint") {
		cfg.Wiki.Endpoint = flags.endpoint
	}
	if changed("output") {
		cfg.Output.Format = flags.output
	}
	if changed("rate") {
		cfg.Wiki.RequestsPerSecond = flags.rate
	}
	if changed("timeout") {
		cfg.Wiki.TimeoutSeconds = flags.timeout
	}
}

func runFind(cmd *cobra.Command, a *app, flags findFlags) error {
	ctx := cmd.Context()
	cfg := a.cfg
	stderr := cmd.ErrOrStderr()

	applyFindFlags(cmd, cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	token, source, err := cfg.ResolveToken(a.lookupEnv)
	if err != nil {
		return err
	}
	if source == config.TokenNone {
		_, _ = fmt.Fprintln(stderr, anonymousWarning)
		logger.Warn().Ctx(ctx).Str("token_file", cfg.Wiki.TokenFile).Msg("no API token, requests are anonymous")
	} else {
		logger.Debug().Ctx(ctx).Str("source", string(source)).Msg("using API token")
	}

	store, err := openCache(cmd, cfg)
	if err != nil {
		return err
	}

	opts := wiki.Options{
		Endpoint:          cfg.Wiki.Endpoint,
		Token:             token,
		UserAgent:         version.UserAgent(),
		Timeout:           time.Duration(cfg.Wiki.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Wiki.RequestsPerSecond,
		Cache:             store,
	}
	client, err := wiki.New(opts)
	if err != nil {
		return err
	}

	confirm, err := selection.ConfirmerFor(cfg.Search.Mode, cmd.InOrStdin(), stderr)
	if err != nil {
		return err
	}

	driver, err := selection.NewDriver(
		selection.Config{Mode: cfg.Search.Mode, Limit: cfg.Search.Limit, BatchSize: cfg.Search.BatchSize},
		client, confirm, progressReporter(stderr),
	)
	if err != nil {
		return err
	}

	if cfg.Search.Mode == config.ModeManual {
		_, _ = fmt.Fprintln(stderr, manualBanner)
	}

	start := time.Now()
	cities, err := driver.Run(ctx, cfg.Dataset.Path)
	if err != nil {
		var ae *wiki.AuthenticationError
		if errors.As(err, &ae) {
			return fmt.Errorf("%w (check the token in %s or $%s)", err, cfg.Wiki.TokenFile, config.EnvToken)
		}
		return err
	}

	logger.Info().Ctx(ctx).
		Str("mode", cfg.Search.Mode.String()).
		Int("found", len(cities)).
		Int("limit", cfg.Search.Limit).
		Dur("duration", time.Since(start)).
		Msg("search completed")

	out := cmd.OutOrStdout()
	styled := cfg.Output.Format == render.FormatTable && writerIsTerminal(out)
	return render.Cities(out, cfg.Output.Format, cities, render.Options{Styled: styled})
}

// openCache returns the lookup cache. A disabled cache is a no-op store;
// an enabled one is pruned of stale entries first.
func openCache(cmd *cobra.Command, cfg *config.Config) (*cache.FileStore, error) {
	dir := ""
	if cfg.Cache.Enabled {
		var err error
		if dir, err = cfg.CacheDirectory(); err != nil {
			return nil, err
		}
	}
	store, err := cache.NewFileStore(dir, cfg.Cache.Enabled, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening lookup cache: %w", err)
	}
	if !store.IsEnabled() {
		return store, nil
	}
	if err := store.Prune(); err != nil {
		logger.Warn().Ctx(cmd.Context()).Err(err).Str("dir", dir).Msg("could not prune lookup cache")
	}
	return store, nil
}

// progressReporter prints "Chunk <n>: <count> / <limit>" after every batch.
func progressReporter(w io.Writer) selection.Reporter {
	styled := writerIsTerminal(w)
	return func(p selection.Progress) {
		line := fmt.Sprintf("Chunk %d: %d / %d", p.Batch, p.Accepted, p.Limit)
		if styled {
			line = progressStyle.Render(line)
		}
		_, _ = fmt.Fprintln(w, line)
	}
}
