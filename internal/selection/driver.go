// Package selection drives a run: it walks the population-ranked cities in
// batches, asks the lookup service which have no article, and collects the
// confirmed ones until the limit is reached.
package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/rshade/citygap/internal/batch"
	"github.com/rshade/citygap/internal/config"
	"github.com/rshade/citygap/internal/geonames"
	"github.com/rshade/citygap/internal/logging"
	"github.com/rshade/citygap/internal/wiki"
)

// Lookup returns the titles of a batch that have no article. *wiki.Client
// satisfies it.
type Lookup interface {
	MissingTitles(ctx context.Context, titles []string) ([]wiki.Candidate, error)
}

// Config is the explicit run configuration of a Driver.
type Config struct {
	Mode      config.Mode
	Limit     int
	BatchSize int
}

// Progress is reported after every batch.
type Progress struct {
	// Batch is the 1-based number of the batch just finished.
	Batch    int
	Accepted int
	Limit    int
}

// Reporter observes progress. It may be nil.
type Reporter func(Progress)

// Driver runs the selection pipeline. It is single-use per run and not safe
// for concurrent use.
type Driver struct {
	cfg     Config
	lookup  Lookup
	confirm Confirmer
	report  Reporter
	batcher *batch.Processor[geonames.City]
}

// NewDriver validates cfg and builds a Driver. A nil confirmer means AcceptAll.
func NewDriver(cfg Config, lookup Lookup, confirm Confirmer, report Reporter) (*Driver, error) {
	if _, err := config.ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if cfg.Limit <= 0 {
		return nil, &config.ConfigurationError{Field: "search.limit", Value: cfg.Limit, Err: config.ErrNotPositive}
	}
	batcher, err := batch.NewProcessor[geonames.City](cfg.BatchSize)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "search.batch_size", Value: cfg.BatchSize, Err: err}
	}
	if lookup == nil {
		return nil, errors.New("selection: lookup is required")
	}
	if confirm == nil {
		confirm = AcceptAll{}
	}

	return &Driver{
		cfg:     cfg,
		lookup:  lookup,
		confirm: confirm,
		report:  report,
		batcher: batcher,
	}, nil
}

// Run loads the dataset at path and selects from it.
func (d *Driver) Run(ctx context.Context, path string) ([]geonames.City, error) {
	cities, err := geonames.LoadContext(ctx, path)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info().Ctx(ctx).
		Str("component", "selection").
		Str("dataset", path).
		Int("cities", len(cities)).
		Int("batch_size", d.batcher.GetBatchSize()).
		Int("batches", d.batcher.TotalBatches(len(cities))).
		Msg("dataset loaded")
	return d.RunCities(ctx, cities)
}

// RunCities selects from cities, which must already be ranked. Every
// candidate of a batch is offered to the confirmer; no further batch is
// requested once Limit cities are accepted. At most Limit cities are returned,
// in acceptance order.
func (d *Driver) RunCities(ctx context.Context, cities []geonames.City) ([]geonames.City, error) {
	log := logging.FromContext(ctx).With().Str("component", "selection").Logger()
	result := make([]geonames.City, 0, min(d.cfg.Limit, len(cities)))

	var candidates int
	d.batcher.WithProgressCallback(func(p *batch.Progress) {
		log.Debug().Ctx(ctx).
			Int("batch", p.ProcessedBatches).
			Int("batches", p.TotalBatches).
			Int("candidates", candidates).
			Int("accepted", len(result)).
			Float64("percent", p.PercentComplete()).
			Float64("cities_per_second", p.ItemsPerSecond()).
			Dur("elapsed", p.ElapsedTime()).
			Bool("complete", p.IsComplete()).
			Msg("batch finished")
	})

	err := d.batcher.Process(ctx, cities, func(ctx context.Context, b []geonames.City, idx int) error {
		titles := make([]string, len(b))
		for i, c := range b {
			titles[i] = c.Name
		}

		missing, err := d.lookup.MissingTitles(ctx, titles)
		if err != nil {
			return err
		}
		candidates = len(missing)

		for _, cand := range missing {
			if cand.Index < 0 || cand.Index >= len(b) {
				return fmt.Errorf("candidate %q has index %d outside batch of %d", cand.Name, cand.Index, len(b))
			}
			ok, err := d.confirm.Confirm(ctx, cand)
			if err != nil {
				return err
			}
			if ok {
				result = append(result, b[cand.Index])
			}
		}

		if d.report != nil {
			d.report(Progress{Batch: idx + 1, Accepted: len(result), Limit: d.cfg.Limit})
		}
		if len(result) >= d.cfg.Limit {
			return batch.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result[:min(len(result), d.cfg.Limit)], nil
}
