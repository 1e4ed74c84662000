// Package feed collects scraped listings from scraper output files and
// HTTP endpoints into one batch for ingestion.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bookhub/pkg/models"
)

// Source is one place scraped listings come from.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Listing, error)
}

// Aggregator concatenates its sources in order. Duplicates are left in:
// identity resolution happens at ingestion.
type Aggregator struct {
	Sources []Source
	Logger  *slog.Logger
	// Strict makes a failing source fail the whole fetch.
	Strict bool
}

func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{Sources: sources, Logger: slog.Default()}
}

func (a *Aggregator) FetchAll(ctx context.Context) ([]models.Listing, error) {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var all []models.Listing
	for _, src := range a.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		listings, err := src.Fetch(ctx)
		if err != nil {
			if a.Strict {
				return nil, fmt.Errorf("source %s: %w", src.Name(), err)
			}
			logger.Warn("feed source failed, skipping", "source", src.Name(), "err", err)
			continue
		}
		logger.Info("feed source fetched", "source", src.Name(), "listings", len(listings))
		all = append(all, listings...)
	}
	return all, nil
}

// FromArgs builds a source per argument: http(s) URLs become HTTPSource,
// everything else a FileSource.
func FromArgs(args []string, http *HTTPSource) []Source {
	out := make([]Source, 0, len(args))
	for _, arg := range args {
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			out = append(out, http.WithURL(arg))
			continue
		}
		out = append(out, NewFileSource(arg))
	}
	return out
}
