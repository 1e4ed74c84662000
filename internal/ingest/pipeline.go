// Package ingest turns a batch of scraped listings into products and offers.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bookhub/internal/books"
	"bookhub/internal/normalize"
	"bookhub/internal/resolver"
	"bookhub/pkg/models"
	"bookhub/pkg/utils"
)

const (
	DefaultSource = "unknown"
	DefaultCity   = "Владивосток"
)

// Observer is told about every run once it has committed or rolled back.
// err is nil for a committed run.
type Observer interface {
	RunFinished(runID string, stats models.IngestionStats, err error)
}

type Pipeline struct {
	Store    books.Store
	Resolver *resolver.Resolver
	// DefaultSource and DefaultCity label offers whose listing leaves them empty.
	DefaultSource string
	DefaultCity   string
	Logger        *slog.Logger
	Observer      Observer
	Now           func() time.Time
}

func New(store books.Store, r *resolver.Resolver, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Store:         store,
		Resolver:      r,
		DefaultSource: DefaultSource,
		DefaultCity:   DefaultCity,
		Logger:        logger,
		Now:           time.Now,
	}
}

// FromConfig builds a pipeline with the configured labels and candidate limit.
func FromConfig(store books.Store, cfg utils.Config, logger *slog.Logger) *Pipeline {
	p := New(store, resolver.New(cfg.CandidateLimit), logger)
	if cfg.DefaultSource != "" {
		p.DefaultSource = cfg.DefaultSource
	}
	if cfg.DefaultCity != "" {
		p.DefaultCity = cfg.DefaultCity
	}
	return p
}

// Run ingests listings in input order inside one transaction. A store
// error rolls back the whole batch and Run returns zero stats with it.
func (p *Pipeline) Run(ctx context.Context, listings []models.Listing) (models.IngestionStats, error) {
	runID := uuid.NewString()
	log := p.logger().With("run_id", runID)
	log.Info("ingest started", "listings", len(listings))
	start := p.now()

	var stats models.IngestionStats
	err := p.Store.InTx(ctx, func(w books.Writer) error {
		for i, l := range listings {
			if err := p.ingestOne(ctx, log, w, l, &stats); err != nil {
				return fmt.Errorf("listing %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error("ingest failed, batch rolled back", "err", err)
		p.notify(runID, models.IngestionStats{}, err)
		return models.IngestionStats{}, err
	}

	log.Info("ingest finished",
		"total", stats.Total,
		"new_books", stats.NewBooks,
		"duplicates", stats.Duplicates,
		"offers", stats.Offers,
		"used_isbn_clean", stats.UsedISBNClean,
		"used_isbn_raw", stats.UsedISBNRaw,
		"took", p.now().Sub(start),
	)
	p.notify(runID, stats, nil)
	return stats, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, log *slog.Logger, w books.Writer, l models.Listing, stats *models.IngestionStats) error {
	stats.Total++

	isbn, origin := normalize.ISBNWithOrigin(l)
	switch origin {
	case normalize.OriginClean:
		stats.UsedISBNClean++
	case normalize.OriginRaw:
		stats.UsedISBNRaw++
	}

	match, err := p.resolver().Resolve(ctx, w, l)
	if err != nil {
		return err
	}

	productID := match.ProductID
	if match.Found() {
		stats.Duplicates++
	} else {
		productID, err = w.CreateProduct(ctx, models.Product{
			Title:       l.Title.String(),
			Author:      l.Author.String(),
			ISBN:        isbn,
			Publisher:   l.Publisher.String(),
			Year:        normalize.Year(l.Year.String()),
			Genre:       l.Genre.String(),
			Description: l.Description.String(),
			ImageURL:    l.ImageURL.String(),
			CreatedAt:   p.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		stats.NewBooks++
	}

	if _, err := w.CreateOffer(ctx, models.Offer{
		ProductID: productID,
		Source:    orDefault(l.Source.String(), p.DefaultSource, DefaultSource),
		Price:     normalize.Price(l.Price),
		OldPrice:  normalize.Price(l.OldPrice),
		Discount:  l.Discount.String(),
		URL:       l.URL.String(),
		City:      orDefault(l.City.String(), p.DefaultCity, DefaultCity),
		CreatedAt: p.now().UTC(),
	}); err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	stats.Offers++

	log.Debug("listing ingested", "stage", match.Stage, "product_id", productID, "isbn", isbn)
	return nil
}

func (p *Pipeline) notify(runID string, stats models.IngestionStats, err error) {
	if p.Observer != nil {
		p.Observer.RunFinished(runID, stats, err)
	}
}

func (p *Pipeline) resolver() *resolver.Resolver {
	if p.Resolver == nil {
		return resolver.New(books.DefaultCandidateLimit)
	}
	return p.Resolver
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func orDefault(v string, defaults ...string) string {
	if v != "" {
		return v
	}
	for _, d := range defaults {
		if d != "" {
			return d
		}
	}
	return ""
}
