// Package books owns the canonical product and offer records.
package books

import (
	"context"

	"bookhub/pkg/models"
)

// DefaultCandidateLimit bounds the fuzzy candidate lookup.
const DefaultCandidateLimit = 5

// Finder is the lookup side used by identity resolution.
type Finder interface {
	FindByISBN(ctx context.Context, isbn string) (*models.Product, error)
	// FindCandidatesByTitle returns at most limit products whose
	// normalized title contains normTitle, with or without whitespace.
	// Order is stable within a call and otherwise unspecified.
	FindCandidatesByTitle(ctx context.Context, normTitle string, limit int) ([]models.Product, error)
}

// Writer is what one ingestion run needs inside its transaction.
// CreateProduct does not deduplicate; resolve first.
type Writer interface {
	Finder
	CreateProduct(ctx context.Context, p models.Product) (int64, error)
	CreateOffer(ctx context.Context, o models.Offer) (int64, error)
}

// ListQuery selects aggregate rows. An empty Q lists everything,
// newest first; otherwise rows whose title or author contains Q
// (case-insensitive) are listed by title.
type ListQuery struct {
	Q      string
	Limit  int
	Offset int
}

// Reader is the read path. It never writes.
type Reader interface {
	AggregateListing(ctx context.Context, q ListQuery) ([]models.BookRow, int, error)
	CountProducts(ctx context.Context) (int, error)
	CountOffers(ctx context.Context) (int, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	// ListOffers returns a product's offers by price ascending.
	ListOffers(ctx context.Context, productID int64) ([]models.Offer, error)
	Ping(ctx context.Context) error
}

// Store is a full backend: the read path plus transactional writes.
type Store interface {
	Reader
	// InTx runs fn in one transaction. It commits only when fn returns
	// nil; otherwise every write made through the Writer is rolled back.
	InTx(ctx context.Context, fn func(Writer) error) error
	Close() error
}
