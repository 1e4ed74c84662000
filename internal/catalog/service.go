// Package catalog is the read side: the home listing, search and the
// book detail page.
package catalog

import (
	"context"
	"log/slog"

	"bookhub/internal/books"
	"bookhub/pkg/models"
)

const (
	CatalogPageSize = 10
	SearchPageSize  = 20
)

type PageMeta struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	PageSize   int `json:"page_size"`
}

type CatalogPage struct {
	Books       []models.BookRow `json:"books"`
	TotalBooks  int              `json:"total_books"`
	TotalOffers int              `json:"total_offers"`
	Meta        PageMeta         `json:"page_metadata"`
}

type SearchResult struct {
	Query string           `json:"query"`
	Books []models.BookRow `json:"books"`
	Total int              `json:"total"`
	Meta  PageMeta         `json:"page_metadata"`
}

type Detail struct {
	Product models.Product `json:"product"`
	Offers  []models.Offer `json:"offers"`
}

// Service never returns store errors. They are logged and the caller
// gets an empty page, or no detail.
type Service struct {
	Store  books.Reader
	Logger *slog.Logger
}

func NewService(store books.Reader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Store: store, Logger: logger}
}

// ListCatalog returns the newest products first. page is 1-based.
func (s *Service) ListCatalog(ctx context.Context, page int) CatalogPage {
	page = clampPageNum(page)
	out := CatalogPage{Books: []models.BookRow{}}

	rows, total, err := s.Store.AggregateListing(ctx, books.ListQuery{
		Limit:  CatalogPageSize,
		Offset: (page - 1) * CatalogPageSize,
	})
	if err != nil {
		s.Logger.Error("catalog listing failed", "page", page, "err", err)
		total = 0
	} else {
		out.Books = rows
	}
	out.Meta = pageMeta(page, total, CatalogPageSize)

	if out.TotalBooks, err = s.Store.CountProducts(ctx); err != nil {
		s.Logger.Error("count products failed", "err", err)
	}
	if out.TotalOffers, err = s.Store.CountOffers(ctx); err != nil {
		s.Logger.Error("count offers failed", "err", err)
	}
	return out
}

// Search matches q case-insensitively against title and author. An
// empty q lists everything, newest first.
func (s *Service) Search(ctx context.Context, q string, page int) SearchResult {
	page = clampPageNum(page)
	out := SearchResult{Query: q, Books: []models.BookRow{}}

	rows, total, err := s.Store.AggregateListing(ctx, books.ListQuery{
		Q:      q,
		Limit:  SearchPageSize,
		Offset: (page - 1) * SearchPageSize,
	})
	if err != nil {
		s.Logger.Error("search failed", "q", q, "page", page, "err", err)
	} else {
		out.Books = rows
		out.Total = total
	}
	out.Meta = pageMeta(page, out.Total, SearchPageSize)
	return out
}

// GetDetail returns nil for an unknown id.
func (s *Service) GetDetail(ctx context.Context, id int64) *Detail {
	p, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		s.Logger.Error("get product failed", "id", id, "err", err)
		return nil
	}
	if p == nil {
		return nil
	}

	offers, err := s.Store.ListOffers(ctx, id)
	if err != nil {
		s.Logger.Error("list offers failed", "id", id, "err", err)
		offers = nil
	}
	if offers == nil {
		offers = []models.Offer{}
	}
	return &Detail{Product: *p, Offers: offers}
}

func clampPageNum(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// pageMeta echoes the requested page even past the end; there is always
// at least one page.
func pageMeta(page, total, size int) PageMeta {
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	return PageMeta{Page: page, TotalPages: pages, PageSize: size}
}
