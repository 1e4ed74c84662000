// Package grpcserver exposes the catalog read path over gRPC.
package grpcserver

import (
	"context"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookhub/internal/catalog"
	"bookhub/pkg/grpc/catalogpb"
	"bookhub/pkg/models"
)

type Server struct {
	catalogpb.UnimplementedCatalogServiceServer
	Catalog *catalog.Service
}

func NewServer(svc *catalog.Service) *Server {
	return &Server{Catalog: svc}
}

func (s *Server) ListCatalog(ctx context.Context, req *catalogpb.ListCatalogRequest) (*catalogpb.ListCatalogResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	page := s.Catalog.ListCatalog(ctx, int(req.GetPage()))

	return &catalogpb.ListCatalogResponse{
		Books:       booksToProto(page.Books),
		TotalBooks:  clamp32(page.TotalBooks),
		TotalOffers: clamp32(page.TotalOffers),
		Page:        metaToProto(page.Meta),
	}, nil
}

func (s *Server) Search(ctx context.Context, req *catalogpb.SearchRequest) (*catalogpb.SearchResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	if req.GetPage() < 0 {
		return nil, status.Error(codes.InvalidArgument, "page must be >= 0")
	}
	res := s.Catalog.Search(ctx, req.GetQ(), int(req.GetPage()))

	return &catalogpb.SearchResponse{
		Books: booksToProto(res.Books),
		Total: clamp32(res.Total),
		Page:  metaToProto(res.Meta),
	}, nil
}

func (s *Server) GetBook(ctx context.Context, req *catalogpb.GetBookRequest) (*catalogpb.GetBookResponse, error) {
	if req == nil || req.GetId() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}

	d := s.Catalog.GetDetail(ctx, req.GetId())
	if d == nil {
		return nil, status.Error(codes.NotFound, "not found")
	}

	resp := &catalogpb.GetBookResponse{
		Book:   bookToProto(models.BookRow{Product: d.Product, OffersCount: len(d.Offers), MinPrice: minPrice(d.Offers)}),
		Offers: make([]*catalogpb.Offer, 0, len(d.Offers)),
	}
	for _, o := range d.Offers {
		resp.Offers = append(resp.Offers, &catalogpb.Offer{
			Id:       o.ID,
			Source:   o.Source,
			Price:    o.Price,
			OldPrice: o.OldPrice,
			Discount: o.Discount,
			Url:      o.URL,
			City:     o.City,
		})
	}
	return resp, nil
}

func booksToProto(rows []models.BookRow) []*catalogpb.Book {
	out := make([]*catalogpb.Book, 0, len(rows))
	for _, r := range rows {
		out = append(out, bookToProto(r))
	}
	return out
}

func bookToProto(r models.BookRow) *catalogpb.Book {
	b := &catalogpb.Book{
		Id:          r.ID,
		Title:       r.Title,
		Author:      r.Author,
		Isbn:        r.ISBN,
		Publisher:   r.Publisher,
		Genre:       r.Genre,
		Description: r.Description,
		ImageUrl:    r.ImageURL,
		MinPrice:    r.MinPrice,
		OffersCount: clamp32(r.OffersCount),
	}
	if r.Year != nil {
		b.Year = int32(*r.Year)
	}
	return b
}

func metaToProto(m catalog.PageMeta) *catalogpb.PageMeta {
	return &catalogpb.PageMeta{
		Page:       clamp32(m.Page),
		TotalPages: clamp32(m.TotalPages),
		PageSize:   clamp32(m.PageSize),
	}
}

func minPrice(offers []models.Offer) *float64 {
	var lowest *float64
	for _, o := range offers {
		if o.Price != nil && (lowest == nil || *o.Price < *lowest) {
			v := *o.Price
			lowest = &v
		}
	}
	return lowest
}

func clamp32(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}
