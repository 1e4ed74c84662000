package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bookhub/internal/books"
	"bookhub/pkg/database"
	"bookhub/pkg/models"
)

func newStore(t *testing.T) books.Store {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "books.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })
	return books.NewRepo(db)
}

func fill(t *testing.T, s books.Store, n int, title, author string, offersEach int) []int64 {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var ids []int64
	require.NoError(t, s.InTx(ctx, func(w books.Writer) error {
		for i := 0; i < n; i++ {
			id, err := w.CreateProduct(ctx, models.Product{
				Title:     fmt.Sprintf("%s %02d", title, i),
				Author:    author,
				CreatedAt: base.Add(time.Duration(len(ids)) * time.Hour),
			})
			if err != nil {
				return err
			}
			ids = append(ids, id)
			for j := 0; j < offersEach; j++ {
				p := float64(100 * (j + 1))
				if _, err := w.CreateOffer(ctx, models.Offer{ProductID: id, Source: "shop", Price: &p}); err != nil {
					return err
				}
			}
		}
		return nil
	}))
	return ids
}

func TestListCatalog(t *testing.T) {
	s := newStore(t)
	fill(t, s, 12, "Книга", "Автор", 2)
	svc := NewService(s, nil)

	first := svc.ListCatalog(context.Background(), 0)
	require.Len(t, first.Books, CatalogPageSize)
	require.Equal(t, 12, first.TotalBooks)
	require.Equal(t, 24, first.TotalOffers)
	require.Equal(t, PageMeta{Page: 1, TotalPages: 2, PageSize: CatalogPageSize}, first.Meta)
	require.Equal(t, "Книга 11", first.Books[0].Title)

	second := svc.ListCatalog(context.Background(), 2)
	require.Len(t, second.Books, 2)
	require.Equal(t, "Книга 00", second.Books[1].Title)
}

func TestSearchPagination(t *testing.T) {
	s := newStore(t)
	fill(t, s, 45, "Хроники Амбера", "Роджер Желязны", 0)
	fill(t, s, 3, "Дюна", "Фрэнк Герберт", 1)
	svc := NewService(s, nil)

	res := svc.Search(context.Background(), "амбера", 3)
	require.Len(t, res.Books, 5)
	require.Equal(t, 45, res.Total)
	require.Equal(t, PageMeta{Page: 3, TotalPages: 3, PageSize: SearchPageSize}, res.Meta)

	res = svc.Search(context.Background(), "ЖЕЛЯЗНЫ", 1)
	require.Len(t, res.Books, SearchPageSize)
	require.Equal(t, "Хроники Амбера 00", res.Books[0].Title)

	res = svc.Search(context.Background(), "амбера", 9)
	require.Empty(t, res.Books)
	require.Equal(t, 45, res.Total)
	require.Equal(t, 9, res.Meta.Page)

	res = svc.Search(context.Background(), "нет такой книги", 1)
	require.NotNil(t, res.Books)
	require.Empty(t, res.Books)
	require.Zero(t, res.Total)
	require.Equal(t, 1, res.Meta.TotalPages)
}

func TestGetDetail(t *testing.T) {
	s := newStore(t)
	ids := fill(t, s, 1, "Солярис", "Лем", 3)
	svc := NewService(s, nil)

	d := svc.GetDetail(context.Background(), ids[0])
	require.NotNil(t, d)
	require.Equal(t, "Солярис 00", d.Product.Title)
	require.Len(t, d.Offers, 3)
	require.InDelta(t, 100, *d.Offers[0].Price, 0.001)

	require.Nil(t, svc.GetDetail(context.Background(), ids[0]+1))
}

type brokenReader struct{ books.Reader }

var errDown = errors.New("db down")

func (brokenReader) AggregateListing(context.Context, books.ListQuery) ([]models.BookRow, int, error) {
	return nil, 0, errDown
}
func (brokenReader) CountProducts(context.Context) (int, error) { return 0, errDown }
func (brokenReader) CountOffers(context.Context) (int, error)   { return 0, errDown }
func (brokenReader) GetProduct(context.Context, int64) (*models.Product, error) {
	return nil, errDown
}

func TestReadFailuresDegrade(t *testing.T) {
	svc := NewService(brokenReader{}, nil)

	page := svc.ListCatalog(context.Background(), 1)
	require.Empty(t, page.Books)
	require.Zero(t, page.TotalBooks)
	require.Equal(t, 1, page.Meta.TotalPages)

	res := svc.Search(context.Background(), "x", 2)
	require.Empty(t, res.Books)
	require.Zero(t, res.Total)

	require.Nil(t, svc.GetDetail(context.Background(), 1))
}
