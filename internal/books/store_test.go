package books

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"bookhub/pkg/models"
)

func price(v float64) *float64 { return &v }

// seed writes products in order with increasing created_at and returns their ids.
func seed(t *testing.T, s Store, products ...models.Product) []int64 {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]int64, 0, len(products))
	err := s.InTx(context.Background(), func(w Writer) error {
		for i, p := range products {
			p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			id, err := w.CreateProduct(context.Background(), p)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func addOffers(t *testing.T, s Store, offers ...models.Offer) {
	t.Helper()
	err := s.InTx(context.Background(), func(w Writer) error {
		for _, o := range offers {
			if _, err := w.CreateOffer(context.Background(), o); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func titles(rows []models.BookRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Title)
	}
	return out
}

// runStoreContract exercises a Store against an empty database.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("FindByISBN", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ids := seed(t, s,
			models.Product{Title: "Пикник на обочине", Author: "Стругацкие", ISBN: "9785170000001"},
			models.Product{Title: "Без ISBN 1"},
			models.Product{Title: "Без ISBN 2"},
		)

		err := s.InTx(ctx, func(w Writer) error {
			p, err := w.FindByISBN(ctx, "9785170000001")
			require.NoError(t, err)
			require.NotNil(t, p)
			require.Equal(t, ids[0], p.ID)
			require.Equal(t, "Стругацкие", p.Author)

			p, err = w.FindByISBN(ctx, "0000")
			require.NoError(t, err)
			require.Nil(t, p)

			p, err = w.FindByISBN(ctx, "")
			require.NoError(t, err)
			require.Nil(t, p)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("DuplicateISBNRejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seed(t, s, models.Product{Title: "A", ISBN: "111"})

		err := s.InTx(ctx, func(w Writer) error {
			_, err := w.CreateProduct(ctx, models.Product{Title: "B", ISBN: "111"})
			return err
		})
		require.Error(t, err)
	})

	t.Run("FindCandidatesByTitle", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ids := seed(t, s,
			models.Product{Title: "Война и мир (в 2х томах)", Author: "Лев Толстой"},
			models.Product{Title: "ВОЙНА И МИР. Том 1", Author: "Толстой"},
			models.Product{Title: "Войнаимир", Author: "?"},
			models.Product{Title: "Анна Каренина", Author: "Лев Толстой"},
		)

		err := s.InTx(ctx, func(w Writer) error {
			got, err := w.FindCandidatesByTitle(ctx, "война и мир", 5)
			require.NoError(t, err)
			gotIDs := make([]int64, 0, len(got))
			for _, p := range got {
				gotIDs = append(gotIDs, p.ID)
			}
			require.Equal(t, ids[:3], gotIDs)

			got, err = w.FindCandidatesByTitle(ctx, "война и мир", 2)
			require.NoError(t, err)
			require.Len(t, got, 2)

			got, err = w.FindCandidatesByTitle(ctx, "", 5)
			require.NoError(t, err)
			require.Empty(t, got)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("RollbackDiscardsWrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.InTx(ctx, func(w Writer) error {
			id, err := w.CreateProduct(ctx, models.Product{Title: "Черновик"})
			require.NoError(t, err)
			_, err = w.CreateOffer(ctx, models.Offer{ProductID: id, Source: "x"})
			require.NoError(t, err)
			return fmt.Errorf("abort")
		})
		require.EqualError(t, err, "abort")

		n, err := s.CountProducts(ctx)
		require.NoError(t, err)
		require.Zero(t, n)
		n, err = s.CountOffers(ctx)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("AggregateListing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ids := seed(t, s,
			models.Product{Title: "Солярис", Author: "Станислав Лем"},
			models.Product{Title: "Непобедимый", Author: "Станислав Лем"},
			models.Product{Title: "Дюна", Author: "Фрэнк Герберт"},
		)
		addOffers(t, s,
			models.Offer{ProductID: ids[0], Source: "a", Price: price(300)},
			models.Offer{ProductID: ids[0], Source: "b", Price: price(250)},
			models.Offer{ProductID: ids[0], Source: "c"},
			models.Offer{ProductID: ids[2], Source: "a", Price: price(999.5)},
		)

		rows, total, err := s.AggregateListing(ctx, ListQuery{Limit: 10})
		require.NoError(t, err)
		require.Equal(t, 3, total)
		require.Equal(t, []string{"Дюна", "Непобедимый", "Солярис"}, titles(rows))

		byTitle := map[string]models.BookRow{}
		for _, r := range rows {
			byTitle[r.Title] = r
		}
		require.InDelta(t, 250, *byTitle["Солярис"].MinPrice, 0.001)
		require.Equal(t, 3, byTitle["Солярис"].OffersCount)
		require.Nil(t, byTitle["Непобедимый"].MinPrice)
		require.Zero(t, byTitle["Непобедимый"].OffersCount)

		rows, total, err = s.AggregateListing(ctx, ListQuery{Q: "ЛЕМ", Limit: 10})
		require.NoError(t, err)
		require.Equal(t, 2, total)
		require.Equal(t, []string{"Непобедимый", "Солярис"}, titles(rows))

		rows, total, err = s.AggregateListing(ctx, ListQuery{Q: "дюн", Limit: 10})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, []string{"Дюна"}, titles(rows))

		rows, total, err = s.AggregateListing(ctx, ListQuery{Q: "100%", Limit: 10})
		require.NoError(t, err)
		require.Zero(t, total)
		require.Empty(t, rows)
	})

	t.Run("SearchPagination", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		products := make([]models.Product, 0, 50)
		for i := 0; i < 45; i++ {
			products = append(products, models.Product{Title: fmt.Sprintf("Хроники Амбера %02d", i), Author: "Желязны"})
		}
		for i := 0; i < 5; i++ {
			products = append(products, models.Product{Title: fmt.Sprintf("Другое %d", i), Author: "Кто-то"})
		}
		seed(t, s, products...)

		rows, total, err := s.AggregateListing(ctx, ListQuery{Q: "амбера", Limit: 20, Offset: 40})
		require.NoError(t, err)
		require.Equal(t, 45, total)
		require.Len(t, rows, 5)
		require.Equal(t, "Хроники Амбера 40", rows[0].Title)

		rows, total, err = s.AggregateListing(ctx, ListQuery{Q: "амбера", Limit: 20, Offset: 60})
		require.NoError(t, err)
		require.Equal(t, 45, total)
		require.Empty(t, rows)
	})

	t.Run("GetProductAndOffers", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		year := 1961
		ids := seed(t, s, models.Product{
			Title: "Солярис", Author: "Станислав Лем", ISBN: "9785170000002",
			Publisher: "АСТ", Year: &year, Genre: "фантастика",
			Description: "Океан", ImageURL: "https://img.example/1.jpg",
		})
		addOffers(t, s,
			models.Offer{ProductID: ids[0], Source: "a", Price: price(500), URL: "https://a.example/1", City: "Владивосток"},
			models.Offer{ProductID: ids[0], Source: "b", Price: price(250), OldPrice: price(300), Discount: "-17%"},
			models.Offer{ProductID: ids[0], Source: "c"},
		)

		p, err := s.GetProduct(ctx, ids[0])
		require.NoError(t, err)
		require.NotNil(t, p)
		want := models.Product{
			ID: ids[0], Title: "Солярис", Author: "Станислав Лем", ISBN: "9785170000002",
			Publisher: "АСТ", Year: &year, Genre: "фантастика",
			Description: "Океан", ImageURL: "https://img.example/1.jpg",
		}
		require.Empty(t, cmp.Diff(want, *p, cmp.FilterPath(func(p cmp.Path) bool {
			return p.Last().String() == ".CreatedAt"
		}, cmp.Ignore())))

		missing, err := s.GetProduct(ctx, ids[0]+100)
		require.NoError(t, err)
		require.Nil(t, missing)

		offers, err := s.ListOffers(ctx, ids[0])
		require.NoError(t, err)
		require.Len(t, offers, 3)
		require.Equal(t, "c", offers[0].Source, "unknown price sorts first")
		require.Equal(t, "b", offers[1].Source)
		require.Equal(t, "-17%", offers[1].Discount)
		require.InDelta(t, 300, *offers[1].OldPrice, 0.001)
		require.Equal(t, "a", offers[2].Source)

		none, err := s.ListOffers(ctx, ids[0]+100)
		require.NoError(t, err)
		require.Empty(t, none)
	})
}
