package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"bookhub/pkg/models"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestFileSourceJSON(t *testing.T) {
	p := writeFile(t, "chitai.json", `[
		{"title": "Война и мир", "author": "Толстой Л.Н.", "isbn": null, "price": 450, "source": "chitai-gorod"},
		{"title": "Дюна", "isbn_clean": 9785170000001, "year": "2020", "extra": {"nested": true}, "genre": ["x"]}
	]`)

	got, err := NewFileSource(p).Fetch(context.Background())
	require.NoError(t, err)
	want := []models.Listing{
		{Title: "Война и мир", Author: "Толстой Л.Н.", Price: "450", Source: "chitai-gorod"},
		{Title: "Дюна", ISBNClean: "9785170000001", Year: "2020"},
	}
	require.Empty(t, cmp.Diff(want, got))
}

func TestFileSourceCSV(t *testing.T) {
	p := writeFile(t, "labirint.csv", "\ufefftitle,author,price,unknown,city\n"+
		"Солярис,Станислав Лем,\"1 299 ₽\",zzz,Хабаровск\n"+
		"Короткая строка\n")

	got, err := NewFileSource(p).Fetch(context.Background())
	require.NoError(t, err)
	want := []models.Listing{
		{Title: "Солярис", Author: "Станислав Лем", Price: "1 299 ₽", City: "Хабаровск"},
		{Title: "Короткая строка"},
	}
	require.Empty(t, cmp.Diff(want, got))
}

func TestFileSourceErrors(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Fetch(context.Background())
	require.Error(t, err)

	_, err = NewFileSource(writeFile(t, "bad.json", `{"title": "not an array"}`)).Fetch(context.Background())
	require.Error(t, err)

	_, err = NewFileSource(writeFile(t, "feed.xml", `<x/>`)).Fetch(context.Background())
	require.Error(t, err)

	got, err := NewFileSource(writeFile(t, "empty.csv", "")).Fetch(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(`[{"title": "Пикник на обочине", "price": "399"}]`))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL + "/ok")
	src.Client.SetRetryCount(0)
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.Listing{{Title: "Пикник на обочине", Price: "399"}}, got)

	_, err = src.WithURL(srv.URL + "/missing").Fetch(context.Background())
	require.ErrorContains(t, err, "status 404")
}

type staticSource struct {
	name     string
	listings []models.Listing
	err      error
}

func (s staticSource) Name() string { return s.name }
func (s staticSource) Fetch(context.Context) ([]models.Listing, error) {
	return s.listings, s.err
}

func TestAggregatorKeepsOrderAndSkipsBrokenSources(t *testing.T) {
	a := NewAggregator(
		staticSource{name: "a", listings: []models.Listing{{Title: "1"}, {Title: "2"}}},
		staticSource{name: "broken", err: errors.New("timeout")},
		staticSource{name: "b", listings: []models.Listing{{Title: "1"}}},
	)

	got, err := a.FetchAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.Listing{{Title: "1"}, {Title: "2"}, {Title: "1"}}, got)

	a.Strict = true
	_, err = a.FetchAll(context.Background())
	require.ErrorContains(t, err, "source broken")
}

func TestFromArgs(t *testing.T) {
	srcs := FromArgs([]string{"out/a.json", "https://scraper.local/export"}, nil)
	require.Len(t, srcs, 2)
	require.IsType(t, &FileSource{}, srcs[0])
	require.IsType(t, &HTTPSource{}, srcs[1])
	require.Equal(t, "https://scraper.local/export", srcs[1].Name())
}
