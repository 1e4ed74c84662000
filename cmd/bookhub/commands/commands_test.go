package commands

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"bookhub/internal/auth"
	"bookhub/internal/books"
	"bookhub/pkg/utils"
)

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BOOKHUB_DRIVER", "sqlite")
	t.Setenv("BOOKHUB_DB_PATH", filepath.Join(dir, "books.db"))
	t.Setenv("BOOKHUB_JWT_SECRET", "cli-secret")
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "missing.json5")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportSearchShowExport(t *testing.T) {
	dir := setup(t)
	feedA := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(feedA, []byte(`[
		{"title": "Война и мир (в 2х томах)", "author": "Лев Толстой", "price": "900", "source": "a"},
		{"title": "Солярис", "author": "Станислав Лем", "isbn": "978-5-17-000000-1", "year": "1961", "price": "300"}
	]`), 0o644))
	feedB := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(feedB, []byte("title,author,isbn,price,source\n"+
		"Война и мир,Толстой Л.Н.,,450,b\n"+
		"Солярис (эксклюзив),Лем С.,9785170000001,250,b\n"), 0o644))

	out, err := run(t, dir, "import", feedA, feedB, filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	require.Contains(t, out, "NEW BOOKS")
	require.Regexp(t, `│\s+4\s+│\s+2\s+│\s+2\s+│\s+4\s+│\s+0\s+│\s+2\s+│`, out)

	out, err = run(t, dir, "search", "ВОЙНА")
	require.NoError(t, err)
	require.Contains(t, out, "450.00")
	require.Contains(t, out, "1 matches")

	out, err = run(t, dir, "catalog")
	require.NoError(t, err)
	require.Contains(t, out, "2 books, 4 offers")

	out, err = run(t, dir, "show", "2")
	require.NoError(t, err)
	require.Contains(t, out, "Солярис")
	require.Less(t, strings.Index(out, "250.00"), strings.Index(out, "300.00"))

	_, err = run(t, dir, "show", "99")
	require.ErrorContains(t, err, "not found")

	csvPath := filepath.Join(dir, "out", "books.csv")
	_, err = run(t, dir, "export", "-o", csvPath)
	require.NoError(t, err)
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, exportHeader, records[0])
	require.Equal(t, "Солярис", records[1][1])
	require.Equal(t, "9785170000001", records[1][3])
	require.Equal(t, "250.00", records[1][7])
	require.Equal(t, "2", records[1][8])
}

func TestImportStrictFailsOnMissingSource(t *testing.T) {
	dir := setup(t)
	_, err := run(t, dir, "import", "--strict", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	dir := setup(t)
	out, err := run(t, dir, "token", "--subject", "scraper-02")
	require.NoError(t, err)

	cfg := utils.Defaults()
	cfg.Auth.JWTSecret = "cli-secret"
	claims, err := auth.NewTokenService(cfg.Auth).Authorize(strings.TrimSpace(out), auth.ScopeIngest)
	require.NoError(t, err)
	require.Equal(t, "scraper-02", claims.Subject)
}

func TestExportCSVPaginates(t *testing.T) {
	dir := setup(t)
	lines := []string{"title,author"}
	for i := 0; i < exportBatch+7; i++ {
		lines = append(lines, "Книга "+strings.Repeat("я", i%5+1)+" "+string(rune('A'+i%26))+",Автор "+string(rune('a'+i%26)))
	}
	feedPath := filepath.Join(dir, "many.csv")
	require.NoError(t, os.WriteFile(feedPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	_, err := run(t, dir, "import", feedPath)
	require.NoError(t, err)

	cfg := utils.Defaults()
	cfg.DBPath = filepath.Join(dir, "books.db")
	store, err := books.Open(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()
	total, err := store.CountProducts(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := exportCSV(context.Background(), store, &buf)
	require.NoError(t, err)
	require.Equal(t, total, n)
	require.Equal(t, total+1, strings.Count(buf.String(), "\n"))
}
