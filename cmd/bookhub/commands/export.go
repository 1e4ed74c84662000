package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"bookhub/internal/books"
)

const exportBatch = 100

var exportHeader = []string{
	"id", "title", "author", "isbn", "publisher", "year", "genre",
	"min_price", "offers_count", "created_at",
}

func newExportCmd(g *globals) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Writes every aggregated book row as CSV.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
					return err
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			n, err := exportCSV(cmd.Context(), store, w)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d books to %s\n", n, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output CSV path (default stdout)")
	return cmd
}

// exportCSV pages through the newest-first listing and returns the row count.
func exportCSV(ctx context.Context, r books.Reader, out io.Writer) (int, error) {
	w := csv.NewWriter(out)
	if err := w.Write(exportHeader); err != nil {
		return 0, err
	}

	written := 0
	for {
		rows, total, err := r.AggregateListing(ctx, books.ListQuery{Limit: exportBatch, Offset: written})
		if err != nil {
			return written, err
		}
		for _, row := range rows {
			year := ""
			if row.Year != nil {
				year = strconv.Itoa(*row.Year)
			}
			price := ""
			if row.MinPrice != nil {
				price = strconv.FormatFloat(*row.MinPrice, 'f', 2, 64)
			}
			if err := w.Write([]string{
				strconv.FormatInt(row.ID, 10),
				row.Title,
				row.Author,
				row.ISBN,
				row.Publisher,
				year,
				row.Genre,
				price,
				strconv.Itoa(row.OffersCount),
				row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			}); err != nil {
				return written, err
			}
		}
		written += len(rows)
		if len(rows) == 0 || written >= total {
			break
		}
	}

	w.Flush()
	return written, w.Error()
}
