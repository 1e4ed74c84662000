package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"bookhub/internal/catalog"
	"bookhub/internal/obs"
	"bookhub/pkg/models"
)

func newCatalogCmd(g *globals) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Lists the newest books with their lowest price.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			res := catalog.NewService(store, obs.Logger).ListCatalog(cmd.Context(), page)
			renderBooks(cmd.OutOrStdout(), res.Books)
			fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d, %d books, %d offers\n",
				res.Meta.Page, res.Meta.TotalPages, res.TotalBooks, res.TotalOffers)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newSearchCmd(g *globals) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Finds books whose title or author contains the query.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			res := catalog.NewService(store, obs.Logger).Search(cmd.Context(), args[0], page)
			renderBooks(cmd.OutOrStdout(), res.Books)
			fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d, %d matches\n", res.Meta.Page, res.Meta.TotalPages, res.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func renderBooks(w io.Writer, rows []models.BookRow) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Title", "Author", "Year", "Min price", "Offers"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.ID, r.Title, r.Author, formatYear(r.Year), formatPrice(r.MinPrice), r.OffersCount})
	}
	t.Render()
}
