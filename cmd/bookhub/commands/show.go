package commands

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"bookhub/internal/catalog"
	"bookhub/internal/obs"
)

func newShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Shows one book and every offer for it, cheapest first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[0])
			}

			store, err := g.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			d := catalog.NewService(store, obs.Logger).GetDetail(cmd.Context(), id)
			if d == nil {
				return fmt.Errorf("book %d not found", id)
			}

			p := d.Product
			info := newTable(cmd.OutOrStdout())
			info.AppendRows([]table.Row{
				{"Title", p.Title},
				{"Author", p.Author},
				{"ISBN", p.ISBN},
				{"Publisher", p.Publisher},
				{"Year", formatYear(p.Year)},
				{"Genre", p.Genre},
			})
			info.Render()

			offers := newTable(cmd.OutOrStdout())
			offers.AppendHeader(table.Row{"Source", "Price", "Old price", "Discount", "City", "URL"})
			for _, o := range d.Offers {
				offers.AppendRow(table.Row{o.Source, formatPrice(o.Price), formatPrice(o.OldPrice), o.Discount, o.City, o.URL})
			}
			offers.Render()
			return nil
		},
	}
}
