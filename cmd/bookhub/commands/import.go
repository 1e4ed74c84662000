package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"bookhub/internal/feed"
	"bookhub/internal/ingest"
	"bookhub/internal/obs"
)

func newImportCmd(g *globals) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "import <file.json|file.csv|url>...",
		Short: "Ingests scraped listings as one all-or-nothing run.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			agg := feed.NewAggregator(feed.FromArgs(args, feed.NewHTTPSource(""))...)
			agg.Logger = obs.Logger
			agg.Strict = strict
			listings, err := agg.FetchAll(ctx)
			if err != nil {
				return err
			}

			store, err := g.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := ingest.FromConfig(store, g.cfg, obs.Logger).Run(ctx, listings)
			if err != nil {
				return fmt.Errorf("ingestion failed, nothing was saved: %w", err)
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Total", "New books", "Duplicates", "Offers", "ISBN clean", "ISBN raw"})
			t.AppendRow(table.Row{stats.Total, stats.NewBooks, stats.Duplicates, stats.Offers, stats.UsedISBNClean, stats.UsedISBNRaw})
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any source cannot be read")
	return cmd
}
