package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"bookhub/internal/books"
	"bookhub/internal/obs"
	"bookhub/pkg/utils"
)

type globals struct {
	configPath string
	cfg        utils.Config
}

func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "bookhub",
		Short:         "bookhub ingests scraped book listings and queries the merged catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := utils.Load(g.configPath)
			if err != nil {
				return err
			}
			g.cfg = cfg
			obs.InitLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", utils.DefaultConfigFile, "config file (json5)")

	root.AddCommand(
		newImportCmd(g),
		newCatalogCmd(g),
		newSearchCmd(g),
		newShowCmd(g),
		newExportCmd(g),
		newTokenCmd(g),
	)
	return root
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func (g *globals) openStore(ctx context.Context) (books.Store, error) {
	store, err := books.Open(ctx, g.cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", g.cfg.Driver, err)
	}
	return store, nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}

func formatYear(y *int) string {
	if y == nil {
		return "-"
	}
	return fmt.Sprint(*y)
}
