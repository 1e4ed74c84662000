package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bookhub/internal/auth"
)

func newTokenCmd(g *globals) *cobra.Command {
	var (
		subject string
		scope   string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mints a bearer token for POST /ingest.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := auth.NewTokenService(g.cfg.Auth)
			if ttl > 0 {
				ts.Duration = ttl
			}
			tok, exp, err := ts.Sign(subject, scope)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			fmt.Fprintf(cmd.ErrOrStderr(), "subject=%s scope=%s expires=%s\n", subject, scope, exp.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().StringVar(&scope, "scope", auth.ScopeIngest, "token scope")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "lifetime (default from config)")
	return cmd
}
