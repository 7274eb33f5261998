package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/widetable/internal/server"
	"github.com/matzehuels/widetable/pkg/observability"
	"github.com/matzehuels/widetable/pkg/storage"
)

// serveCommand loads the table once and serves it over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		ephemeral bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the normalized table and its views as JSON",
		Long: `Serve the normalized table and its views as JSON.

The table is loaded once at startup. Prometheus metrics are served at
/metrics. Reports posted to /v1/reports are stored like "report --save";
--ephemeral keeps them in memory instead.`,
		Example: "  widetable serve --addr :8080\n  widetable serve --ephemeral --source Canada.xlsx",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, opts, err := c.dataset(ctx)
			if err != nil {
				return err
			}

			var store storage.Store = storage.NewMemoryStore()
			if !ephemeral {
				if store, err = c.newStore(ctx); err != nil {
					return fmt.Errorf("open report store: %w", err)
				}
			}
			defer store.Close()

			if c.metrics == nil {
				c.metrics = observability.NewPrometheus()
				observability.Register(c.metrics)
			}

			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(server.Config{
				Dataset: ds,
				Options: opts,
				Runner:  runner,
				Store:   store,
				Logger:  c.Logger,
				Metrics: c.metrics.Handler(),
			})
			printSuccess("Serving %d countries", ds.Table.Len())
			printDetail("http://%s", displayAddr(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep posted reports in memory only")
	return cmd
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
