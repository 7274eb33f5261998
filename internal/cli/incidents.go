package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/widetable/pkg/frame"
	"github.com/matzehuels/widetable/pkg/incidents"
	"github.com/matzehuels/widetable/pkg/source"
)

// incidentFlags are shared by the incidents subcommands.
type incidentFlags struct {
	source string
	limit  int
}

// incidentsCommand groups the SF police incident views.
func (c *CLI) incidentsCommand() *cobra.Command {
	var f incidentFlags
	cmd := &cobra.Command{
		Use:   "incidents",
		Short: "San Francisco police incidents: counts, map markers and clusters",
		Long: `San Francisco police incidents: counts, map markers and clusters.

Only the first --limit rows of the export are read.`,
		Example: `  widetable incidents counts --by PdDistrict
  widetable incidents clusters --limit 1000 --cell 0.02`,
	}
	cmd.PersistentFlags().StringVar(&f.source, "incidents", source.IncidentsURL, "incident CSV (path or URL)")
	cmd.PersistentFlags().IntVar(&f.limit, "limit", source.DefaultIncidentLimit, "rows to read (0 for all)")

	cmd.AddCommand(c.incidentCountsCommand(&f))
	cmd.AddCommand(c.incidentMarkersCommand(&f))
	cmd.AddCommand(c.incidentClustersCommand(&f))
	return cmd
}

func (c *CLI) incidentCountsCommand(f *incidentFlags) *cobra.Command {
	var (
		out outputFlags
		by  string
	)
	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Count incidents per category, district or any other column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.loadIncidents(cmd.Context(), f)
			if err != nil {
				return err
			}
			counts, err := incidents.CountBy(t, by)
			if err != nil {
				return err
			}
			return out.write(c.Out, counts, "counts")
		},
	}
	out.register(cmd, defaultTableRows)
	cmd.Flags().StringVar(&by, "by", source.IncidentCategory, "column to count by")
	return cmd
}

func (c *CLI) incidentMarkersCommand(f *incidentFlags) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "markers",
		Short: "Write map markers and the map centre as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.loadIncidents(cmd.Context(), f)
			if err != nil {
				return err
			}
			markers, err := incidents.MarkersBy(t, label)
			if err != nil {
				return err
			}
			lat, lng := incidents.Center(markers)
			printInfo("%d markers around %.4f, %.4f", len(markers), lat, lng)
			return c.writeIndentedJSON(map[string]any{
				"center":  [2]float64{lat, lng},
				"markers": markers,
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", source.IncidentCategory, "marker label column")
	return cmd
}

func (c *CLI) incidentClustersCommand(f *incidentFlags) *cobra.Command {
	var (
		out  outputFlags
		size float64
	)
	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Group incidents into grid cells of --cell degrees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.loadIncidents(cmd.Context(), f)
			if err != nil {
				return err
			}
			markers, err := incidents.Markers(t)
			if err != nil {
				return err
			}
			clusters, err := incidents.Clusters(markers, size)
			if err != nil {
				return err
			}
			ct, err := clusterTable(clusters)
			if err != nil {
				return err
			}
			return out.write(c.Out, ct, "clusters")
		},
	}
	out.register(cmd, defaultTableRows)
	cmd.Flags().Float64Var(&size, "cell", incidents.DefaultCellSize, "grid cell size in degrees")
	return cmd
}

// clusterTable lists clusters with their most frequent label.
func clusterTable(clusters []incidents.Cluster) (*frame.Table, error) {
	b := frame.NewBuilder("Cluster", "Lat", "Lng", "Count", "Top")
	for i, cl := range clusters {
		top, n := "", 0
		for label, k := range cl.Labels {
			if k > n || (k == n && label < top) {
				top, n = label, k
			}
		}
		b.Row(strconv.Itoa(i+1), cl.Lat, cl.Lng, int64(cl.Count), top)
	}
	t, err := b.Build()
	if err != nil {
		return nil, err
	}
	return frame.SetIndex(t, "Cluster")
}

func (c *CLI) loadIncidents(ctx context.Context, f *incidentFlags) (*frame.Table, error) {
	if f.limit < 0 {
		return nil, fmt.Errorf("--limit must not be negative")
	}
	runner, err := c.newRunner(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Loading incidents...")
	spinner.Start()
	t, err := runner.Fetcher.LoadIncidents(ctx, f.source, f.limit)
	if err != nil {
		spinner.StopWithError("Load failed")
		return nil, err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Loaded %d incidents", t.Len()))
	return t, nil
}

func (c *CLI) writeIndentedJSON(v any) error {
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
