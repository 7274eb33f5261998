package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	tableio "github.com/matzehuels/widetable/pkg/io"
	"github.com/matzehuels/widetable/pkg/pipeline"
	"github.com/matzehuels/widetable/pkg/storage"
)

// reportCommand runs the whole pipeline and writes every requested view.
func (c *CLI) reportCommand() *cobra.Command {
	var (
		views      []string
		topN       int
		decadeTop  int
		bins       int
		thresholds int
		bubbles    []string
		output     string
		xlsx       string
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build all chart views in one run",
		Long: `Build all chart views in one run.

The report is cached under the source content hash and the report options,
so a second run with the same inputs reads it back without recomputing.
Without -o the JSON report is written to stdout.`,
		Example: `  widetable report -o report.json
  widetable report --views top,totals --top-n 10
  widetable report --xlsx report.xlsx --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("views") {
				opts.Views = views
			}
			if topN > 0 {
				opts.TopN = topN
			}
			if decadeTop > 0 {
				opts.DecadeTop = decadeTop
			}
			if bins > 0 {
				opts.Bins = bins
			}
			if thresholds > 0 {
				opts.Thresholds = thresholds
			}
			if len(bubbles) > 0 {
				opts.BubbleCountries = bubbles
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runReport(cmd.Context(), opts, output, xlsx, save)
		},
	}

	cmd.Flags().StringSliceVar(&views, "views", nil, "views to build: "+strings.Join(pipeline.AllViews, ", "))
	cmd.Flags().IntVar(&topN, "top-n", 0, fmt.Sprintf("size of the top and bottom views (default %d)", pipeline.DefaultTopN))
	cmd.Flags().IntVar(&decadeTop, "decade-top", 0, fmt.Sprintf("countries in the decade view (default %d)", pipeline.DefaultDecadeTop))
	cmd.Flags().IntVar(&bins, "bins", 0, fmt.Sprintf("histogram bins (default %d)", pipeline.DefaultHistBins))
	cmd.Flags().IntVar(&thresholds, "thresholds", 0, fmt.Sprintf("choropleth scale stops (default %d)", pipeline.DefaultThresholds))
	cmd.Flags().StringSliceVar(&bubbles, "bubbles", nil, "countries for the bubble view (default "+strings.Join(pipeline.DefaultBubbleCountries, ",")+")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the JSON report to this file")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "also write one worksheet per view to this workbook")
	cmd.Flags().BoolVar(&save, "save", false, "store a snapshot of the report")

	return cmd
}

func (c *CLI) runReport(ctx context.Context, opts pipeline.Options, output, xlsx string, save bool) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Building report...")
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Report failed")
		return err
	}
	spinner.Stop()
	prog.done("built report", "views", len(res.Report.Views),
		"load", res.Stats.LoadTime, "report", res.Stats.ReportTime)

	printSuccess("Report ready")
	printStats(res.Stats.Countries, fmt.Sprintf("%d-%d", opts.FirstYear, opts.LastYear), res.CacheInfo.ReportHit)

	if output != "" {
		if err := os.WriteFile(output, append(res.Encoded, '\n'), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		printFile(output)
	} else {
		if _, err := c.Out.Write(append(res.Encoded, '\n')); err != nil {
			return err
		}
	}

	if xlsx != "" {
		sheets, err := res.Report.Sheets()
		if err != nil {
			return err
		}
		if err := tableio.ExportXLSX(xlsx, sheets...); err != nil {
			return err
		}
		printFile(xlsx)
	}

	if save {
		store, err := c.newStore(ctx)
		if err != nil {
			return fmt.Errorf("open report store: %w", err)
		}
		defer store.Close()
		snap := storage.NewSnapshot(res.Dataset.Source, res.Dataset.SourceHash, res.Report.Views, res.Encoded)
		if err := store.SaveReport(ctx, snap); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		printSuccess("Saved snapshot %s", snap.ID)
		printNextStep("Show it with", "widetable reports show "+snap.ID)
	}
	return nil
}
