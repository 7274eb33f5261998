package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/widetable/pkg/cache"
	"github.com/matzehuels/widetable/pkg/pipeline"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the download and report cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheForgetCommand())

	return cmd
}

// cacheClearCommand empties the local file cache. A Redis cache is left
// alone; its entries expire on their own.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every locally cached download and report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			n, err := fc.Clear()
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if n == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.Out, dir)
			return nil
		},
	}
}

// cacheForgetCommand drops one cached download, in whichever cache is
// configured.
func (c *CLI) cacheForgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "forget [url]",
		Short:   "Drop the cached copy of one download (default: the immigration workbook)",
		Example: "  widetable cache forget\n  widetable cache forget --redis-url redis://localhost:6379/0",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location := pipeline.DefaultSourceURL
			if c.flags.source != "" {
				location = c.flags.source
			}
			if len(args) == 1 {
				location = args[0]
			}
			runner, err := c.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer runner.Close()
			if err := runner.Fetcher.Invalidate(cmd.Context(), location); err != nil {
				return fmt.Errorf("forget %s: %w", location, err)
			}
			printSuccess("Forgot %s", location)
			return nil
		},
	}
}
