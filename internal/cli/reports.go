package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/widetable/pkg/frame"
	"github.com/matzehuels/widetable/pkg/storage"
)

// reportsCommand manages stored report snapshots.
func (c *CLI) reportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List, show and delete stored report snapshots",
		Long: `List, show and delete stored report snapshots.

Snapshots live in MongoDB when --mongo-uri is set and in the local data
directory otherwise.`,
	}
	cmd.AddCommand(c.reportsListCommand())
	cmd.AddCommand(c.reportsShowCommand())
	cmd.AddCommand(c.reportsDeleteCommand())
	return cmd
}

func (c *CLI) reportsListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			snaps, err := store.ListReports(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				printInfo("No stored reports")
				printNextStep("Create one with", "widetable report --save")
				return nil
			}
			t, err := snapshotTable(snaps)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.Out, renderTable(t, 0))
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", storage.DefaultListLimit, "maximum snapshots")
	return cmd
}

func snapshotTable(snaps []*storage.Snapshot) (*frame.Table, error) {
	b := frame.NewBuilder("ID", "Created", "Source", "Views")
	for _, s := range snaps {
		b.Row(s.ID, s.CreatedAt.Format("2006-01-02 15:04"), s.Source, int64(len(s.Views)))
	}
	t, err := b.Build()
	if err != nil {
		return nil, err
	}
	return frame.SetIndex(t, "ID")
}

func (c *CLI) reportsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.ValidateID(args[0]); err != nil {
				return err
			}
			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			snap, err := store.GetReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = c.Out.Write(append(snap.Report, '\n'))
			return err
		},
	}
}

func (c *CLI) reportsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete stored snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := storage.ValidateID(id); err != nil {
					return err
				}
			}
			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if err := store.DeleteReport(cmd.Context(), id); err != nil {
					return err
				}
				printSuccess("Deleted %s", id)
			}
			return nil
		},
	}
}
