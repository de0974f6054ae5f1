package cli

import (
	"fmt"

	"github.com/existflow/weekplan/internal/planner"
	"github.com/spf13/cobra"
)

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete [task-id]",
		Aliases: []string{"rm"},
		Short:   "Move a task to the recycle bin",
		Long: `Delete a task by its ID or ID prefix. Deleted tasks stay in the
recycle bin until restored, purged or swept after the retention period.

Examples:
  weekplan delete 3f2a
  weekplan rm 3f2a -y`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				t, err := findTask(rt.Board(), args[0])
				if err != nil {
					return err
				}
				ok, err := a.confirm(cmd, fmt.Sprintf("Delete %q?", t.Title))
				if err != nil || !ok {
					return err
				}
				if _, err := rt.DeleteTask(t.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted: %q\n", t.Title)
				return nil
			})
		},
	}
	addYesFlag(cmd)
	return cmd
}
