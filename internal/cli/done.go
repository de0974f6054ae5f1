package cli

import (
	"fmt"

	"github.com/existflow/weekplan/internal/planner"
	"github.com/spf13/cobra"
)

func newDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done [task-id]",
		Short: "Mark a task as completed",
		Long: `Move a task to the completed archive.

Examples:
  weekplan done 3f2a
  weekplan completed reopen 3f2a   # undo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				t, err := findTask(rt.Board(), args[0])
				if err != nil {
					return err
				}
				if _, err := rt.CompleteTask(t.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Completed: %q\n", t.Title)
				return nil
			})
		},
	}
}
