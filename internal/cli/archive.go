package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/planner"
	"github.com/existflow/weekplan/internal/tui"
	"github.com/spf13/cobra"
)

func newBinCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bin",
		Short: "List and manage the recycle bin",
		Long: `List deleted tasks, newest first.

Examples:
  weekplan bin
  weekplan bin restore 3f2a
  weekplan bin purge 3f2a
  weekplan bin sweep`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				printBin(cmd.OutOrStdout(), rt.Board(), time.Now())
				return nil
			})
		},
	}

	var restoreProject string
	restore := &cobra.Command{
		Use:   "restore [task-id]",
		Short: "Put a deleted task back where it was",
		Long: `Put a deleted task back at its original position.
A task whose project has since been deleted needs --project.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				rec, err := findDeleted(rt.Board(), args[0])
				if err != nil {
					return err
				}
				projectID, err := targetProject(rt.Board(), restoreProject)
				if err != nil {
					return err
				}
				t, err := rt.RestoreTaskInto(rec.Task.ID, projectID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Restored %q to %s\n", t.Title, t.Container.Label())
				return nil
			})
		},
	}

	purge := &cobra.Command{
		Use:   "purge [task-id]",
		Short: "Delete a task from the recycle bin forever",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				rec, err := findDeleted(rt.Board(), args[0])
				if err != nil {
					return err
				}
				ok, err := a.confirm(cmd, fmt.Sprintf("Delete %q forever?", rec.Task.Title))
				if err != nil || !ok {
					return err
				}
				if err := rt.PermanentlyDelete(rec.Task.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Purged %q\n", rec.Task.Title)
				return nil
			})
		},
	}
	restore.Flags().StringVarP(&restoreProject, "project", "p", "", "Restore into this project instead")
	addYesFlag(purge)

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Purge tasks deleted longer ago than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				n := rt.Sweep(time.Now())
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Swept %d task(s) older than %d days\n", n, int(a.cfg.Retention().Hours()/24))
				return nil
			})
		},
	}

	cmd.AddCommand(restore, purge, sweep)
	return cmd
}

func newCompletedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completed",
		Short: "List completed tasks",
		Long: `List completed tasks, newest first.

Examples:
  weekplan completed
  weekplan completed reopen 3f2a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				printCompleted(cmd.OutOrStdout(), rt.Board(), time.Now())
				return nil
			})
		},
	}

	var reopenProject string
	reopen := &cobra.Command{
		Use:     "reopen [task-id]",
		Aliases: []string{"undone"},
		Short:   "Mark a completed task as incomplete",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				rec, err := findCompleted(rt.Board(), args[0])
				if err != nil {
					return err
				}
				projectID, err := targetProject(rt.Board(), reopenProject)
				if err != nil {
					return err
				}
				t, err := rt.MarkIncompleteInto(rec.Task.ID, projectID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Reopened %q in %s\n", t.Title, t.Container.Label())
				return nil
			})
		},
	}

	reopen.Flags().StringVarP(&reopenProject, "project", "p", "", "Reopen into this project instead")

	cmd.AddCommand(reopen)
	return cmd
}

// targetProject resolves an optional --project reference to an id
func targetProject(b *board.Board, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	p, err := findProject(b, ref)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// recordColor prefers the live project color over the captured one
func recordColor(b *board.Board, t model.Task, captured string) string {
	if c := b.ColorOf(t); c != "" {
		return c
	}
	return captured
}

func printBin(w io.Writer, b *board.Board, now time.Time) {
	recs := b.Deleted()
	fmt.Fprintf(w, "\n🗑️  Recycle bin (%d)\n", len(recs))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	if len(recs) == 0 {
		fmt.Fprintln(w, dim("  Nothing here"))
	}
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		fmt.Fprintf(w, "  %s %-8s  %-36s  %s\n", dot(recordColor(b, r.Task, r.ProjectColor)), shortID(r.Task.ID),
			r.Task.Title, dim(fmt.Sprintf("from %s, %s", r.OriginalContainer.Label(), tui.TimeAgo(r.DeletedAt, now))))
	}
	fmt.Fprintln(w)
}

func printCompleted(w io.Writer, b *board.Board, now time.Time) {
	recs := b.Completed()
	fmt.Fprintf(w, "\n✓ Completed (%d)\n", len(recs))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	if len(recs) == 0 {
		fmt.Fprintln(w, dim("  Nothing completed yet"))
	}
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		fmt.Fprintf(w, "  %s %-8s  %-36s  %s\n", dot(recordColor(b, r.Task, r.ProjectColor)), shortID(r.Task.ID),
			r.Task.Title, dim(tui.TimeAgo(r.CompletedAt, now)))
	}
	fmt.Fprintln(w)
}
