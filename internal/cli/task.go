package cli

import (
	"fmt"
	"strings"

	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/planner"
	"github.com/existflow/weekplan/internal/tui"
	"github.com/spf13/cobra"
)

func newEditCmd(a *app) *cobra.Command {
	var title, notes, project string
	cmd := &cobra.Command{
		Use:   "edit [task-id]",
		Short: "Edit a task's title, notes or project",
		Long: `Edit a task. Only the given flags are changed.

Examples:
  weekplan edit 3f2a --title "Write the report"
  weekplan edit 3f2a --notes "" -P home`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				b := rt.Board()
				t, err := findTask(b, args[0])
				if err != nil {
					return err
				}

				var patch model.TaskPatch
				flags := cmd.Flags()
				if flags.Changed("title") {
					patch.Title = &title
				}
				if flags.Changed("notes") {
					patch.Notes = &notes
				}
				if flags.Changed("project") {
					p, err := findProject(b, project)
					if err != nil {
						return err
					}
					patch.ProjectID = &p.ID
				}
				if patch == (model.TaskPatch{}) {
					return fmt.Errorf("nothing to change, use --title, --notes or --project")
				}

				if err := rt.EditTask(t.ID, patch); err != nil {
					return err
				}
				updated, _ := rt.Board().Task(t.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated %q\n", updated.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "New notes (markdown)")
	cmd.Flags().StringVarP(&project, "project", "P", "", "Move to this project")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	var before, project string
	cmd := &cobra.Command{
		Use:   "mv [task-id] [column]",
		Short: "Move a task to a column",
		Long: `Move a task to a column, at the end or before another task.

In master the task joins its project's run; --project moves it to another
project at the same time.

Examples:
  weekplan mv 3f2a monday
  weekplan mv 3f2a tuesday --before 9c1d
  weekplan mv 3f2a master -P home`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := model.ParseContainer(args[1])
			if err != nil {
				return err
			}
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				b := rt.Board()
				t, err := findTask(b, args[0])
				if err != nil {
					return err
				}
				m := model.Move{ItemID: t.ID, Source: t.Container, Target: target}
				if before != "" {
					anchor, err := findTask(b, before)
					if err != nil {
						return err
					}
					m.AnchorID = anchor.ID
				}
				if project != "" {
					p, err := findProject(b, project)
					if err != nil {
						return err
					}
					m.NewProjectID = p.ID
				}

				if !rt.Move(m) {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to move.")
					return nil
				}
				c, i, _ := rt.Board().Locate(t.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Moved %q to %s (position %d)\n", t.Title, c.Label(), i+1)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Place before this task")
	cmd.Flags().StringVarP(&project, "project", "P", "", "Also move to this project")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [task-id]",
		Short: "Show a task with its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				b := rt.Board()
				t, err := findTask(b, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				p, _ := b.Project(t.ProjectID)
				fmt.Fprintf(out, "%s %s\n", dot(p.Color), t.Title)
				fmt.Fprintf(out, "%s\n", dim(strings.Join([]string{
					"id " + t.ID, "project " + p.Title, "column " + t.Container.Label(),
				}, " · ")))
				fmt.Fprintln(out)
				fmt.Fprintln(out, tui.RenderMarkdown(t.Notes, 80))
				return nil
			})
		},
	}
}
