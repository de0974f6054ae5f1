package cli

import (
	"fmt"
	"strings"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/planner"
	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	var project, column, notes string
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a new task",
		Long: `Add a new task to a project, in master or in a day column.

Without --project the context project is used, then the first project.

Examples:
  weekplan add "Buy groceries"
  weekplan add "Write report" -P work -c monday
  weekplan add "Plan trip" --notes "- flights\n- hotel"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			container := model.Master
			if column != "" {
				c, err := model.ParseContainer(column)
				if err != nil {
					return err
				}
				container = c
			}

			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				b := rt.Board()
				p, err := a.targetProject(b, project)
				if err != nil {
					return err
				}
				t, err := rt.AddTask(model.NewTask{
					Title:     title,
					Notes:     notes,
					ProjectID: p.ID,
					Container: container,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Added to [%s] %s: %q (id: %s)\n",
					p.Title, container.Label(), t.Title, shortID(t.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&project, "project", "P", "", "Project title or id")
	cmd.Flags().StringVarP(&column, "column", "c", "", "Column (master, monday, ..., weekend)")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Notes (markdown)")
	return cmd
}

// targetProject picks the project for a new task: the flag, then the
// context project, then the first project
func (a *app) targetProject(b *board.Board, ref string) (model.Project, error) {
	if ref != "" {
		return findProject(b, ref)
	}
	if a.cfg.DefaultProject != "" {
		if p, ok := b.Project(a.cfg.DefaultProject); ok {
			return p, nil
		}
	}
	projects := b.Projects()
	if len(projects) == 0 {
		return model.Project{}, fmt.Errorf("no projects yet, create one with: weekplan project add <title>")
	}
	return projects[0], nil
}
