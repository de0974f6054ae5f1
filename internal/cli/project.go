package cli

import (
	"fmt"
	"strings"

	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/planner"
	"github.com/spf13/cobra"
)

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
		Long:  `Create, list, recolor, reorder and delete the projects that group tasks in master.`,
	}
	cmd.AddCommand(
		newProjectListCmd(a),
		newProjectAddCmd(a),
		newProjectEditCmd(a),
		newProjectMoveCmd(a),
		newProjectDeleteCmd(a),
	)
	return cmd
}

func paletteHelp() string {
	names := make([]string, len(model.Palette))
	for i, c := range model.Palette {
		names[i] = strings.ToLower(c.Name)
	}
	return strings.Join(names, ", ")
}

func newProjectListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				b := rt.Board()
				out := cmd.OutOrStdout()
				projects := b.Projects()
				if len(projects) == 0 {
					fmt.Fprintln(out, "No projects found.")
					return nil
				}

				fmt.Fprintln(out)
				fmt.Fprintf(out, "    %-10s  %-24s  %-8s  %s\n", "ID", "Title", "Color", "Tasks")
				fmt.Fprintln(out, strings.Repeat("─", 56))
				total := 0
				for _, p := range projects {
					n := b.TaskCount(p.ID)
					total += n
					marker := " "
					if p.ID == a.cfg.DefaultProject {
						marker = "❯"
					}
					fmt.Fprintf(out, "%s %s %-10s  %-24s  %-8s  %d\n", marker, dot(p.Color), shortID(p.ID), p.Title, model.ColorName(p.Color), n)
				}
				fmt.Fprintln(out, strings.Repeat("─", 56))
				fmt.Fprintf(out, "  %d projects, %d active tasks\n\n", len(projects), total)
				return nil
			})
		},
	}
}

func newProjectAddCmd(a *app) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:     "add [title]",
		Aliases: []string{"new"},
		Short:   "Create a new project",
		Long: `Create a new project. Colors come from a fixed palette:
` + paletteHelp() + `.

Examples:
  weekplan project add "Work"
  weekplan project add "Garden" --color green`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := model.ResolveColor(color)
			if !ok {
				return fmt.Errorf("unknown color %q, pick one of: %s", color, paletteHelp())
			}
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				p, err := rt.AddProject(strings.Join(args, " "), c)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Created project: %s (id: %s)\n", p.Title, shortID(p.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&color, "color", "c", "", "Project color name or hex value")
	return cmd
}

func newProjectEditCmd(a *app) *cobra.Command {
	var title, color string
	cmd := &cobra.Command{
		Use:   "edit [project]",
		Short: "Rename or recolor a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				p, err := findProject(rt.Board(), args[0])
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("title") {
					p.Title = title
				}
				if cmd.Flags().Changed("color") {
					c, ok := model.ResolveColor(color)
					if !ok {
						return fmt.Errorf("unknown color %q, pick one of: %s", color, paletteHelp())
					}
					p.Color = c
				}
				if err := rt.EditProject(p.ID, p.Title, p.Color); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated project: %s (%s)\n", p.Title, model.ColorName(p.Color))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&color, "color", "c", "", "New color")
	return cmd
}

func newProjectMoveCmd(a *app) *cobra.Command {
	var before string
	cmd := &cobra.Command{
		Use:   "mv [project]",
		Short: "Reorder a project",
		Long: `Move a project before another one, or to the end.

Examples:
  weekplan project mv home --before work
  weekplan project mv work`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				b := rt.Board()
				p, err := findProject(b, args[0])
				if err != nil {
					return err
				}
				m := model.Move{ItemID: p.ID, Source: model.Master, Target: model.Master}
				if before != "" {
					anchor, err := findProject(b, before)
					if err != nil {
						return err
					}
					m.AnchorID = anchor.ID
				}
				if !rt.Move(m) {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to move.")
					return nil
				}
				titles := []string{}
				for _, p := range rt.Board().Projects() {
					titles = append(titles, p.Title)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Project order: %s\n", strings.Join(titles, ", "))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Place before this project")
	return cmd
}

func newProjectDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete [project]",
		Aliases: []string{"rm"},
		Short:   "Delete a project without active tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				p, err := findProject(rt.Board(), args[0])
				if err != nil {
					return err
				}
				ok, err := a.confirm(cmd, fmt.Sprintf("Delete project %q?", p.Title))
				if err != nil || !ok {
					return err
				}
				if err := rt.DeleteProject(p.ID); err != nil {
					return err
				}
				if a.cfg.DefaultProject == p.ID {
					a.cfg.DefaultProject = ""
					if err := a.cfg.SaveTo(a.cfgPath); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted project: %s\n", p.Title)
				return nil
			})
		},
	}
	addYesFlag(cmd)
	return cmd
}
