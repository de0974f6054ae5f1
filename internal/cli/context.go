package cli

import (
	"fmt"

	"github.com/existflow/weekplan/internal/planner"
	"github.com/spf13/cobra"
)

func newContextCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage the default project",
		Long: `Set or view the current project context.

When a context is set, new tasks are added to that project by default.

Examples:
  weekplan context              # Show current context
  weekplan context set work     # Add new tasks to 'work'
  weekplan context clear        # Use the first project again`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DefaultProject == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "📥 Current context: first project (default)")
				return nil
			}
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				b := rt.Board()
				p, ok := b.Project(a.cfg.DefaultProject)
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "⚠️  Context set to '%s' but project not found\n", a.cfg.DefaultProject)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "📁 Current context: %s (%d tasks)\n", p.Title, b.TaskCount(p.ID))
				return nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set [project]",
		Short: "Set the current project context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				p, err := findProject(rt.Board(), args[0])
				if err != nil {
					return err
				}
				a.cfg.DefaultProject = p.ID
				if err := a.cfg.SaveTo(a.cfgPath); err != nil {
					return fmt.Errorf("failed to set context: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "📁 Switched to: %s\n", p.Title)
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the current context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.DefaultProject = ""
			if err := a.cfg.SaveTo(a.cfgPath); err != nil {
				return fmt.Errorf("failed to clear context: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "📥 Context cleared")
			return nil
		},
	}

	cmd.AddCommand(set, clearCmd)
	return cmd
}
