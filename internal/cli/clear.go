package cli

import (
	"fmt"

	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/planner"
	"github.com/spf13/cobra"
)

func newClearCmd(a *app) *cobra.Command {
	var remote, all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the local cache or/and the board on the server",
		Long: `Clear the local cache or/and the board on the sync server.
By default only the local cache is cleared: the next run pulls the board
from the server again, or starts from the sample board when local-only.

Examples:
  weekplan clear
  weekplan clear --remote -y
  weekplan clear --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			local := !remote || all
			if all {
				remote = true
			}
			if remote && a.cfg.ServerURL == "" {
				return fmt.Errorf("no server configured, set one with --server")
			}

			msg := "Clear the local cache?"
			if remote {
				msg = "Delete every project and task on the server?"
			}
			ok, err := a.confirm(cmd, msg)
			if err != nil || !ok {
				return err
			}

			out := cmd.OutOrStdout()
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				if remote {
					fmt.Fprintln(out, "🌐 Clearing remote data...")
					if err := rt.Client.Import(cmd.Context(), model.Snapshot{}); err != nil {
						return fmt.Errorf("failed to clear remote data: %w", err)
					}
					fmt.Fprintln(out, "Remote data cleared.")
				}
				if local {
					fmt.Fprintln(out, "🧹 Clearing local data...")
					if err := rt.ClearCache(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintln(out, "Local data cleared.")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Clear the board on the sync server")
	cmd.Flags().BoolVar(&all, "all", false, "Clear both local and remote data")
	addYesFlag(cmd)
	return cmd
}
