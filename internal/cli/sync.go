package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/planner"
	"github.com/existflow/weekplan/internal/tui"
	"github.com/spf13/cobra"
)

func newSyncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the board with the server",
		Long: `Pull the board from the server, replacing the local copy.

Commands:
  weekplan sync                  # Pull now
  weekplan sync status           # Show server and last sync
  weekplan sync export -o b.json # Save the board as JSON
  weekplan sync import b.json    # Replace the board with a JSON file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.ServerURL == "" {
				return fmt.Errorf("no server configured, set one with --server")
			}
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				fmt.Fprintln(cmd.OutOrStdout(), "🔄 Syncing...")
				if err := rt.Resync(cmd.Context()); err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
				snap := rt.Board().Snapshot()
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Pulled %d projects, %d active tasks\n",
					len(snap.ProjectDefinitions), snap.TaskCount())
				return nil
			})
		},
	}
	cmd.AddCommand(newSyncStatusCmd(a), newSyncExportCmd(a), newSyncImportCmd(a))
	return cmd
}

func newSyncStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if a.cfg.ServerURL == "" {
				fmt.Fprintln(out, "Mode:      local only")
			} else {
				fmt.Fprintf(out, "Server:    %s\n", a.cfg.ServerURL)
				client, _ := a.client()
				if err := client.Health(cmd.Context()); err != nil {
					fmt.Fprintf(out, "Health:    unreachable (%v)\n", err)
				} else {
					fmt.Fprintln(out, "Health:    ok")
				}
			}
			fmt.Fprintf(out, "Cache:     %s\n", a.cfg.DBPath)

			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				last, ok, err := rt.LastSync(cmd.Context())
				switch {
				case err != nil:
					return err
				case !ok:
					fmt.Fprintln(out, "Last sync: never")
				default:
					fmt.Fprintf(out, "Last sync: %s (%s)\n", last.Local().Format(time.RFC1123), tui.TimeAgo(last, time.Now()))
				}
				return nil
			})
		},
	}
}

func newSyncExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the board as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				return writeJSON(cmd.OutOrStdout(), output, rt.Board().Snapshot())
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newSyncImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the whole board with a JSON snapshot",
		Long: `Replace the whole board, on the server when one is configured, with the
contents of a JSON snapshot such as one written by 'weekplan sync export'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}
			var snap model.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("failed to parse snapshot: %w", err)
			}

			ok, err := a.confirm(cmd, fmt.Sprintf("Replace the board with %d projects and %d tasks?",
				len(snap.ProjectDefinitions), snap.TaskCount()))
			if err != nil || !ok {
				return err
			}

			return a.withRuntime(cmd, func(rt *planner.Runtime) error {
				if rt.Client == nil {
					rt.Replace(snap)
				} else {
					if err := rt.Client.Import(cmd.Context(), snap); err != nil {
						return fmt.Errorf("import failed: %w", err)
					}
					if err := rt.Resync(cmd.Context()); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d projects, %d active tasks\n",
					len(rt.Board().Projects()), rt.Board().Snapshot().TaskCount())
				return nil
			})
		},
	}
	addYesFlag(cmd)
	return cmd
}

// writeJSON writes v indented to path, or to w when path is empty
func writeJSON(w io.Writer, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(w, "✓ Wrote %s\n", path)
	return nil
}
