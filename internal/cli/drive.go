package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/existflow/weekplan/internal/gdrive"
	"github.com/existflow/weekplan/internal/tui"
	"github.com/spf13/cobra"
)

func newDriveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Google Drive change reports (runs on the server)",
		Long: `Ask the server to scan its shared Google Drive for recent changes, or
export a report of the files changed in a lookback window.

Examples:
  weekplan drive scan --hours 24
  weekplan drive export -o drive.json
  weekplan drive history`,
	}

	var hours, limit int
	var output string

	scan := &cobra.Command{
		Use:   "scan",
		Short: "Scan for added, modified and deleted files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			cs, err := client.ScanDrive(cmd.Context(), hours)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			printChangeSet(cmd.OutOrStdout(), cs)
			return nil
		},
	}
	scan.Flags().IntVar(&hours, "hours", 0, "Lookback window in hours (server default when 0)")

	export := &cobra.Command{
		Use:   "export",
		Short: "Export the change report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			doc, err := client.ExportDrive(cmd.Context(), hours)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), output, doc)
		},
	}
	export.Flags().IntVar(&hours, "hours", 0, "Lookback window in hours (server default when 0)")
	export.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	history := &cobra.Command{
		Use:   "history",
		Short: "Show recent scans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			logs, err := client.DriveScans(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(logs) == 0 {
				fmt.Fprintln(out, "No scans yet.")
				return nil
			}
			now := time.Now()
			for _, l := range logs {
				status := l.Status
				if l.Error != "" {
					status += ": " + l.Error
				}
				fmt.Fprintf(out, "#%-4d %-16s %3dh  %4d files  %3d changes  %s\n",
					l.ID, tui.TimeAgo(l.ScannedAt, now), l.LookbackHours, l.FilesScanned, l.ChangesDetected, status)
			}
			return nil
		},
	}
	history.Flags().IntVar(&limit, "limit", 10, "Number of scans to show")

	cmd.AddCommand(scan, export, history)
	return cmd
}

func printChangeSet(w io.Writer, cs gdrive.ChangeSet) {
	fmt.Fprintf(w, "✓ Scanned %d files, %d change(s)\n", cs.FilesScanned, cs.ChangesDetected)
	for _, group := range []struct {
		label string
		ids   []string
	}{
		{"added", cs.Changes.Added},
		{"modified", cs.Changes.Modified},
		{"deleted", cs.Changes.Deleted},
	} {
		if len(group.ids) == 0 {
			continue
		}
		ids := append([]string(nil), group.ids...)
		sort.Strings(ids)
		fmt.Fprintf(w, "  %-9s %s\n", group.label+":", strings.Join(ids, ", "))
	}
}
