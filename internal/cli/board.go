package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/planner"
	"github.com/spf13/cobra"
)

func newBoardCmd(a *app) *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:     "board",
		Aliases: []string{"ls", "list"},
		Short:   "Print the board",
		Long: `Print every column of the board, or a single one.

Examples:
  weekplan board
  weekplan ls -c monday`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printBoard(cmd, column)
		},
	}
	cmd.Flags().StringVarP(&column, "column", "c", "", "Only print this column")
	return cmd
}

func (a *app) printBoard(cmd *cobra.Command, column string) error {
	cols := model.Containers()
	if column != "" {
		c, err := model.ParseContainer(column)
		if err != nil {
			return err
		}
		cols = []model.Container{c}
	}
	return a.withRuntime(cmd, func(rt *planner.Runtime) error {
		b := rt.Board()
		out := cmd.OutOrStdout()
		for _, c := range cols {
			printColumn(out, b, c)
		}
		return nil
	})
}

func printColumn(w io.Writer, b *board.Board, c model.Container) {
	tasks := b.Tasks(c)
	fmt.Fprintf(w, "\n%s (%d)\n", strings.ToUpper(c.Label()), len(tasks))
	fmt.Fprintln(w, strings.Repeat("─", 50))

	if c == model.Master {
		for _, it := range b.MasterItems() {
			if it.Kind == model.ItemProject {
				p := it.Project
				fmt.Fprintf(w, "%s %s  %s\n", dot(p.Color), p.Title, dim(fmt.Sprintf("[%s]", shortID(p.ID))))
				continue
			}
			printTask(w, b, *it.Task, "    ")
		}
		return
	}

	if len(tasks) == 0 {
		fmt.Fprintln(w, dim("  (empty)"))
	}
	for _, t := range tasks {
		printTask(w, b, t, "  ")
	}
}

func printTask(w io.Writer, b *board.Board, t model.Task, indent string) {
	title := t.Title
	if t.Notes != "" {
		title += " ✎"
	}
	fmt.Fprintf(w, "%s%s %-8s  %s\n", indent, dot(b.ColorOf(t)), shortID(t.ID), title)
}

func dot(color string) string {
	if color == "" {
		return "●"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}

func dim(s string) string {
	return lipgloss.NewStyle().Faint(true).Render(s)
}
