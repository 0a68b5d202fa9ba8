package cli

import (
	"fmt"
	"strconv"

	"plot-digitizer/internal/logging"
	"plot-digitizer/internal/report"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func (c *CLI) reportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Manage stored error reports",
	}

	cmd.AddCommand(c.reportsListCommand())
	cmd.AddCommand(c.reportsShowCommand())
	cmd.AddCommand(c.reportsPutCommand())

	return cmd
}

func (c *CLI) reportsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo(c.out, "No reports stored")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, s := range list {
				rows = append(rows, []string{s.ID, s.Created.Format("2006-01-02 15:04"), strconv.Itoa(s.Commands), s.Context})
			}
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("ID", "Created", "Commands", "Context").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return styleHeader
					}
					return styleCell
				})
			fmt.Fprintln(c.out, t.Render())
			return nil
		},
	}
}

func (c *CLI) reportsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.loadReport(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			push, undo, redo := journalSummary(r.Log)
			logging.FromContext(cmd.Context()).Debug("report loaded", "id", r.ID, "push", push, "undo", undo, "redo", redo)
			return r.Write(c.out)
		},
	}
}

func (c *CLI) reportsPutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put <file>",
		Short: "Add a report file to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := report.ReadFile(args[0])
			if err != nil {
				return err
			}
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Put(cmd.Context(), r); err != nil {
				return err
			}
			push, undo, redo := journalSummary(r.Log)
			printSuccess(c.out, "Stored report %s", r.ID)
			printDetail(c.out, "%d push, %d undo, %d redo", push, undo, redo)
			return nil
		},
	}
}
