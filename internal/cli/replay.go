package cli

import (
	"context"

	"plot-digitizer/internal/app"
	"plot-digitizer/internal/logging"
	"plot-digitizer/internal/report"
	"plot-digitizer/internal/shadow"

	"github.com/spf13/cobra"
)

func (c *CLI) replayCommand() *cobra.Command {
	var (
		fromStore bool
		steps     int
		output    string
	)

	cmd := &cobra.Command{
		Use:   "replay <report>",
		Short: "Replay the command journal of an error report",
		Long: `Open an error report, replay its journal onto the original document and
print the result. The argument is a report file, or a report ID with --store.
With --steps N only the first N journal entries are replayed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.loadReport(cmd.Context(), args[0], fromStore)
			if err != nil {
				return err
			}
			return c.runReplay(cmd.Context(), r, steps, output)
		},
	}

	cmd.Flags().BoolVar(&fromStore, "store", false, "load the report by ID from the configured store")
	cmd.Flags().IntVar(&steps, "steps", -1, "replay only the first N journal entries")
	cmd.Flags().StringVarP(&output, "output", "o", "", "save the replayed document")
	return cmd
}

func (c *CLI) loadReport(ctx context.Context, ref string, fromStore bool) (*report.Report, error) {
	if !fromStore {
		return report.ReadFile(ref)
	}
	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Get(ctx, ref)
}

func (c *CLI) runReplay(ctx context.Context, r *report.Report, steps int, output string) error {
	s, err := app.OpenErrorReport(r,
		app.WithLogger(logging.FromContext(ctx)),
		app.WithDigits(c.Config.DisplayDigits))
	if err != nil {
		return err
	}
	defer s.Close()

	printTitle(c.out, "Report %s", r.ID)
	printKeyValue(c.out, "created", r.Created.Format("2006-01-02 15:04:05"))
	printKeyValue(c.out, "application", r.Application)
	printKeyValue(c.out, "platform", r.Environment.OS+"/"+r.Environment.Arch+" "+r.Environment.Endian)
	printKeyValue(c.out, "context", r.Error.Context)
	if r.Error.Comment != "" {
		printKeyValue(c.out, "comment", r.Error.Comment)
	}

	total := s.ReplayRemaining()
	if steps < 0 || steps > total {
		steps = total
	}
	for i := 0; i < steps; i++ {
		if err := s.ReplayStep(); err != nil {
			return err
		}
	}
	printSuccess(c.out, "Replayed %d of %d journal entries", steps, total)

	m := s.Mediator()
	for i, cmd := range m.Commands() {
		marker := " "
		if i < m.Index() {
			marker = "*"
		}
		printDetail(c.out, "%s %2d %s", marker, i+1, cmd.Label())
	}

	doc := s.Document()
	printKeyValue(c.out, "axes", len(doc.Axes))
	printKeyValue(c.out, "points", doc.NumPoints())
	printKeyValue(c.out, "transform", s.State())

	if output == "" {
		return nil
	}
	if err := s.Save(output); err != nil {
		return err
	}
	printSuccess(c.out, "Wrote %s", output)
	return nil
}

// journalSummary counts journal entries by operation.
func journalSummary(l shadow.Log) (push, undo, redo int) {
	for _, e := range l.Entries {
		switch e.Op {
		case shadow.OpPush:
			push++
		case shadow.OpUndo:
			undo++
		case shadow.OpRedo:
			redo++
		}
	}
	return push, undo, redo
}
