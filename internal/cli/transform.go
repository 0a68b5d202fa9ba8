package cli

import (
	"fmt"
	"io"
	"math"

	"plot-digitizer/internal/app"
	"plot-digitizer/internal/logging"
	"plot-digitizer/internal/transform"

	"github.com/spf13/cobra"
)

func (c *CLI) transformCommand() *cobra.Command {
	var at []string

	cmd := &cobra.Command{
		Use:   "transform <document>",
		Short: "Show the calibration fit of a document",
		Long: `Compute the pixel-to-graph transformation of a saved document and print
the fitted parameters with per-point residuals. Use --at sx,sy to map pixel
positions through the fit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.OpenDocument(args[0],
				app.WithLogger(logging.FromContext(cmd.Context())),
				app.WithDigits(c.Config.DisplayDigits))
			if err != nil {
				return err
			}
			defer s.Close()

			t := s.Transformation()
			printTitle(c.out, "Transformation of %s", args[0])
			if !t.IsDefined() {
				printWarning(c.out, "Undefined: %d calibration point(s), need %d non-collinear",
					len(s.Document().Axes), transform.MinPoints)
				return nil
			}
			printTransform(c.out, t)
			printResiduals(c.out, t.Residuals())

			for _, p := range at {
				pos, err := parsePoint(p)
				if err != nil {
					return err
				}
				screen, graph, res := s.CoordinateText(pos)
				printInfo(c.out, "%s → %s  resolution %s", screen, graph, res)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&at, "at", nil, "map pixel position sx,sy (repeatable)")
	return cmd
}

func printTransform(w io.Writer, t transform.Transformation) {
	a := t.Affine()
	coords := t.Coords()
	angle := math.Atan2(a.C, a.A) * 180 / math.Pi

	printKeyValue(w, "x scale", coords.XScale)
	printKeyValue(w, "y scale", coords.YScale)
	printKeyValue(w, "matrix", fmt.Sprintf("[%.6g %.6g; %.6g %.6g]", a.A, a.B, a.C, a.D))
	printKeyValue(w, "translation", fmt.Sprintf("(%.6g, %.6g)", a.TX, a.TY))
	printKeyValue(w, "rotation", fmt.Sprintf("%.4f°", angle))
}

func printResiduals(w io.Writer, residuals []transform.Residual) {
	if len(residuals) == 0 {
		return
	}
	fmt.Fprintf(w, "\nPer-point residuals:\n")
	var worst float64
	for _, r := range residuals {
		fmt.Fprintf(w, "  %-6s declared=(%g, %g) mapped=(%.6g, %.6g)  err=%.3g\n",
			r.Role, r.Declared.X, r.Declared.Y, r.Mapped.X, r.Mapped.Y, r.Error)
		worst = max(worst, r.Error)
	}
	printDetail(w, "max error %.3g", worst)
}
