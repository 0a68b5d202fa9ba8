package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"plot-digitizer/internal/app"
	"plot-digitizer/internal/digitize"
	"plot-digitizer/internal/document"
	"plot-digitizer/internal/logging"
	"plot-digitizer/pkg/errors"
	"plot-digitizer/pkg/geometry"

	"github.com/spf13/cobra"
)

// parsePoint parses "x,y".
func parsePoint(s string) (geometry.Point2D, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point2D{}, errors.New(errors.ErrCodeInvalidInput, "point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point2D{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "point %q", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point2D{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "point %q", s)
	}
	return geometry.Point2D{X: x, Y: y}, nil
}

// axisSpec is one --axis flag: a pixel position and its declared graph value.
type axisSpec struct {
	screen, graph geometry.Point2D
}

// parseAxis parses "sx,sy=gx,gy".
func parseAxis(s string) (axisSpec, error) {
	screen, graph, ok := strings.Cut(s, "=")
	if !ok {
		return axisSpec{}, errors.New(errors.ErrCodeInvalidInput, "axis %q: want sx,sy=gx,gy", s)
	}
	var a axisSpec
	var err error
	if a.screen, err = parsePoint(screen); err != nil {
		return axisSpec{}, err
	}
	if a.graph, err = parsePoint(graph); err != nil {
		return axisSpec{}, err
	}
	return a, nil
}

func (c *CLI) importCommand() *cobra.Command {
	var (
		output string
		axes   []string
		points []string
		curve  string
		xScale string
		yScale string
	)

	cmd := &cobra.Command{
		Use:   "import <image>",
		Short: "Create a digitizer document from an image",
		Long: `Import an image into a new document. Calibration points are given as
--axis sx,sy=gx,gy (pixel position = graph value) and curve points as
--point sx,sy. Points are digitized in the order given, exactly as clicks
would be.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := make([]axisSpec, 0, len(axes))
			for _, s := range axes {
				a, err := parseAxis(s)
				if err != nil {
					return err
				}
				specs = append(specs, a)
			}
			coords := c.Config.Coords()
			if xScale != "" {
				s, err := document.ParseAxisScale(xScale)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "--x-scale")
				}
				coords.XScale = s
			}
			if yScale != "" {
				s, err := document.ParseAxisScale(yScale)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "--y-scale")
				}
				coords.YScale = s
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + document.Extension
			}
			return c.runImport(cmd.Context(), args[0], output, coords, specs, points, curve)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output document (default: image name with "+document.Extension+")")
	cmd.Flags().StringArrayVar(&axes, "axis", nil, "calibration point sx,sy=gx,gy (repeatable)")
	cmd.Flags().StringArrayVar(&points, "point", nil, "curve point sx,sy (repeatable)")
	cmd.Flags().StringVar(&curve, "curve", document.DefaultCurveName, "curve receiving --point")
	cmd.Flags().StringVar(&xScale, "x-scale", "", "x axis scale: linear or log")
	cmd.Flags().StringVar(&yScale, "y-scale", "", "y axis scale: linear or log")

	return cmd
}

func (c *CLI) runImport(ctx context.Context, image, output string, coords document.CoordSettings, axes []axisSpec, points []string, curve string) error {
	positions := make([]geometry.Point2D, 0, len(points))
	for _, p := range points {
		pos, err := parsePoint(p)
		if err != nil {
			return err
		}
		positions = append(positions, pos)
	}

	logger := logging.FromContext(ctx)
	pending := axes
	s, err := app.ImportImage(image,
		app.WithLogger(logger),
		app.WithDigits(c.Config.DisplayDigits),
		app.WithCoords(coords),
		app.WithAxisValue(func(geometry.Point2D) (geometry.Point2D, bool) {
			if len(pending) == 0 {
				return geometry.Point2D{}, false
			}
			v := pending[0].graph
			pending = pending[1:]
			return v, true
		}),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	d := s.Digitize()
	if len(positions) > 0 {
		if err := d.SelectCurve(curve); err != nil {
			return err
		}
	}

	err = c.guard(ctx, s, "import "+filepath.Base(image), func() error {
		for _, a := range axes {
			if _, err := d.Press(a.screen); err != nil {
				return errors.Wrap(errors.GetCode(err), err, "axis point %v", a.screen)
			}
		}
		d.SetMode(digitize.ModeCurve)
		for _, pos := range positions {
			if _, err := d.Press(pos); err != nil {
				return errors.Wrap(errors.GetCode(err), err, "curve point %v", pos)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.Save(output); err != nil {
		return err
	}

	doc := s.Document()
	printSuccess(c.out, "Wrote %s", output)
	printKeyValue(c.out, "image", fmt.Sprintf("%dx%d %s", doc.Image.Width, doc.Image.Height, doc.Image.Format))
	printKeyValue(c.out, "axes", len(doc.Axes))
	printKeyValue(c.out, "points", doc.NumPoints())
	printKeyValue(c.out, "transform", s.State())
	return nil
}

// guard runs fn against s. When fn fails or panics, the session is captured
// as an error report in the configured store before the error is returned.
func (c *CLI) guard(ctx context.Context, s *app.Session, what string, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New(errors.ErrCodeInternal, "%s: panic: %v", what, p)
		}
		if err != nil {
			c.storeErrorReport(ctx, s, what, err)
		}
	}()
	return fn()
}

// storeErrorReport saves the session's report. Failing to store it is logged
// and never replaces the original error.
func (c *CLI) storeErrorReport(ctx context.Context, s *app.Session, what string, cause error) {
	logger := logging.FromContext(ctx)
	r, err := s.CaptureErrorReport(what, errors.UserMessage(cause))
	if err != nil {
		logger.Error("cannot capture error report", "err", err)
		return
	}
	store, err := c.openStore(ctx)
	if err != nil {
		logger.Error("cannot open report store", "err", err)
		return
	}
	defer store.Close()
	if err := store.Put(ctx, r); err != nil {
		logger.Error("cannot store error report", "id", r.ID, "err", err)
		return
	}
	printWarning(c.out, "Error report %s stored", r.ID)
	printDetail(c.out, "replay with: %s replay --store %s", appName, r.ID)
}
