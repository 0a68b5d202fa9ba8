// Package transform derives the pixel-to-graph mapping from calibration
// points and tracks whether that mapping is currently defined.
//
// The fit is affine in "fit space": for a linear axis the fitted value is the
// declared graph value, for a logarithmic axis it is its natural logarithm.
// Forward mapping exponentiates logarithmic axes back into graph space.
package transform

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"plot-digitizer/internal/document"
	"plot-digitizer/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// MinPoints is the number of calibration points needed for a defined transform.
const MinPoints = 3

const (
	// collinearTolerance bounds σmin/σmax of the centered pixel coordinates.
	collinearTolerance = 1e-9
	// singularTolerance bounds |det| relative to the row norms of the fitted
	// linear part (the sine of the angle between graph axes in pixel space).
	singularTolerance = 1e-9
)

// Transformation is the fitted pixel-to-graph mapping together with the
// calibration snapshot it was computed from. The zero value is undefined.
type Transformation struct {
	defined bool
	coords  document.CoordSettings
	affine  geometry.AffineTransform
	points  []document.CalibrationPoint
}

// Compute fits a transformation to the calibration points. It never fails:
// too few points, collinear pixels, non-positive values on a logarithmic axis,
// non-finite input or a singular fit all produce an undefined transformation.
func Compute(points []document.CalibrationPoint, coords document.CoordSettings) Transformation {
	t := Transformation{
		coords: coords,
		points: slices.Clone(points),
	}
	if len(points) < MinPoints {
		return t
	}

	src := make([]geometry.Point2D, len(points))
	dst := make([]geometry.Point2D, len(points))
	for i, p := range points {
		if !p.PosScreen.IsFinite() || !p.PosGraph.IsFinite() {
			return t
		}
		u, ok := toFitSpace(p.PosGraph.X, coords.XScale)
		if !ok {
			return t
		}
		v, ok := toFitSpace(p.PosGraph.Y, coords.YScale)
		if !ok {
			return t
		}
		src[i] = p.PosScreen
		dst[i] = geometry.Point2D{X: u, Y: v}
	}

	if collinear(src) {
		return t
	}

	var (
		affine geometry.AffineTransform
		err    error
	)
	if len(points) == MinPoints {
		affine, err = affineFromPoints(src, dst)
	} else {
		affine, err = affineLeastSquares(src, dst)
	}
	if err != nil || !affine.IsFinite() || singular(affine) {
		return t
	}

	t.affine = affine
	t.defined = true
	return t
}

func toFitSpace(v float64, scale document.AxisScale) (float64, bool) {
	if scale != document.ScaleLog {
		return v, true
	}
	if v <= 0 {
		return 0, false
	}
	return math.Log(v), true
}

func fromFitSpace(v float64, scale document.AxisScale) float64 {
	if scale == document.ScaleLog {
		return math.Exp(v)
	}
	return v
}

// collinear reports whether the pixel positions span less than two dimensions.
func collinear(src []geometry.Point2D) bool {
	c := geometry.Centroid(src)
	m := mat.NewDense(len(src), 2, nil)
	for i, p := range src {
		m.Set(i, 0, p.X-c.X)
		m.Set(i, 1, p.Y-c.Y)
	}

	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDNone) {
		return true
	}
	values := svd.Values(nil)
	if values[0] == 0 {
		return true
	}
	return values[len(values)-1]/values[0] < collinearTolerance
}

func singular(t geometry.AffineTransform) bool {
	row1 := math.Hypot(t.A, t.B)
	row2 := math.Hypot(t.C, t.D)
	if row1 == 0 || row2 == 0 {
		return true
	}
	return math.Abs(t.Det()) <= singularTolerance*row1*row2
}

// affineFromPoints computes an affine transform from exactly 3 point pairs.
func affineFromPoints(src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	if len(src) != 3 || len(dst) != 3 {
		return geometry.AffineTransform{}, fmt.Errorf("need exactly 3 points")
	}

	// [u, v] = [a, b, tx; c, d, ty] * [x, y, 1]
	A := mat.NewDense(6, 6, nil)
	B := mat.NewVecDense(6, nil)

	for i := 0; i < 3; i++ {
		x, y := src[i].X, src[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, dst[i].X)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, dst[i].Y)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return geometry.AffineTransform{}, err
	}

	return paramsToAffine(&params), nil
}

// affineLeastSquares fits an affine transform to n > 3 point pairs,
// minimizing the summed squared error in fit space.
func affineLeastSquares(src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	n := len(src)
	if n < 3 {
		return geometry.AffineTransform{}, fmt.Errorf("need at least 3 points")
	}

	A := mat.NewDense(n*2, 6, nil)
	B := mat.NewVecDense(n*2, nil)

	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, dst[i].X)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, dst[i].Y)
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return geometry.AffineTransform{}, err
	}

	return paramsToAffine(&params), nil
}

func paramsToAffine(params *mat.VecDense) geometry.AffineTransform {
	return geometry.AffineTransform{
		A:  params.AtVec(0),
		B:  params.AtVec(1),
		TX: params.AtVec(2),
		C:  params.AtVec(3),
		D:  params.AtVec(4),
		TY: params.AtVec(5),
	}
}

// IsDefined reports whether the calibration produced a usable mapping.
func (t Transformation) IsDefined() bool {
	return t.defined
}

// Coords returns the axis scales the transformation was fitted with.
func (t Transformation) Coords() document.CoordSettings {
	return t.coords
}

// Affine returns the fitted pixel-to-fit-space matrix.
func (t Transformation) Affine() geometry.AffineTransform {
	return t.affine
}

// CalibrationPoints returns the snapshot the transformation was computed from.
func (t Transformation) CalibrationPoints() []document.CalibrationPoint {
	return slices.Clone(t.points)
}

// Transform maps a pixel position into graph space. Callers must check
// IsDefined first; an undefined transformation returns pos unchanged.
func (t Transformation) Transform(pos geometry.Point2D) geometry.Point2D {
	if !t.defined {
		return pos
	}
	fit := t.affine.Apply(pos)
	return geometry.Point2D{
		X: fromFitSpace(fit.X, t.coords.XScale),
		Y: fromFitSpace(fit.Y, t.coords.YScale),
	}
}

// Resolution returns how much each graph coordinate changes per pixel of
// cursor movement at pos, taking the steepest pixel direction. Logarithmic
// axes scale with the local graph value.
func (t Transformation) Resolution(pos geometry.Point2D) geometry.Point2D {
	if !t.defined {
		return geometry.Point2D{}
	}
	res := geometry.Point2D{
		X: math.Hypot(t.affine.A, t.affine.B),
		Y: math.Hypot(t.affine.C, t.affine.D),
	}
	graph := t.Transform(pos)
	if t.coords.XScale == document.ScaleLog {
		res.X *= graph.X
	}
	if t.coords.YScale == document.ScaleLog {
		res.Y *= graph.Y
	}
	return res
}

// Equal compares two transformations by value. Undefined transformations are
// all equal to each other.
func (t Transformation) Equal(other Transformation) bool {
	if t.defined != other.defined {
		return false
	}
	if !t.defined {
		return true
	}
	return t.coords == other.coords && t.affine == other.affine
}

// CoordinateText formats the screen position, its graph position and the
// local resolution for a status readout. Graph and resolution text are empty
// while the transformation is undefined.
func (t Transformation) CoordinateText(pos geometry.Point2D, digits int) (screen, graph, resolution string) {
	screen = formatPair(pos, digits)
	if !t.defined {
		return screen, "", ""
	}
	return screen, formatPair(t.Transform(pos), digits), formatPair(t.Resolution(pos), digits)
}

func formatPair(p geometry.Point2D, digits int) string {
	return "(" + strconv.FormatFloat(p.X, 'g', digits, 64) + ", " +
		strconv.FormatFloat(p.Y, 'g', digits, 64) + ")"
}

// Residual is the mapping error at one calibration point.
type Residual struct {
	ID       string
	Role     document.AxisRole
	Declared geometry.Point2D
	Mapped   geometry.Point2D
	Error    float64
}

// Residuals reports, for every calibration point, the distance in graph space
// between its declared value and where the fit maps its pixel position.
// Returns nil while undefined.
func (t Transformation) Residuals() []Residual {
	if !t.defined {
		return nil
	}
	out := make([]Residual, len(t.points))
	for i, p := range t.points {
		mapped := t.Transform(p.PosScreen)
		out[i] = Residual{
			ID:       p.ID,
			Role:     p.Role,
			Declared: p.PosGraph,
			Mapped:   mapped,
			Error:    mapped.Distance(p.PosGraph),
		}
	}
	return out
}
