package document

import (
	"slices"

	"plot-digitizer/pkg/errors"
	"plot-digitizer/pkg/geometry"
)

// Point is a digitized point. PosScreen is authoritative; PosGraph is a cache
// derived from the current transformation and is only meaningful while
// GraphValid is set.
type Point struct {
	ID         string           `json:"id"`
	PosScreen  geometry.Point2D `json:"pos_screen"`
	PosGraph   geometry.Point2D `json:"pos_graph"`
	GraphValid bool             `json:"graph_valid,omitempty"`
}

// Curve is a named, ordered list of digitized points.
type Curve struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Clone returns a copy of the curve with its own point slice.
func (c Curve) Clone() Curve {
	c.Points = slices.Clone(c.Points)
	return c
}

// Equal compares name, order, identifiers and screen positions.
func (c Curve) Equal(other Curve) bool {
	if c.Name != other.Name {
		return false
	}
	return slices.EqualFunc(c.Points, other.Points, func(a, b Point) bool {
		return a.ID == b.ID && a.PosScreen == b.PosScreen
	})
}

// Index returns the position of the point with id, or -1.
func (c *Curve) Index(id string) int {
	return slices.IndexFunc(c.Points, func(p Point) bool { return p.ID == id })
}

// PointLocation identifies where a point lives in the document.
type PointLocation struct {
	Curve string `json:"curve"`
	Index int    `json:"index"`
}

// locate finds the curve and index of a graph point.
func (d *Document) locate(id string) (int, int, bool) {
	for ci := range d.Curves {
		if pi := d.Curves[ci].Index(id); pi >= 0 {
			return ci, pi, true
		}
	}
	return -1, -1, false
}

// Point returns the graph point with the given identifier.
func (d *Document) Point(id string) (Point, bool) {
	ci, pi, ok := d.locate(id)
	if !ok {
		return Point{}, false
	}
	return d.Curves[ci].Points[pi], true
}

// InsertPoint places a point at index in the named curve. An index past the
// end appends.
func (d *Document) InsertPoint(curve string, index int, p Point) error {
	if p.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "point has no identifier")
	}
	if d.HasIdentifier(p.ID) {
		return errors.New(errors.ErrCodeInvalidInput, "duplicate point identifier %s", p.ID)
	}
	c, ok := d.Curve(curve)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "curve %q not found", curve)
	}
	index = max(0, min(index, len(c.Points)))
	c.Points = slices.Insert(c.Points, index, p)
	return nil
}

// AddPoint appends a point to the named curve.
func (d *Document) AddPoint(curve string, p Point) error {
	c, ok := d.Curve(curve)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "curve %q not found", curve)
	}
	return d.InsertPoint(curve, len(c.Points), p)
}

// RemovePoint deletes a graph point and reports where it was.
func (d *Document) RemovePoint(id string) (Point, PointLocation, error) {
	ci, pi, ok := d.locate(id)
	if !ok {
		return Point{}, PointLocation{}, errors.New(errors.ErrCodeNotFound, "point %s not found", id)
	}
	c := &d.Curves[ci]
	p := c.Points[pi]
	c.Points = slices.Delete(c.Points, pi, pi+1)
	return p, PointLocation{Curve: c.Name, Index: pi}, nil
}

// MovePoint shifts the screen position of a graph or axis point by delta.
func (d *Document) MovePoint(id string, delta geometry.Point2D) error {
	if ci, pi, ok := d.locate(id); ok {
		p := &d.Curves[ci].Points[pi]
		p.PosScreen = p.PosScreen.Add(delta)
		return nil
	}
	if i := d.AxisIndex(id); i >= 0 {
		d.Axes[i].PosScreen = d.Axes[i].PosScreen.Add(delta)
		return nil
	}
	return errors.New(errors.ErrCodeNotFound, "point %s not found", id)
}
