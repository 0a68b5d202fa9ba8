package document

import (
	"slices"

	"plot-digitizer/pkg/errors"
	"plot-digitizer/pkg/geometry"
)

// AxisRole says which reference a calibration point stands for. Points past
// the first three are Extra and only refine the least-squares fit.
type AxisRole int

const (
	RoleOrigin AxisRole = iota
	RoleXAxis
	RoleYAxis
	RoleExtra
)

func (r AxisRole) String() string {
	switch r {
	case RoleOrigin:
		return "origin"
	case RoleXAxis:
		return "x-axis"
	case RoleYAxis:
		return "y-axis"
	default:
		return "extra"
	}
}

// CalibrationPoint ties a pixel position to a declared graph value.
type CalibrationPoint struct {
	ID        string           `json:"id"`
	Role      AxisRole         `json:"role"`
	PosScreen geometry.Point2D `json:"pos_screen"`
	PosGraph  geometry.Point2D `json:"pos_graph"`
}

// NextAxisRole returns the first of origin, x-axis and y-axis that no
// calibration point holds, or RoleExtra once all three are taken.
func (d *Document) NextAxisRole() AxisRole {
	for r := RoleOrigin; r < RoleExtra; r++ {
		if !slices.ContainsFunc(d.Axes, func(p CalibrationPoint) bool { return p.Role == r }) {
			return r
		}
	}
	return RoleExtra
}

// AxisIndex returns the slice index of the calibration point with id, or -1.
func (d *Document) AxisIndex(id string) int {
	return slices.IndexFunc(d.Axes, func(p CalibrationPoint) bool { return p.ID == id })
}

// AxisPoint returns the calibration point with the given id.
func (d *Document) AxisPoint(id string) (CalibrationPoint, bool) {
	i := d.AxisIndex(id)
	if i < 0 {
		return CalibrationPoint{}, false
	}
	return d.Axes[i], true
}

// InsertAxisPoint places p at index i (clamped to the valid range).
// Identifiers must stay unique across axis and curve points.
func (d *Document) InsertAxisPoint(i int, p CalibrationPoint) error {
	if p.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "calibration point has no identifier")
	}
	if d.HasIdentifier(p.ID) {
		return errors.New(errors.ErrCodeInvalidInput, "duplicate point identifier %s", p.ID)
	}
	i = max(0, min(i, len(d.Axes)))
	d.Axes = slices.Insert(d.Axes, i, p)
	return nil
}

// AddAxisPoint appends a calibration point.
func (d *Document) AddAxisPoint(p CalibrationPoint) error {
	return d.InsertAxisPoint(len(d.Axes), p)
}

// RemoveAxisPoint removes the calibration point with id and returns it
// together with its former index.
func (d *Document) RemoveAxisPoint(id string) (CalibrationPoint, int, error) {
	i := d.AxisIndex(id)
	if i < 0 {
		return CalibrationPoint{}, -1, errors.New(errors.ErrCodeNotFound, "calibration point %s not found", id)
	}
	p := d.Axes[i]
	d.Axes = slices.Delete(d.Axes, i, i+1)
	return p, i, nil
}

// SetAxisPoint replaces the screen and graph positions of an existing
// calibration point, keeping its identifier and role.
func (d *Document) SetAxisPoint(id string, screen, graph geometry.Point2D) error {
	i := d.AxisIndex(id)
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "calibration point %s not found", id)
	}
	d.Axes[i].PosScreen = screen
	d.Axes[i].PosGraph = graph
	return nil
}

// HasIdentifier reports whether any axis or curve point uses id.
func (d *Document) HasIdentifier(id string) bool {
	if d.AxisIndex(id) >= 0 {
		return true
	}
	_, _, ok := d.locate(id)
	return ok
}
