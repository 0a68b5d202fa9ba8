package command

import (
	"slices"

	"plot-digitizer/internal/document"
	"plot-digitizer/pkg/errors"
	"plot-digitizer/pkg/geometry"
)

// AddPoint digitizes a point on a graph curve.
type AddPoint struct {
	Curve string         `json:"curve"`
	Index int            `json:"index"`
	Point document.Point `json:"point"`
}

// NewAddPoint appends a point at screen to the named curve.
func NewAddPoint(doc *document.Document, curve string, screen geometry.Point2D) (*AddPoint, error) {
	c, ok := doc.Curve(curve)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "curve %q not found", curve)
	}
	if !screen.IsFinite() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "point position is not finite")
	}
	return &AddPoint{
		Curve: curve,
		Index: len(c.Points),
		Point: document.Point{ID: newID(), PosScreen: screen},
	}, nil
}

func (c *AddPoint) Kind() Kind    { return KindAddPoint }
func (c *AddPoint) Label() string { return "Add point" }

func (c *AddPoint) Redo(doc *document.Document) error {
	return doc.InsertPoint(c.Curve, c.Index, c.Point)
}

func (c *AddPoint) Undo(doc *document.Document) error {
	_, _, err := doc.RemovePoint(c.Point.ID)
	return err
}

func (c *AddPoint) Record() (Record, error) { return newRecord(c, c) }

func (c *AddPoint) validate() error {
	if c.Point.ID == "" || c.Curve == "" {
		return errors.New(errors.ErrCodeInvalidInput, "point has no identifier or curve")
	}
	return nil
}

// MovePoints shifts axis and graph points by the same screen offset.
type MovePoints struct {
	IDs   []string         `json:"ids"`
	Delta geometry.Point2D `json:"delta"`
}

// NewMovePoints validates that every id names an existing point.
func NewMovePoints(doc *document.Document, ids []string, delta geometry.Point2D) (*MovePoints, error) {
	if len(ids) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no points to move")
	}
	if !delta.IsFinite() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "move offset is not finite")
	}
	for _, id := range ids {
		if !doc.HasIdentifier(id) {
			return nil, errors.New(errors.ErrCodeNotFound, "point %s not found", id)
		}
	}
	return &MovePoints{IDs: slices.Clone(ids), Delta: delta}, nil
}

func (c *MovePoints) Kind() Kind    { return KindMovePoints }
func (c *MovePoints) Label() string { return "Move" }

func (c *MovePoints) Redo(doc *document.Document) error {
	return move(doc, c.IDs, c.Delta)
}

func (c *MovePoints) Undo(doc *document.Document) error {
	return move(doc, c.IDs, c.Delta.Scale(-1))
}

func (c *MovePoints) Record() (Record, error) { return newRecord(c, c) }

func (c *MovePoints) validate() error {
	if len(c.IDs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no points to move")
	}
	return nil
}

// move applies delta to every point, backing out on the first failure.
func move(doc *document.Document, ids []string, delta geometry.Point2D) error {
	for i, id := range ids {
		if err := doc.MovePoint(id, delta); err != nil {
			for _, done := range ids[:i] {
				_ = doc.MovePoint(done, delta.Scale(-1))
			}
			return err
		}
	}
	return nil
}

// RemovedAxisPoint is a deleted calibration point and where it was.
type RemovedAxisPoint struct {
	Index int                       `json:"index"`
	Point document.CalibrationPoint `json:"point"`
}

// RemovedPoint is a deleted graph point and where it was.
type RemovedPoint struct {
	Curve string         `json:"curve"`
	Index int            `json:"index"`
	Point document.Point `json:"point"`
}

// DeletePoints removes axis and graph points. Undo puts each one back at its
// original index.
type DeletePoints struct {
	Axes   []RemovedAxisPoint `json:"axes,omitempty"`
	Points []RemovedPoint     `json:"points,omitempty"`
}

// NewDeletePoints captures the selected points in document order.
func NewDeletePoints(doc *document.Document, ids []string) (*DeletePoints, error) {
	if len(ids) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no points to delete")
	}
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !doc.HasIdentifier(id) {
			return nil, errors.New(errors.ErrCodeNotFound, "point %s not found", id)
		}
		selected[id] = true
	}

	c := &DeletePoints{}
	for i, p := range doc.Axes {
		if selected[p.ID] {
			c.Axes = append(c.Axes, RemovedAxisPoint{Index: i, Point: p})
		}
	}
	for _, curve := range doc.Curves {
		for i, p := range curve.Points {
			if selected[p.ID] {
				c.Points = append(c.Points, RemovedPoint{Curve: curve.Name, Index: i, Point: p})
			}
		}
	}
	return c, nil
}

func (c *DeletePoints) Kind() Kind    { return KindDeletePoints }
func (c *DeletePoints) Label() string { return "Delete" }

func (c *DeletePoints) Redo(doc *document.Document) error {
	for _, r := range c.Axes {
		if _, _, err := doc.RemoveAxisPoint(r.Point.ID); err != nil {
			return err
		}
	}
	for _, r := range c.Points {
		if _, _, err := doc.RemovePoint(r.Point.ID); err != nil {
			return err
		}
	}
	return nil
}

// Undo reinserts in ascending index order, so every earlier point is already
// back when a later index is used.
func (c *DeletePoints) Undo(doc *document.Document) error {
	for _, r := range c.Axes {
		if err := doc.InsertAxisPoint(r.Index, r.Point); err != nil {
			return err
		}
	}
	for _, r := range c.Points {
		if err := doc.InsertPoint(r.Curve, r.Index, r.Point); err != nil {
			return err
		}
	}
	return nil
}

func (c *DeletePoints) Record() (Record, error) { return newRecord(c, c) }

func (c *DeletePoints) validate() error {
	if len(c.Axes) == 0 && len(c.Points) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no points to delete")
	}
	return nil
}
