package command

import (
	"plot-digitizer/internal/document"
	"plot-digitizer/pkg/errors"
	"plot-digitizer/pkg/geometry"
)

// AddAxisPoint adds a calibration point.
type AddAxisPoint struct {
	Point document.CalibrationPoint `json:"point"`
	Index int                       `json:"index"`
}

// NewAddAxisPoint creates a calibration point at screen declaring graph,
// appended after the existing ones with the first free role.
func NewAddAxisPoint(doc *document.Document, screen, graph geometry.Point2D) (*AddAxisPoint, error) {
	if !screen.IsFinite() || !graph.IsFinite() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "axis point position is not finite")
	}
	return &AddAxisPoint{
		Point: document.CalibrationPoint{
			ID:        newID(),
			Role:      doc.NextAxisRole(),
			PosScreen: screen,
			PosGraph:  graph,
		},
		Index: len(doc.Axes),
	}, nil
}

func (c *AddAxisPoint) Kind() Kind    { return KindAddAxisPoint }
func (c *AddAxisPoint) Label() string { return "Add axis point" }

func (c *AddAxisPoint) Redo(doc *document.Document) error {
	return doc.InsertAxisPoint(c.Index, c.Point)
}

func (c *AddAxisPoint) Undo(doc *document.Document) error {
	_, _, err := doc.RemoveAxisPoint(c.Point.ID)
	return err
}

func (c *AddAxisPoint) Record() (Record, error) { return newRecord(c, c) }

func (c *AddAxisPoint) validate() error {
	if c.Point.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "axis point has no identifier")
	}
	return nil
}

// AxisPosition is the editable part of a calibration point.
type AxisPosition struct {
	Screen geometry.Point2D `json:"screen"`
	Graph  geometry.Point2D `json:"graph"`
}

// EditAxisPoint changes where a calibration point sits and what it declares.
type EditAxisPoint struct {
	ID     string       `json:"id"`
	Before AxisPosition `json:"before"`
	After  AxisPosition `json:"after"`
}

// NewEditAxisPoint captures the current position of axis point id.
func NewEditAxisPoint(doc *document.Document, id string, screen, graph geometry.Point2D) (*EditAxisPoint, error) {
	p, ok := doc.AxisPoint(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "calibration point %s not found", id)
	}
	if !screen.IsFinite() || !graph.IsFinite() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "axis point position is not finite")
	}
	return &EditAxisPoint{
		ID:     id,
		Before: AxisPosition{Screen: p.PosScreen, Graph: p.PosGraph},
		After:  AxisPosition{Screen: screen, Graph: graph},
	}, nil
}

func (c *EditAxisPoint) Kind() Kind    { return KindEditAxisPoint }
func (c *EditAxisPoint) Label() string { return "Edit axis point" }

func (c *EditAxisPoint) Redo(doc *document.Document) error {
	return doc.SetAxisPoint(c.ID, c.After.Screen, c.After.Graph)
}

func (c *EditAxisPoint) Undo(doc *document.Document) error {
	return doc.SetAxisPoint(c.ID, c.Before.Screen, c.Before.Graph)
}

func (c *EditAxisPoint) Record() (Record, error) { return newRecord(c, c) }

func (c *EditAxisPoint) validate() error {
	if c.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "axis point has no identifier")
	}
	return nil
}
