package command

import (
	"slices"

	"plot-digitizer/internal/document"
	"plot-digitizer/pkg/errors"
)

// SettingsCoords changes the axis scales.
type SettingsCoords struct {
	Before document.CoordSettings `json:"before"`
	After  document.CoordSettings `json:"after"`
}

func NewSettingsCoords(doc *document.Document, after document.CoordSettings) *SettingsCoords {
	return &SettingsCoords{Before: doc.Coords, After: after}
}

func (c *SettingsCoords) Kind() Kind    { return KindSettingsCoords }
func (c *SettingsCoords) Label() string { return "Coordinate settings" }

func (c *SettingsCoords) Redo(doc *document.Document) error {
	doc.Coords = c.After
	return nil
}

func (c *SettingsCoords) Undo(doc *document.Document) error {
	doc.Coords = c.Before
	return nil
}

func (c *SettingsCoords) Record() (Record, error) { return newRecord(c, c) }

// SettingsFilter changes the background filter settings.
type SettingsFilter struct {
	Before document.FilterSettings `json:"before"`
	After  document.FilterSettings `json:"after"`
}

// NewSettingsFilter checks that the range is ordered and non-negative.
func NewSettingsFilter(doc *document.Document, after document.FilterSettings) (*SettingsFilter, error) {
	if after.Low < 0 || after.High < after.Low {
		return nil, errors.New(errors.ErrCodeInvalidInput, "filter range %d..%d is invalid", after.Low, after.High)
	}
	return &SettingsFilter{Before: doc.Filter, After: after}, nil
}

func (c *SettingsFilter) Kind() Kind    { return KindSettingsFilter }
func (c *SettingsFilter) Label() string { return "Filter settings" }

func (c *SettingsFilter) Redo(doc *document.Document) error {
	doc.Filter = c.After
	return nil
}

func (c *SettingsFilter) Undo(doc *document.Document) error {
	doc.Filter = c.Before
	return nil
}

func (c *SettingsFilter) Record() (Record, error) { return newRecord(c, c) }

// CurveEdit describes one curve in the desired curve list. From names the
// existing curve it continues (possibly under a new name); empty From creates
// an empty curve.
type CurveEdit struct {
	Name string
	From string
}

// SettingsCurves adds, renames, reorders and removes graph curves. Removed
// curves take their points with them.
type SettingsCurves struct {
	Before []document.Curve `json:"before"`
	After  []document.Curve `json:"after"`
}

// NewSettingsCurves builds the new curve list from edits.
func NewSettingsCurves(doc *document.Document, edits []CurveEdit) (*SettingsCurves, error) {
	if len(edits) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "at least one curve is required")
	}

	names := make(map[string]bool, len(edits))
	sources := make(map[string]bool, len(edits))
	after := make([]document.Curve, 0, len(edits))
	for _, e := range edits {
		if e.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "curve name is empty")
		}
		if names[e.Name] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate curve name %q", e.Name)
		}
		names[e.Name] = true

		if e.From == "" {
			after = append(after, document.Curve{Name: e.Name})
			continue
		}
		if sources[e.From] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "curve %q used twice", e.From)
		}
		sources[e.From] = true
		src, ok := doc.Curve(e.From)
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "curve %q not found", e.From)
		}
		curve := src.Clone()
		curve.Name = e.Name
		after = append(after, curve)
	}

	return &SettingsCurves{Before: cloneCurves(doc.Curves), After: after}, nil
}

func cloneCurves(curves []document.Curve) []document.Curve {
	out := slices.Clone(curves)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

func (c *SettingsCurves) Kind() Kind    { return KindSettingsCurves }
func (c *SettingsCurves) Label() string { return "Curve settings" }

func (c *SettingsCurves) Redo(doc *document.Document) error {
	doc.Curves = cloneCurves(c.After)
	return nil
}

func (c *SettingsCurves) Undo(doc *document.Document) error {
	doc.Curves = cloneCurves(c.Before)
	return nil
}

func (c *SettingsCurves) Record() (Record, error) { return newRecord(c, c) }

func (c *SettingsCurves) validate() error {
	if len(c.After) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one curve is required")
	}
	return nil
}
