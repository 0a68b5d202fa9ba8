// Package document holds the digitizer's canonical data model: the imported
// image description, coordinate and filter settings, calibration (axis)
// points and the graph curves with their digitized points.
//
// Points are stored in ordered slices owned by their curve and are always
// cross-referenced by identifier, never by pointer, so commands can locate a
// point again after any number of intervening edits.
package document

import (
	"fmt"
	"slices"

	"plot-digitizer/pkg/geometry"
)

// DefaultCurveName is the name of the graph curve created for a new document.
const DefaultCurveName = "Curve1"

// AxisScale selects linear or logarithmic mapping for one graph axis.
type AxisScale int

const (
	ScaleLinear AxisScale = iota
	ScaleLog
)

func (s AxisScale) String() string {
	switch s {
	case ScaleLog:
		return "log"
	default:
		return "linear"
	}
}

// ParseAxisScale converts "linear" or "log" into an AxisScale.
func ParseAxisScale(s string) (AxisScale, error) {
	switch s {
	case "linear", "":
		return ScaleLinear, nil
	case "log", "logarithmic":
		return ScaleLog, nil
	default:
		return ScaleLinear, fmt.Errorf("unknown axis scale %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s AxisScale) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *AxisScale) UnmarshalText(text []byte) error {
	v, err := ParseAxisScale(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// CoordSettings holds the per-axis scale of the graph.
type CoordSettings struct {
	XScale AxisScale `json:"x_scale"`
	YScale AxisScale `json:"y_scale"`
}

// FilterParameter identifies which pixel property the background filter uses.
type FilterParameter int

const (
	FilterIntensity FilterParameter = iota
	FilterForeground
	FilterHue
	FilterSaturation
	FilterValue
)

var filterParameterNames = []string{"intensity", "foreground", "hue", "saturation", "value"}

func (f FilterParameter) String() string {
	if int(f) >= 0 && int(f) < len(filterParameterNames) {
		return filterParameterNames[f]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (f FilterParameter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FilterParameter) UnmarshalText(text []byte) error {
	i := slices.Index(filterParameterNames, string(text))
	if i < 0 {
		return fmt.Errorf("unknown filter parameter %q", text)
	}
	*f = FilterParameter(i)
	return nil
}

// FilterSettings describes how the background image is filtered. Only the
// settings live in the document; the filtering itself happens elsewhere.
type FilterSettings struct {
	Parameter FilterParameter `json:"parameter"`
	Low       int             `json:"low"`
	High      int             `json:"high"`
}

// DefaultFilterSettings returns the filter used for freshly imported images.
func DefaultFilterSettings() FilterSettings {
	return FilterSettings{Parameter: FilterIntensity, Low: 0, High: 50}
}

// ImageInfo describes the background image. Pixel data is owned by the image
// loader, not the document.
type ImageInfo struct {
	Path   string  `json:"path,omitempty"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Format string  `json:"format,omitempty"`
	DPI    float64 `json:"dpi,omitempty"`
}

// Document is the complete editable state of one digitizing session.
type Document struct {
	Image  ImageInfo          `json:"image"`
	Coords CoordSettings      `json:"coords"`
	Filter FilterSettings     `json:"filter"`
	Axes   []CalibrationPoint `json:"axes"`
	Curves []Curve            `json:"curves"`
}

// New creates an empty document for the given image with one default curve.
func New(img ImageInfo) *Document {
	return &Document{
		Image:  img,
		Filter: DefaultFilterSettings(),
		Curves: []Curve{{Name: DefaultCurveName}},
	}
}

// Clone returns a deep copy that shares no slices with d.
func (d *Document) Clone() *Document {
	c := *d
	c.Axes = slices.Clone(d.Axes)
	c.Curves = make([]Curve, len(d.Curves))
	for i, curve := range d.Curves {
		c.Curves[i] = curve.Clone()
	}
	return &c
}

// Equal compares two documents by their model fields. Cached graph positions
// of curve points are ignored since they are derived from the transformation.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.Image != other.Image || d.Coords != other.Coords || d.Filter != other.Filter {
		return false
	}
	if !slices.Equal(d.Axes, other.Axes) {
		return false
	}
	return slices.EqualFunc(d.Curves, other.Curves, func(a, b Curve) bool {
		return a.Equal(b)
	})
}

// ApplyTransformation overwrites the cached graph position of every curve
// point with fn applied to its screen position.
func (d *Document) ApplyTransformation(fn func(geometry.Point2D) geometry.Point2D) {
	for ci := range d.Curves {
		for pi := range d.Curves[ci].Points {
			p := &d.Curves[ci].Points[pi]
			p.PosGraph = fn(p.PosScreen)
			p.GraphValid = true
		}
	}
}

// ClearGraphPositions invalidates every cached graph position.
func (d *Document) ClearGraphPositions() {
	for ci := range d.Curves {
		for pi := range d.Curves[ci].Points {
			d.Curves[ci].Points[pi].PosGraph = geometry.Point2D{}
			d.Curves[ci].Points[pi].GraphValid = false
		}
	}
}

// CurveNames returns the graph curve names in display order.
func (d *Document) CurveNames() []string {
	names := make([]string, len(d.Curves))
	for i, c := range d.Curves {
		names[i] = c.Name
	}
	return names
}

// Curve returns the curve with the given name.
func (d *Document) Curve(name string) (*Curve, bool) {
	for i := range d.Curves {
		if d.Curves[i].Name == name {
			return &d.Curves[i], true
		}
	}
	return nil, false
}

// NumPoints returns the number of digitized graph points across all curves.
func (d *Document) NumPoints() int {
	n := 0
	for _, c := range d.Curves {
		n += len(c.Points)
	}
	return n
}
