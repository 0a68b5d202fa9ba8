// Package digitize turns pointer interaction into commands. The active mode
// decides what a press does; the resulting command goes to the target's undo
// stack.
package digitize

import (
	"math"
	"slices"

	"plot-digitizer/internal/command"
	"plot-digitizer/internal/document"
	"plot-digitizer/internal/logging"
	"plot-digitizer/pkg/errors"
	"plot-digitizer/pkg/geometry"

	"github.com/charmbracelet/log"
)

// Mode is the active digitizing tool.
type Mode int

const (
	ModeSelect Mode = iota
	ModeAxis
	ModeCurve
	ModePointMatch
	ModeSegment
)

var modeNames = []string{"select", "axis", "curve", "point-match", "segment"}

func (m Mode) String() string {
	if int(m) >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode converts a mode name.
func ParseMode(s string) (Mode, error) {
	i := slices.Index(modeNames, s)
	if i < 0 {
		return ModeSelect, errors.New(errors.ErrCodeInvalidInput, "unknown digitize mode %q", s)
	}
	return Mode(i), nil
}

// Target receives commands. The mediator and the session implement it.
type Target interface {
	Document() *document.Document
	Push(cmd command.Command) error
}

// AxisValueFunc asks the user for the graph value of a new calibration point
// at screen. Returning false cancels the point.
type AxisValueFunc func(screen geometry.Point2D) (geometry.Point2D, bool)

// Option configures a Context.
type Option func(*Context)

// WithAxisValue sets the prompt used in axis mode.
func WithAxisValue(fn AxisValueFunc) Option {
	return func(c *Context) { c.axisValue = fn }
}

// WithTransformDefined sets how copy and cut learn whether graph
// coordinates are available.
func WithTransformDefined(fn func() bool) Option {
	return func(c *Context) { c.transformDefined = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// Context is the digitize state machine for one document.
type Context struct {
	target Target
	mode   Mode
	curve  string

	selection []string
	pressed   bool
	pressAt   geometry.Point2D

	axisValue        AxisValueFunc
	transformDefined func() bool
	logger           *log.Logger
}

// New starts in select mode on the first curve of the target's document.
func New(target Target, opts ...Option) *Context {
	c := &Context{
		target:           target,
		transformDefined: func() bool { return false },
		logger:           logging.Discard(),
	}
	if names := target.Document().CurveNames(); len(names) > 0 {
		c.curve = names[0]
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Mode() Mode { return c.mode }

// SetMode switches tools, abandoning any drag in progress.
func (c *Context) SetMode(m Mode) {
	if m == c.mode {
		return
	}
	c.logger.Debug("digitize mode", "from", c.mode, "to", m)
	c.mode = m
	c.pressed = false
}

// Curve returns the curve new points are added to.
func (c *Context) Curve() string { return c.curve }

// SelectCurve chooses the curve new points are added to.
func (c *Context) SelectCurve(name string) error {
	if _, ok := c.target.Document().Curve(name); !ok {
		return errors.New(errors.ErrCodeNotFound, "curve %q not found", name)
	}
	c.curve = name
	return nil
}

// Sync follows document changes made by commands: a curve that no longer
// exists falls back to the first curve, and vanished points leave the
// selection.
func (c *Context) Sync() {
	doc := c.target.Document()
	if _, ok := doc.Curve(c.curve); !ok {
		prev := c.curve
		c.curve = ""
		if names := doc.CurveNames(); len(names) > 0 {
			c.curve = names[0]
		}
		c.logger.Debug("digitize curve reset", "from", prev, "to", c.curve)
	}
	c.selection = slices.DeleteFunc(c.selection, func(id string) bool {
		return !doc.HasIdentifier(id)
	})
}

// Selection returns the selected point identifiers.
func (c *Context) Selection() []string {
	return slices.Clone(c.selection)
}

// Select replaces the selection, dropping identifiers that no longer exist.
func (c *Context) Select(ids ...string) {
	doc := c.target.Document()
	c.selection = c.selection[:0]
	for _, id := range ids {
		if doc.HasIdentifier(id) && !slices.Contains(c.selection, id) {
			c.selection = append(c.selection, id)
		}
	}
}

// Press handles a button press at pos and returns the command it pushed, if
// any.
func (c *Context) Press(pos geometry.Point2D) (command.Command, error) {
	doc := c.target.Document()
	switch c.mode {
	case ModeAxis:
		if c.axisValue == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "axis mode has no value prompt")
		}
		graph, ok := c.axisValue(pos)
		if !ok {
			return nil, nil
		}
		cmd, err := command.NewAddAxisPoint(doc, pos, graph)
		if err != nil {
			return nil, err
		}
		return c.push(cmd)

	case ModeCurve, ModePointMatch, ModeSegment:
		cmd, err := command.NewAddPoint(doc, c.curve, pos)
		if err != nil {
			return nil, err
		}
		return c.push(cmd)

	default:
		c.pressed = true
		c.pressAt = pos
		if id, ok := Nearest(doc, pos, PickRadius); ok && !slices.Contains(c.selection, id) {
			c.selection = []string{id}
		}
		return nil, nil
	}
}

// Release ends a press. In select mode a drag moves the selection.
func (c *Context) Release(pos geometry.Point2D) (command.Command, error) {
	if c.mode != ModeSelect || !c.pressed {
		return nil, nil
	}
	c.pressed = false

	delta := pos.Sub(c.pressAt)
	if delta == (geometry.Point2D{}) || len(c.selection) == 0 {
		return nil, nil
	}
	cmd, err := command.NewMovePoints(c.target.Document(), c.selection, delta)
	if err != nil {
		return nil, err
	}
	return c.push(cmd)
}

// Copy exports the given points, or the selection when ids is empty.
func (c *Context) Copy(ids ...string) (command.Command, error) {
	cmd, err := command.NewCopy(c.target.Document(), c.pick(ids), c.transformDefined())
	if err != nil {
		return nil, err
	}
	return c.push(cmd)
}

// Cut exports and deletes the given points, or the selection.
func (c *Context) Cut(ids ...string) (command.Command, error) {
	cmd, err := command.NewCut(c.target.Document(), c.pick(ids), c.transformDefined())
	if err != nil {
		return nil, err
	}
	if _, err := c.push(cmd); err != nil {
		return nil, err
	}
	c.selection = nil
	return cmd, nil
}

// Delete removes the given points, or the selection.
func (c *Context) Delete(ids ...string) (command.Command, error) {
	cmd, err := command.NewDeletePoints(c.target.Document(), c.pick(ids))
	if err != nil {
		return nil, err
	}
	if _, err := c.push(cmd); err != nil {
		return nil, err
	}
	c.selection = nil
	return cmd, nil
}

func (c *Context) pick(ids []string) []string {
	if len(ids) > 0 {
		return ids
	}
	return c.selection
}

func (c *Context) push(cmd command.Command) (command.Command, error) {
	if err := c.target.Push(cmd); err != nil {
		return nil, err
	}
	c.logger.Debug("digitize", "mode", c.mode, "command", cmd.Kind())
	return cmd, nil
}

// PickRadius is how close, in pixels, a press must be to select a point.
const PickRadius = 5.0

// Nearest returns the axis or graph point closest to pos within radius.
func Nearest(doc *document.Document, pos geometry.Point2D, radius float64) (string, bool) {
	best, bestDist := "", math.Inf(1)
	consider := func(id string, p geometry.Point2D) {
		if d := p.Distance(pos); d <= radius && d < bestDist {
			best, bestDist = id, d
		}
	}
	for _, a := range doc.Axes {
		consider(a.ID, a.PosScreen)
	}
	for _, curve := range doc.Curves {
		for _, p := range curve.Points {
			consider(p.ID, p.PosScreen)
		}
	}
	return best, best != ""
}
