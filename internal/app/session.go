// Package app ties one open document to its undo stack, shadow journal,
// transformation and digitize state. A Session is created per document and
// torn down with Close; nothing is global.
package app

import (
	"runtime"
	"strings"
	"sync"

	"plot-digitizer/internal/command"
	"plot-digitizer/internal/digitize"
	"plot-digitizer/internal/document"
	"plot-digitizer/internal/image"
	"plot-digitizer/internal/logging"
	"plot-digitizer/internal/mediator"
	"plot-digitizer/internal/report"
	"plot-digitizer/internal/shadow"
	"plot-digitizer/internal/transform"
	"plot-digitizer/pkg/errors"
	"plot-digitizer/pkg/geometry"

	"github.com/charmbracelet/log"
)

// EventType identifies different session events.
type EventType int

const (
	// EventDocumentChanged follows every push, undo, redo and save; data is
	// the mediator.Event.
	EventDocumentChanged EventType = iota
	// EventTransformDefined: data is the new transform.Transformation.
	EventTransformDefined
	// EventTransformUndefined: data is nil.
	EventTransformUndefined
	// EventAxesChecker asks for the axis overlay to be redrawn; data is the
	// transform.Transformation.
	EventAxesChecker
	// EventSaved: data is the path.
	EventSaved
	// EventClipboard: data is the command.Clipboard.
	EventClipboard
	EventClosed
)

// EventListener is called when an event occurs.
type EventListener func(data any)

// Option configures a Session.
type Option func(*options)

type options struct {
	logger    *log.Logger
	digits    int
	coords    document.CoordSettings
	axisValue digitize.AxisValueFunc
	clipboard mediator.Clipboard
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDigits sets the significant digits of coordinate readouts.
func WithDigits(n int) Option {
	return func(o *options) { o.digits = n }
}

// WithCoords sets the axis scales of newly imported images.
func WithCoords(c document.CoordSettings) Option {
	return func(o *options) { o.coords = c }
}

// WithAxisValue sets the prompt for new calibration points.
func WithAxisValue(fn digitize.AxisValueFunc) Option {
	return func(o *options) { o.axisValue = fn }
}

// WithClipboard forwards copied points to the system clipboard.
func WithClipboard(c mediator.Clipboard) Option {
	return func(o *options) { o.clipboard = c }
}

// Session is one open document.
type Session struct {
	mu sync.RWMutex

	path     string
	imported bool

	mediator       *mediator.Mediator
	shadow         *shadow.Stack
	machine        *transform.Machine
	transformation transform.Transformation
	digitize       *digitize.Context

	// Journal of an opened error report not yet fed to the mediator.
	replay    []shadow.Step
	replayPos int

	opts      options
	listeners map[EventType][]EventListener
	closed    bool
}

func buildOptions(opts []Option) options {
	o := options{digits: 6}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	return o
}

func newSession(o options, open func(...mediator.Option) (*mediator.Mediator, error)) (*Session, error) {
	s := &Session{
		opts:      o,
		shadow:    shadow.NewStack(o.logger),
		machine:   transform.NewMachine(o.logger),
		listeners: make(map[EventType][]EventListener),
	}
	m, err := open(
		mediator.WithRecorder(s.shadow),
		mediator.WithClipboard(s),
		mediator.WithLogger(o.logger),
	)
	if err != nil {
		return nil, err
	}
	s.mediator = m
	m.OnChange(s.updateAfterCommand)

	s.machine.OnDefined(func(t transform.Transformation) { s.Emit(EventTransformDefined, t) })
	s.machine.OnUndefined(func() { s.Emit(EventTransformUndefined, nil) })
	s.machine.OnAxesChecker(func(t transform.Transformation) { s.Emit(EventAxesChecker, t) })

	s.digitize = digitize.New(s,
		digitize.WithAxisValue(o.axisValue),
		digitize.WithTransformDefined(func() bool { return s.Transformation().IsDefined() }),
		digitize.WithLogger(o.logger),
	)

	s.refresh()
	return s, nil
}

// ImportImage starts a session on a fresh document over the image at path.
func ImportImage(path string, opts ...Option) (*Session, error) {
	o := buildOptions(opts)
	if !image.IsSupportedFormat(path) {
		return nil, errors.New(errors.ErrCodeLoadFailed, "cannot import %s: supported formats are %s",
			path, strings.Join(image.SupportedFormats(), " "))
	}
	info, err := image.LoadInfo(path)
	if err != nil {
		return nil, err
	}
	doc := document.New(info)
	doc.Coords = o.coords

	s, err := newSession(o, func(mo ...mediator.Option) (*mediator.Mediator, error) {
		return mediator.New(doc, mo...), nil
	})
	if err != nil {
		return nil, err
	}
	s.path, s.imported = path, true
	s.digitize.SetMode(digitize.ModeAxis)
	o.logger.Info("image imported", "path", path, "width", info.Width, "height", info.Height)
	return s, nil
}

// OpenDocument starts a session on a saved document.
func OpenDocument(path string, opts ...Option) (*Session, error) {
	o := buildOptions(opts)
	s, err := newSession(o, func(mo ...mediator.Option) (*mediator.Mediator, error) {
		return mediator.Open(path, mo...)
	})
	if err != nil {
		return nil, err
	}
	s.path = path
	o.logger.Info("document opened", "path", path)
	return s, nil
}

// OpenErrorReport starts a session on a report's original document with its
// journal queued for ReplayStep and ReplayAll. The whole journal is replayed
// on a scratch copy first; if that fails no session is created.
func OpenErrorReport(r *report.Report, opts ...Option) (*Session, error) {
	o := buildOptions(opts)
	rp, err := r.Replayer()
	if err != nil {
		return nil, err
	}
	if _, err := rp.Run(r.File.Document); err != nil {
		return nil, err
	}

	doc := r.File.Document.Clone()
	s, err := newSession(o, func(mo ...mediator.Option) (*mediator.Mediator, error) {
		return mediator.New(doc, mo...), nil
	})
	if err != nil {
		return nil, err
	}
	s.path, s.imported = r.File.Path, r.File.Imported
	s.replay = rp.Steps()
	s.digitize.SetMode(digitize.ModeSelect)
	o.logger.Info("error report opened", "id", r.ID, "steps", len(s.replay), "context", r.Error.Context)
	return s, nil
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data any) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// updateAfterCommand is the only place the transformation is replaced. Point
// graph positions are refreshed on every call, whatever transition the
// machine reports.
func (s *Session) updateAfterCommand(ev mediator.Event) {
	s.refresh()
	s.Emit(EventDocumentChanged, ev)
}

func (s *Session) refresh() {
	doc := s.mediator.Document()
	next := transform.Compute(doc.Axes, doc.Coords)

	s.mu.Lock()
	s.transformation = next
	s.mu.Unlock()

	s.machine.Update(next)
	if next.IsDefined() {
		doc.ApplyTransformation(next.Transform)
	} else {
		doc.ClearGraphPositions()
	}
	s.digitize.Sync()
}

// SetContent implements mediator.Clipboard.
func (s *Session) SetContent(c command.Clipboard) {
	if s.opts.clipboard != nil {
		s.opts.clipboard.SetContent(c)
	}
	s.Emit(EventClipboard, c)
}

// Document returns the live document.
func (s *Session) Document() *document.Document { return s.mediator.Document() }

// Mediator returns the live undo stack.
func (s *Session) Mediator() *mediator.Mediator { return s.mediator }

// Shadow returns the session's journal.
func (s *Session) Shadow() *shadow.Stack { return s.shadow }

// Digitize returns the interaction state machine.
func (s *Session) Digitize() *digitize.Context { return s.digitize }

// Path returns the document or image path the session was opened from.
func (s *Session) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Transformation returns the current pixel-to-graph mapping.
func (s *Session) Transformation() transform.Transformation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transformation
}

// State returns whether the transformation is defined.
func (s *Session) State() transform.State { return s.machine.State() }

// Push executes a command. A user edit abandons any pending report replay.
func (s *Session) Push(cmd command.Command) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.ReplayRemaining() > 0 {
		s.opts.logger.Info("report replay abandoned", "remaining", s.ReplayRemaining())
		s.replay = nil
		s.replayPos = 0
	}
	return s.mediator.Push(cmd)
}

func (s *Session) checkOpen() error {
	if s.closed {
		return errors.New(errors.ErrCodeUnavailable, "session is closed")
	}
	return nil
}

func (s *Session) Undo() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.mediator.Undo()
}

// Redo reapplies an undone command, or continues a report replay when there
// is nothing left to redo.
func (s *Session) Redo() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.mediator.CanRedo() || s.ReplayRemaining() == 0 {
		return s.mediator.Redo()
	}
	return s.ReplayStep()
}

func (s *Session) CanUndo() bool { return s.mediator.CanUndo() }
func (s *Session) CanRedo() bool { return s.mediator.CanRedo() || s.ReplayRemaining() > 0 }

// ReplayRemaining returns how many journal steps of an opened report are
// still pending.
func (s *Session) ReplayRemaining() int {
	return len(s.replay) - s.replayPos
}

// ReplayStep feeds the next journal step to the mediator.
func (s *Session) ReplayStep() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.ReplayRemaining() == 0 {
		return errors.New(errors.ErrCodeUnavailable, "nothing left to replay")
	}
	step := s.replay[s.replayPos]
	var err error
	switch step.Op {
	case shadow.OpPush:
		err = s.mediator.Push(step.Command)
	case shadow.OpUndo:
		err = s.mediator.Undo()
	case shadow.OpRedo:
		err = s.mediator.Redo()
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeCorruptLog, err, "replay step %d (%s)", s.replayPos, step.Op)
	}
	s.replayPos++
	return nil
}

// ReplayAll feeds every pending journal step to the mediator.
func (s *Session) ReplayAll() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	for s.ReplayRemaining() > 0 {
		if err := s.ReplayStep(); err != nil {
			return err
		}
	}
	return nil
}

// CoordinateText formats the readout for a cursor at pos.
func (s *Session) CoordinateText(pos geometry.Point2D) (screen, graph, resolution string) {
	return s.Transformation().CoordinateText(pos, s.opts.digits)
}

// Save writes the document and marks the stack clean.
func (s *Session) Save(path string) error {
	if err := document.NewFile(s.Document()).Save(path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save %s", path)
	}
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()

	s.mediator.SetClean()
	s.opts.logger.Info("document saved", "path", path)
	s.Emit(EventSaved, path)
	return nil
}

// CaptureErrorReport builds a report of the whole session, recording the
// caller as the error site.
func (s *Session) CaptureErrorReport(context, comment string) (*report.Report, error) {
	_, file, line, _ := runtime.Caller(1)
	l, err := s.shadow.Log()
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	path, imported := s.path, s.imported
	s.mu.RUnlock()

	r := report.New(s.mediator.Base(), imported, path, l, report.ErrorContext{
		Context: context,
		File:    file,
		Line:    line,
		Comment: comment,
	})
	s.opts.logger.Warn("error report captured", "id", r.ID, "context", context, "file", file, "line", line)
	return r, nil
}

// Close tears the session down. Listeners receive EventClosed and are then
// dropped.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.machine.Reset()
	s.Emit(EventClosed, nil)

	s.mu.Lock()
	s.listeners = make(map[EventType][]EventListener)
	s.mu.Unlock()
}
