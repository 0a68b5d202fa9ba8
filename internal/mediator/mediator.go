// Package mediator owns the live undo/redo stack bound to one open document.
//
// The current document is always the base document with the first Index()
// commands of the stack applied. Pushing after an undo discards the redoable
// tail. All operations run synchronously on the caller's goroutine; observers
// are called after the operation completes, in registration order.
package mediator

import (
	"slices"

	"plot-digitizer/internal/command"
	"plot-digitizer/internal/document"
	"plot-digitizer/internal/logging"
	"plot-digitizer/pkg/errors"

	"github.com/charmbracelet/log"
)

// Recorder mirrors every successful stack operation. The shadow journal
// implements it.
type Recorder interface {
	RecordPush(cmd command.Command)
	RecordUndo()
	RecordRedo()
}

// Clipboard receives content from commands that export points.
type Clipboard interface {
	SetContent(command.Clipboard)
}

// EventType identifies what changed the stack.
type EventType int

const (
	EventPushed EventType = iota
	EventUndone
	EventRedone
	EventCleanChanged
)

func (e EventType) String() string {
	switch e {
	case EventPushed:
		return "pushed"
	case EventUndone:
		return "undone"
	case EventRedone:
		return "redone"
	case EventCleanChanged:
		return "clean"
	default:
		return "unknown"
	}
}

// Event describes the stack after an operation.
type Event struct {
	Type     EventType
	Command  command.Command // nil for EventCleanChanged
	CanUndo  bool
	CanRedo  bool
	UndoText string
	RedoText string
	Modified bool
}

// Listener is called after every mediator operation.
type Listener func(Event)

// Option configures a Mediator.
type Option func(*Mediator)

// WithRecorder mirrors stack operations into r.
func WithRecorder(r Recorder) Option {
	return func(m *Mediator) { m.recorder = r }
}

// WithClipboard forwards clipboard content produced by commands to c.
func WithClipboard(c Clipboard) Option {
	return func(m *Mediator) { m.clipboard = c }
}

// WithLogger sets the logger; the default discards.
func WithLogger(l *log.Logger) Option {
	return func(m *Mediator) { m.logger = l }
}

// Mediator applies and reverts commands on its document.
type Mediator struct {
	doc  *document.Document
	base *document.Document

	stack []command.Command
	index int // number of applied commands
	clean int // index matching the saved file, -1 when unreachable

	listeners []Listener
	recorder  Recorder
	clipboard Clipboard
	logger    *log.Logger
}

// New creates a mediator that takes ownership of doc.
func New(doc *document.Document, opts ...Option) *Mediator {
	m := &Mediator{
		doc:    doc,
		base:   doc.Clone(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.Discard()
	}
	return m
}

// NewFromImage creates a mediator for a fresh document over an imported image.
func NewFromImage(img document.ImageInfo, opts ...Option) *Mediator {
	return New(document.New(img), opts...)
}

// Open loads a document file. On failure no mediator is returned.
func Open(path string, opts ...Option) (*Mediator, error) {
	f, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	m := New(f.Document, opts...)
	m.logger.Debug("document opened", "path", path, "curves", len(f.Document.Curves), "axes", len(f.Document.Axes))
	return m, nil
}

// OnChange registers a listener.
func (m *Mediator) OnChange(fn Listener) {
	m.listeners = append(m.listeners, fn)
}

// Document returns the live document. Callers must not mutate it directly.
func (m *Mediator) Document() *document.Document {
	return m.doc
}

// Base returns a copy of the document as it was before any command.
func (m *Mediator) Base() *document.Document {
	return m.base.Clone()
}

// Commands returns the live stack, including the redoable tail.
func (m *Mediator) Commands() []command.Command {
	return slices.Clone(m.stack)
}

// Index returns how many commands of the stack are applied.
func (m *Mediator) Index() int {
	return m.index
}

// Push executes cmd and appends it, discarding any redoable commands. If the
// command fails the stack is unchanged.
func (m *Mediator) Push(cmd command.Command) error {
	if err := cmd.Redo(m.doc); err != nil {
		m.logger.Warn("command rejected", "kind", cmd.Kind(), "err", err)
		return err
	}

	if m.clean > m.index {
		m.clean = -1
	}
	m.stack = append(m.stack[:m.index], cmd)
	m.index++

	m.logger.Debug("push", "kind", cmd.Kind(), "index", m.index, "depth", len(m.stack))
	m.exportClipboard(cmd)
	if m.recorder != nil {
		m.recorder.RecordPush(cmd)
	}
	m.emit(EventPushed, cmd)
	return nil
}

// Undo reverts the command below the cursor.
func (m *Mediator) Undo() error {
	if !m.CanUndo() {
		return errors.New(errors.ErrCodeUnavailable, "nothing to undo")
	}
	cmd := m.stack[m.index-1]
	if err := cmd.Undo(m.doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "undo %s", cmd.Label())
	}
	m.index--

	m.logger.Debug("undo", "kind", cmd.Kind(), "index", m.index)
	if m.recorder != nil {
		m.recorder.RecordUndo()
	}
	m.emit(EventUndone, cmd)
	return nil
}

// Redo reapplies the command just past the cursor.
func (m *Mediator) Redo() error {
	if !m.CanRedo() {
		return errors.New(errors.ErrCodeUnavailable, "nothing to redo")
	}
	cmd := m.stack[m.index]
	if err := cmd.Redo(m.doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "redo %s", cmd.Label())
	}
	m.index++

	m.logger.Debug("redo", "kind", cmd.Kind(), "index", m.index)
	m.exportClipboard(cmd)
	if m.recorder != nil {
		m.recorder.RecordRedo()
	}
	m.emit(EventRedone, cmd)
	return nil
}

func (m *Mediator) CanUndo() bool { return m.index > 0 }
func (m *Mediator) CanRedo() bool { return m.index < len(m.stack) }

// UndoText returns the label of the command Undo would revert.
func (m *Mediator) UndoText() string {
	if !m.CanUndo() {
		return ""
	}
	return m.stack[m.index-1].Label()
}

// RedoText returns the label of the command Redo would apply.
func (m *Mediator) RedoText() string {
	if !m.CanRedo() {
		return ""
	}
	return m.stack[m.index].Label()
}

// IsModified reports whether the document differs from the last clean point.
func (m *Mediator) IsModified() bool {
	return m.index != m.clean
}

// SetClean marks the current position as saved.
func (m *Mediator) SetClean() {
	m.clean = m.index
	m.emit(EventCleanChanged, nil)
}

func (m *Mediator) exportClipboard(cmd command.Command) {
	if m.clipboard == nil {
		return
	}
	if w, ok := cmd.(command.ClipboardWriter); ok {
		m.clipboard.SetContent(w.ClipboardContent())
	}
}

func (m *Mediator) emit(t EventType, cmd command.Command) {
	ev := Event{
		Type:     t,
		Command:  cmd,
		CanUndo:  m.CanUndo(),
		CanRedo:  m.CanRedo(),
		UndoText: m.UndoText(),
		RedoText: m.RedoText(),
		Modified: m.IsModified(),
	}
	for _, fn := range m.listeners {
		fn(ev)
	}
}
