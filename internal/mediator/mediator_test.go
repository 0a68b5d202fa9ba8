package mediator

import (
	"path/filepath"
	"testing"

	"plot-digitizer/internal/command"
	"plot-digitizer/internal/document"
	"plot-digitizer/pkg/errors"
	"plot-digitizer/pkg/geometry"
)

type fakeRecorder struct {
	ops []string
}

func (r *fakeRecorder) RecordPush(cmd command.Command) { r.ops = append(r.ops, "push:"+string(cmd.Kind())) }
func (r *fakeRecorder) RecordUndo()                    { r.ops = append(r.ops, "undo") }
func (r *fakeRecorder) RecordRedo()                    { r.ops = append(r.ops, "redo") }

type fakeClipboard struct {
	got []command.Clipboard
}

func (c *fakeClipboard) SetContent(clip command.Clipboard) { c.got = append(c.got, clip) }

func addPoint(t *testing.T, m *Mediator, x float64) *command.AddPoint {
	t.Helper()
	cmd, err := command.NewAddPoint(m.Document(), document.DefaultCurveName, geometry.Point2D{X: x, Y: x})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Push(cmd); err != nil {
		t.Fatalf("Push: %v", err)
	}
	return cmd
}

func pointIDs(m *Mediator) []string {
	c, _ := m.Document().Curve(document.DefaultCurveName)
	var ids []string
	for _, p := range c.Points {
		ids = append(ids, p.ID)
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestUndoRedoScenario(t *testing.T) {
	m := NewFromImage(document.ImageInfo{Width: 100, Height: 100})
	a := addPoint(t, m, 1)
	b := addPoint(t, m, 2)

	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := pointIDs(m); !equalIDs(got, []string{a.Point.ID}) {
		t.Errorf("after undo points = %v, want only P1", got)
	}
	if m.RedoText() != "Add point" || !m.CanRedo() {
		t.Errorf("RedoText() = %q, CanRedo() = %v", m.RedoText(), m.CanRedo())
	}

	if err := m.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := pointIDs(m); !equalIDs(got, []string{a.Point.ID, b.Point.ID}) {
		t.Errorf("after redo points = %v, want P1 P2", got)
	}
}

func TestPushDiscardsRedoTail(t *testing.T) {
	rec := &fakeRecorder{}
	m := NewFromImage(document.ImageInfo{}, WithRecorder(rec))
	a := addPoint(t, m, 1)
	addPoint(t, m, 2)
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	c := addPoint(t, m, 3)

	if m.CanRedo() {
		t.Error("redo should be unavailable after push")
	}
	if err := m.Redo(); !errors.Is(err, errors.ErrCodeUnavailable) {
		t.Errorf("Redo() err = %v, want UNAVAILABLE", err)
	}

	stack := m.Commands()
	if len(stack) != 2 || stack[0] != command.Command(a) || stack[1] != command.Command(c) {
		t.Errorf("stack = %v, want [A C]", stack)
	}
	want := []string{"push:add_point", "push:add_point", "undo", "push:add_point"}
	if !equalIDs(rec.ops, want) {
		t.Errorf("recorder ops = %v, want %v", rec.ops, want)
	}
}

func TestUnavailableIsError(t *testing.T) {
	m := NewFromImage(document.ImageInfo{})
	before := m.Document().Clone()
	if err := m.Undo(); !errors.Is(err, errors.ErrCodeUnavailable) {
		t.Errorf("Undo() err = %v, want UNAVAILABLE", err)
	}
	if err := m.Redo(); !errors.Is(err, errors.ErrCodeUnavailable) {
		t.Errorf("Redo() err = %v, want UNAVAILABLE", err)
	}
	if !m.Document().Equal(before) {
		t.Error("document changed")
	}
	if m.UndoText() != "" || m.RedoText() != "" {
		t.Error("texts should be empty")
	}
}

func TestRejectedPushLeavesStack(t *testing.T) {
	m := NewFromImage(document.ImageInfo{})
	a := addPoint(t, m, 1)
	if err := m.Push(a); err == nil {
		t.Fatal("pushing a duplicate point should fail")
	}
	if len(m.Commands()) != 1 || m.Index() != 1 {
		t.Errorf("stack len %d index %d", len(m.Commands()), m.Index())
	}
}

func TestWinningCommandsDetermineDocument(t *testing.T) {
	m := NewFromImage(document.ImageInfo{})
	ops := []string{"push", "push", "undo", "push", "push", "undo", "undo", "redo", "push", "undo", "redo"}
	x := 0.0
	for _, op := range ops {
		var err error
		switch op {
		case "push":
			x++
			addPoint(t, m, x)
		case "undo":
			err = m.Undo()
		case "redo":
			err = m.Redo()
		}
		if err != nil {
			t.Fatalf("%s: %v", op, err)
		}
	}

	direct := m.Base()
	for _, cmd := range m.Commands()[:m.Index()] {
		if err := cmd.Redo(direct); err != nil {
			t.Fatal(err)
		}
	}
	if !direct.Equal(m.Document()) {
		t.Error("live document differs from applying winning commands to base")
	}
}

func TestCleanTracking(t *testing.T) {
	m := NewFromImage(document.ImageInfo{})
	if m.IsModified() {
		t.Fatal("new document should be clean")
	}
	addPoint(t, m, 1)
	if !m.IsModified() {
		t.Fatal("push should mark modified")
	}
	m.SetClean()
	addPoint(t, m, 2)
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if m.IsModified() {
		t.Error("undo back to saved position should be clean")
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	addPoint(t, m, 3)
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if !m.IsModified() {
		t.Error("saved position was discarded, document must stay modified")
	}
}

func TestEventsFollowOperations(t *testing.T) {
	m := NewFromImage(document.ImageInfo{})
	var events []Event
	var order []int
	m.OnChange(func(e Event) {
		events = append(events, e)
		order = append(order, 1)
	})
	m.OnChange(func(Event) { order = append(order, 2) })

	addPoint(t, m, 1)
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	m.SetClean()

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if e := events[0]; e.Type != EventPushed || !e.CanUndo || e.CanRedo || !e.Modified || e.UndoText != "Add point" {
		t.Errorf("push event = %+v", e)
	}
	if e := events[1]; e.Type != EventUndone || e.CanUndo || !e.CanRedo || e.Modified {
		t.Errorf("undo event = %+v", e)
	}
	if e := events[2]; e.Type != EventCleanChanged || e.Command != nil {
		t.Errorf("clean event = %+v", e)
	}
	if !equalInts(order, []int{1, 2, 1, 2, 1, 2}) {
		t.Errorf("listener order = %v", order)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestClipboardForwarding(t *testing.T) {
	clip := &fakeClipboard{}
	m := NewFromImage(document.ImageInfo{}, WithClipboard(clip))
	a := addPoint(t, m, 4)

	cp, err := command.NewCopy(m.Document(), []string{a.Point.ID}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Push(cp); err != nil {
		t.Fatal(err)
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if err := m.Redo(); err != nil {
		t.Fatal(err)
	}
	if len(clip.got) != 2 || clip.got[0].CSV != "X\tCurve1\n4\t4\n" {
		t.Errorf("clipboard = %+v", clip.got)
	}
}

func TestOpen(t *testing.T) {
	doc := document.New(document.ImageInfo{Width: 5, Height: 6})
	path := filepath.Join(t.TempDir(), "a.dig")
	if err := document.NewFile(doc).Save(path); err != nil {
		t.Fatal(err)
	}

	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !m.Document().Equal(doc) || m.IsModified() {
		t.Error("opened document differs or is modified")
	}

	m, err = Open(filepath.Join(t.TempDir(), "missing.dig"))
	if m != nil || !errors.Is(err, errors.ErrCodeLoadFailed) {
		t.Errorf("Open(missing) = %v, %v", m, err)
	}
}
