package report

import (
	"bytes"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"plot-digitizer/internal/command"
	"plot-digitizer/internal/document"
	"plot-digitizer/internal/mediator"
	"plot-digitizer/internal/shadow"
	"plot-digitizer/pkg/errors"
	"plot-digitizer/pkg/geometry"
)

func capture(t *testing.T, imported bool) (*Report, *mediator.Mediator) {
	t.Helper()
	stack := shadow.NewStack(nil)
	m := mediator.NewFromImage(document.ImageInfo{Path: "/home/me/scan.png", Width: 640, Height: 480},
		mediator.WithRecorder(stack))
	for i := 0; i < 3; i++ {
		cmd, err := command.NewAddPoint(m.Document(), document.DefaultCurveName, geometry.Point2D{X: float64(i), Y: 1})
		if err != nil {
			t.Fatal(err)
		}
		if err := m.Push(cmd); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}

	log, err := stack.Log()
	if err != nil {
		t.Fatal(err)
	}
	r := New(m.Base(), imported, "/home/me/plot.dig", log, ErrorContext{
		Context: "test", File: "report_test.go", Line: 42, Comment: "undo went wrong",
	})
	return r, m
}

func TestRoundTripAndReplay(t *testing.T) {
	r, m := capture(t, false)

	path := filepath.Join(t.TempDir(), r.ID+".json")
	if err := r.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got.ID != r.ID || got.Error != r.Error || got.Image != (ImageSize{640, 480}) {
		t.Errorf("metadata differs: %+v", got)
	}
	if got.File.Path != "/home/me/plot.dig" {
		t.Errorf("path = %q", got.File.Path)
	}
	if got.Log.Pushes() != 3 {
		t.Errorf("journal has %d pushes, want 3", got.Log.Pushes())
	}

	rp, err := got.Replayer()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := rp.Run(got.File.Document)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Equal(m.Document()) {
		t.Error("replayed report differs from live document")
	}
}

func TestImportedReportStripsPaths(t *testing.T) {
	r, _ := capture(t, true)
	var buf bytes.Buffer
	if err := r.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "/home/me") {
		t.Errorf("report leaks local paths:\n%s", buf.String())
	}
	if !r.File.Imported {
		t.Error("imported flag not set")
	}
}

func TestEnvironment(t *testing.T) {
	env := Environment()
	if env.OS != runtime.GOOS || env.Arch != runtime.GOARCH {
		t.Errorf("env = %+v", env)
	}
	if env.WordSize != 32 && env.WordSize != 64 {
		t.Errorf("word size = %d", env.WordSize)
	}
	if env.Endian != "little" && env.Endian != "big" {
		t.Errorf("endian = %q", env.Endian)
	}
}

func TestReadFailures(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"garbage", "{", errors.ErrCodeLoadFailed},
		{"future", `{"version": 5, "file": {"document": {}}}`, errors.ErrCodeUnsupported},
		{"no document", `{"version": 1}`, errors.ErrCodeLoadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.data)); !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}
