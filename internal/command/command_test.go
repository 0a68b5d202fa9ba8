package command

import (
	"encoding/json"
	"testing"

	"plot-digitizer/internal/document"
	"plot-digitizer/pkg/errors"
	"plot-digitizer/pkg/geometry"
)

func pt(x, y float64) geometry.Point2D { return geometry.Point2D{X: x, Y: y} }

// fixture returns a calibrated document with two curves.
func fixture(t *testing.T) *document.Document {
	t.Helper()
	doc := document.New(document.ImageInfo{Width: 200, Height: 200})
	axes := []document.CalibrationPoint{
		{ID: "ax0", Role: document.RoleOrigin, PosScreen: pt(10, 10), PosGraph: pt(0, 0)},
		{ID: "ax1", Role: document.RoleXAxis, PosScreen: pt(110, 10), PosGraph: pt(10, 0)},
		{ID: "ax2", Role: document.RoleYAxis, PosScreen: pt(10, 110), PosGraph: pt(0, 10)},
	}
	for _, a := range axes {
		if err := doc.AddAxisPoint(a); err != nil {
			t.Fatal(err)
		}
	}
	doc.Curves = append(doc.Curves, document.Curve{Name: "Curve2"})
	points := []struct {
		curve, id string
		screen    geometry.Point2D
	}{
		{document.DefaultCurveName, "a", pt(20, 20)},
		{document.DefaultCurveName, "b", pt(30, 40)},
		{document.DefaultCurveName, "c", pt(40, 60)},
		{"Curve2", "d", pt(50, 50)},
	}
	for _, p := range points {
		if err := doc.AddPoint(p.curve, document.Point{ID: p.id, PosScreen: p.screen}); err != nil {
			t.Fatal(err)
		}
	}
	doc.ApplyTransformation(func(p geometry.Point2D) geometry.Point2D {
		return pt((p.X-10)/10, (p.Y-10)/10)
	})
	return doc
}

func TestRedoUndoRestoresDocument(t *testing.T) {
	tests := []struct {
		name  string
		build func(*document.Document) (Command, error)
		check func(*testing.T, *document.Document)
	}{
		{
			name: "add axis point",
			build: func(d *document.Document) (Command, error) {
				return NewAddAxisPoint(d, pt(110, 110), pt(10, 10))
			},
			check: func(t *testing.T, d *document.Document) {
				if len(d.Axes) != 4 || d.Axes[3].Role != document.RoleExtra {
					t.Errorf("axes = %+v", d.Axes)
				}
			},
		},
		{
			name: "edit axis point",
			build: func(d *document.Document) (Command, error) {
				return NewEditAxisPoint(d, "ax1", pt(120, 12), pt(20, 0))
			},
			check: func(t *testing.T, d *document.Document) {
				if a, _ := d.AxisPoint("ax1"); a.PosGraph != pt(20, 0) {
					t.Errorf("ax1 = %+v", a)
				}
			},
		},
		{
			name: "add point",
			build: func(d *document.Document) (Command, error) {
				return NewAddPoint(d, "Curve2", pt(70, 70))
			},
			check: func(t *testing.T, d *document.Document) {
				if c, _ := d.Curve("Curve2"); len(c.Points) != 2 {
					t.Errorf("Curve2 has %d points", len(c.Points))
				}
			},
		},
		{
			name: "move points",
			build: func(d *document.Document) (Command, error) {
				return NewMovePoints(d, []string{"a", "ax0"}, pt(5, -5))
			},
			check: func(t *testing.T, d *document.Document) {
				if p, _ := d.Point("a"); p.PosScreen != pt(25, 15) {
					t.Errorf("a = %+v", p.PosScreen)
				}
			},
		},
		{
			name: "delete points",
			build: func(d *document.Document) (Command, error) {
				return NewDeletePoints(d, []string{"c", "a", "ax1", "d"})
			},
			check: func(t *testing.T, d *document.Document) {
				if d.NumPoints() != 1 || len(d.Axes) != 2 {
					t.Errorf("points=%d axes=%d", d.NumPoints(), len(d.Axes))
				}
			},
		},
		{
			name: "copy",
			build: func(d *document.Document) (Command, error) {
				return NewCopy(d, []string{"a"}, true)
			},
		},
		{
			name: "cut",
			build: func(d *document.Document) (Command, error) {
				return NewCut(d, []string{"b", "d"}, false)
			},
			check: func(t *testing.T, d *document.Document) {
				if d.NumPoints() != 2 || d.HasIdentifier("b") {
					t.Errorf("cut left %d points", d.NumPoints())
				}
			},
		},
		{
			name: "coords",
			build: func(d *document.Document) (Command, error) {
				return NewSettingsCoords(d, document.CoordSettings{XScale: document.ScaleLog}), nil
			},
			check: func(t *testing.T, d *document.Document) {
				if d.Coords.XScale != document.ScaleLog {
					t.Error("x scale not log")
				}
			},
		},
		{
			name: "filter",
			build: func(d *document.Document) (Command, error) {
				return NewSettingsFilter(d, document.FilterSettings{Parameter: document.FilterValue, Low: 5, High: 90})
			},
			check: func(t *testing.T, d *document.Document) {
				if d.Filter.Parameter != document.FilterValue {
					t.Error("filter not applied")
				}
			},
		},
		{
			name: "curves",
			build: func(d *document.Document) (Command, error) {
				return NewSettingsCurves(d, []CurveEdit{
					{Name: "Renamed", From: "Curve2"},
					{Name: "Fresh"},
				})
			},
			check: func(t *testing.T, d *document.Document) {
				got := d.CurveNames()
				if len(got) != 2 || got[0] != "Renamed" || got[1] != "Fresh" || d.NumPoints() != 1 {
					t.Errorf("curves = %v, points = %d", got, d.NumPoints())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := fixture(t)
			before := doc.Clone()

			cmd, err := tt.build(doc)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if err := cmd.Redo(doc); err != nil {
				t.Fatalf("Redo: %v", err)
			}
			if tt.check != nil {
				tt.check(t, doc)
			}
			after := doc.Clone()

			if err := cmd.Undo(doc); err != nil {
				t.Fatalf("Undo: %v", err)
			}
			if !doc.Equal(before) {
				t.Errorf("undo did not restore document:\n got %+v\nwant %+v", doc, before)
			}

			// A decoded copy of the command must behave identically.
			rec, err := cmd.Record()
			if err != nil {
				t.Fatalf("Record: %v", err)
			}
			decoded, err := Decode(rec)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if decoded.Kind() != cmd.Kind() || decoded.Label() != cmd.Label() {
				t.Errorf("decoded %s/%q, want %s/%q", decoded.Kind(), decoded.Label(), cmd.Kind(), cmd.Label())
			}
			if err := decoded.Redo(doc); err != nil {
				t.Fatalf("decoded Redo: %v", err)
			}
			if !doc.Equal(after) {
				t.Error("decoded redo differs from original redo")
			}
			if err := decoded.Undo(doc); err != nil {
				t.Fatalf("decoded Undo: %v", err)
			}
			if !doc.Equal(before) {
				t.Error("decoded undo did not restore document")
			}
		})
	}
}

func TestDeleteRestoresOriginalIndices(t *testing.T) {
	doc := fixture(t)
	before := doc.Clone()
	cmd, err := NewDeletePoints(doc, []string{"c", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Redo(doc); err != nil {
		t.Fatal(err)
	}
	if c, _ := doc.Curve(document.DefaultCurveName); len(c.Points) != 1 || c.Points[0].ID != "b" {
		t.Fatalf("remaining = %+v", c.Points)
	}
	if err := cmd.Undo(doc); err != nil {
		t.Fatal(err)
	}
	c, _ := doc.Curve(document.DefaultCurveName)
	for i, id := range []string{"a", "b", "c"} {
		if c.Points[i].ID != id {
			t.Errorf("Points[%d] = %s, want %s", i, c.Points[i].ID, id)
		}
	}
	if !doc.Equal(before) {
		t.Error("document not restored")
	}
}

func TestCopyClipboard(t *testing.T) {
	doc := fixture(t)

	graph, err := NewCopy(doc, []string{"d", "a", "b"}, true)
	if err != nil {
		t.Fatal(err)
	}
	wantCSV := "X\tCurve1\n1\t1\n2\t3\nX\tCurve2\n4\t4\n"
	if graph.CSV != wantCSV {
		t.Errorf("CSV = %q, want %q", graph.CSV, wantCSV)
	}
	clip := graph.ClipboardContent()
	if clip.HTML == "" || clip.CSV != wantCSV {
		t.Errorf("clipboard = %+v", clip)
	}
	if len(graph.Curves) != 2 || len(graph.Curves[0].Points) != 2 {
		t.Errorf("copied curves = %+v", graph.Curves)
	}

	screen, err := NewCopy(doc, []string{"a"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if screen.CSV != "X\tCurve1\n20\t20\n" {
		t.Errorf("screen CSV = %q", screen.CSV)
	}
	if screen.ClipboardContent().HTML != "" {
		t.Error("screen-coordinate copy should not offer HTML")
	}

	if _, err := NewCopy(doc, []string{"ax0"}, true); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("copy of axis point only: err = %v, want INVALID_INPUT", err)
	}

	var _ ClipboardWriter = &Cut{}
}

func TestConstructorValidation(t *testing.T) {
	doc := fixture(t)
	tests := []struct {
		name string
		err  error
		code errors.Code
	}{
		{"edit missing axis", second(NewEditAxisPoint(doc, "zz", pt(0, 0), pt(0, 0))), errors.ErrCodeNotFound},
		{"add to missing curve", second(NewAddPoint(doc, "zz", pt(0, 0))), errors.ErrCodeNotFound},
		{"move nothing", second(NewMovePoints(doc, nil, pt(1, 1))), errors.ErrCodeInvalidInput},
		{"move missing", second(NewMovePoints(doc, []string{"a", "zz"}, pt(1, 1))), errors.ErrCodeNotFound},
		{"delete nothing", second(NewDeletePoints(doc, nil)), errors.ErrCodeInvalidInput},
		{"bad filter", second(NewSettingsFilter(doc, document.FilterSettings{Low: 9, High: 3})), errors.ErrCodeInvalidInput},
		{"no curves", second(NewSettingsCurves(doc, nil)), errors.ErrCodeInvalidInput},
		{"duplicate curve", second(NewSettingsCurves(doc, []CurveEdit{{Name: "x"}, {Name: "x"}})), errors.ErrCodeInvalidInput},
		{"curve reused", second(NewSettingsCurves(doc, []CurveEdit{{Name: "x", From: "Curve2"}, {Name: "y", From: "Curve2"}})), errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.code) {
				t.Errorf("err = %v, want %s", tt.err, tt.code)
			}
		})
	}
}

func second[T any](_ T, err error) error { return err }

func TestDecodeFailures(t *testing.T) {
	valid, err := NewSettingsCoords(fixture(t), document.CoordSettings{}).Record()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		rec  Record
		code errors.Code
	}{
		{"unknown kind", Record{Version: 1, Kind: "resize_image", Payload: json.RawMessage(`{}`)}, errors.ErrCodeCorruptLog},
		{"newer version", Record{Version: RecordVersion + 1, Kind: valid.Kind, Payload: valid.Payload}, errors.ErrCodeUnsupported},
		{"zero version", Record{Kind: valid.Kind, Payload: valid.Payload}, errors.ErrCodeCorruptLog},
		{"missing payload", Record{Version: 1, Kind: KindAddPoint}, errors.ErrCodeCorruptLog},
		{"malformed payload", Record{Version: 1, Kind: KindAddPoint, Payload: json.RawMessage(`{"point": 3}`)}, errors.ErrCodeCorruptLog},
		{"empty delete", Record{Version: 1, Kind: KindDeletePoints, Payload: json.RawMessage(`{}`)}, errors.ErrCodeCorruptLog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode(tt.rec)
			if c != nil {
				t.Errorf("Decode returned command %v", c)
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestEveryKindDecodes(t *testing.T) {
	for _, k := range Kinds() {
		t.Run(string(k), func(t *testing.T) {
			_, err := Decode(Record{Version: 1, Kind: k, Payload: json.RawMessage(`{`)})
			if errors.Is(err, errors.ErrCodeCorruptLog) && errors.UserMessage(err) == "unknown command kind \""+string(k)+"\"" {
				t.Errorf("kind %s is not handled by Decode", k)
			}
		})
	}
}

func TestIdentifiersAreUnique(t *testing.T) {
	doc := fixture(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		c, err := NewAddPoint(doc, document.DefaultCurveName, pt(1, 1))
		if err != nil {
			t.Fatal(err)
		}
		if seen[c.Point.ID] {
			t.Fatalf("duplicate id %s", c.Point.ID)
		}
		seen[c.Point.ID] = true
	}
}

func TestAddAxisPointTakesFreeRole(t *testing.T) {
	doc := fixture(t)
	del, err := NewDeletePoints(doc, []string{"ax0"})
	if err != nil {
		t.Fatal(err)
	}
	if err := del.Redo(doc); err != nil {
		t.Fatal(err)
	}

	add, err := NewAddAxisPoint(doc, pt(12, 12), pt(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if add.Point.Role != document.RoleOrigin {
		t.Errorf("role = %v, want origin", add.Point.Role)
	}
	if err := add.Redo(doc); err != nil {
		t.Fatal(err)
	}

	extra, err := NewAddAxisPoint(doc, pt(110, 110), pt(10, 10))
	if err != nil {
		t.Fatal(err)
	}
	if extra.Point.Role != document.RoleExtra {
		t.Errorf("fourth point role = %v, want extra", extra.Point.Role)
	}
}
