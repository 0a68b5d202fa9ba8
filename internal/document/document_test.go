package document

import (
	"testing"

	"plot-digitizer/pkg/errors"
	"plot-digitizer/pkg/geometry"
)

func testDocument(t *testing.T) *Document {
	t.Helper()
	doc := New(ImageInfo{Width: 640, Height: 480, Format: "png"})
	for i, p := range []geometry.Point2D{{X: 10, Y: 10}, {X: 110, Y: 10}, {X: 10, Y: 110}} {
		err := doc.AddAxisPoint(CalibrationPoint{
			ID:        []string{"ax0", "ax1", "ax2"}[i],
			Role:      doc.NextAxisRole(),
			PosScreen: p,
		})
		if err != nil {
			t.Fatalf("AddAxisPoint: %v", err)
		}
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		if err := doc.AddPoint(DefaultCurveName, Point{ID: id}); err != nil {
			t.Fatalf("AddPoint: %v", err)
		}
	}
	return doc
}

func TestNewDocumentDefaults(t *testing.T) {
	doc := New(ImageInfo{Width: 10, Height: 20})
	if got := doc.CurveNames(); len(got) != 1 || got[0] != DefaultCurveName {
		t.Errorf("CurveNames() = %v, want [%s]", got, DefaultCurveName)
	}
	if doc.Filter != DefaultFilterSettings() {
		t.Errorf("Filter = %+v, want defaults", doc.Filter)
	}
	if doc.Coords.XScale != ScaleLinear || doc.Coords.YScale != ScaleLinear {
		t.Errorf("Coords = %+v, want linear", doc.Coords)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	doc := testDocument(t)
	clone := doc.Clone()
	if !clone.Equal(doc) {
		t.Fatal("clone not equal to original")
	}

	clone.Axes[0].PosScreen.X = 999
	clone.Curves[0].Points[0].PosScreen.X = 999
	if doc.Axes[0].PosScreen.X == 999 || doc.Curves[0].Points[0].PosScreen.X == 999 {
		t.Error("clone shares storage with original")
	}
	if clone.Equal(doc) {
		t.Error("modified clone still equal")
	}
}

func TestEqualIgnoresGraphCache(t *testing.T) {
	doc := testDocument(t)
	other := doc.Clone()
	other.ApplyTransformation(func(p geometry.Point2D) geometry.Point2D {
		return geometry.Point2D{X: p.X + 1, Y: 7}
	})
	if !doc.Equal(other) {
		t.Error("graph cache should not affect equality")
	}
	if p, _ := other.Point("p1"); !p.GraphValid || p.PosGraph.Y != 7 {
		t.Errorf("ApplyTransformation did not set cache: %+v", p)
	}

	other.ClearGraphPositions()
	if p, _ := other.Point("p1"); p.GraphValid {
		t.Error("ClearGraphPositions left cache valid")
	}
}

func TestIdentifiersStayUnique(t *testing.T) {
	doc := testDocument(t)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"axis duplicates axis", func() error { return doc.AddAxisPoint(CalibrationPoint{ID: "ax0"}) }},
		{"axis duplicates point", func() error { return doc.AddAxisPoint(CalibrationPoint{ID: "p1"}) }},
		{"point duplicates axis", func() error { return doc.AddPoint(DefaultCurveName, Point{ID: "ax1"}) }},
		{"point without id", func() error { return doc.AddPoint(DefaultCurveName, Point{}) }},
		{"axis without id", func() error { return doc.AddAxisPoint(CalibrationPoint{}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}

	if err := doc.AddPoint("missing", Point{ID: "new"}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("AddPoint to missing curve: err = %v, want NOT_FOUND", err)
	}
}

func TestRemoveAndInsertRestoresOrder(t *testing.T) {
	doc := testDocument(t)
	before := doc.Clone()

	p, loc, err := doc.RemovePoint("p2")
	if err != nil {
		t.Fatalf("RemovePoint: %v", err)
	}
	if loc.Curve != DefaultCurveName || loc.Index != 1 {
		t.Errorf("location = %+v, want %s/1", loc, DefaultCurveName)
	}
	if doc.NumPoints() != 2 {
		t.Errorf("NumPoints() = %d, want 2", doc.NumPoints())
	}
	if err := doc.InsertPoint(loc.Curve, loc.Index, p); err != nil {
		t.Fatalf("InsertPoint: %v", err)
	}
	if !doc.Equal(before) {
		t.Error("remove then insert did not restore document")
	}

	a, i, err := doc.RemoveAxisPoint("ax1")
	if err != nil || i != 1 {
		t.Fatalf("RemoveAxisPoint = %d, %v", i, err)
	}
	if err := doc.InsertAxisPoint(i, a); err != nil {
		t.Fatalf("InsertAxisPoint: %v", err)
	}
	if !doc.Equal(before) {
		t.Error("axis remove then insert did not restore document")
	}

	if _, _, err := doc.RemovePoint("nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("RemovePoint(nope) err = %v, want NOT_FOUND", err)
	}
}

func TestMovePoint(t *testing.T) {
	doc := testDocument(t)
	delta := geometry.Point2D{X: 3, Y: -2}

	for _, id := range []string{"p3", "ax2"} {
		if err := doc.MovePoint(id, delta); err != nil {
			t.Fatalf("MovePoint(%s): %v", id, err)
		}
	}
	if p, _ := doc.Point("p3"); p.PosScreen != delta {
		t.Errorf("p3 = %+v, want %+v", p.PosScreen, delta)
	}
	if a, _ := doc.AxisPoint("ax2"); a.PosScreen != (geometry.Point2D{X: 13, Y: 108}) {
		t.Errorf("ax2 = %+v", a.PosScreen)
	}
	if err := doc.MovePoint("nope", delta); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("MovePoint(nope) err = %v, want NOT_FOUND", err)
	}
}

func TestAxisScaleText(t *testing.T) {
	tests := []struct {
		in      string
		want    AxisScale
		wantErr bool
	}{
		{"linear", ScaleLinear, false},
		{"", ScaleLinear, false},
		{"log", ScaleLog, false},
		{"logarithmic", ScaleLog, false},
		{"cubic", ScaleLinear, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAxisScale(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextAxisRoleFillsGaps(t *testing.T) {
	doc := testDocument(t)
	if got := doc.NextAxisRole(); got != RoleExtra {
		t.Errorf("full set: NextAxisRole() = %v, want extra", got)
	}
	if _, _, err := doc.RemoveAxisPoint("ax0"); err != nil {
		t.Fatal(err)
	}
	if got := doc.NextAxisRole(); got != RoleOrigin {
		t.Errorf("origin removed: NextAxisRole() = %v, want origin", got)
	}
	if _, _, err := doc.RemoveAxisPoint("ax2"); err != nil {
		t.Fatal(err)
	}
	if got := doc.NextAxisRole(); got != RoleOrigin {
		t.Errorf("origin and y removed: NextAxisRole() = %v, want origin", got)
	}
}
