package gribcoll

import (
	"testing"

	"github.com/metwx/gribcoll/recordstore"
)

func newFlatCollection() *Collection {
	store := &recordstore.StaticStore{
		Pairs: []recordstore.Pair{
			{FileNo: 1, Pos: 0},
			{FileNo: 1, Pos: 100},
			{FileNo: 1, Pos: 200},
		},
	}
	v := VariableIndex{
		TableVersion: 2, Parameter: 11, LevelType: 100, IntvType: -1,
		TimeIdx: 0, VertIdx: -1, EnsIdx: -1,
		Nens: 1, Nverts: 1,
		GroupIndex: 0,
		store:      store,
	}
	g := &Group{
		HCS: HorizontalCoordSys{Kind: GridLatLon, Nx: 4, Ny: 2, StartX: 0, StartY: -10, Dx: 1, Dy: 10},
		TimeCoords: []TimeCoord{
			{Name: "time", Units: "hours since 2020-01-01T00:00:00Z", Offsets: []int{0, 6, 12}},
		},
		Variables: []VariableIndex{v},
	}
	return &Collection{
		Name:   "test",
		Groups: []*Group{g},
	}
}

func TestProjectFlatCollectionSchema(t *testing.T) {
	c := newFlatCollection()
	pt := newTestParamTable()
	sch, err := Project(c, pt)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(sch.Groups) != 1 {
		t.Fatalf("want 1 group, got %d", len(sch.Groups))
	}
	gs := sch.Groups[0]
	if len(gs.Data) != 1 {
		t.Fatalf("want 1 data variable, got %d", len(gs.Data))
	}
	dv := gs.Data[0]
	if dv.Name != "Temperature_isobaric" {
		t.Fatalf("got name %q", dv.Name)
	}
	wantAxes := []AxisKind{AxisTime, AxisY, AxisX}
	if len(dv.Axes) != len(wantAxes) {
		t.Fatalf("got axes %v, want %v", dv.Axes, wantAxes)
	}
	for i, a := range wantAxes {
		if dv.Axes[i] != a {
			t.Fatalf("axes[%d] = %v, want %v", i, dv.Axes[i], a)
		}
	}

	// Coordinate variables come back sorted by canonical axis rank: time
	// before the horizontal lat/lon pair.
	if gs.Coords[0].Kind != AxisTime || gs.Coords[0].Name != "time" {
		t.Fatalf("coords[0] = %+v, want time", gs.Coords[0])
	}
	if gs.Coords[1].Kind != AxisY || gs.Coords[1].Name != "lat" {
		t.Fatalf("coords[1] = %+v, want lat", gs.Coords[1])
	}
	if gs.Coords[2].Kind != AxisX || gs.Coords[2].Name != "lon" {
		t.Fatalf("coords[2] = %+v, want lon", gs.Coords[2])
	}
}

func TestProjectIntervalTimeCoordProducesBounds(t *testing.T) {
	c := newFlatCollection()
	c.Groups[0].TimeCoords[0] = TimeCoord{
		Name: "time", Units: "hours since 2020-01-01T00:00:00Z",
		IsInterval: true,
		Bounds:     []TimeBounds{{0, 6}, {6, 12}, {12, 18}},
	}
	pt := newTestParamTable()
	sch, err := Project(c, pt)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	gs := sch.Groups[0]
	found := false
	for _, cv := range gs.Coords {
		if cv.Kind == AxisTimeBounds {
			found = true
			if len(cv.Bounds) != 3 {
				t.Fatalf("want 3 bounds pairs, got %d", len(cv.Bounds))
			}
		}
	}
	if !found {
		t.Fatal("expected a time_bounds coordinate variable")
	}
}

func TestProjectProjectedGridAddsProjectionVariable(t *testing.T) {
	c := newFlatCollection()
	c.Groups[0].HCS = HorizontalCoordSys{
		Kind: GridLambertConformal, Nx: 3, Ny: 3,
		StartX: 0, StartY: 0, Dx: 10, Dy: 10,
		ProjName:   "lambert_conformal_conic",
		ProjParams: map[string]float64{"standard_parallel_1": 30},
	}
	pt := newTestParamTable()
	sch, err := Project(c, pt)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	last := sch.Groups[0].Coords[len(sch.Groups[0].Coords)-1]
	if last.Kind != AxisProjection || last.Name != "lambert_conformal_conic" {
		t.Fatalf("got last coord %+v", last)
	}
}
