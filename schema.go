package gribcoll

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"

	"github.com/metwx/gribcoll/codec"
)

// AxisKind distinguishes the canonical axes a variable or coordinate
// variable may carry.
type AxisKind uint8

const (
	AxisTime AxisKind = iota
	AxisTimeBounds
	AxisEnsemble
	AxisVertical
	AxisVerticalBounds
	AxisY
	AxisX
	AxisProjection
)

func (k AxisKind) String() string {
	switch k {
	case AxisTime:
		return "time"
	case AxisTimeBounds:
		return "time_bounds"
	case AxisEnsemble:
		return "ensemble"
	case AxisVertical:
		return "vertical"
	case AxisVerticalBounds:
		return "vertical_bounds"
	case AxisY:
		return "y"
	case AxisX:
		return "x"
	case AxisProjection:
		return "projection"
	default:
		return "unknown"
	}
}

// axisRank fixes the deterministic ordering used to sort a group's
// coordinate variables, independent of the order the index happened to
// list them in.
func axisRank(k AxisKind) int {
	switch k {
	case AxisTime:
		return 0
	case AxisTimeBounds:
		return 1
	case AxisEnsemble:
		return 2
	case AxisVertical:
		return 3
	case AxisVerticalBounds:
		return 4
	case AxisY:
		return 5
	case AxisX:
		return 6
	case AxisProjection:
		return 7
	default:
		return 99
	}
}

// CoordVariable is one coordinate (or coordinate-bounds) variable
// synthesized by the Schema Projector.
type CoordVariable struct {
	Kind AxisKind
	Name string
	Units string
	Values []float64

	// Bounds is populated only for a time_bounds or vert_bounds child
	// variable, one (lower, upper) pair per parent axis position.
	Bounds [][2]float64

	// Params is populated only for AxisProjection, carrying the grid's
	// projection parameters verbatim.
	Params map[string]float64
}

// DataVariable is one data variable synthesized by the Schema Projector:
// one per VariableIndex (or VariableIndexPartitioned).
type DataVariable struct {
	Name, LongName, Units string

	GroupIndex int
	VarIndex int
	Partitioned bool
	Axes []AxisKind
	Missing float32
	GridMapping string
	Parameter int
	LevelType int
	IntvType int
	EnsDerivedType int
	ProbabilityName string
}

// GroupSchema is the projected schema of one Group: its coordinate
// variables, in canonical sorted order, and its data variables.
type GroupSchema struct {
	GroupIndex int
	Coords []CoordVariable
	Data []DataVariable
}

// Schema is the full projected schema of a Collection; it is the
// ground truth for axis ordering used by the Slice Planner.
type Schema struct {
	Groups []GroupSchema
}

func canonicalAxes(hasTime, hasEns, hasVert bool) []AxisKind {
	axes := make([]AxisKind, 0, 5)
	if hasTime {
		axes = append(axes, AxisTime)
	}
	if hasEns {
		axes = append(axes, AxisEnsemble)
	}
	if hasVert {
		axes = append(axes, AxisVertical)
	}
	axes = append(axes, AxisY, AxisX)
	return axes
}

func projectTimeCoord(t TimeCoord) []CoordVariable {
	out := []CoordVariable{{Kind: AxisTime, Name: t.Name, Units: t.Units}}
	if !t.IsInterval {
		vals := make([]float64, len(t.Offsets))
		for i, o := range t.Offsets {
			vals[i] = float64(o)
		}
		out[0].Values = vals
		return out
	}
	vals := make([]float64, len(t.Bounds))
	bounds := make([][2]float64, len(t.Bounds))
	for i, b := range t.Bounds {
		vals[i] = float64(b.Bounds1+b.Bounds2) / 2
		bounds[i] = [2]float64{float64(b.Bounds1), float64(b.Bounds2)}
	}
	out[0].Values = vals
	out = append(out, CoordVariable{
		Kind: AxisTimeBounds,
		Name: t.Name + "_bounds",
		Units: t.Units,
		Bounds: bounds,
	})
	return out
}

func projectVertCoord(v VertCoord) []CoordVariable {
	vals := make([]float64, len(v.Levels))
	for i, lv := range v.Levels {
		vals[i] = lv.Midpoint(v.IsLayer)
	}
	out := []CoordVariable{{Kind: AxisVertical, Name: v.Name, Units: v.Units, Values: vals}}
	if !v.IsLayer {
		return out
	}
	bounds := make([][2]float64, len(v.Levels))
	for i, lv := range v.Levels {
		bounds[i] = [2]float64{lv.Value1, lv.Value2}
	}
	out = append(out, CoordVariable{
		Kind: AxisVerticalBounds,
		Name: v.Name + "_bounds",
		Units: v.Units,
		Bounds: bounds,
	})
	return out
}

func projectEnsCoord(e EnsCoord) CoordVariable {
	vals := make([]float64, len(e.Members))
	for i, m := range e.Members {
		vals[i] = float64(m)
	}
	return CoordVariable{Kind: AxisEnsemble, Name: e.Name, Values: vals}
}

func projectHorizontal(h *HorizontalCoordSys) []CoordVariable {
	if !h.Kind.projected() {
		lats := h.Lats()
		latVals := make([]float64, len(lats))
		copy(latVals, lats)
		lons := h.Lons()
		lonVals := make([]float64, len(lons))
		copy(lonVals, lons)
		return []CoordVariable{
			{Kind: AxisY, Name: "lat", Units: "degrees_north", Values: latVals},
			{Kind: AxisX, Name: "lon", Units: "degrees_east", Values: lonVals},
		}
	}
	ys := make([]float64, h.Ny)
	for i := range ys {
		ys[i] = h.StartY + float64(i)*h.Dy
	}
	xs := make([]float64, h.Nx)
	for i := range xs {
		xs[i] = h.StartX + float64(i)*h.Dx
	}
	return []CoordVariable{
		{Kind: AxisY, Name: "y", Units: "km", Values: ys},
		{Kind: AxisX, Name: "x", Units: "km", Values: xs},
		{Kind: AxisProjection, Name: h.ProjName, Params: h.ProjParams},
	}
}

// Project synthesizes the schema of c. params resolves parameter
// metadata for naming; it is the same external collaborator
// threaded through Open's Collaborators.
func Project(c *Collection, params codec.ParamTable) (*Schema, error) {
	sch := &Schema{Groups: make([]GroupSchema, len(c.Groups))}

	for gi, g := range c.Groups {
		gs := GroupSchema{GroupIndex: gi}

		for _, tc := range g.TimeCoords {
			gs.Coords = append(gs.Coords, projectTimeCoord(tc)...)
		}
		for _, ec := range g.EnsCoords {
			gs.Coords = append(gs.Coords, projectEnsCoord(ec))
		}
		for _, vc := range g.VertCoords {
			gs.Coords = append(gs.Coords, projectVertCoord(vc)...)
		}
		gs.Coords = append(gs.Coords, projectHorizontal(&g.HCS)...)

		slices.SortFunc(gs.Coords, func(a, b CoordVariable) int {
			return axisRank(a.Kind) - axisRank(b.Kind)
		})

		if !c.IsPartitioned() {
			names := assignShortNames(params, c.Center, c.Subcenter, g.Variables)
			for vi := range g.Variables {
				v := &g.Variables[vi]
				gs.Data = append(gs.Data, DataVariable{
					Name: names[vi],
					LongName: LongName(params, c.Center, c.Subcenter, v),
					Units: Units(params, c.Center, c.Subcenter, v),
					GroupIndex: gi,
					VarIndex: vi,
					Axes: canonicalAxes(v.hasTimeAxis(), v.hasEnsAxis(), v.hasVertAxis()),
					Missing: float32(math.NaN()),
					GridMapping: g.HCS.ProjName,
					Parameter: v.Parameter,
					LevelType: v.LevelType,
					IntvType: v.IntvType,
					EnsDerivedType: v.EnsDerivedType,
					ProbabilityName: v.ProbabilityName,
				})
			}
			sch.Groups[gi] = gs
			continue
		}

		for vi := range g.VariablesPartitioned {
			vp := &g.VariablesPartitioned[vi]
			ref, err := vp.vindexFor(c, 0)
			if err != nil {
				return nil, err
			}
			gs.Data = append(gs.Data, DataVariable{
				Name: ShortName(params, c.Center, c.Subcenter, ref),
				LongName: LongName(params, c.Center, c.Subcenter, ref),
				Units: Units(params, c.Center, c.Subcenter, ref),
				GroupIndex: gi,
				VarIndex: vi,
				Partitioned: true,
				Axes: canonicalAxes(true, vp.hasEnsAxis(), vp.hasVertAxis()),
				Missing: float32(math.NaN()),
				GridMapping: g.HCS.ProjName,
				Parameter: ref.Parameter,
				LevelType: ref.LevelType,
				IntvType: ref.IntvType,
				EnsDerivedType: ref.EnsDerivedType,
				ProbabilityName: ref.ProbabilityName,
			})
		}
		names := assignPartitionedShortNames(gs.Data)
		for i := range gs.Data {
			gs.Data[i].Name = names[i]
		}
		sch.Groups[gi] = gs
	}

	return sch, nil
}

// assignPartitionedShortNames re-applies the same collision
// suffixing as assignShortNames across a group's partitioned data
// variables, since they were named independently via vindexFor above.
func assignPartitionedShortNames(vars []DataVariable) []string {
	assigned := make([]string, len(vars))
	seen := make([]string, 0, len(vars))
	for i, v := range vars {
		name := v.Name
		if lo.IndexOf(seen, name) == -1 {
			assigned[i] = name
			seen = append(seen, name)
			continue
		}
		suffix := 1
		for {
			candidate := fmt.Sprintf("%s_%d", name, suffix)
			if lo.IndexOf(seen, candidate) == -1 {
				assigned[i] = candidate
				seen = append(seen, candidate)
				break
			}
			suffix++
		}
	}
	return assigned
}
