package gribcoll

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Range selects a strided slice of one axis: indices First, First+Stride,
// and so on, up to and including Last.
type Range struct {
	First, Last, Stride int
}

// FullRange selects every index of an axis of the given size.
func FullRange(size int) Range {
	return Range{First: 0, Last: size - 1, Stride: 1}
}

// Len reports how many indices r selects.
func (r Range) Len() int {
	if r.Stride <= 0 {
		return 0
	}
	if r.Last < r.First {
		return 0
	}
	return (r.Last-r.First)/r.Stride + 1
}

// At returns the i'th selected index, 0 <= i < r.Len().
func (r Range) At(i int) int {
	return r.First + i*r.Stride
}

func (r Range) normalize(size int) (Range, error) {
	stride := r.Stride
	if stride == 0 {
		stride = 1
	}
	if stride < 1 {
		return r, fmt.Errorf("%w: stride must be >= 1, got %d", ErrInvalidRequest, stride)
	}
	if r.First < 0 || r.First >= size {
		return r, fmt.Errorf("%w: first index %d out of range [0,%d)", ErrInvalidRequest, r.First, size)
	}
	if r.Last < r.First || r.Last >= size {
		return r, fmt.Errorf("%w: last index %d out of range [%d,%d)", ErrInvalidRequest, r.Last, r.First, size)
	}
	return Range{First: r.First, Last: r.Last, Stride: stride}, nil
}

func resolveRange(sel map[AxisKind]Range, axis AxisKind, size int) (Range, error) {
	r, ok := sel[axis]
	if !ok {
		return FullRange(size), nil
	}
	return r.normalize(size)
}

// DataRecord is one planned unit of I/O: the backing file position for one
// (t,e,v) cell, and where in the caller's output buffer it lands. Planning
// never touches a file; it only resolves positions from already-hydrated
// (or lazily hydrated) record tables.
type DataRecord struct {
	PartNo int
	FileNo int
	Pos int64

	OutT, OutE, OutV int
	Missing bool
}

// Plan is the output of the Slice Planner (C4): the output shape in
// AxisOrder, the horizontal crop, and the sorted list of records the Read
// Executor (C5) must visit.
type Plan struct {
	AxisOrder []AxisKind
	Shape []int
	YRange, XRange Range
	Records []DataRecord
}

func sortRecords(records []DataRecord) {
	slices.SortFunc(records, func(a, b DataRecord) int {
		if a.PartNo != b.PartNo {
			return a.PartNo - b.PartNo
		}
		if a.FileNo != b.FileNo {
			return a.FileNo - b.FileNo
		}
		if a.Pos < b.Pos {
			return -1
		}
		if a.Pos > b.Pos {
			return 1
		}
		return 0
	})
}

func checkAxisPresence(sel map[AxisKind]Range, present map[AxisKind]bool) error {
	for axis := range sel {
		if axis == AxisY || axis == AxisX {
			continue
		}
		if !present[axis] {
			return fmt.Errorf("%w: variable has no axis of kind %d", ErrInvalidRequest, axis)
		}
	}
	return nil
}

func shapeFor(axes []AxisKind, tR, eR, vR, yR, xR Range) []int {
	shape := make([]int, 0, len(axes))
	for _, a := range axes {
		switch a {
		case AxisTime:
			shape = append(shape, tR.Len())
		case AxisEnsemble:
			shape = append(shape, eR.Len())
		case AxisVertical:
			shape = append(shape, vR.Len())
		case AxisY:
			shape = append(shape, yR.Len())
		case AxisX:
			shape = append(shape, xR.Len())
		}
	}
	return shape
}

// PlanRead resolves sel into a Plan for one flat (non-partitioned)
// variable. sel may omit any axis to select it in full; it is an
// error to select an axis the variable does not carry.
func PlanRead(c *Collection, groupIndex, varIndex int, sel map[AxisKind]Range) (*Plan, error) {
	if groupIndex < 0 || groupIndex >= len(c.Groups) {
		return nil, fmt.Errorf("%w: group index %d out of range", ErrInvalidRequest, groupIndex)
	}
	g := c.Groups[groupIndex]
	if varIndex < 0 || varIndex >= len(g.Variables) {
		return nil, fmt.Errorf("%w: variable index %d out of range", ErrInvalidRequest, varIndex)
	}
	v := &g.Variables[varIndex]

	nt := 1
	if v.hasTimeAxis() {
		nt = g.TimeCoords[v.TimeIdx].Size()
	}
	ne := 1
	if v.hasEnsAxis() {
		ne = v.Nens
	}
	nv := 1
	if v.hasVertAxis() {
		nv = v.Nverts
	}
	ny, nx := g.HCS.Ny, g.HCS.Nx

	axes := canonicalAxes(v.hasTimeAxis(), v.hasEnsAxis(), v.hasVertAxis())
	present := map[AxisKind]bool{}
	for _, a := range axes {
		present[a] = true
	}
	if err := checkAxisPresence(sel, present); err != nil {
		return nil, err
	}

	tR, err := resolveRange(sel, AxisTime, nt)
	if err != nil {
		return nil, err
	}
	eR, err := resolveRange(sel, AxisEnsemble, ne)
	if err != nil {
		return nil, err
	}
	vR, err := resolveRange(sel, AxisVertical, nv)
	if err != nil {
		return nil, err
	}
	yR, err := resolveRange(sel, AxisY, ny)
	if err != nil {
		return nil, err
	}
	xR, err := resolveRange(sel, AxisX, nx)
	if err != nil {
		return nil, err
	}

	records, err := v.ensureRecords(nt)
	if err != nil {
		return nil, err
	}

	out := make([]DataRecord, 0, tR.Len()*eR.Len()*vR.Len())
	for ti := 0; ti < tR.Len(); ti++ {
		t := tR.At(ti)
		for ei := 0; ei < eR.Len(); ei++ {
			e := eR.At(ei)
			for vi := 0; vi < vR.Len(); vi++ {
				vv := vR.At(vi)
				rec := records[calcIndex(t, e, vv, ne, nv)]
				out = append(out, DataRecord{
					FileNo: rec.FileNo,
					Pos: rec.Pos,
					OutT: ti,
					OutE: ei,
					OutV: vi,
					Missing: rec.Missing(),
				})
			}
		}
	}
	sortRecords(out)

	return &Plan{
		AxisOrder: axes,
		Shape: shapeFor(axes, tR, eR, vR, yR, xR),
		YRange: yR,
		XRange: xR,
		Records: out,
	}, nil
}

// partitionLocalTimeSize resolves the size of ref's own time axis within
// the partition that owns it, needed to validate ref's record table.
func partitionLocalTimeSize(tp *Collection, partno int, ref *VariableIndex) (int, error) {
	part := tp.Partitions[partno]
	coll, err := part.collection()
	if err != nil {
		return 0, err
	}
	if ref.GroupIndex < 0 || ref.GroupIndex >= len(coll.Groups) {
		return 0, fmt.Errorf("%w: partition %d group index out of range", ErrIndexCorrupt, partno)
	}
	g := coll.Groups[ref.GroupIndex]
	if !ref.hasTimeAxis() {
		return 1, nil
	}
	if ref.TimeIdx < 0 || ref.TimeIdx >= len(g.TimeCoords) {
		return 0, fmt.Errorf("%w: partition %d time index out of range", ErrIndexCorrupt, partno)
	}
	return g.TimeCoords[ref.TimeIdx].Size(), nil
}

// PlanReadPartitioned resolves sel into a Plan for one time-partitioned
// variable: the global time axis is looked up through the
// group's TimeCoordUnion, and each selected global time index may pull
// its record from a different partition's own (lazily hydrated) index.
func PlanReadPartitioned(c *Collection, groupIndex, varIndex int, sel map[AxisKind]Range) (*Plan, error) {
	if groupIndex < 0 || groupIndex >= len(c.Groups) {
		return nil, fmt.Errorf("%w: group index %d out of range", ErrInvalidRequest, groupIndex)
	}
	g := c.Groups[groupIndex]
	if varIndex < 0 || varIndex >= len(g.VariablesPartitioned) {
		return nil, fmt.Errorf("%w: variable index %d out of range", ErrInvalidRequest, varIndex)
	}
	vp := &g.VariablesPartitioned[varIndex]

	nt := vp.TimeUnion.Size()
	ne := 1
	if vp.hasEnsAxis() {
		ne = vp.Nens
	}
	nv := 1
	if vp.hasVertAxis() {
		nv = vp.Nverts
	}
	ny, nx := g.HCS.Ny, g.HCS.Nx

	axes := canonicalAxes(true, vp.hasEnsAxis(), vp.hasVertAxis())
	present := map[AxisKind]bool{}
	for _, a := range axes {
		present[a] = true
	}
	if err := checkAxisPresence(sel, present); err != nil {
		return nil, err
	}

	tR, err := resolveRange(sel, AxisTime, nt)
	if err != nil {
		return nil, err
	}
	eR, err := resolveRange(sel, AxisEnsemble, ne)
	if err != nil {
		return nil, err
	}
	vR, err := resolveRange(sel, AxisVertical, nv)
	if err != nil {
		return nil, err
	}
	yR, err := resolveRange(sel, AxisY, ny)
	if err != nil {
		return nil, err
	}
	xR, err := resolveRange(sel, AxisX, nx)
	if err != nil {
		return nil, err
	}

	// refCache avoids re-resolving vindexFor/partitionLocalTimeSize once
	// per (e,v) pair for the same partition.
	type refEntry struct {
		ref *VariableIndex
		nt int
	}
	refCache := map[int]refEntry{}

	out := make([]DataRecord, 0, tR.Len()*eR.Len()*vR.Len())
	for ti := 0; ti < tR.Len(); ti++ {
		t := tR.At(ti)
		partno, localT, err := vp.TimeUnion.Lookup(t)
		if err != nil {
			return nil, err
		}
		entry, ok := refCache[partno]
		if !ok {
			ref, err := vp.vindexFor(c, partno)
			if err != nil {
				return nil, err
			}
			localNt, err := partitionLocalTimeSize(c, partno, ref)
			if err != nil {
				return nil, err
			}
			entry = refEntry{ref: ref, nt: localNt}
			refCache[partno] = entry
		}
		records, err := entry.ref.ensureRecords(entry.nt)
		if err != nil {
			return nil, err
		}
		for ei := 0; ei < eR.Len(); ei++ {
			e := eR.At(ei)
			for vi := 0; vi < vR.Len(); vi++ {
				vv := vR.At(vi)
				rec := records[calcIndex(localT, e, vv, ne, nv)]
				out = append(out, DataRecord{
					PartNo: partno,
					FileNo: rec.FileNo,
					Pos: rec.Pos,
					OutT: ti,
					OutE: ei,
					OutV: vi,
					Missing: rec.Missing(),
				})
			}
		}
	}
	sortRecords(out)

	return &Plan{
		AxisOrder: axes,
		Shape: shapeFor(axes, tR, eR, vR, yR, xR),
		YRange: yR,
		XRange: xR,
		Records: out,
	}, nil
}
