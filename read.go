package gribcoll

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/alitto/pond"

	"github.com/metwx/gribcoll/codec"
)

// DenseFloatArray is the dense output of one Read: Data is row-major in
// Shape, which is itself ordered per AxisOrder. A cell left at
// NaN is either MISSING_RECORD or a contained failure reported through
// the accompanying []Diagnostic.
type DenseFloatArray struct {
	Shape []int
	Data []float32
}

func outputStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

func flatOutIndex(axes []AxisKind, strides []int, rec DataRecord) int {
	idx := 0
	for i, a := range axes {
		switch a {
		case AxisTime:
			idx += rec.OutT * strides[i]
		case AxisEnsemble:
			idx += rec.OutE * strides[i]
		case AxisVertical:
			idx += rec.OutV * strides[i]
		}
	}
	return idx
}

// placeSubgrid copies the selected (yR, xR) sub-rectangle of a freshly
// decoded ny*nx grid into data at the (t,e,v) position base. AxisY and
// AxisX are always the last two entries of axes (canonicalAxes).
func placeSubgrid(data []float32, base int, strides []int, axes []AxisKind, grid []float32, nx int, yR, xR Range) {
	yStride := strides[len(axes)-2]
	xStride := strides[len(axes)-1]
	for yi := 0; yi < yR.Len(); yi++ {
		y := yR.At(yi)
		for xi := 0; xi < xR.Len(); xi++ {
			x := xR.At(xi)
			data[base+yi*yStride+xi*xStride] = grid[y*nx+x]
		}
	}
}

// fileOpenerFor returns a (partno, fileno) -> Stream resolver spanning
// both flat collections (partno is always 0, resolved via c.OpenFile) and
// partitioned ones (resolved via that partition's own file provider).
func fileOpenerFor(c *Collection) func(partno, fileno int) (codec.Stream, error) {
	if !c.IsPartitioned() {
		return func(_ int, fileno int) (codec.Stream, error) {
			return c.OpenFile(fileno)
		}
	}
	return func(partno, fileno int) (codec.Stream, error) {
		if partno < 0 || partno >= len(c.Partitions) {
			return nil, fmt.Errorf("%w: partition %d out of range", ErrIndexCorrupt, partno)
		}
		return c.Partitions[partno].OpenFile(fileno)
	}
}

// executeRecords is the Read Executor (C5): it walks records in the order
// the planner sorted them (by partno, then fileno, then pos), opening
// each file handle at most once and sweeping its records in ascending
// position before moving on, so repeated reads of one file stay
// sequential.
func executeRecords(ctx context.Context, c *Collection, cod codec.GribCodec, scanMode codec.ScanMode, ny, nx int, plan *Plan) (DenseFloatArray, []Diagnostic, error) {
	total := 1
	for _, s := range plan.Shape {
		total *= s
	}
	data := make([]float32, total)
	nan := float32(math.NaN())
	for i := range data {
		data[i] = nan
	}

	strides := outputStrides(plan.Shape)
	open := fileOpenerFor(c)

	var diags []Diagnostic
	var curStream codec.Stream
	curPartNo, curFileNo := -1, -1
	defer func() {
		if curStream != nil {
			curStream.Close()
		}
	}()

	for _, rec := range plan.Records {
		if err := ctx.Err(); err != nil {
			return DenseFloatArray{}, diags, fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		outIdx := flatOutIndex(plan.AxisOrder, strides, rec)
		if rec.Missing {
			continue
		}

		if curStream == nil || rec.PartNo != curPartNo || rec.FileNo != curFileNo {
			if curStream != nil {
				curStream.Close()
				curStream = nil
			}
			s, err := open(rec.PartNo, rec.FileNo)
			if err != nil {
				diags = append(diags, Diagnostic{Kind: DiagFileUnavailable, Message: err.Error(), ResultIndex: outIdx})
				curFileNo = -1
				continue
			}
			curStream, curPartNo, curFileNo = s, rec.PartNo, rec.FileNo
		}

		grid, err := cod.Decode(curStream, rec.Pos, ny*nx, scanMode, nx)
		if err != nil {
			diags = append(diags, Diagnostic{Kind: DiagDecodeFailure, Message: err.Error(), ResultIndex: outIdx})
			continue
		}
		placeSubgrid(data, outIdx, strides, plan.AxisOrder, grid, nx, plan.YRange, plan.XRange)
	}

	return DenseFloatArray{Shape: plan.Shape, Data: data}, diags, nil
}

// Reader, built by NewReader, is the read-only entry point for planning
// and executing reads against one already-opened Collection.
type Reader struct {
	coll *Collection
	schema *Schema
	collab Collaborators
}

// NewReader builds a Reader over an already-decoded Collection and its
// projected Schema.
func NewReader(coll *Collection, schema *Schema, collab Collaborators) *Reader {
	return &Reader{coll: coll, schema: schema, collab: collab}
}

// Schema returns the projected schema backing this Reader.
func (r *Reader) Schema() *Schema { return r.schema }

// DetailInfo returns a diagnostic dump of the index backing this Reader:
// the horizontal grid size per group, and per variable its short name
// (when a Schema was supplied) and its nens/nverts, plus the time-entry
// count for a partitioned variable. Its format is not a contract;
// nothing in gribcoll parses it back.
func (r *Reader) DetailInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "collection %q\n", r.coll.Name)
	for gi, g := range r.coll.Groups {
		fmt.Fprintf(&b, "group %d: grid %dx%d (ny x nx)\n", gi, g.HCS.Ny, g.HCS.Nx)
		if !r.coll.IsPartitioned() {
			for vi, v := range g.Variables {
				fmt.Fprintf(&b, "  variable %d %q: nens=%d nverts=%d\n", vi, r.dataVarName(gi, vi), v.Nens, v.Nverts)
			}
			continue
		}
		for vi, v := range g.VariablesPartitioned {
			fmt.Fprintf(&b, "  partitioned variable %d %q: time-entries=%d nens=%d nverts=%d\n",
				vi, r.dataVarName(gi, vi), v.TimeUnion.Size(), v.Nens, v.Nverts)
		}
	}
	return b.String()
}

func (r *Reader) dataVarName(groupIndex, varIndex int) string {
	if r.schema == nil || groupIndex >= len(r.schema.Groups) {
		return "?"
	}
	data := r.schema.Groups[groupIndex].Data
	if varIndex >= len(data) {
		return "?"
	}
	return data[varIndex].Name
}

// Read plans and executes one read against groupIndex/varIndex, applying
// sel per axis. A nil or missing Range in sel selects that
// axis in full.
func (r *Reader) Read(ctx context.Context, groupIndex, varIndex int, sel map[AxisKind]Range) (DenseFloatArray, []Diagnostic, error) {
	if r.collab.Codec == nil {
		return DenseFloatArray{}, nil, ErrNoCodec
	}
	if groupIndex < 0 || groupIndex >= len(r.coll.Groups) {
		return DenseFloatArray{}, nil, fmt.Errorf("%w: group index %d out of range", ErrInvalidRequest, groupIndex)
	}
	g := r.coll.Groups[groupIndex]

	var plan *Plan
	var err error
	if r.coll.IsPartitioned() {
		plan, err = PlanReadPartitioned(r.coll, groupIndex, varIndex, sel)
	} else {
		plan, err = PlanRead(r.coll, groupIndex, varIndex, sel)
	}
	if err != nil {
		return DenseFloatArray{}, nil, err
	}

	scanMode := codec.ScanMode(g.HCS.ScanMode)
	return executeRecords(ctx, r.coll, r.collab.Codec, scanMode, g.HCS.Ny, g.HCS.Nx, plan)
}

// Close releases this Reader. The Collection's file handles are opened
// and closed within each Read call and the Reader holds no other
// resources, so Close does nothing and always returns nil.
func (r *Reader) Close() error {
	return nil
}

// ReadRequest is one independent read, as submitted to ReadMany.
type ReadRequest struct {
	GroupIndex, VarIndex int
	Selection map[AxisKind]Range
}

// ReadResult is the outcome of one ReadRequest.
type ReadResult struct {
	Array DenseFloatArray
	Diagnostics []Diagnostic
	Err error
}

// ReadMany fans independent read requests out across a bounded worker
// pool. Results are returned in the same order as reqs regardless of
// completion order.
func (r *Reader) ReadMany(ctx context.Context, reqs []ReadRequest, concurrency int) []ReadResult {
	if concurrency <= 0 {
		concurrency = 1
	}
	pool := pond.New(concurrency, 0, pond.MinWorkers(concurrency), pond.Context(ctx))
	defer pool.StopAndWait()

	results := make([]ReadResult, len(reqs))
	for i, req := range reqs {
		i, req := i, req
		pool.Submit(func() {
			arr, diags, err := r.Read(ctx, req.GroupIndex, req.VarIndex, req.Selection)
			results[i] = ReadResult{Array: arr, Diagnostics: diags, Err: err}
		})
	}
	return results
}
