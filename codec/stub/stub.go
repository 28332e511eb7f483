// Package stub provides deterministic in-memory fakes of the codec
// contracts, used by gribcoll's _test.go files and as the development
// codec of the gribcat CLI's read command. It is not a GRIB1
// codec: it lets tests pin exactly what a "decoded" grid looks like so the
// placement/coalescing logic under test (C4/C5) can be checked without a
// real message format.
package stub

import (
	"fmt"

	"github.com/metwx/gribcoll/codec"
)

// GridFunc computes the value a decoded grid would hold at (y, x) for the
// message whose byte offset is pos. Tests use this to plant either a
// closed-form encode(t, e, v, y, x) or a constant fill.
type GridFunc func(pos int64, y, x int) float32

// Codec is a GribCodec fake driven entirely by a GridFunc; it never
// touches the Stream it is given except to record that Decode was called
// against it, which lets tests assert seek/open coalescing.
type Codec struct {
	Grid GridFunc
	// FailAt, when non-nil, reports an error for any Decode at this byte
	// offset instead of calling Grid — used to exercise the reader's
	// decode-failure containment policy.
	FailAt map[int64]bool

	// Seen records every (pos) this Codec has been asked to decode, in
	// call order; scenarios_test.go / properties_test.go assert on it.
	Seen []int64
}

func (c *Codec) IsValid(codec.Stream) bool { return true }

func (c *Codec) Decode(stream codec.Stream, pos int64, nPoints int, scanMode codec.ScanMode, nx int) ([]float32, error) {
	c.Seen = append(c.Seen, pos)
	if c.FailAt[pos] {
		return nil, fmt.Errorf("stub: decode failure at pos %d", pos)
	}
	if nx <= 0 || nPoints%nx != 0 {
		return nil, fmt.Errorf("stub: nPoints %d not a multiple of nx %d", nPoints, nx)
	}
	ny := nPoints / nx
	out := make([]float32, nPoints)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			out[y*nx+x] = c.Grid(pos, y, x)
		}
	}
	return out, nil
}

func (c *Codec) ReadHeader(stream codec.Stream, pos int64) (codec.Header, error) {
	return codec.Header{}, nil
}

// ParamTable is a fixed in-memory parameter table fake.
type ParamTable struct {
	Params map[[4]int]codec.ParameterDescriptor
	Levels map[int]string
	Stats map[int]codec.StatType
}

func NewParamTable() *ParamTable {
	return &ParamTable{
		Params: map[[4]int]codec.ParameterDescriptor{},
		Levels: map[int]string{},
		Stats: map[int]codec.StatType{},
	}
}

func (p *ParamTable) GetParameter(center, subcenter, tableVersion, paramNum int) (codec.ParameterDescriptor, bool) {
	d, ok := p.Params[[4]int{center, subcenter, tableVersion, paramNum}]
	return d, ok
}

func (p *ParamTable) GetLevelShort(code int) string {
	if n, ok := p.Levels[code]; ok {
		return n
	}
	return fmt.Sprintf("level%d", code)
}

func (p *ParamTable) GetLevelUnit(code int) (codec.VertUnit, bool) { return codec.VertUnit{}, false }

func (p *ParamTable) GetLevelDescription(code int) string { return p.GetLevelShort(code) }

func (p *ParamTable) GetStatType(intvType int) (codec.StatType, bool) {
	s, ok := p.Stats[intvType]
	return s, ok
}
