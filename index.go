package gribcoll

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/metwx/gribcoll/codec"
	"github.com/metwx/gribcoll/recordstore"
)

// MissingPos is the reserved Record.Pos value denoting "no message for
// this coordinate cell".
const MissingPos int64 = -1

// Record points to one physical GRIB1 message, or is the MISSING sentinel.
type Record struct {
	FileNo int
	Pos int64
}

// MissingRecord is the canonical MISSING_RECORD value.
var MissingRecord = Record{FileNo: -1, Pos: MissingPos}

func (r Record) Missing() bool { return r.Pos == MissingPos }

// calcIndex flattens a (time, ensemble, vertical) coordinate into the dense
// records[] position of a VariableIndex.
func calcIndex(t, e, v, nens, nverts int) int {
	return (t*nens+e)*nverts + v
}

// VariableIndex is the logical variable assembled from many GRIB1 messages
// sharing parameter/level/stat axes over time and ensemble.
type VariableIndex struct {
	TableVersion int
	Parameter int
	LevelType int
	IsLayer bool
	IntvType int // negative => no statistical processing
	EnsDerivedType int
	ProbabilityName string

	TimeIdx, VertIdx, EnsIdx int // negative => axis absent
	Nens, Nverts int

	// GroupIndex is the owning Group's position in Collection.Groups;
	// VariableIndex references its Group by index rather than holding an
	// owning back-pointer.
	GroupIndex int

	// cdmHash is an unexported hash slot for the fields that determine a
	// variable's base name. Nothing in this package sets or reads it;
	// short-name collision detection compares the synthesized names.
	cdmHash uint64

	records []Record
	store recordstore.Store
	recordsOnce sync.Once
	recordsErr error
}

// hasTimeAxis, hasVertAxis, hasEnsAxis report whether the corresponding
// canonical axis is present for this variable.
func (v *VariableIndex) hasTimeAxis() bool { return v.TimeIdx >= 0 }
func (v *VariableIndex) hasVertAxis() bool { return v.VertIdx >= 0 }
func (v *VariableIndex) hasEnsAxis() bool { return v.EnsIdx >= 0 }

// ensureRecords performs at-most-once late hydration: a VariableIndex
// built with a non-nil record store defers reading its records[] table
// until first needed, and every concurrent caller observes exactly one
// hydration.
func (v *VariableIndex) ensureRecords(nt int) ([]Record, error) {
	v.recordsOnce.Do(func() {
		if v.records != nil || v.store == nil {
			return
		}
		pairs, err := v.store.Hydrate(context.Background())
		if err != nil {
			v.recordsErr = err
			return
		}
		want := nt * v.Nens * v.Nverts
		if len(pairs) != want {
			v.recordsErr = fmt.Errorf("%w: got %d records, want %d", ErrRecordSizeMismatch, len(pairs), want)
			return
		}
		recs := make([]Record, len(pairs))
		for i, p := range pairs {
			recs[i] = Record{FileNo: int(p.FileNo), Pos: p.Pos}
		}
		v.records = recs
	})
	return v.records, v.recordsErr
}

// Group is the horizontal-coordinate group: all variables sharing one
// horizontal grid.
type Group struct {
	HCS HorizontalCoordSys

	TimeCoords []TimeCoord
	VertCoords []VertCoord
	EnsCoords []EnsCoord

	// Variables holds this group's logical variables for a flat
	// collection. VariablesPartitioned holds them instead for a
	// time-partitioned collection's own (top-level) groups; exactly one
	// of the two is populated, selected by the owning Collection's
	// IsPartitioned().
	Variables []VariableIndex
	VariablesPartitioned []VariableIndexPartitioned
}

// Collection is the root of an opened index. A Collection is either
// flat (Partitions is nil) or a TimePartition (Partitions is non-nil).
type Collection struct {
	Name string // diagnostic only

	Center, Subcenter, LocalTableVersion, GenProcessId int

	Groups []*Group

	// Partitions is non-nil exactly when this Collection is a
	// TimePartition; each element is itself a Collection with its own
	// file-handle provider.
	Partitions []*Partition

	openFile func(fileno int) (codec.Stream, error)
}

// IsPartitioned reports whether this Collection is a TimePartition.
func (c *Collection) IsPartitioned() bool { return c.Partitions != nil }

// OpenFile opens the physical file numbered fileno via this collection's
// file-handle provider.
func (c *Collection) OpenFile(fileno int) (codec.Stream, error) {
	if c.openFile == nil {
		return nil, fmt.Errorf("%w: collection %q has no file provider", ErrFileUnavailable, c.Name)
	}
	return c.openFile(fileno)
}

// Collaborators bundles the external collaborators a collection
// needs once opened: the GRIB1 message codec, the parameter-table lookup
// service, the configured Options, and the means to open physical files.
type Collaborators struct {
	Codec codec.GribCodec
	Params codec.ParamTable
	Options

	// OpenFile resolves a file-handle provider for a flat collection (or
	// for one partition, scoped to that partition).
	OpenFile func(fileno int) (codec.Stream, error)
}

// IndexDecoder decodes the index payload following the magic prefix
// recognized by Open. The wire format itself belongs to the external
// indexer; gribcoll only recognizes the magic prefix and
// dispatches to the appropriate decode path.
type IndexDecoder interface {
	DecodeFlat(r io.Reader, collab Collaborators) (*Collection, error)
	DecodePartitioned(r io.Reader, collab Collaborators) (*Collection, error)
}

// Magic prefixes recognized by Open.
const (
	MagicFlat = "GB1F"
	MagicPartitioned = "GB1P"
)

// Open recognizes the collection's magic prefix and delegates to dec for
// the rest of the stream.
func Open(r io.Reader, dec IndexDecoder, collab Collaborators) (*Collection, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedIndex, err)
	}
	switch string(magic) {
	case MagicFlat:
		return dec.DecodeFlat(r, collab)
	case MagicPartitioned:
		return dec.DecodePartitioned(r, collab)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMagic, magic)
	}
}
