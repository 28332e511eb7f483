package gribcoll

import (
	"fmt"
	"sync"

	"github.com/metwx/gribcoll/codec"
)

// TimeUnionEntry maps one global time-axis position to the partition and
// local time index that hold its data.
type TimeUnionEntry struct {
	PartitionIndex int
	LocalIndex int
}

// TimeCoordUnion is the concatenation-with-mapping of a time-partitioned
// collection's per-partition time axes. It is monotone in time, but
// PartitionIndex may be non-monotone.
type TimeCoordUnion struct {
	Entries []TimeUnionEntry
}

func (u *TimeCoordUnion) Size() int {
	if u == nil {
		return 1
	}
	return len(u.Entries)
}

// Lookup answers the C6 question lookup(globalT) -> (partno, localT) in
// O(1) via the precomputed union table.
func (u *TimeCoordUnion) Lookup(globalT int) (partno, localT int, err error) {
	if globalT < 0 || globalT >= len(u.Entries) {
		return 0, 0, fmt.Errorf("%w: time index %d out of range [0,%d)", ErrInvalidRequest, globalT, len(u.Entries))
	}
	e := u.Entries[globalT]
	return e.PartitionIndex, e.LocalIndex, nil
}

// PartitionVarRef locates, within one partition's own Collection, the
// VariableIndex a VariableIndexPartitioned resolves to for that partition.
type PartitionVarRef struct {
	GroupIndex, VarIndex int
}

// VariableIndexPartitioned is the partitioned analogue of VariableIndex:
// ensemble and vertical axes are shared across all partitions, but the
// time axis and the underlying records are resolved per-partition
// through the enclosing TimePartition.
type VariableIndexPartitioned struct {
	EnsIdx, VertIdx int
	Nens, Nverts int

	GroupIndex int // this collection's own Group this variable belongs to

	TimeUnion *TimeCoordUnion

	// PartitionVarIndex[p] locates this variable within Partitions[p]'s
	// own Collection; resolved lazily by vindexFor.
	PartitionVarIndex []PartitionVarRef
}

func (v *VariableIndexPartitioned) hasVertAxis() bool { return v.VertIdx >= 0 }
func (v *VariableIndexPartitioned) hasEnsAxis() bool { return v.EnsIdx >= 0 }

// vindexFor resolves the flat VariableIndex backing this variable within
// partition partno, hydrating that partition's own index on first access.
// tp is the enclosing TimePartition, passed explicitly rather than held
// as a back-pointer.
func (v *VariableIndexPartitioned) vindexFor(tp *Collection, partno int) (*VariableIndex, error) {
	if partno < 0 || partno >= len(tp.Partitions) {
		return nil, fmt.Errorf("%w: partition index %d out of range", ErrIndexCorrupt, partno)
	}
	if partno >= len(v.PartitionVarIndex) {
		return nil, fmt.Errorf("%w: no variable mapping for partition %d", ErrIndexCorrupt, partno)
	}
	part := tp.Partitions[partno]
	coll, err := part.collection()
	if err != nil {
		return nil, err
	}
	ref := v.PartitionVarIndex[partno]
	if ref.GroupIndex < 0 || ref.GroupIndex >= len(coll.Groups) {
		return nil, fmt.Errorf("%w: partition %d group index out of range", ErrIndexCorrupt, partno)
	}
	g := coll.Groups[ref.GroupIndex]
	if ref.VarIndex < 0 || ref.VarIndex >= len(g.Variables) {
		return nil, fmt.Errorf("%w: partition %d variable index out of range", ErrIndexCorrupt, partno)
	}
	return &g.Variables[ref.VarIndex], nil
}

// PartitionLoader lazily materializes one partition's own Collection
// (groups, variables, and ultimately their records) from its persistent
// form. As with IndexDecoder, the wire format belongs to the external
// indexer; gribcoll only orchestrates the at-most-once load.
type PartitionLoader interface {
	Load(collab Collaborators) (*Collection, error)
}

// Partition is one sub-collection of a TimePartition: a Collection
// with its own file-handle provider, whose own index is hydrated lazily
// and at most once.
type Partition struct {
	Name string
	loader PartitionLoader
	collab Collaborators

	once sync.Once
	coll *Collection
	err error
}

// NewPartition constructs a Partition backed by loader, scoped to collab
// (in particular collab.OpenFile, which resolves fileno within this
// partition only).
func NewPartition(name string, loader PartitionLoader, collab Collaborators) *Partition {
	return &Partition{Name: name, loader: loader, collab: collab}
}

func (p *Partition) collection() (*Collection, error) {
	p.once.Do(func() {
		p.coll, p.err = p.loader.Load(p.collab)
	})
	return p.coll, p.err
}

// OpenFile opens fileno within this partition's own file set.
func (p *Partition) OpenFile(fileno int) (codec.Stream, error) {
	if p.collab.OpenFile == nil {
		return nil, fmt.Errorf("%w: partition %q has no file provider", ErrFileUnavailable, p.Name)
	}
	return p.collab.OpenFile(fileno)
}
