// Package recordstore backs the lazy record tables of a collection: a
// VariableIndex's (or a partition's per-variable index's) records[] array
// is persisted as a small dense TileDB array and read in a single dense
// query the first time it is needed. This is index metadata (fileno/pos
// pairs), never a cache of decoded grid data.
package recordstore

import (
	"context"
	"fmt"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// Pair is one (fileno, pos) record as persisted in the store; Pos ==
// MissingPos represents MISSING_RECORD, mirrored from the gribcoll package
// to avoid an import cycle (recordstore must not depend on gribcoll).
type Pair struct {
	FileNo uint32
	Pos int64
}

// MissingPos is the reserved Pos value for a record with no backing
// message, matching gribcoll.MissingPos.
const MissingPos int64 = -1

// Store hydrates one VariableIndex's (or partition variable's) records
// table from its backing TileDB array.
type Store interface {
	// Hydrate reads the full records array in one dense query, in
	// ascending flattened-index order.
	Hydrate(ctx context.Context) ([]Pair, error)
}

// arrayName is the dimension name of the 1-D dense records array.
const arrayName = "cell"

// TileDBStore is a Store backed by a TileDB dense array with two
// attributes, "fileno" (uint32) and "pos" (int64), dimensioned by the
// flattened calcIndex(t, e, v).
type TileDBStore struct {
	ctx *tiledb.Context
	uri string
	size int // number of cells, i.e. nt*nens*nverts
}

// NewTileDBStore constructs a Store reading size records from the dense
// array at uri.
func NewTileDBStore(ctx *tiledb.Context, uri string, size int) *TileDBStore {
	return &TileDBStore{ctx: ctx, uri: uri, size: size}
}

func (s *TileDBStore) Hydrate(ctx context.Context) ([]Pair, error) {
	array, err := tiledb.NewArray(s.ctx, s.uri)
	if err != nil {
		return nil, fmt.Errorf("recordstore: opening array %q: %w", s.uri, err)
	}
	defer array.Free()

	if err := array.Open(tiledb.TILEDB_READ); err != nil {
		return nil, fmt.Errorf("recordstore: opening array %q for read: %w", s.uri, err)
	}
	defer array.Close()

	query, err := tiledb.NewQuery(s.ctx, array)
	if err != nil {
		return nil, fmt.Errorf("recordstore: building query for %q: %w", s.uri, err)
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, fmt.Errorf("recordstore: setting layout for %q: %w", s.uri, err)
	}

	subarr, err := array.NewSubarray()
	if err != nil {
		return nil, fmt.Errorf("recordstore: building subarray for %q: %w", s.uri, err)
	}
	defer subarr.Free()

	rng := tiledb.MakeRange(uint64(0), uint64(s.size-1))
	if err := subarr.AddRangeByName(arrayName, rng); err != nil {
		return nil, fmt.Errorf("recordstore: setting subarray range for %q: %w", s.uri, err)
	}
	if err := query.SetSubarray(subarr); err != nil {
		return nil, fmt.Errorf("recordstore: applying subarray for %q: %w", s.uri, err)
	}

	fileNos := make([]uint32, s.size)
	positions := make([]int64, s.size)

	if _, err := query.SetDataBuffer("fileno", fileNos); err != nil {
		return nil, fmt.Errorf("recordstore: setting fileno buffer for %q: %w", s.uri, err)
	}
	if _, err := query.SetDataBuffer("pos", positions); err != nil {
		return nil, fmt.Errorf("recordstore: setting pos buffer for %q: %w", s.uri, err)
	}

	if err := query.Submit(); err != nil {
		return nil, fmt.Errorf("recordstore: submitting query for %q: %w", s.uri, err)
	}

	out := make([]Pair, s.size)
	for i := range out {
		out[i] = Pair{FileNo: fileNos[i], Pos: positions[i]}
	}
	return out, nil
}

// StaticStore is a Store that returns a fixed, already-known set of pairs;
// used by tests and by any caller that has already materialized its
// records without going through TileDB.
type StaticStore struct {
	Pairs []Pair
}

func (s *StaticStore) Hydrate(ctx context.Context) ([]Pair, error) {
	return s.Pairs, nil
}
