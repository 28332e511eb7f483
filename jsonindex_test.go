package gribcoll

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/metwx/gribcoll/codec"
	"github.com/metwx/gribcoll/codec/stub"
	"github.com/metwx/gribcoll/recordstore"
)

func marshalWithMagic(t *testing.T, magic string, doc any) []byte {
	t.Helper()
	body, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	return append([]byte(magic), body...)
}

func TestJSONIndexDecoderDecodeFlatBuildsUsableCollection(t *testing.T) {
	doc := jsonFlatDocument{
		Name: "from-json",
		Groups: []jsonGroup{{
			HCS: HorizontalCoordSys{Kind: GridLatLon, Nx: 2, Ny: 2, StartX: 0, StartY: -10, Dx: 1, Dy: 10},
			TimeCoords: []TimeCoord{
				{Name: "time", Units: "hours since 2020-01-01T00:00:00Z", Offsets: []int{0, 6}},
			},
			Variables: []jsonVariable{{
				TableVersion: 2, Parameter: 11, LevelType: 100, IntvType: -1,
				TimeIdx: 0, VertIdx: -1, EnsIdx: -1, Nens: 1, Nverts: 1,
				Records: []recordstore.Pair{{FileNo: 0, Pos: 0}, {FileNo: 0, Pos: 100}},
			}},
		}},
	}
	raw := marshalWithMagic(t, MagicFlat, doc)

	var opened []int
	collab := Collaborators{OpenFile: func(fileno int) (codec.Stream, error) {
		opened = append(opened, fileno)
		return noopStream(), nil
	}}

	coll, err := Open(bytes.NewReader(raw), JSONIndexDecoder{}, collab)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if coll.Name != "from-json" {
		t.Fatalf("got name %q", coll.Name)
	}

	cod := &stub.Codec{Grid: func(pos int64, y, x int) float32 { return float32(pos) }}
	reader := NewReader(coll, nil, Collaborators{Codec: cod})
	arr, diags, err := reader.Read(context.Background(), 0, 0, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	strides := outputStrides(arr.Shape)
	if arr.Data[1*strides[0]] != 100 {
		t.Fatalf("time slot 1 = %v, want 100", arr.Data[1*strides[0]])
	}
	// Both records live in fileno 0, so the file is opened once.
	if len(opened) != 1 {
		t.Fatalf("got %d file opens, want 1", len(opened))
	}
}

func TestJSONIndexDecoderDecodePartitionedLazilyLoadsEachPartition(t *testing.T) {
	doc := jsonPartitionDocument{
		Name: "partitioned-from-json",
		Partitions: []jsonFlatDocument{
			{
				Name: "A",
				Groups: []jsonGroup{{
					HCS:        HorizontalCoordSys{Kind: GridLatLon, Nx: 2, Ny: 2, StartX: 0, StartY: -10, Dx: 1, Dy: 10},
					TimeCoords: []TimeCoord{{Name: "time", Units: "hours since 2020-01-01T00:00:00Z", Offsets: []int{0}}},
					Variables: []jsonVariable{{
						TimeIdx: 0, VertIdx: -1, EnsIdx: -1, Nens: 1, Nverts: 1,
						Records: []recordstore.Pair{{FileNo: 0, Pos: 0}},
					}},
				}},
			},
			{
				Name: "B",
				Groups: []jsonGroup{{
					HCS:        HorizontalCoordSys{Kind: GridLatLon, Nx: 2, Ny: 2, StartX: 0, StartY: -10, Dx: 1, Dy: 10},
					TimeCoords: []TimeCoord{{Name: "time", Units: "hours since 2020-01-01T00:00:00Z", Offsets: []int{6}}},
					Variables: []jsonVariable{{
						TimeIdx: 0, VertIdx: -1, EnsIdx: -1, Nens: 1, Nverts: 1,
						Records: []recordstore.Pair{{FileNo: 0, Pos: 200}},
					}},
				}},
			},
		},
		Groups: []jsonPartitionedGroup{{
			HCS: HorizontalCoordSys{Kind: GridLatLon, Nx: 2, Ny: 2, StartX: 0, StartY: -10, Dx: 1, Dy: 10},
			VariablesPartitioned: []jsonPartitionedVariable{{
				EnsIdx: -1, VertIdx: -1, Nens: 1, Nverts: 1,
				TimeUnion: TimeCoordUnion{Entries: []TimeUnionEntry{
					{PartitionIndex: 0, LocalIndex: 0},
					{PartitionIndex: 1, LocalIndex: 0},
				}},
				PartitionVarIndex: []PartitionVarRef{{GroupIndex: 0, VarIndex: 0}, {GroupIndex: 0, VarIndex: 0}},
			}},
		}},
	}
	raw := marshalWithMagic(t, MagicPartitioned, doc)

	collab := Collaborators{OpenFile: func(int) (codec.Stream, error) { return noopStream(), nil }}
	coll, err := Open(bytes.NewReader(raw), JSONIndexDecoder{}, collab)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !coll.IsPartitioned() || len(coll.Partitions) != 2 {
		t.Fatalf("got partitions %v", coll.Partitions)
	}

	cod := &stub.Codec{Grid: func(pos int64, y, x int) float32 { return float32(pos) }}
	reader := NewReader(coll, nil, Collaborators{Codec: cod})
	arr, diags, err := reader.Read(context.Background(), 0, 0, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	strides := outputStrides(arr.Shape)
	if arr.Data[0] != 0 || arr.Data[1*strides[0]] != 200 {
		t.Fatalf("got %v", arr.Data)
	}
}

func TestJSONIndexDecoderRejectsMalformedBody(t *testing.T) {
	raw := append([]byte(MagicFlat), []byte("not json")...)
	_, err := Open(bytes.NewReader(raw), JSONIndexDecoder{}, Collaborators{})
	if !errors.Is(err, ErrIndexCorrupt) {
		t.Fatalf("got %v, want ErrIndexCorrupt", err)
	}
}
