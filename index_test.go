package gribcoll

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/metwx/gribcoll/recordstore"
)

func TestCalcIndexFlattensRowMajor(t *testing.T) {
	// nens=2, nverts=3: index should match (t*nens+e)*nverts+v.
	got := calcIndex(1, 1, 2, 2, 3)
	want := (1*2 + 1) * 3 + 2
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestEnsureRecordsHydratesAtMostOnce(t *testing.T) {
	store := &countingHydrateStore{inner: &recordstore.StaticStore{
		Pairs: []recordstore.Pair{{FileNo: 1, Pos: 0}, {FileNo: 1, Pos: 10}},
	}}
	v := &VariableIndex{Nens: 1, Nverts: 1, store: store}

	var wg sync.WaitGroup
	results := make([][]Record, 8)
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			results[i], errs[i] = v.ensureRecords(2)
		}()
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("ensureRecords: %v", errs[i])
		}
	}
	for i := 1; i < len(results); i++ {
		if len(results[i]) != len(results[0]) {
			t.Fatalf("concurrent hydrations disagree on record count")
		}
	}
	if len(results[0]) != 2 || results[0][1].Pos != 10 {
		t.Fatalf("got %+v", results[0])
	}
	if store.calls != 1 {
		t.Fatalf("store hydrated %d times, want 1", store.calls)
	}
}

func TestEnsureRecordsSizeMismatch(t *testing.T) {
	store := &recordstore.StaticStore{Pairs: []recordstore.Pair{{FileNo: 1, Pos: 0}}}
	v := &VariableIndex{Nens: 1, Nverts: 1, store: store}
	_, err := v.ensureRecords(2) // wants nt*nens*nverts == 2, store has 1
	if !errors.Is(err, ErrRecordSizeMismatch) {
		t.Fatalf("got %v, want ErrRecordSizeMismatch", err)
	}
}

type recordingDecoder struct {
	flat, part bool
}

func (d *recordingDecoder) DecodeFlat(r io.Reader, collab Collaborators) (*Collection, error) {
	d.flat = true
	return &Collection{Name: "flat"}, nil
}

func (d *recordingDecoder) DecodePartitioned(r io.Reader, collab Collaborators) (*Collection, error) {
	d.part = true
	return &Collection{Name: "partitioned"}, nil
}

func TestOpenUnknownMagic(t *testing.T) {
	dec := &recordingDecoder{}
	_, err := Open(bytes.NewReader([]byte("ZZZZrest")), dec, Collaborators{})
	if !errors.Is(err, ErrUnknownMagic) {
		t.Fatalf("got %v, want ErrUnknownMagic", err)
	}
}

func TestOpenTruncated(t *testing.T) {
	dec := &recordingDecoder{}
	_, err := Open(bytes.NewReader([]byte("GB")), dec, Collaborators{})
	if !errors.Is(err, ErrTruncatedIndex) {
		t.Fatalf("got %v, want ErrTruncatedIndex", err)
	}
}

func TestOpenFlatMagic(t *testing.T) {
	dec := &recordingDecoder{}
	c, err := Open(bytes.NewReader([]byte(MagicFlat+"rest")), dec, Collaborators{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !dec.flat || dec.part {
		t.Fatal("expected DecodeFlat to be called")
	}
	if c.Name != "flat" {
		t.Fatalf("got %q", c.Name)
	}
}

func TestOpenPartitionedMagic(t *testing.T) {
	dec := &recordingDecoder{}
	c, err := Open(bytes.NewReader([]byte(MagicPartitioned+"rest")), dec, Collaborators{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !dec.part || dec.flat {
		t.Fatal("expected DecodePartitioned to be called")
	}
	if c.Name != "partitioned" {
		t.Fatalf("got %q", c.Name)
	}
}
