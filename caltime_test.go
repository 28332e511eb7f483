package gribcoll

import (
	"errors"
	"testing"
	"time"
)

func TestParseSinceReferenceValidDate(t *testing.T) {
	got, err := parseSinceReference("hours since 2020-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("parseSinceReference: %v", err)
	}
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseSinceReferenceWithTimeOfDay(t *testing.T) {
	got, err := parseSinceReference("minutes since 1999-12-31 06:30:15")
	if err != nil {
		t.Fatalf("parseSinceReference: %v", err)
	}
	want := time.Date(1999, 12, 31, 6, 30, 15, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseSinceReferenceMissingSince(t *testing.T) {
	_, err := parseSinceReference("hours 2020-01-01")
	if !errors.Is(err, ErrIndexCorrupt) {
		t.Fatalf("got %v, want ErrIndexCorrupt", err)
	}
}

func TestParseSinceReferenceRejectsInvalidCalendarDate(t *testing.T) {
	// February has at most 29 days even in a leap year.
	_, err := parseSinceReference("hours since 2020-02-30T00:00:00Z")
	if !errors.Is(err, ErrIndexCorrupt) {
		t.Fatalf("got %v, want ErrIndexCorrupt", err)
	}
}

func TestParseSinceReferenceRejectsMalformedDate(t *testing.T) {
	_, err := parseSinceReference("hours since 2020/01/01")
	if !errors.Is(err, ErrIndexCorrupt) {
		t.Fatalf("got %v, want ErrIndexCorrupt", err)
	}
}

func TestTimeCoordAbsoluteTimeAppliesOffset(t *testing.T) {
	tc := &TimeCoord{
		Name:    "time",
		Units:   "hours since 2020-01-01T00:00:00Z",
		Offsets: []int{0, 6, 12},
	}
	got, err := tc.AbsoluteTime(1)
	if err != nil {
		t.Fatalf("AbsoluteTime: %v", err)
	}
	want := time.Date(2020, 1, 1, 6, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTimeCoordAbsoluteTimePropagatesBadUnits(t *testing.T) {
	tc := &TimeCoord{Name: "time", Units: "garbage", Offsets: []int{0}}
	if _, err := tc.AbsoluteTime(0); !errors.Is(err, ErrIndexCorrupt) {
		t.Fatalf("got %v, want ErrIndexCorrupt", err)
	}
}
