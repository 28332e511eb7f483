package gribcoll

import "errors"

// Surfaced errors: returned directly from Open/Read, no partial
// result accompanies them.
var (
	ErrIndexCorrupt = errors.New("gribcoll: index corrupt")
	ErrInvalidRequest = errors.New("gribcoll: invalid request")
	ErrCancelled = errors.New("gribcoll: read cancelled")
)

// Contained errors: recorded as a Diagnostic against the affected
// cell, never returned from Read.
var (
	ErrFileUnavailable = errors.New("gribcoll: file unavailable")
	ErrDecodeFailure = errors.New("gribcoll: decode failure")
)

// Collaborator wiring and index-shape errors, surfaced from Open, from
// Read (ErrNoCodec, and ErrRecordSizeMismatch on late hydration), or from
// ApplyOption (ErrUnknownOption).
var (
	ErrUnknownMagic = errors.New("gribcoll: unrecognized collection magic prefix")
	ErrTruncatedIndex = errors.New("gribcoll: truncated index stream")
	ErrRecordSizeMismatch = errors.New("gribcoll: record table size disagrees with nt*nens*nverts")
	ErrNoCodec = errors.New("gribcoll: no GRIB1 codec configured")
	ErrNoRecordStore = errors.New("gribcoll: no record store configured for group")
	ErrUnknownOption = errors.New("gribcoll: unrecognized option key")
)
