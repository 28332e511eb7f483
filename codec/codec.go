// Package codec defines the boundary contracts for the collaborators a
// collection needs but does not implement itself: the GRIB1 message codec
// and the parameter-table lookup service. Nothing in this package parses
// a byte of GRIB1; it exists so gribcoll can depend on an interface
// rather than reaching for a concrete decoder.
package codec

import "io"

// Stream is the minimal random-access surface gribcoll needs from an open
// physical file: enough to seek to a byte offset and read a GRIB1 message.
type Stream interface {
	io.Reader
	io.Seeker
	io.Closer
}

// ScanMode mirrors the GRIB1 grid-scanning-mode flags needed to decode a
// message's data section into row-major (y, x) order.
type ScanMode uint8

// Header carries the subset of a decoded GRIB1 message's metadata needed
// for a diagnostic view of individual messages. It is never read on the
// hot (Read) path, and Reader.DetailInfo does not read it either.
type Header struct {
	Center, Subcenter, TableVersion int
	ParamNumber int
	LevelType int
	Value1, Value2 float64
	ForecastHours float64
	IntervalStart, IntervalEnd float64
}

// GribCodec is the external GRIB1 message codec.
// gribcoll's read executor calls Decode once per resolved DataRecord and
// IsValid only when auto-building a fallback index (outside this core).
type GribCodec interface {
	// IsValid reports whether stream contains a raw GRIB1 message stream.
	IsValid(stream Stream) bool

	// Decode reads the nPoints-point grid of the message at byte offset
	// pos, returning it in row-major order according to scanMode.
	Decode(stream Stream, pos int64, nPoints int, scanMode ScanMode, nx int) ([]float32, error)

	// ReadHeader returns the metadata needed for diagnostic mode only.
	ReadHeader(stream Stream, pos int64) (Header, error)
}

// ParameterDescriptor is the external parameter-table lookup result.
type ParameterDescriptor struct {
	Discipline, Category, Number int
	Name, Unit, Abbrev string
	Description string
	ID string
}

// StatType names a statistical-processing interval type (e.g. average,
// accumulation) as reported by ParamTable.GetStatType.
type StatType struct {
	Abbrev string
	Name string
}

// VertUnit names the unit of a vertical level type.
type VertUnit struct {
	Unit string
}

// ParamTable is the external parameter-table lookup service. A
// GetParameter result with ok == false means "unknown parameter";
// gribcoll's naming logic falls back to a synthesized
// VAR<center>-<subcenter>-<tableVersion>-<paramNum> token in that case.
type ParamTable interface {
	GetParameter(center, subcenter, tableVersion, paramNum int) (desc ParameterDescriptor, ok bool)
	GetLevelShort(code int) string
	GetLevelUnit(code int) (VertUnit, bool)
	GetLevelDescription(code int) string
	GetStatType(intvType int) (StatType, bool)
}
