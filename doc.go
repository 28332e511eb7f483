// Package gribcoll indexes and reads time-series collections of GRIB1
// messages without decoding every message up front. A Collection groups
// messages sharing a horizontal grid and coordinate axes into Groups;
// each Group's data variables (VariableIndex) carry a lazily hydrated
// table mapping (time, ensemble, vertical) positions to file offsets.
// Time-partitioned collections compose several such Collections behind a
// single logical time axis (Partition, TimeCoordUnion).
//
// Decoding a GRIB1 message is out of scope here: callers supply a
// codec.GribCodec and codec.ParamTable, and gribcoll orchestrates
// indexing, naming, schema projection, slice planning, and sequential
// reads around them.
package gribcoll
