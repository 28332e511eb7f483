package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/metwx/gribcoll/codec"
)

// jsonParamTable is the on-disk shape accepted by --param-table: a plain
// JSON document listing known parameters, levels, and statistical-interval
// types, in place of a real GRIB1 parameter-table service.
type jsonParamTable struct {
	Parameters []struct {
		Center, Subcenter, TableVersion, ParamNumber int
		Descriptor codec.ParameterDescriptor
	}
	Levels []struct {
		Code int
		Short string
		Unit string
		Description string
	}
	Stats []struct {
		IntvType int
		codec.StatType
	}
}

// mapParamTable is an in-memory codec.ParamTable backed by the maps
// loaded from a jsonParamTable document.
type mapParamTable struct {
	params map[[4]int]codec.ParameterDescriptor
	levelShort map[int]string
	levelUnit map[int]codec.VertUnit
	levelDesc map[int]string
	stats map[int]codec.StatType
}

func (m *mapParamTable) GetParameter(center, subcenter, tableVersion, paramNum int) (codec.ParameterDescriptor, bool) {
	d, ok := m.params[[4]int{center, subcenter, tableVersion, paramNum}]
	return d, ok
}

func (m *mapParamTable) GetLevelShort(code int) string { return m.levelShort[code] }

func (m *mapParamTable) GetLevelUnit(code int) (codec.VertUnit, bool) {
	u, ok := m.levelUnit[code]
	return u, ok
}

func (m *mapParamTable) GetLevelDescription(code int) string { return m.levelDesc[code] }

func (m *mapParamTable) GetStatType(intvType int) (codec.StatType, bool) {
	s, ok := m.stats[intvType]
	return s, ok
}

// emptyParamTable is the ParamTable used when no --param-table file is
// given: every lookup misses, so C2 naming falls back to its
// VAR<center>-<subcenter>-<tableVersion>-<paramNum> synthesized names.
func emptyParamTable() codec.ParamTable {
	return &mapParamTable{
		params: map[[4]int]codec.ParameterDescriptor{},
		levelShort: map[int]string{},
		levelUnit: map[int]codec.VertUnit{},
		levelDesc: map[int]string{},
		stats: map[int]codec.StatType{},
	}
}

func loadParamTable(path string) (codec.ParamTable, error) {
	if path == "" {
		return emptyParamTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening parameter table %q: %w", path, err)
	}
	defer f.Close()

	var doc jsonParamTable
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding parameter table %q: %w", path, err)
	}

	out := &mapParamTable{
		params: make(map[[4]int]codec.ParameterDescriptor, len(doc.Parameters)),
		levelShort: make(map[int]string, len(doc.Levels)),
		levelUnit: make(map[int]codec.VertUnit, len(doc.Levels)),
		levelDesc: make(map[int]string, len(doc.Levels)),
		stats: make(map[int]codec.StatType, len(doc.Stats)),
	}
	for _, p := range doc.Parameters {
		out.params[[4]int{p.Center, p.Subcenter, p.TableVersion, p.ParamNumber}] = p.Descriptor
	}
	for _, l := range doc.Levels {
		out.levelShort[l.Code] = l.Short
		out.levelUnit[l.Code] = codec.VertUnit{Unit: l.Unit}
		out.levelDesc[l.Code] = l.Description
	}
	for _, s := range doc.Stats {
		out.stats[s.IntvType] = s.StatType
	}
	return out, nil
}
