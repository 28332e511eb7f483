package gribcoll

import (
	"fmt"
	"reflect"

	stgpsr "github.com/yuin/stagparser"
)

// Options is the typed configuration struct populated before Open: a
// closed set of struct fields in place of a free-form message channel.
// ApplyOption resolves a free-form key/value pair onto the matching
// tagged field via struct tags, rather than a hand-written string switch.
type Options struct {
	// GribParameterTable is the path to a GRIB parameter-table source used
	// in place of the built-in tables.
	GribParameterTable string `opt:"key=GribParameterTable"`

	// GribParameterTableLookup is the path to a lookup file mapping
	// center/subcenter/table-version triples to parameter-table sources.
	GribParameterTableLookup string `opt:"key=GribParameterTableLookup"`
}

// optionFieldKeys returns, per field, the "key" tag value declared on
// Options. The struct tags are parsed afresh on every call.
func optionFieldKeys() (map[string]string, error) {
	var zero Options
	defs, err := stgpsr.ParseStruct(&zero, "opt")
	if err != nil {
		return nil, fmt.Errorf("gribcoll: parsing Options tags: %w", err)
	}
	keys := make(map[string]string, len(defs))
	for field, fdefs := range defs {
		for _, d := range fdefs {
			if d.Name() != "key" {
				continue
			}
			if v, ok := d.Attribute("key"); ok {
				if s, ok := v.(string); ok {
					keys[field] = s
				}
			}
		}
	}
	return keys, nil
}

// ApplyOption resolves one key/value pair onto opts via the "opt" struct
// tags declared on Options, in place of a hand-written switch.
func ApplyOption(opts *Options, key, value string) error {
	fieldKeys, err := optionFieldKeys()
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(opts).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if fieldKeys[field.Name] != key {
			continue
		}
		rv.Field(i).SetString(value)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownOption, key)
}
