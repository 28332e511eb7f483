package gribcoll

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/metwx/gribcoll/codec"
)

// asciiFold strips diacritics via NFKD-normalize-then-drop-combining-marks,
// so an accented parameter description degrades to readable ASCII rather
// than being mapped wholesale to underscores.
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

func foldASCII(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		return s
	}
	return folded
}

// deriveFromDescription canonicalizes a free-text parameter description
// into a short ASCII token: strip punctuation, collapse
// whitespace to '_', keep ASCII letters/digits/'_', prefix a letter if the
// first character is a digit.
func deriveFromDescription(description string) string {
	folded := foldASCII(description)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	token := strings.TrimRight(b.String(), "_")
	if token == "" {
		token = "VAR"
	}
	if token[0] >= '0' && token[0] <= '9' {
		token = "N" + token
	}
	return token
}

// statAbbrev maps a known statistical-processing type to its short
// abbreviation used in short names. ok is false when
// intvType has no entry in the parameter table's stat-type catalogue.
func statAbbrev(params codec.ParamTable, intvType int) (abbrev string, ok bool) {
	if intvType < 0 {
		return "", false
	}
	st, found := params.GetStatType(intvType)
	if !found {
		return "", false
	}
	return st.Abbrev, true
}

// ShortName synthesizes the deterministic short name for a variable.
func ShortName(params codec.ParamTable, center, subcenter int, v *VariableIndex) string {
	var base string
	if desc, ok := params.GetParameter(center, subcenter, v.TableVersion, v.Parameter); ok {
		base = deriveFromDescription(desc.Description)
	} else {
		base = fmt.Sprintf("VAR%d-%d-%d-%d", center, subcenter, v.TableVersion, v.Parameter)
	}

	// Every VariableIndex carries a level type, even a single-valued one
	// with no vertical axis in the canonical layout.
	base += fmt.Sprintf("_%s", params.GetLevelShort(v.LevelType))

	if abbrev, ok := statAbbrev(params, v.IntvType); ok {
		base += "_" + abbrev
	}

	return base
}

// LongName synthesizes the deterministic long name for a variable.
func LongName(params codec.ParamTable, center, subcenter int, v *VariableIndex) string {
	var name string
	if desc, ok := params.GetParameter(center, subcenter, v.TableVersion, v.Parameter); ok {
		name = desc.Description
	} else {
		name = fmt.Sprintf("Unknown Parameter %d-%d-%d-%d", center, subcenter, v.TableVersion, v.Parameter)
	}
	if v.ProbabilityName != "" {
		name = "Probability " + name
	}
	if abbrev, ok := statAbbrev(params, v.IntvType); ok {
		name = fmt.Sprintf("%s (%s)", name, abbrev)
	}
	levelName := params.GetLevelDescription(v.LevelType)
	if v.IsLayer {
		name = fmt.Sprintf("%s @ %s layer", name, levelName)
	} else {
		name = fmt.Sprintf("%s @ %s", name, levelName)
	}
	return name
}

// Units synthesizes the deterministic units string for a variable:
// the parameter table's unit when known, otherwise empty.
func Units(params codec.ParamTable, center, subcenter int, v *VariableIndex) string {
	if desc, ok := params.GetParameter(center, subcenter, v.TableVersion, v.Parameter); ok {
		return desc.Unit
	}
	return ""
}

// assignShortNames resolves: within one group, base short
// names that collide are disambiguated by suffixing _1, _2,... in
// encounter order. Returns one name per variable, in the same order as
// vars.
func assignShortNames(params codec.ParamTable, center, subcenter int, vars []VariableIndex) []string {
	base := make([]string, len(vars))
	for i := range vars {
		base[i] = ShortName(params, center, subcenter, &vars[i])
	}

	assigned := make([]string, len(vars))
	seen := make([]string, 0, len(vars))
	for i, name := range base {
		if lo.IndexOf(seen, name) == -1 {
			assigned[i] = name
			seen = append(seen, name)
			continue
		}
		suffix := 1
		for {
			candidate := fmt.Sprintf("%s_%d", name, suffix)
			if lo.IndexOf(seen, candidate) == -1 {
				assigned[i] = candidate
				seen = append(seen, candidate)
				break
			}
			suffix++
		}
	}
	return assigned
}
