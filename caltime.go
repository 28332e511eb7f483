package gribcoll

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// parseSinceReference parses a CF-style "<unit> since <reference>" units
// string into the reference instant. The reference date is round-tripped
// through Julian-day arithmetic to confirm it names a real Gregorian
// calendar date before AbsoluteTime trusts it.
func parseSinceReference(units string) (time.Time, error) {
	parts := strings.SplitN(units, "since", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("%w: units %q has no 'since' reference", ErrIndexCorrupt, units)
	}
	ref := strings.TrimSpace(parts[1])

	datePart, timePart := ref, "00:00:00"
	if idx := strings.IndexAny(ref, "T "); idx >= 0 {
		datePart = ref[:idx]
		timePart = strings.Trim(ref[idx+1:], "Z")
	}

	fields := strings.Split(datePart, "-")
	if len(fields) != 3 {
		return time.Time{}, fmt.Errorf("%w: units %q has a malformed reference date", ErrIndexCorrupt, units)
	}
	year, err1 := strconv.Atoi(fields[0])
	month, err2 := strconv.Atoi(fields[1])
	day, err3 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("%w: units %q has a non-numeric reference date", ErrIndexCorrupt, units)
	}

	jd := julian.CalendarGregorianToJD(year, month, float64(day))
	gotYear, gotMonth, gotDay := julian.JDToCalendar(jd)
	if gotYear != year || gotMonth != month || int(gotDay) != day {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid Gregorian calendar date", ErrIndexCorrupt, datePart)
	}

	var hour, min, sec int
	hms := strings.Split(timePart, ":")
	if len(hms) > 0 {
		hour, _ = strconv.Atoi(hms[0])
	}
	if len(hms) > 1 {
		min, _ = strconv.Atoi(hms[1])
	}
	if len(hms) > 2 {
		sec, _ = strconv.Atoi(hms[2])
	}

	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC), nil
}

// AbsoluteTime resolves axis position i of t to a wall-clock instant,
// parsing t.Units as "<unit> since <reference>" and treating the offset
// as a count of hours past the reference. The offset is OffsetAt(i):
// the raw offset for a non-interval axis, or the interval midpoint for
// an interval axis.
func (t *TimeCoord) AbsoluteTime(i int) (time.Time, error) {
	ref, err := parseSinceReference(t.Units)
	if err != nil {
		return time.Time{}, err
	}
	return ref.Add(time.Duration(t.OffsetAt(i)) * time.Hour), nil
}
