package parse

import (
	"strconv"
	"strings"

	"github.com/okian/stride/internal/domain/geo"
)

// Unit conversion factors to meters, per-unit from the geo helpers. Anything
// not listed falls back to the kilometer factor: foreign records
// overwhelmingly omit or misspell units, and kilometers are the least-wrong
// default for workout distances.
var (
	mileMeters = geo.MilesToMeters(1)
	footMeters = geo.FeetToMeters(1)
)

var distanceUnits = map[string]float64{
	"mi": mileMeters, "mile": mileMeters, "miles": mileMeters,
	"km": 1000, "kilometer": 1000, "kilometers": 1000, "kilometre": 1000, "kilometres": 1000,
	"m": 1, "meter": 1, "meters": 1, "metre": 1, "metres": 1,
}

// Elevation factors to meters; default is meters.
var elevationUnits = map[string]float64{
	"ft": footMeters, "foot": footMeters, "feet": footMeters,
}

// Keyword inference over free-text content, tried only when no kind tag
// matched. Checked in order so "bike ride on my run route" stays ambiguous in
// favor of the first hit.
var kindKeywords = []struct {
	keyword string
	kind    string
}{
	{"running", "run"}, {" ran ", "run"}, {"run", "run"}, {"jog", "run"},
	{"hiking", "walk"}, {"hike", "walk"}, {"walking", "walk"}, {"walked", "walk"}, {"walk", "walk"},
	{"cycling", "cycle"}, {"cycle", "cycle"}, {"biking", "cycle"}, {"bike", "cycle"}, {"ride", "cycle"},
}

// parseNumber is a tolerant float parser: trims whitespace and thousands
// separators before converting. Returns false rather than an error.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != f { // reject NaN
		return 0, false
	}
	return f, true
}

// parseClock converts a duration value into whole seconds. Accepts H:MM:SS,
// MM:SS (positional weights 3600/60/1) or a raw numeric seconds value.
// Returns false for anything else; the caller leaves the field unset.
func parseClock(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if !strings.Contains(s, ":") {
		f, ok := parseNumber(s)
		if !ok || f < 0 {
			return 0, false
		}
		return int64(f), true
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	weights := []int64{60, 1}
	if len(parts) == 3 {
		weights = []int64{3600, 60, 1}
	}
	var total int64
	for i, p := range parts {
		f, ok := parseNumber(p)
		if !ok || f < 0 {
			return 0, false
		}
		total += int64(f) * weights[i]
	}
	return total, true
}

// distanceMeters converts a (value, unit) pair to meters.
func distanceMeters(value, unit string) (float64, bool) {
	f, ok := parseNumber(value)
	if !ok || f < 0 {
		return 0, false
	}
	factor, ok := distanceUnits[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		factor = 1000
	}
	return f * factor, true
}

// elevationMeters converts a (value, unit) pair to meters.
func elevationMeters(value, unit string) (float64, bool) {
	f, ok := parseNumber(value)
	if !ok {
		return 0, false
	}
	factor, ok := elevationUnits[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		factor = 1
	}
	return f * factor, true
}

// inferKind scans free-text content for an activity keyword.
func inferKind(content string) (string, bool) {
	lowered := " " + strings.ToLower(content) + " "
	for _, k := range kindKeywords {
		if strings.Contains(lowered, k.keyword) {
			return k.kind, true
		}
	}
	return "", false
}
