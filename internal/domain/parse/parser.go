// Package parse normalizes opaque third-party tag/content records into
// WorkoutRecords.
//
// The policy is best-effort with field-level degradation: a field that fails
// to decode is left at its zero value and parsing continues. The only
// record-level rejection is a record with no activity-kind signal at all.
package parse

import (
	"sort"
	"strconv"
	"strings"

	"github.com/okian/stride/internal/domain/model"
)

// Kind tag keys checked in order before falling back to content inference.
var kindTagKeys = []string{"exercise", "type"}

// Parse normalizes one raw record. The returned error is ErrNoActivityKind
// for the single rejection case; all other malformations degrade per field.
func Parse(raw model.RawRecord) (rec model.WorkoutRecord, err error) {
	rec = model.WorkoutRecord{
		ID:        raw.ID,
		Author:    raw.Author,
		Timestamp: raw.CreatedAt,
	}

	// A record must never be silently dropped from counts: if decoding the
	// whole record blows up, return the minimal id/author/timestamp shell.
	defer func() {
		if r := recover(); r != nil {
			rec = model.WorkoutRecord{ID: raw.ID, Author: raw.Author, Timestamp: raw.CreatedAt}
			err = nil
		}
	}()

	kind, ok := activityKind(raw)
	if !ok {
		return model.WorkoutRecord{}, ErrNoActivityKind
	}
	rec.Kind = kind

	splits := map[int]int64{}
	paces := map[int]int64{}

	for _, tag := range raw.Tags {
		if len(tag) < 2 {
			continue
		}
		key, values := strings.ToLower(tag[0]), tag[1:]
		switch key {
		case "distance":
			if m, ok := distanceMeters(values[0], tagValue(values, 1)); ok {
				rec.DistanceMeters = m
			}
		case "duration":
			if s, ok := parseClock(values[0]); ok {
				rec.DurationSeconds = s
			}
		case "split":
			if len(values) < 2 {
				continue
			}
			marker, err := strconv.Atoi(strings.TrimSpace(values[0]))
			if err != nil {
				continue
			}
			if s, ok := parseClock(values[1]); ok {
				splits[marker] = s // last write wins on duplicate markers
			}
		case "pace":
			if len(values) < 2 {
				continue
			}
			marker, err := strconv.Atoi(strings.TrimSpace(values[0]))
			if err != nil {
				continue
			}
			if s, ok := parseClock(values[1]); ok {
				paces[marker] = s
			}
		case "elevation_gain":
			if m, ok := elevationMeters(values[0], tagValue(values, 1)); ok {
				rec.ElevationGainMeters = m
			}
		case "elevation_loss":
			if m, ok := elevationMeters(values[0], tagValue(values, 1)); ok {
				rec.ElevationLossMeters = m
			}
		}
	}

	// A pace tag overrides the computed cumulative time for its marker.
	for marker, s := range paces {
		if _, ok := splits[marker]; ok {
			splits[marker] = s
		}
	}

	if len(splits) > 0 {
		rec.Splits = make([]model.Split, 0, len(splits))
		for marker, s := range splits {
			rec.Splits = append(rec.Splits, model.Split{MarkerKm: marker, Seconds: s})
		}
		sort.Slice(rec.Splits, func(i, j int) bool {
			return rec.Splits[i].MarkerKm < rec.Splits[j].MarkerKm
		})
	}

	return rec, nil
}

// activityKind resolves the kind from the ordered tag keys, then from the
// free-text content.
func activityKind(raw model.RawRecord) (string, bool) {
	for _, want := range kindTagKeys {
		for _, tag := range raw.Tags {
			if len(tag) < 2 || !strings.EqualFold(tag[0], want) {
				continue
			}
			if v := strings.ToLower(strings.TrimSpace(tag[1])); v != "" {
				return v, true
			}
		}
	}
	return inferKind(raw.Content)
}

func tagValue(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
