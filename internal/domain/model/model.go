// Package model contains domain models passed between layers.
package model

import "time"

// GeoPoint is a single positioning fix. Points within a session are ordered
// by Time; the tracker drops fixes that would violate that ordering.
type GeoPoint struct {
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	Altitude float64   `json:"altitude,omitempty"`
	Time     time.Time `json:"time"`
	Accuracy float64   `json:"accuracy,omitempty"`
	Speed    float64   `json:"speed,omitempty"`
}

// Session is one tracked activity. It is mutated only by the tracker and
// becomes immutable once Stop returns it.
type Session struct {
	ID              string     `json:"id"`
	Kind            string     `json:"kind"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end,omitempty"`
	DistanceMeters  float64    `json:"distance_meters"`
	DurationSeconds int64      `json:"duration_seconds"`
	PausedSeconds   int64      `json:"paused_seconds"`
	PauseCount      int        `json:"pause_count"`
	Points          []GeoPoint `json:"points,omitempty"`
}

// RawRecord is the opaque tag/content shape records have on the public log.
// Tags carry a key in position 0 followed by positional values; nothing about
// the shape is schema-enforced, authors are not under our control.
type RawRecord struct {
	ID        string     `json:"id"`
	Author    string     `json:"author"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

// Split is a cumulative elapsed-time marker at an integer kilometer milestone.
type Split struct {
	MarkerKm int   `json:"marker_km"`
	Seconds  int64 `json:"seconds"`
}

// WorkoutRecord is the normalized representation of one completed activity,
// whether locally tracked or parsed from a foreign raw record. Splits, when
// present, are sorted ascending by marker with no duplicate markers.
type WorkoutRecord struct {
	ID                  string    `json:"id"`
	Author              string    `json:"author"`
	Kind                string    `json:"kind"`
	DistanceMeters      float64   `json:"distance_meters,omitempty"`
	DurationSeconds     int64     `json:"duration_seconds,omitempty"`
	Splits              []Split   `json:"splits,omitempty"`
	ElevationGainMeters float64   `json:"elevation_gain_meters,omitempty"`
	ElevationLossMeters float64   `json:"elevation_loss_meters,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// SplitAt returns the split recorded exactly at marker, if any.
func (r WorkoutRecord) SplitAt(marker int) (Split, bool) {
	for _, s := range r.Splits {
		if s.MarkerKm == marker {
			return s, true
		}
	}
	return Split{}, false
}

// RefreshResult reports what one refresh cycle did.
type RefreshResult struct {
	Fetched    int `json:"fetched"`
	Duplicates int `json:"duplicates"`
	Enqueued   int `json:"enqueued"`
	Dropped    int `json:"dropped"`
}

// LeaderboardEntry is one ranked row for a distance threshold. Entries are
// derived per query and never persisted.
type LeaderboardEntry struct {
	Rank            int    `json:"rank"`
	Author          string `json:"author"`
	DistanceKm      int    `json:"distance_km"`
	DurationSeconds int64  `json:"duration_seconds"`
	RecordID        string `json:"record_id"`
}
