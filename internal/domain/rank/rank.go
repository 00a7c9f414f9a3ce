// Package rank computes deterministic per-threshold leaderboards.
//
// Rank is a pure function: no I/O, no errors. Absent or degenerate data
// produces zero times and empty lists, never a failure.
package rank

import (
	"math"
	"sort"

	"github.com/okian/stride/internal/domain/model"
)

const metersPerKm = 1000

// Rank computes one ranked list per distance threshold. The caller is
// expected to have filtered records to one activity kind and time window.
// Thresholds are integer kilometers by construction, which is what makes the
// closest-below split rule well defined.
func Rank(records []model.WorkoutRecord, thresholdsKm []int) map[int][]model.LeaderboardEntry {
	out := make(map[int][]model.LeaderboardEntry, len(thresholdsKm))
	for _, t := range thresholdsKm {
		out[t] = rankThreshold(records, t)
	}
	return out
}

type candidate struct {
	author   string
	seconds  int64
	recordID string
	order    int // first-seen position, keeps ties and the final sort stable
}

func rankThreshold(records []model.WorkoutRecord, thresholdKm int) []model.LeaderboardEntry {
	best := make(map[string]candidate)
	order := 0

	for _, r := range records {
		if r.DistanceMeters < float64(thresholdKm)*metersPerKm {
			continue
		}
		c := candidate{
			author:   r.Author,
			seconds:  TargetTime(r, thresholdKm),
			recordID: r.ID,
			order:    order,
		}
		order++

		// Per-author collapse: keep the fastest, first seen wins exact ties.
		if prev, ok := best[r.Author]; ok && prev.seconds <= c.seconds {
			continue
		}
		best[r.Author] = c
	}

	entries := make([]candidate, 0, len(best))
	for _, c := range best {
		entries = append(entries, c)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].seconds != entries[j].seconds {
			return entries[i].seconds < entries[j].seconds
		}
		return entries[i].order < entries[j].order
	})

	ranked := make([]model.LeaderboardEntry, len(entries))
	for i, c := range entries {
		ranked[i] = model.LeaderboardEntry{
			Rank:            i + 1,
			Author:          c.author,
			DistanceKm:      thresholdKm,
			DurationSeconds: c.seconds,
			RecordID:        c.recordID,
		}
	}
	return ranked
}

// TargetTime extracts the time a record took to cover thresholdKm, in strict
// priority order: exact split, closest split below (no interpolation), linear
// estimate from totals, else zero.
func TargetTime(r model.WorkoutRecord, thresholdKm int) int64 {
	if s, ok := r.SplitAt(thresholdKm); ok {
		return s.Seconds
	}

	// Splits are sorted ascending, so the last marker <= threshold wins.
	var below *model.Split
	for i := range r.Splits {
		if r.Splits[i].MarkerKm <= thresholdKm {
			below = &r.Splits[i]
		}
	}
	if below != nil {
		return below.Seconds
	}

	if r.DistanceMeters > 0 && r.DurationSeconds > 0 {
		km := r.DistanceMeters / metersPerKm
		return int64(math.Round(float64(r.DurationSeconds) / km * float64(thresholdKm)))
	}

	return 0
}
