package tracker

import (
	"time"

	"github.com/okian/stride/internal/domain/geo"
	"github.com/okian/stride/internal/domain/model"
)

// ToRecord converts a completed session into the normalized WorkoutRecord
// shape, the same shape foreign records parse into. Kilometer splits are
// derived from the point sequence: a marker is recorded the first time the
// cumulative distance crosses it.
func ToRecord(s model.Session, author string) model.WorkoutRecord {
	rec := model.WorkoutRecord{
		ID:              s.ID,
		Author:          author,
		Kind:            s.Kind,
		DistanceMeters:  s.DistanceMeters,
		DurationSeconds: s.DurationSeconds,
		Timestamp:       s.Start,
	}

	var cumulative float64
	marker := 1
	for i := 1; i < len(s.Points); i++ {
		prev, cur := s.Points[i-1], s.Points[i]
		cumulative += geo.Distance(prev, cur)
		for float64(marker)*1000 <= cumulative {
			elapsed := int64(cur.Time.Sub(s.Start) / time.Second)
			rec.Splits = append(rec.Splits, model.Split{MarkerKm: marker, Seconds: elapsed})
			marker++
		}

		if cur.Altitude > prev.Altitude {
			rec.ElevationGainMeters += cur.Altitude - prev.Altitude
		} else {
			rec.ElevationLossMeters += prev.Altitude - cur.Altitude
		}
	}

	return rec
}
