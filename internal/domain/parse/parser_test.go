package parse_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/internal/domain/parse"
	. "github.com/smartystreets/goconvey/convey"
)

func raw(tags [][]string, content string) model.RawRecord {
	return model.RawRecord{
		ID:        "rec-1",
		Author:    "npub-author",
		Kind:      1301,
		Tags:      tags,
		Content:   content,
		CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestParse_ActivityKind(t *testing.T) {
	Convey("Given raw records with varying kind signals", t, func() {
		Convey("An exercise tag wins", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", "run"}, {"type", "walk"}}, ""))
			So(err, ShouldBeNil)
			So(rec.Kind, ShouldEqual, "run")
		})

		Convey("A type tag is used when exercise is absent", func() {
			rec, err := parse.Parse(raw([][]string{{"type", "Cycle"}}, ""))
			So(err, ShouldBeNil)
			So(rec.Kind, ShouldEqual, "cycle")
		})

		Convey("Content keywords are inferred when no tag matches", func() {
			rec, err := parse.Parse(raw(nil, "Morning jog around the lake"))
			So(err, ShouldBeNil)
			So(rec.Kind, ShouldEqual, "run")
		})

		Convey("No signal at all rejects the record", func() {
			_, err := parse.Parse(raw([][]string{{"distance", "5", "km"}}, "great weather today"))
			So(errors.Is(err, parse.ErrNoActivityKind), ShouldBeTrue)
		})

		Convey("An empty kind value falls through to inference", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", " "}}, "long hike"))
			So(err, ShouldBeNil)
			So(rec.Kind, ShouldEqual, "walk")
		})
	})
}

func TestParse_Distance(t *testing.T) {
	Convey("Given distance tags", t, func() {
		Convey("Miles convert by 1609.34", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", "run"}, {"distance", "3.1", "mi"}}, ""))
			So(err, ShouldBeNil)
			So(rec.DistanceMeters, ShouldAlmostEqual, 3.1*1609.34, 1e-6)
		})

		Convey("Kilometers convert by 1000", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", "run"}, {"distance", "5", "km"}}, ""))
			So(err, ShouldBeNil)
			So(rec.DistanceMeters, ShouldEqual, 5000)
		})

		Convey("Meters pass through", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", "run"}, {"distance", "400", "meters"}}, ""))
			So(err, ShouldBeNil)
			So(rec.DistanceMeters, ShouldEqual, 400)
		})

		Convey("A missing unit defaults to kilometers", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", "run"}, {"distance", "10"}}, ""))
			So(err, ShouldBeNil)
			So(rec.DistanceMeters, ShouldEqual, 10000)
		})

		Convey("An unrecognized unit defaults to kilometers", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", "run"}, {"distance", "10", "leagues"}}, ""))
			So(err, ShouldBeNil)
			So(rec.DistanceMeters, ShouldEqual, 10000)
		})

		Convey("An unparsable value leaves distance unset", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", "run"}, {"distance", "far", "km"}}, ""))
			So(err, ShouldBeNil)
			So(rec.DistanceMeters, ShouldEqual, 0)
		})
	})
}

func TestParse_Duration(t *testing.T) {
	Convey("Given duration tags", t, func() {
		Convey("H:MM:SS decodes with weights 3600/60/1", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", "run"}, {"duration", "1:02:03"}}, ""))
			So(err, ShouldBeNil)
			So(rec.DurationSeconds, ShouldEqual, 3723)
		})

		Convey("MM:SS decodes with weights 60/1", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", "run"}, {"duration", "25:30"}}, ""))
			So(err, ShouldBeNil)
			So(rec.DurationSeconds, ShouldEqual, 1530)
		})

		Convey("Raw numeric seconds decode directly", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", "run"}, {"duration", "1800"}}, ""))
			So(err, ShouldBeNil)
			So(rec.DurationSeconds, ShouldEqual, 1800)
		})

		Convey("A record missing duration still parses", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", "run"}, {"distance", "5", "km"}}, ""))
			So(err, ShouldBeNil)
			So(rec.DurationSeconds, ShouldEqual, 0)
			So(rec.DistanceMeters, ShouldEqual, 5000)
		})

		Convey("An unparsable duration is left unset, never an error", func() {
			rec, err := parse.Parse(raw([][]string{{"exercise", "run"}, {"duration", "a:b:c"}}, ""))
			So(err, ShouldBeNil)
			So(rec.DurationSeconds, ShouldEqual, 0)
		})
	})
}

func TestParse_Splits(t *testing.T) {
	Convey("Given split tags", t, func() {
		Convey("Splits sort ascending by marker", func() {
			rec, err := parse.Parse(raw([][]string{
				{"exercise", "run"},
				{"split", "10", "48:20"},
				{"split", "5", "23:20"},
			}, ""))
			So(err, ShouldBeNil)
			So(rec.Splits, ShouldResemble, []model.Split{
				{MarkerKm: 5, Seconds: 1400},
				{MarkerKm: 10, Seconds: 2900},
			})
		})

		Convey("Duplicate markers resolve last-write-wins", func() {
			rec, err := parse.Parse(raw([][]string{
				{"exercise", "run"},
				{"split", "5", "23:20"},
				{"split", "5", "24:00"},
			}, ""))
			So(err, ShouldBeNil)
			So(rec.Splits, ShouldResemble, []model.Split{{MarkerKm: 5, Seconds: 1440}})
		})

		Convey("A pace tag overrides its marker's time", func() {
			rec, err := parse.Parse(raw([][]string{
				{"exercise", "run"},
				{"split", "5", "23:20"},
				{"pace", "5", "22:00"},
			}, ""))
			So(err, ShouldBeNil)
			So(rec.Splits, ShouldResemble, []model.Split{{MarkerKm: 5, Seconds: 1320}})
		})

		Convey("A pace tag with no matching split is ignored", func() {
			rec, err := parse.Parse(raw([][]string{
				{"exercise", "run"},
				{"pace", "5", "22:00"},
			}, ""))
			So(err, ShouldBeNil)
			So(rec.Splits, ShouldBeEmpty)
		})

		Convey("A malformed marker skips just that split", func() {
			rec, err := parse.Parse(raw([][]string{
				{"exercise", "run"},
				{"split", "five", "23:20"},
				{"split", "10", "48:20"},
			}, ""))
			So(err, ShouldBeNil)
			So(rec.Splits, ShouldResemble, []model.Split{{MarkerKm: 10, Seconds: 2900}})
		})
	})
}

func TestParse_Elevation(t *testing.T) {
	Convey("Given elevation tags", t, func() {
		Convey("Feet convert by 0.3048", func() {
			rec, err := parse.Parse(raw([][]string{
				{"exercise", "run"},
				{"elevation_gain", "100", "ft"},
			}, ""))
			So(err, ShouldBeNil)
			So(rec.ElevationGainMeters, ShouldAlmostEqual, 30.48, 1e-9)
		})

		Convey("Unrecognized unit defaults to meters", func() {
			rec, err := parse.Parse(raw([][]string{
				{"exercise", "run"},
				{"elevation_loss", "42", "cubits"},
			}, ""))
			So(err, ShouldBeNil)
			So(rec.ElevationLossMeters, ShouldEqual, 42)
		})
	})
}

func TestParse_Degradation(t *testing.T) {
	Convey("Given heavily malformed records", t, func() {
		Convey("Identity fields always survive", func() {
			rec, err := parse.Parse(raw([][]string{
				{"exercise", "run"},
				{"distance"},
				{"split", "5"},
				{"duration", ""},
			}, ""))
			So(err, ShouldBeNil)
			So(rec.ID, ShouldEqual, "rec-1")
			So(rec.Author, ShouldEqual, "npub-author")
			So(rec.Timestamp.IsZero(), ShouldBeFalse)
			So(rec.Kind, ShouldEqual, "run")
		})

		Convey("One bad field never poisons its neighbors", func() {
			rec, err := parse.Parse(raw([][]string{
				{"exercise", "run"},
				{"duration", "not-a-clock"},
				{"distance", "5", "km"},
				{"elevation_gain", "oops", "ft"},
			}, ""))
			So(err, ShouldBeNil)
			So(rec.DistanceMeters, ShouldEqual, 5000)
			So(rec.DurationSeconds, ShouldEqual, 0)
			So(rec.ElevationGainMeters, ShouldEqual, 0)
		})
	})
}
