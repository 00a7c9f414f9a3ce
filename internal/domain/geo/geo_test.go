package geo_test

import (
	"testing"
	"time"

	"github.com/okian/stride/internal/domain/geo"
	"github.com/okian/stride/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func pt(lat, lon float64) model.GeoPoint {
	return model.GeoPoint{Lat: lat, Lon: lon, Time: time.Now()}
}

func TestDistance(t *testing.T) {
	Convey("Given the haversine distance function", t, func() {
		Convey("It is zero for coincident points", func() {
			p := pt(52.5200, 13.4050)
			So(geo.Distance(p, p), ShouldEqual, 0)
		})

		Convey("It is symmetric", func() {
			a := pt(-6.2, 106.816)
			b := pt(-6.9175, 107.6191)
			So(geo.Distance(a, b), ShouldEqual, geo.Distance(b, a))
		})

		Convey("It is never negative", func() {
			a := pt(89.9, 179.9)
			b := pt(-89.9, -179.9)
			So(geo.Distance(a, b), ShouldBeGreaterThanOrEqualTo, 0)
		})

		Convey("Jakarta to Bandung is roughly 115-120 km", func() {
			// Same reference pair the mountaineering backend uses.
			d := geo.Distance(pt(-6.2, 106.816), pt(-6.9175, 107.6191))
			So(d, ShouldBeGreaterThan, 100_000)
			So(d, ShouldBeLessThan, 140_000)
		})

		Convey("100 m of latitude is close to 100 m", func() {
			// 1 degree of latitude is ~111.19 km on the fixed-radius sphere.
			d := geo.Distance(pt(52.0, 13.0), pt(52.0009, 13.0))
			So(d, ShouldBeBetween, 95, 105)
		})
	})
}

func TestTotalDistance(t *testing.T) {
	Convey("Given a point sequence", t, func() {
		Convey("Fewer than two points totals zero", func() {
			So(geo.TotalDistance(nil), ShouldEqual, 0)
			So(geo.TotalDistance([]model.GeoPoint{pt(1, 1)}), ShouldEqual, 0)
		})

		Convey("Totals equal the sum of consecutive-pair distances", func() {
			a, b, c := pt(52.0, 13.0), pt(52.001, 13.0), pt(52.002, 13.001)
			want := geo.Distance(a, b) + geo.Distance(b, c)
			So(geo.TotalDistance([]model.GeoPoint{a, b, c}), ShouldAlmostEqual, want, 1e-9)
		})

		Convey("Recomputation over the full sequence is stable", func() {
			points := []model.GeoPoint{pt(52.0, 13.0), pt(52.001, 13.0), pt(52.002, 13.001)}
			So(geo.TotalDistance(points), ShouldEqual, geo.TotalDistance(points))
		})
	})
}

func TestUnitConversions(t *testing.T) {
	Convey("Unit conversions use the fixed factors", t, func() {
		So(geo.MilesToMeters(1), ShouldEqual, 1609.34)
		So(geo.FeetToMeters(1), ShouldEqual, 0.3048)
	})
}
