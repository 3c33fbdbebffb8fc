package geo

import (
	"math"
	"sync"

	"github.com/wroge/wgs84"
)

// Positions are WGS84 (EPSG:4326) decimal degrees everywhere in the
// simulator. Web Mercator (EPSG:3857) is only produced for map clients.

// minutesPerDegree converts nautical miles of arc to degrees: one nautical
// mile is one minute of latitude.
const minutesPerDegree = 60.0

// Advance moves a position distanceNM nautical miles along heading (degrees,
// 0 = north, clockwise) using a flat-earth approximation. Longitude is not
// scaled by cos(latitude); the simulated track only needs to look plausible.
func Advance(latitude, longitude, heading, distanceNM float64) (float64, float64) {
	rad := heading * math.Pi / 180
	latitude += distanceNM * math.Cos(rad) / minutesPerDegree
	longitude += distanceNM * math.Sin(rad) / minutesPerDegree
	return latitude, longitude
}

var (
	mercatorOnce sync.Once
	mercator     func(a, b, c float64) (float64, float64, float64)
)

// WebMercator projects a WGS84 longitude/latitude pair to EPSG:3857 meters.
func WebMercator(longitude, latitude float64) (x, y float64) {
	mercatorOnce.Do(func() {
		mercator = wgs84.EPSG().Transform(4326, 3857)
	})
	x, y, _ = mercator(longitude, latitude, 0)
	return x, y
}
