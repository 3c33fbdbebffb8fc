package geo

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance_North(t *testing.T) {
	lat, lon := Advance(40.0, -74.0, 0, 60)

	assert.InDelta(t, 41.0, lat, 1e-9, "60nm north is one degree of latitude")
	assert.InDelta(t, -74.0, lon, 1e-9)
}

func TestAdvance_East(t *testing.T) {
	lat, lon := Advance(40.0, -74.0, 90, 6)

	assert.InDelta(t, 40.0, lat, 1e-9)
	assert.InDelta(t, -73.9, lon, 1e-9)
}

func TestAdvance_ZeroDistance(t *testing.T) {
	lat, lon := Advance(40.7128, -74.006, 123, 0)

	assert.Equal(t, 40.7128, lat)
	assert.Equal(t, -74.006, lon)
}

func TestAdvance_OneSecondAtTenKnots(t *testing.T) {
	nm := 10.0 * 1 / 3600
	lat, _ := Advance(0, 0, 0, nm)

	assert.InDelta(t, nm/60, lat, 1e-12)
}

func TestWebMercator(t *testing.T) {
	x, y := WebMercator(0, 0)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	// 180°E sits on the projection's half-width.
	x, _ = WebMercator(180, 0)
	assert.InDelta(t, 20037508.34, x, 1)

	// New York harbor
	x, y = WebMercator(-74.006, 40.7128)
	assert.InDelta(t, -8238310, x, 50)
	assert.InDelta(t, 4970072, y, 50)
}

func TestTrack_LineStringNeedsTwoFixes(t *testing.T) {
	tr := NewTrack(10)

	ls, err := tr.LineString(SRIDWGS84)
	require.NoError(t, err)
	assert.True(t, ls.IsEmpty())

	tr.Record(Fix{Time: time.Now(), Latitude: 1, Longitude: 2})
	ls, err = tr.LineString(SRIDWGS84)
	require.NoError(t, err)
	assert.True(t, ls.IsEmpty())
}

func TestTrack_LineStringWGS84(t *testing.T) {
	tr := NewTrack(10)
	tr.Record(Fix{Latitude: 40.0, Longitude: -74.0})
	tr.Record(Fix{Latitude: 40.1, Longitude: -74.1})

	ls, err := tr.LineString(SRIDWGS84)
	require.NoError(t, err)

	seq := ls.Coordinates()
	require.Equal(t, 2, seq.Length())
	assert.Equal(t, -74.0, seq.GetXY(0).X)
	assert.Equal(t, 40.0, seq.GetXY(0).Y)
	assert.Equal(t, -74.1, seq.GetXY(1).X)
	assert.Equal(t, 40.1, seq.GetXY(1).Y)
}

func TestTrack_StationaryVesselYieldsEmptyLine(t *testing.T) {
	tr := NewTrack(10)
	for i := 0; i < 5; i++ {
		tr.Record(Fix{Latitude: 40.7128, Longitude: -74.006})
	}

	for _, srid := range []int{SRIDWGS84, SRIDWebMercator} {
		ls, err := tr.LineString(srid)
		require.NoError(t, err, "srid %d", srid)
		assert.True(t, ls.IsEmpty())

		_, err = tr.Feature(srid)
		require.NoError(t, err, "srid %d", srid)
	}
}

func TestTrack_RepeatedFixesCollapse(t *testing.T) {
	tr := NewTrack(10)
	tr.Record(Fix{Latitude: 40.0, Longitude: -74.0})
	tr.Record(Fix{Latitude: 40.0, Longitude: -74.0})
	tr.Record(Fix{Latitude: 40.1, Longitude: -74.0})
	tr.Record(Fix{Latitude: 40.1, Longitude: -74.0})

	ls, err := tr.LineString(SRIDWGS84)
	require.NoError(t, err)

	seq := ls.Coordinates()
	require.Equal(t, 2, seq.Length())
	assert.Equal(t, 40.0, seq.GetXY(0).Y)
	assert.Equal(t, 40.1, seq.GetXY(1).Y)
	assert.Equal(t, 4, tr.Len())
}

func TestTrack_LineStringWebMercator(t *testing.T) {
	tr := NewTrack(10)
	tr.Record(Fix{Latitude: 0, Longitude: 0})
	tr.Record(Fix{Latitude: 0, Longitude: 180})

	ls, err := tr.LineString(SRIDWebMercator)
	require.NoError(t, err)

	seq := ls.Coordinates()
	assert.InDelta(t, 0, seq.GetXY(0).X, 1e-6)
	assert.InDelta(t, 20037508.34, seq.GetXY(1).X, 1)
}

func TestTrack_UnsupportedSRID(t *testing.T) {
	tr := NewTrack(10)

	_, err := tr.LineString(27700)
	require.Error(t, err)

	_, err = tr.Feature(27700)
	require.Error(t, err)
}

func TestTrack_KeepsMostRecent(t *testing.T) {
	tr := NewTrack(3)
	for i := 0; i < 5; i++ {
		tr.Record(Fix{Latitude: float64(i)})
	}

	fixes := tr.Fixes()
	require.Len(t, fixes, 3)
	assert.Equal(t, 2.0, fixes[0].Latitude)
	assert.Equal(t, 4.0, fixes[2].Latitude)
}

func TestTrack_FeatureGeoJSON(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTrack(10)
	tr.Record(Fix{Time: start, Latitude: 40.0, Longitude: -74.0})
	tr.Record(Fix{Time: start.Add(time.Second), Latitude: 40.001, Longitude: -74.0})

	feat, err := tr.Feature(SRIDWGS84)
	require.NoError(t, err)

	data, err := json.Marshal(feat)
	require.NoError(t, err)

	var decoded struct {
		Type     string `json:"type"`
		Geometry struct {
			Type        string      `json:"type"`
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "Feature", decoded.Type)
	assert.Equal(t, "LineString", decoded.Geometry.Type)
	require.Len(t, decoded.Geometry.Coordinates, 2)
	assert.Equal(t, []float64{-74.0, 40.0}, decoded.Geometry.Coordinates[0])
	assert.Equal(t, float64(2), decoded.Properties["points"])
	assert.Equal(t, "2026-03-01T12:00:00Z", decoded.Properties["from"])
	assert.Equal(t, "2026-03-01T12:00:01Z", decoded.Properties["to"])
	assert.False(t, math.IsNaN(decoded.Geometry.Coordinates[1][1]))
}
