package geo

import (
	"fmt"
	"time"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/queue"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Supported output SRIDs for track rendering.
const (
	SRIDWGS84       = 4326
	SRIDWebMercator = 3857
)

// Fix is a single recorded position.
type Fix struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
}

// Track keeps the most recent fixes of the vessel in memory. It is a viewer
// convenience, not a history store: once full the oldest fix is dropped.
type Track struct {
	fixes *queue.Ring[Fix]
}

// NewTrack creates a track holding at most size fixes.
func NewTrack(size int) *Track {
	return &Track{fixes: queue.NewRing[Fix](size)}
}

// Record appends a fix.
func (t *Track) Record(f Fix) {
	t.fixes.Push(f)
}

// Len returns the number of recorded fixes.
func (t *Track) Len() int {
	return t.fixes.Len()
}

// Fixes returns the recorded fixes, oldest first.
func (t *Track) Fixes() []Fix {
	return t.fixes.Items()
}

// LineString renders the track in the requested SRID. Fewer than two
// distinct positions yield an empty line string.
func (t *Track) LineString(srid int) (geom.LineString, error) {
	return lineString(t.Fixes(), srid)
}

func lineString(fixes []Fix, srid int) (geom.LineString, error) {
	if srid != SRIDWGS84 && srid != SRIDWebMercator {
		return geom.LineString{}, fmt.Errorf("unsupported srid %d", srid)
	}

	// A moored vessel records the same position every tick; repeats are
	// collapsed so the line only holds distinct consecutive points.
	flatCoords := make([]float64, 0, len(fixes)*2)
	for _, f := range fixes {
		x, y := f.Longitude, f.Latitude
		if srid == SRIDWebMercator {
			x, y = WebMercator(f.Longitude, f.Latitude)
		}
		if n := len(flatCoords); n > 0 && flatCoords[n-2] == x && flatCoords[n-1] == y {
			continue
		}
		flatCoords = append(flatCoords, x, y)
	}
	if len(flatCoords) < 4 {
		return geom.LineString{}, nil
	}

	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq)
}

// Feature wraps the rendered track in a GeoJSON feature with the time span
// and point count as properties.
func (t *Track) Feature(srid int) (geom.GeoJSONFeature, error) {
	fixes := t.Fixes()
	ls, err := lineString(fixes, srid)
	if err != nil {
		return geom.GeoJSONFeature{}, err
	}

	props := map[string]interface{}{
		"srid":   srid,
		"points": ls.Coordinates().Length(),
	}
	if len(fixes) > 0 {
		props["from"] = fixes[0].Time.UTC().Format(time.RFC3339)
		props["to"] = fixes[len(fixes)-1].Time.UTC().Format(time.RFC3339)
	}

	return geom.GeoJSONFeature{
		Geometry:   ls.AsGeometry(),
		Properties: props,
	}, nil
}
