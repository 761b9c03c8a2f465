// Package station holds the measurement stations of a campaign and
// answers nearest-station queries for photo positions.
package station

import (
	"fmt"
	"math"
	"strings"

	bikepics "github.com/RUBclim/bike-pic-renamer"
)

const earthRadiusMeters = 6371000.0

// Index is an immutable set of stations supporting nearest-neighbor
// lookups. The campaign datasets hold a few dozen stations at most, so
// lookups are a linear scan.
type Index struct {
	stations []bikepics.Station
}

// NewIndex validates the dataset and builds an index over it. The input
// slice is copied; dataset order is preserved and decides how distance
// ties are broken.
func NewIndex(stations []bikepics.Station) (*Index, error) {
	if len(stations) == 0 {
		return nil, bikepics.ErrNoStations
	}
	seen := make(map[string]struct{}, len(stations))
	for i, s := range stations {
		if err := validate(s); err != nil {
			return nil, fmt.Errorf("station %d: %v", i, err)
		}
		if _, ok := seen[s.ID]; ok {
			return nil, fmt.Errorf("station %d: duplicate station id %q", i, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	cp := make([]bikepics.Station, len(stations))
	copy(cp, stations)
	return &Index{stations: cp}, nil
}

// validate rejects stations that would produce broken output names or
// nonsense distances.
func validate(s bikepics.Station) error {
	if s.ID == "" {
		return fmt.Errorf("station id is required")
	}
	if strings.ContainsAny(s.ID, `/\`) {
		return fmt.Errorf("station id %q must not contain path separators", s.ID)
	}
	if math.IsNaN(s.Latitude) || s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("station %s: invalid latitude: %f", s.ID, s.Latitude)
	}
	if math.IsNaN(s.Longitude) || s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("station %s: invalid longitude: %f", s.ID, s.Longitude)
	}
	return nil
}

// Nearest returns the station closest to the given position and the
// great-circle distance to it in meters. When two stations are exactly
// equidistant the one that comes first in dataset order wins, so repeated
// runs over the same dataset produce the same names.
func (ix *Index) Nearest(lat, lon float64) (bikepics.Station, float64, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return bikepics.Station{}, 0, fmt.Errorf("invalid latitude: %f", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return bikepics.Station{}, 0, fmt.Errorf("invalid longitude: %f", lon)
	}
	if len(ix.stations) == 0 {
		return bikepics.Station{}, 0, bikepics.ErrNoStations
	}
	best := ix.stations[0]
	bestDist := haversineMeters(lat, lon, best.Latitude, best.Longitude)
	for _, s := range ix.stations[1:] {
		d := haversineMeters(lat, lon, s.Latitude, s.Longitude)
		if d < bestDist {
			best, bestDist = s, d
		}
	}
	return best, bestDist, nil
}

// Stations returns the dataset in its original order. The caller gets a
// copy and cannot corrupt the index.
func (ix *Index) Stations() []bikepics.Station {
	cp := make([]bikepics.Station, len(ix.stations))
	copy(cp, ix.stations)
	return cp
}

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	rLat1 := lat1 * math.Pi / 180.0
	rLat2 := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
