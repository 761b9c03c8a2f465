package station

import (
	"math"
	"strings"
	"testing"

	bikepics "github.com/RUBclim/bike-pic-renamer"
	"github.com/stretchr/testify/assert"
)

func testStations() []bikepics.Station {
	return []bikepics.Station{
		{ID: "STA001", Latitude: 51.50711, Longitude: 7.46981},
		{ID: "STA042", Latitude: 51.477928, Longitude: 7.251364},
		{ID: "STA007", Latitude: 51.50424, Longitude: 7.47259},
	}
}

func TestNewIndexEmpty(t *testing.T) {
	_, err := NewIndex(nil)
	assert.ErrorIs(t, err, bikepics.ErrNoStations)

	_, err = NewIndex([]bikepics.Station{})
	assert.ErrorIs(t, err, bikepics.ErrNoStations)
}

func TestNewIndexValidation(t *testing.T) {
	cases := []struct {
		name    string
		station bikepics.Station
	}{
		{"missing id", bikepics.Station{Latitude: 51.5, Longitude: 7.4}},
		{"slash in id", bikepics.Station{ID: "a/b", Latitude: 51.5, Longitude: 7.4}},
		{"backslash in id", bikepics.Station{ID: `a\b`, Latitude: 51.5, Longitude: 7.4}},
		{"latitude too big", bikepics.Station{ID: "x", Latitude: 90.1, Longitude: 7.4}},
		{"latitude too small", bikepics.Station{ID: "x", Latitude: -90.1, Longitude: 7.4}},
		{"longitude too big", bikepics.Station{ID: "x", Latitude: 51.5, Longitude: 180.1}},
		{"longitude too small", bikepics.Station{ID: "x", Latitude: 51.5, Longitude: -180.1}},
		{"nan latitude", bikepics.Station{ID: "x", Latitude: math.NaN(), Longitude: 7.4}},
		{"nan longitude", bikepics.Station{ID: "x", Latitude: 51.5, Longitude: math.NaN()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewIndex([]bikepics.Station{tc.station})
			assert.Error(t, err)
		})
	}
}

func TestNewIndexDuplicateID(t *testing.T) {
	_, err := NewIndex([]bikepics.Station{
		{ID: "STA001", Latitude: 51.5, Longitude: 7.4},
		{ID: "STA001", Latitude: 51.6, Longitude: 7.5},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNearest(t *testing.T) {
	ix, err := NewIndex(testStations())
	assert.NoError(t, err)

	// Right on top of STA042.
	st, dist, err := ix.Nearest(51.477928, 7.251364)
	assert.NoError(t, err)
	assert.Equal(t, "STA042", st.ID)
	assert.InDelta(t, 0, dist, 0.001)

	// A few hundred meters north of STA001, far from the others.
	st, dist, err = ix.Nearest(51.510, 7.46981)
	assert.NoError(t, err)
	assert.Equal(t, "STA001", st.ID)
	assert.InDelta(t, 321, dist, 5)
}

// The returned station must never be farther away than any other station
// in the dataset.
func TestNearestIsMinimal(t *testing.T) {
	stations := testStations()
	ix, err := NewIndex(stations)
	assert.NoError(t, err)

	for lat := 51.40; lat <= 51.60; lat += 0.021 {
		for lon := 7.20; lon <= 7.50; lon += 0.023 {
			st, dist, err := ix.Nearest(lat, lon)
			assert.NoError(t, err)
			for _, other := range stations {
				d := haversineMeters(lat, lon, other.Latitude, other.Longitude)
				assert.LessOrEqual(t, dist, d, "station %s beats %s at (%f, %f)", other.ID, st.ID, lat, lon)
			}
		}
	}
}

func TestNearestTieBreak(t *testing.T) {
	// Both stations are the same distance from the equator query point.
	stations := []bikepics.Station{
		{ID: "north", Latitude: 1, Longitude: 0},
		{ID: "south", Latitude: -1, Longitude: 0},
	}
	ix, err := NewIndex(stations)
	assert.NoError(t, err)

	for i := 0; i < 10; i++ {
		st, _, err := ix.Nearest(0, 0)
		assert.NoError(t, err)
		assert.Equal(t, "north", st.ID, "tie must go to the first station in dataset order")
	}

	// Reversed dataset order flips the winner.
	ix, err = NewIndex([]bikepics.Station{stations[1], stations[0]})
	assert.NoError(t, err)
	st, _, err := ix.Nearest(0, 0)
	assert.NoError(t, err)
	assert.Equal(t, "south", st.ID)
}

func TestNearestRejectsInvalidCoordinates(t *testing.T) {
	ix, err := NewIndex(testStations())
	assert.NoError(t, err)

	_, _, err = ix.Nearest(90.5, 7.4)
	assert.Error(t, err)
	_, _, err = ix.Nearest(51.5, -180.5)
	assert.Error(t, err)

	// NaN compares false against every bound and must be caught
	// explicitly, or the scan would hand back the first station.
	_, _, err = ix.Nearest(math.NaN(), 7.4)
	assert.Error(t, err)
	_, _, err = ix.Nearest(51.5, math.NaN())
	assert.Error(t, err)
}

func TestStationsReturnsCopy(t *testing.T) {
	ix, err := NewIndex(testStations())
	assert.NoError(t, err)

	got := ix.Stations()
	got[0].ID = "mutated"

	again := ix.Stations()
	assert.Equal(t, "STA001", again[0].ID)
	assert.Len(t, again, 3)
}

func TestHaversine(t *testing.T) {
	// One degree of longitude on the equator and one degree of latitude
	// anywhere both span pi*R/180.
	oneDegree := 111194.9266
	assert.InDelta(t, oneDegree, haversineMeters(0, 0, 0, 1), 0.01)
	assert.InDelta(t, oneDegree, haversineMeters(51, 7, 52, 7), 0.01)

	// London - Paris, a commonly quoted great-circle pair.
	assert.InDelta(t, 343500, haversineMeters(51.5074, -0.1278, 48.8566, 2.3522), 1500)

	assert.Zero(t, haversineMeters(51.477928, 7.251364, 51.477928, 7.251364))
}

func TestDefaultDataset(t *testing.T) {
	stations := Default()
	assert.Len(t, stations, 7)

	ix, err := NewIndex(stations)
	assert.NoError(t, err)

	seen := map[string]bool{}
	for _, s := range stations {
		assert.NotEmpty(t, s.ID)
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
		// All campaign stations sit in the Dortmund city area.
		assert.True(t, s.Latitude > 51.4 && s.Latitude < 51.6, "latitude of %s", s.ID)
		assert.True(t, s.Longitude > 7.3 && s.Longitude < 7.6, "longitude of %s", s.ID)
	}

	st, dist, err := ix.Nearest(51.50175, 7.46179)
	assert.NoError(t, err)
	assert.Equal(t, "DOTAMW", st.ID)
	assert.Less(t, dist, 10.0)
}

func TestValidateMessages(t *testing.T) {
	err := validate(bikepics.Station{ID: "bad/id", Latitude: 0, Longitude: 0})
	if err == nil || !strings.Contains(err.Error(), "path separators") {
		t.Errorf("expected path separator error, got %v", err)
	}
}
