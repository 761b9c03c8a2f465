// Package geojson renders the campaign map artifact: every station and
// every renamed photo as a GeoJSON feature collection.
package geojson

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bikepics "github.com/RUBclim/bike-pic-renamer"
	"github.com/RUBclim/bike-pic-renamer/renamer"
)

// FeatureCollection follows the standard GeoJSON structure.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [Lon, Lat]
}

// NewPoint builds a point feature. GeoJSON coordinates are longitude
// first.
func NewPoint(lon, lat float64, props map[string]interface{}) Feature {
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{lon, lat},
		},
		Properties: props,
	}
}

// StationFeature renders a station as a point feature.
func StationFeature(s bikepics.Station) Feature {
	props := map[string]interface{}{
		"kind": "station",
		"id":   s.ID,
	}
	if s.Name != "" {
		props["name"] = s.Name
	}
	return NewPoint(s.Longitude, s.Latitude, props)
}

// PhotoFeature renders a renamed photo at its capture position.
func PhotoFeature(r renamer.Result) Feature {
	return NewPoint(r.Photo.Longitude, r.Photo.Latitude, map[string]interface{}{
		"kind":       "photo",
		"source":     r.Photo.Path,
		"renamed":    r.NewPath,
		"station":    r.Station.ID,
		"taken_at":   r.Photo.TakenAt.UTC().Format(time.RFC3339),
		"distance_m": r.Distance,
	})
}

// Collection builds the artifact: stations first, in dataset order, then
// the renamed photos in batch order.
func Collection(stations []bikepics.Station, renamed []renamer.Result) FeatureCollection {
	features := make([]Feature, 0, len(stations)+len(renamed))
	for _, s := range stations {
		features = append(features, StationFeature(s))
	}
	for _, r := range renamed {
		features = append(features, PhotoFeature(r))
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// Write stores the collection as indented JSON.
func Write(ctx context.Context, sw bikepics.StorageWriter, path string, fc FeatureCollection) error {
	w, err := sw.NewWriter(ctx, path)
	if err != nil {
		return fmt.Errorf("could not create %s: %v", path, err)
	}
	en := json.NewEncoder(w)
	en.SetIndent("", "    ")
	if err := en.Encode(fc); err != nil {
		w.Close()
		return fmt.Errorf("could not encode %s: %v", path, err)
	}
	return w.Close()
}
