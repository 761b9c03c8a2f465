package station

import (
	"context"
	"encoding/json"
	"fmt"

	bikepics "github.com/RUBclim/bike-pic-renamer"
)

// Default returns the built-in dataset: the stations of the 2025 Dortmund
// bike campaign. It is used whenever no dataset file is given.
func Default() []bikepics.Station {
	return []bikepics.Station{
		{ID: "saarlandstr_open_space_vegetation", Latitude: 51.50711, Longitude: 7.46981},
		{ID: "landgrafenstr_vegetation", Latitude: 51.50424, Longitude: 7.47259},
		{ID: "chemnitzerstr_n_s_street", Latitude: 51.50198, Longitude: 7.46328},
		{ID: "saarlandstr_e_w_street", Latitude: 51.50463, Longitude: 7.45984},
		{ID: "eintrachtstr_open_space", Latitude: 51.50054, Longitude: 7.46882},
		{ID: "landgrafenstr_e_w_vegetation", Latitude: 51.50275, Longitude: 7.46261},
		{ID: "DOTAMW", Latitude: 51.50175339515813, Longitude: 7.461792881387834},
	}
}

// Load reads a station dataset from a JSON file holding an array of
// objects with id, name, latitude and longitude. The result still has to
// pass through NewIndex to be validated.
func Load(ctx context.Context, strg bikepics.Storage, path string) ([]bikepics.Station, error) {
	if !strg.Exists(ctx, path) {
		return nil, fmt.Errorf("stations file %s does not exist", path)
	}
	r, err := strg.NewReadSeeker(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("could not open stations file %s: %v", path, err)
	}
	defer r.Close()

	var stations []bikepics.Station
	if err := json.NewDecoder(r).Decode(&stations); err != nil {
		return nil, fmt.Errorf("could not decode stations file %s: %v", path, err)
	}
	return stations, nil
}
