// Copyright © 2025 NAME HERE <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/RUBclim/bike-pic-renamer/geojson"
	"github.com/RUBclim/bike-pic-renamer/station"
	"github.com/RUBclim/bike-pic-renamer/storage"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Print the active station dataset",
	Long: `stations validates and prints the station dataset the renamer would
use: the file given with --stations, or the built-in campaign stations.`,
	Args: cobra.NoArgs,
	RunE: runStations,
}

func init() {
	rootCmd.AddCommand(stationsCmd)
	stationsCmd.Flags().String("geojson", "", "write the stations as GeoJSON to this file")
}

func runStations(cmd *cobra.Command, args []string) error {
	cleanup := setupLogging()
	defer cleanup()

	ctx := context.Background()
	strg := storage.NewLocal(afero.NewOsFs())

	stations, err := loadStations(ctx, strg)
	if err != nil {
		return err
	}
	index, err := station.NewIndex(stations)
	if err != nil {
		return fmt.Errorf("station dataset: %v", err)
	}

	for _, s := range index.Stations() {
		fmt.Printf("%-36s %10.6f %11.6f  %s\n", s.ID, s.Latitude, s.Longitude, s.Name)
	}

	if p, _ := cmd.Flags().GetString("geojson"); p != "" {
		if err := geojson.Write(ctx, strg, p, geojson.Collection(index.Stations(), nil)); err != nil {
			return err
		}
	}
	return nil
}
