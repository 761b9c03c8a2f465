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
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/multi"
	"github.com/apex/log/handlers/text"
	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	bikepics "github.com/RUBclim/bike-pic-renamer"
	"github.com/RUBclim/bike-pic-renamer/geojson"
	"github.com/RUBclim/bike-pic-renamer/metadata"
	"github.com/RUBclim/bike-pic-renamer/renamer"
	"github.com/RUBclim/bike-pic-renamer/station"
	"github.com/RUBclim/bike-pic-renamer/storage"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bike-pic-renamer <photos...>",
	Short: "Rename bike camera photos after the nearest measurement station",
	Long: `bike-pic-renamer reads the GPS position and capture time from the EXIF
block of each photo, looks up the nearest measurement station of the
campaign and copies the file to the output directory as
<station>_<YYYYMMDD_HHMMSS>.<ext>, with the capture time in UTC.

Arguments are file paths or glob patterns. Source files are never
modified. Photos without GPS coordinates or capture timestamp are
reported and skipped; the batch continues and the process exits
non-zero.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRename,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bike-pic-renamer.yaml)")
	rootCmd.PersistentFlags().String("stations", "", "JSON file with the station dataset (default: built-in campaign stations)")
	rootCmd.PersistentFlags().String("log-json", "", "also write the log as JSON to this file")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.Flags().StringP("output-dir", "o", "images-renamed", "directory the renamed copies are written to")
	rootCmd.Flags().Float64("max-distance-m", 0, "skip photos whose nearest station is farther away than this many meters (0 = no limit)")
	rootCmd.Flags().String("geojson", "", "write stations and renamed photos as GeoJSON to this file")
	rootCmd.Flags().Bool("thumbs", false, "also write thumbnails to <output-dir>/thumbs")
	rootCmd.Flags().Bool("dry-run", false, "log planned renames without writing anything")

	viper.BindPFlag("stations", rootCmd.PersistentFlags().Lookup("stations"))
	viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("output_dir", rootCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("max_distance_m", rootCmd.Flags().Lookup("max-distance-m"))
	viper.BindPFlag("geojson", rootCmd.Flags().Lookup("geojson"))
	viper.BindPFlag("thumbs", rootCmd.Flags().Lookup("thumbs"))
	viper.BindPFlag("dry_run", rootCmd.Flags().Lookup("dry-run"))
}

// initConfig reads in the config file and ENV variables if set.
func initConfig() {
	// settings.env is optional and only used during development.
	godotenv.Load("settings.env")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".bike-pic-renamer")
	}

	viper.SetEnvPrefix("bikepics")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setupLogging routes the log to stderr and, when requested, as JSON to a
// file. The returned cleanup closes the file.
func setupLogging() func() {
	handlers := []log.Handler{text.New(os.Stderr)}
	cleanup := func() {}
	if p := viper.GetString("log_json"); p != "" {
		logFile, err := os.Create(p)
		if err != nil {
			log.Fatal("error creating log file")
		}
		handlers = append(handlers, json.New(logFile))
		cleanup = func() { logFile.Close() }
	}
	log.SetHandler(multi.New(handlers...))
	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	return cleanup
}

// loadStations returns the dataset behind --stations, or the built-in
// campaign stations.
func loadStations(ctx context.Context, strg bikepics.Storage) ([]bikepics.Station, error) {
	if path := viper.GetString("stations"); path != "" {
		return station.Load(ctx, strg, path)
	}
	return station.Default(), nil
}

func runRename(cmd *cobra.Command, args []string) error {
	cleanup := setupLogging()
	defer cleanup()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logctx := log.WithFields(log.Fields{
		"cmd": "bike-pic-renamer",
	})
	go func() {
		<-sigs
		logctx.Warn("SIGINT or SIGTERM - terminating...")
		cancel()
	}()

	appFs := afero.NewOsFs()
	strg := storage.NewLocal(appFs)

	stations, err := loadStations(ctx, strg)
	if err != nil {
		return err
	}
	index, err := station.NewIndex(stations)
	if err != nil {
		return fmt.Errorf("station dataset: %v", err)
	}

	files, err := storage.ExpandGlobs(appFs, args)
	if err != nil {
		return err
	}

	svc := renamer.New(strg, metadata.NewExtractor(strg), index, renamer.Options{
		OutputDir:   viper.GetString("output_dir"),
		MaxDistance: viper.GetFloat64("max_distance_m"),
		DryRun:      viper.GetBool("dry_run"),
		Thumbnails:  viper.GetBool("thumbs"),
	})

	sum, err := svc.Execute(ctx, logctx, files)
	if err != nil {
		return err
	}

	if p := viper.GetString("geojson"); p != "" && !viper.GetBool("dry_run") {
		if err := geojson.Write(ctx, strg, p, geojson.Collection(index.Stations(), sum.Renamed)); err != nil {
			return err
		}
		logctx.WithField("geojson", p).Info("wrote map artifact")
	}

	logctx.WithFields(log.Fields{
		"renamed": len(sum.Renamed),
		"skipped": len(sum.Skipped),
		"failed":  len(sum.Failed),
	}).Info("done")

	if n := len(sum.Failed); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(files))
	}
	return nil
}
