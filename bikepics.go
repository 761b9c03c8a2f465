package bikepics

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/apex/log"
)

var (
	// ErrNoStations is returned when the station dataset is missing or
	// empty; processing never starts without at least one station.
	ErrNoStations = errors.New("station set is empty")

	// ErrMissingMetadata marks photos whose EXIF block lacks GPS
	// coordinates or a capture timestamp. Per-file, the batch continues.
	ErrMissingMetadata = errors.New("missing exif metadata")

	// ErrNoInputFiles is returned when no CLI argument matched a file.
	ErrNoInputFiles = errors.New("no input files")
)

// Station is a fixed measurement point from the campaign dataset.
type Station struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Photo holds the metadata extracted from one image file. It exists only
// while that file is being processed.
type Photo struct {
	Path      string
	Latitude  float64
	Longitude float64
	TakenAt   time.Time
}

type ReadCloseSeeker interface {
	io.ReadCloser
	io.Seeker
}

type Storage interface {
	StorageReadSeeker
	StorageWriter
	Exists(ctx context.Context, path string) bool
}

type StorageReadSeeker interface {
	NewReadSeeker(ctx context.Context, path string) (ReadCloseSeeker, error)
}

type StorageWriter interface {
	NewWriter(ctx context.Context, path string) (io.WriteCloser, error)
	MkdirAll(ctx context.Context, path string) error
}

// Extractor reads the EXIF metadata of a single file.
type Extractor interface {
	Extract(ctx context.Context, logctx log.Interface, path string) (*Photo, error)
}

// StationIndex answers nearest-station queries. Implementations are
// read-only after construction.
type StationIndex interface {
	Nearest(lat, lon float64) (Station, float64, error)
	Stations() []Station
}
