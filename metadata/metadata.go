// Package metadata reads the EXIF block of a photo: GPS position,
// capture timestamp and the embedded thumbnail.
package metadata

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"math"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/nfnt/resize"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	bikepics "github.com/RUBclim/bike-pic-renamer"
)

// exifTimeLayout is the wall-clock format of the EXIF DateTime tags.
const exifTimeLayout = "2006:01:02 15:04:05"

type extractor struct {
	rd bikepics.StorageReadSeeker
}

// NewExtractor returns an Extractor that reads photo files through rd.
func NewExtractor(rd bikepics.StorageReadSeeker) bikepics.Extractor {
	return &extractor{rd: rd}
}

// Extract decodes the EXIF block of the file at path. A file without GPS
// coordinates or without a capture timestamp yields ErrMissingMetadata;
// the caller decides whether to continue with the next file.
func (s *extractor) Extract(ctx context.Context, logctx log.Interface, path string) (*bikepics.Photo, error) {
	f, err := s.rd.NewReadSeeker(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: no exif block: %v", bikepics.ErrMissingMetadata, err)
	}

	lat, lon, err := x.LatLong()
	if err != nil {
		return nil, fmt.Errorf("%w: no gps position: %v", bikepics.ErrMissingMetadata, err)
	}
	if !finite(lat) || !finite(lon) {
		return nil, fmt.Errorf("%w: unusable gps position (%v, %v)", bikepics.ErrMissingMetadata, lat, lon)
	}

	takenAt, err := extractTakenAt(x)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bikepics.ErrMissingMetadata, err)
	}

	logctx.WithFields(log.Fields{
		"lat":      lat,
		"lon":      lon,
		"taken_at": takenAt.Format(time.RFC3339),
	}).Debug("extracted exif metadata")

	return &bikepics.Photo{
		Path:      path,
		Latitude:  lat,
		Longitude: lon,
		TakenAt:   takenAt,
	}, nil
}

// extractTakenAt reads DateTimeOriginal, falling back to DateTime. The
// wall time is interpreted as UTC so the same photo produces the same
// timestamp on every machine, regardless of the host timezone.
func extractTakenAt(x *exif.Exif) (time.Time, error) {
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		tag, err = x.Get(exif.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("no capture timestamp: %v", err)
		}
	}
	if tag.Format() != tiff.StringVal {
		return time.Time{}, fmt.Errorf("capture timestamp is not a string")
	}
	dateStr := strings.TrimRight(string(tag.Val), "\x00")
	takenAt, err := time.ParseInLocation(exifTimeLayout, dateStr, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed capture timestamp %q: %v", dateStr, err)
	}
	return takenAt, nil
}

// finite reports whether f is a usable coordinate value. GPS rationals
// with a zero denominator decode to NaN or Inf, not to an error.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Thumbnail returns a small JPEG preview: the EXIF-embedded thumbnail
// when the camera wrote one, otherwise the decoded image scaled down.
func Thumbnail(r io.ReadSeeker) ([]byte, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return nil, err
	}

	thumbnail, err := x.JpegThumbnail()
	if err != nil {
		thumbnail, err = resizeImg(r)
		if err != nil {
			return nil, err
		}
	}
	return thumbnail, nil
}

func resizeImg(r io.ReadSeeker) ([]byte, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	img, err := jpeg.Decode(r)
	if err != nil {
		return nil, err
	}
	m := resize.Thumbnail(200, 200, img, resize.NearestNeighbor)
	var b bytes.Buffer
	writer := bufio.NewWriter(&b)
	if err := jpeg.Encode(writer, m, &jpeg.Options{Quality: 50}); err != nil {
		return nil, err
	}
	if err := writer.Flush(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
