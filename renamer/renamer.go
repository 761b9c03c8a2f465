// Package renamer copies bike-camera photos into an output directory,
// naming each one after the nearest measurement station and the capture
// time.
package renamer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/apex/log"

	bikepics "github.com/RUBclim/bike-pic-renamer"
	"github.com/RUBclim/bike-pic-renamer/metadata"
)

// timestampLayout shapes the capture time part of output names,
// for example STA042_20250801_101530.jpg.
const timestampLayout = "20060102_150405"

const thumbsDirName = "thumbs"

// Options control a batch run.
type Options struct {
	// OutputDir is where the renamed copies land.
	OutputDir string
	// MaxDistance skips photos whose nearest station is farther away
	// than this many meters. Zero disables the limit.
	MaxDistance float64
	// DryRun logs planned renames without touching the filesystem.
	DryRun bool
	// Thumbnails also writes a small preview of every renamed photo
	// under OutputDir/thumbs.
	Thumbnails bool
}

type Service struct {
	strg  bikepics.Storage
	extr  bikepics.Extractor
	index bikepics.StationIndex
	opts  Options
}

func New(strg bikepics.Storage, extr bikepics.Extractor, index bikepics.StationIndex, opts Options) *Service {
	return &Service{strg: strg, extr: extr, index: index, opts: opts}
}

// Result describes one renamed photo.
type Result struct {
	Photo    bikepics.Photo
	Station  bikepics.Station
	Distance float64
	NewPath  string
}

// Skip records a photo left alone because its nearest station was beyond
// the distance limit. Skips are reported, not failures.
type Skip struct {
	Path     string
	Station  bikepics.Station
	Distance float64
}

// FileError records a per-file failure. The batch keeps going.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e FileError) Unwrap() error { return e.Err }

// Summary is the outcome of one batch run.
type Summary struct {
	Renamed []Result
	Skipped []Skip
	Failed  []FileError
}

// abortError marks failures that invalidate the whole batch, like an
// output directory that cannot be created.
type abortError struct {
	err error
}

func (e abortError) Error() string { return e.err.Error() }

func (e abortError) Unwrap() error { return e.err }

// Execute processes the files in order, one at a time. Per-file problems
// land in the summary and the batch continues; a non-nil error means the
// batch itself was aborted. Source files are never modified.
func (s *Service) Execute(ctx context.Context, logctx log.Interface, files []string) (*Summary, error) {
	if len(files) == 0 {
		return nil, bikepics.ErrNoInputFiles
	}

	sum := &Summary{}
	names := make(map[string]struct{}, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		flog := logctx.WithFields(log.Fields{
			"photo": f,
			"n":     i + 1,
			"total": len(files),
		})
		res, skip, err := s.process(ctx, flog, f, names)
		switch {
		case err != nil:
			var abort abortError
			if errors.As(err, &abort) {
				return sum, abort.err
			}
			flog.WithError(err).Error("skipping photo")
			sum.Failed = append(sum.Failed, FileError{Path: f, Err: err})
		case skip != nil:
			flog.WithFields(log.Fields{
				"station":    skip.Station.ID,
				"distance_m": int(skip.Distance),
			}).Warn("nearest station too far away, skipping")
			sum.Skipped = append(sum.Skipped, *skip)
		default:
			sum.Renamed = append(sum.Renamed, *res)
		}
	}
	return sum, nil
}

// process runs the pipeline for a single photo: extract metadata, find
// the nearest station, build the output name and copy the file. The
// output directory is only created once a photo actually needs it.
func (s *Service) process(ctx context.Context, flog log.Interface, srcPath string, names map[string]struct{}) (*Result, *Skip, error) {
	ph, err := s.extr.Extract(ctx, flog, srcPath)
	if err != nil {
		return nil, nil, err
	}

	st, dist, err := s.index.Nearest(ph.Latitude, ph.Longitude)
	if err != nil {
		return nil, nil, err
	}

	if s.opts.MaxDistance > 0 && dist > s.opts.MaxDistance {
		return nil, &Skip{Path: srcPath, Station: st, Distance: dist}, nil
	}

	name := s.newName(st, ph, names)
	dstPath := filepath.Join(s.opts.OutputDir, name)
	flog = flog.WithFields(log.Fields{
		"station":    st.ID,
		"distance_m": int(dist),
		"renamed":    dstPath,
	})

	res := &Result{Photo: *ph, Station: st, Distance: dist, NewPath: dstPath}
	if s.opts.DryRun {
		flog.Info("would rename (dry run)")
		return res, nil, nil
	}

	if err := s.strg.MkdirAll(ctx, s.opts.OutputDir); err != nil {
		return nil, nil, abortError{err: fmt.Errorf("could not create output directory %s: %v", s.opts.OutputDir, err)}
	}
	if err := s.copyFile(ctx, srcPath, dstPath); err != nil {
		return nil, nil, err
	}
	if s.opts.Thumbnails {
		if err := s.writeThumbnail(ctx, srcPath, name); err != nil {
			flog.WithError(err).Warn("could not write thumbnail")
		}
	}
	flog.Info("renamed")
	return res, nil, nil
}

// newName builds "<station>_<timestamp><ext>" with the capture time in
// UTC. Collisions within the running batch get a numeric suffix, so a
// second run over the same inputs reproduces the same names instead of
// piling up new copies.
func (s *Service) newName(st bikepics.Station, ph *bikepics.Photo, names map[string]struct{}) string {
	ext := filepath.Ext(ph.Path)
	base := st.ID + "_" + ph.TakenAt.UTC().Format(timestampLayout)

	name := base + ext
	if _, taken := names[name]; taken {
		for n := 1; ; n++ {
			candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
			if _, taken := names[candidate]; !taken {
				name = candidate
				break
			}
		}
	}
	names[name] = struct{}{}
	return name
}

func (s *Service) copyFile(ctx context.Context, srcPath, dstPath string) error {
	r, err := s.strg.NewReadSeeker(ctx, srcPath)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := s.strg.NewWriter(ctx, dstPath)
	if err != nil {
		return fmt.Errorf("could not create %s: %v", dstPath, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("could not copy to %s: %v", dstPath, err)
	}
	return w.Close()
}

func (s *Service) writeThumbnail(ctx context.Context, srcPath, name string) error {
	r, err := s.strg.NewReadSeeker(ctx, srcPath)
	if err != nil {
		return err
	}
	defer r.Close()

	thumb, err := metadata.Thumbnail(r)
	if err != nil {
		return err
	}
	dir := filepath.Join(s.opts.OutputDir, thumbsDirName)
	if err := s.strg.MkdirAll(ctx, dir); err != nil {
		return err
	}
	w, err := s.strg.NewWriter(ctx, filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if _, err := w.Write(thumb); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
