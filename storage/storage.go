// Package storage adapts an afero filesystem to the narrow read/write
// surface the renamer needs, and expands CLI file arguments.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"

	bikepics "github.com/RUBclim/bike-pic-renamer"
)

// Local reads and writes photo files on an afero filesystem. Tests swap
// in a memory filesystem.
type Local struct {
	fs afero.Fs
}

func NewLocal(fs afero.Fs) *Local {
	return &Local{fs: fs}
}

func (l *Local) NewReadSeeker(ctx context.Context, path string) (bikepics.ReadCloseSeeker, error) {
	return l.fs.Open(path)
}

func (l *Local) NewWriter(ctx context.Context, path string) (io.WriteCloser, error) {
	return l.fs.Create(path)
}

func (l *Local) MkdirAll(ctx context.Context, path string) error {
	return l.fs.MkdirAll(path, 0755)
}

func (l *Local) Exists(ctx context.Context, path string) bool {
	exists, _ := afero.Exists(l.fs, path)
	return exists
}

// ExpandGlobs resolves the path arguments, which may be literal paths or
// glob patterns, into a flat file list. Argument order is preserved,
// matches within one pattern come back sorted, duplicates and directories
// are dropped. A pattern without matches contributes nothing; when no
// argument matched anything the result is ErrNoInputFiles.
func ExpandGlobs(fs afero.Fs, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	files := make([]string, 0, len(patterns))
	for _, p := range patterns {
		matches, err := afero.Glob(fs, p)
		if err != nil {
			return nil, fmt.Errorf("bad file pattern %q: %v", p, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			if isDir, _ := afero.IsDir(fs, m); isDir {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, bikepics.ErrNoInputFiles
	}
	return files, nil
}
