// Package workdir manages the private scratch directory of a single
// conversion. Nothing inside it outlives the request that created it.
package workdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const prefix = "tubecast-"

type Dir string

// New creates an empty directory named after id under base.
func New(base string, id uuid.UUID) (Dir, error) {
	path := filepath.Join(base, prefix+id.String())
	if err := os.Mkdir(path, 0o700); nil != err {
		return "", fmt.Errorf("failed to create working directory: %v", err)
	}

	return Dir(path), nil
}

func (d Dir) Path() string {
	return string(d)
}

func (d Dir) Join(name string) string {
	return filepath.Join(d.Path(), name)
}

// Template is the yt-dlp output template for files named stem.<ext>.
func (d Dir) Template(stem string) string {
	return d.Join(stem + ".%(ext)s")
}

// Match returns the regular files whose names start with stem+"." and end with
// suffix, in lexical order. An empty suffix matches any extension.
func (d Dir) Match(stem, suffix string) ([]string, error) {
	entries, err := os.ReadDir(d.Path())
	if nil != err {
		return nil, fmt.Errorf("failed to list working directory: %v", err)
	}

	out := make([]string, 0, 1)
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !strings.HasPrefix(name, stem+".") || !strings.HasSuffix(name, suffix) {
			continue
		}
		out = append(out, d.Join(name))
	}

	return out, nil
}

// Clear removes every entry starting with stem+".", left over from an earlier
// attempt.
func (d Dir) Clear(stem string) error {
	entries, err := os.ReadDir(d.Path())
	if nil != err {
		return fmt.Errorf("failed to list working directory: %v", err)
	}

	var errs []error
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), stem+".") {
			if err := os.RemoveAll(d.Join(e.Name())); nil != err {
				errs = append(errs, err)
			}
		}
	}

	if err := errors.Join(errs...); nil != err {
		return fmt.Errorf("failed to clear working directory: %v", err)
	}

	return nil
}

func (d Dir) Remove() error {
	if err := os.RemoveAll(d.Path()); nil != err {
		return fmt.Errorf("failed to remove working directory: %v", err)
	}

	return nil
}
