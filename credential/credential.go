// Package credential holds the optional session cookie material handed to
// the downloader. It is loaded once at start and never changes afterwards.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrEmptyPath = errors.New("credential path is empty")

type Material struct {
	path string
	size int
}

// None is the material of a process started without cookies.
func None() Material {
	return Material{path: "", size: 0}
}

// Load writes blob verbatim to path and returns material pointing at it. An
// empty blob yields None and leaves the filesystem untouched.
func Load(blob, path string) (Material, error) {
	if len(blob) == 0 {
		return None(), nil
	}

	if path == "" {
		return None(), ErrEmptyPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); nil != err {
		return None(), fmt.Errorf("failed to create credential directory: %v", err)
	}

	if err := os.WriteFile(path, []byte(blob), 0o600); nil != err {
		return None(), fmt.Errorf("failed to write credential file: %v", err)
	}

	return Material{path: path, size: len(blob)}, nil
}

func (m Material) Loaded() bool {
	return m.size > 0
}

func (m Material) Path() string {
	return m.path
}

func (m Material) Size() int {
	return m.size
}
