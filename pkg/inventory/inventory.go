// Package inventory finds the package files already present in the local
// mirror trees.
package inventory

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/glorpus-work/rpmirror/internal/logger"
)

// PackageGlob matches package archive file names.
const PackageGlob = "*.rpm"

// Scan walks every root and returns the slash-separated path, relative to
// its root, of each file matching PackageGlob. Missing roots are skipped.
func Scan(roots ...string) ([]string, error) {
	var out []string
	for _, root := range roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			logger.Debug("inventory root missing", logger.Fields{"root": root})
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if ok, _ := filepath.Match(PackageGlob, d.Name()); !ok {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			out = append(out, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Set is a membership view over scanned paths.
type Set map[string]struct{}

// NewSet builds a Set from paths.
func NewSet(paths []string) Set {
	s := make(Set, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Contains reports whether href was found by the scan.
func (s Set) Contains(href string) bool {
	_, ok := s[href]
	return ok
}

// Inventory rescans its roots on every call, so files downloaded during a
// run are seen by later lookups.
type Inventory struct {
	Roots []string
}

// New returns an Inventory over roots.
func New(roots ...string) *Inventory {
	return &Inventory{Roots: roots}
}

// Scan implements the resolver's scanner.
func (i *Inventory) Scan() (Set, error) {
	paths, err := Scan(i.Roots...)
	if err != nil {
		return nil, err
	}
	return NewSet(paths), nil
}
