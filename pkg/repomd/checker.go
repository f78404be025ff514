package repomd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/glorpus-work/rpmirror/internal/logger"
	"github.com/glorpus-work/rpmirror/pkg/checksum"
)

// Mismatch describes one manifest entry whose file did not verify.
type Mismatch struct {
	Type string
	Path string
	Err  error // set when the file could not be hashed
}

// Result is the outcome of Check.
//
// OK is true whenever the manifest itself could be read. Individual
// mismatches are reported through Mismatches and Checker.Out but never
// flip it.
type Result struct {
	OK         bool
	PrimaryDB  string
	Mismatches []Mismatch
}

// Checker verifies repodata files against a manifest.
type Checker struct {
	// Out receives one "Checksum error on: <path>" line per mismatch.
	Out io.Writer
}

// Check verifies every entry of the manifest at manifestPath, resolving
// hrefs against root.
func (c *Checker) Check(ctx context.Context, root, manifestPath string) (Result, error) {
	m, err := Parse(manifestPath)
	if err != nil {
		return Result{}, err
	}

	res := Result{OK: true}
	for _, d := range m.Data {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := filepath.Join(root, filepath.FromSlash(d.Location.Href))
		if d.Type == TypePrimaryDB {
			res.PrimaryDB = path
		}

		ok, err := checksum.Verify(d.Checksum.Type, path, d.Checksum.Value)
		if err == nil && ok {
			logger.Debug("metadata verified", logger.Fields{"type": d.Type, "path": path})
			continue
		}
		res.Mismatches = append(res.Mismatches, Mismatch{Type: d.Type, Path: path, Err: err})
		if c.Out != nil {
			_, _ = fmt.Fprintf(c.Out, "Checksum error on: %s\n", path)
		}
		if err != nil {
			logger.Warn("metadata could not be hashed", logger.Fields{"path": path, "error": err.Error()})
		}
	}
	return res, nil
}
