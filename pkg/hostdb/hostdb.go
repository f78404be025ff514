// Package hostdb reads the set of packages installed on a host, either from
// the host's rpm database or from a directory of package files.
package hostdb

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/glorpus-work/rpmirror/internal/logger"
	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/pkg/inventory"
	"github.com/glorpus-work/rpmirror/pkg/metadata"
)

// QueryFormat is the rpm --queryformat producing one tab-separated line per
// installed package.
const QueryFormat = `%{NAME}\t%{VERSION}\t%{RELEASE}\t%{ARCH}\t%{BUILDTIME}\n`

// RPMCommand is the binary QueryRPM runs.
var RPMCommand = "rpm"

// QueryRPM lists the packages in the host rpm database.
func QueryRPM(ctx context.Context) ([]metadata.Record, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, RPMCommand, "-qa", "--queryformat", QueryFormat)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s -qa: %w: %w: %s", RPMCommand, errors.ErrHostQuery, err, strings.TrimSpace(stderr.String()))
	}
	return ParseQuery(bytes.NewReader(out))
}

// ParseQuery parses QueryFormat output. Blank lines are ignored; a line
// without five fields or with a non-numeric build time is an error.
func ParseQuery(r io.Reader) ([]metadata.Record, error) {
	var out []metadata.Record
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 5 {
			return nil, fmt.Errorf("line %d: want 5 fields, got %d: %w", line, len(fields), errors.ErrHostQuery)
		}
		ts, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: build time %q: %w", line, fields[4], errors.ErrHostQuery)
		}
		// gpg-pubkey entries have no architecture.
		if fields[3] == "(none)" {
			continue
		}
		out = append(out, metadata.Record{
			Name:      fields[0],
			Version:   fields[1],
			Release:   fields[2],
			Arch:      fields[3],
			BuildTime: ts,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrHostQuery, err)
	}
	return out, nil
}

// FromDir reads the header of every package file below dir.
func FromDir(dir string) ([]metadata.Record, error) {
	paths, err := inventory.Scan(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", dir, errors.ErrHostQuery, err)
	}
	out := make([]metadata.Record, 0, len(paths))
	for _, rel := range paths {
		h, err := inventory.ReadHeader(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		logger.Debug("read package header", logger.Fields{"file": rel, "nevra": h.NEVRA()})
		out = append(out, metadata.Record{
			Name:      h.Name,
			Epoch:     h.Epoch,
			Version:   h.Version,
			Release:   h.Release,
			Arch:      h.Arch,
			BuildTime: h.BuildTime,
		})
	}
	return out, nil
}
