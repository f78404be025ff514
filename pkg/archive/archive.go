// Package archive opens the compressed metadata files published in a
// repository's repodata directory (updateinfo.xml.xz, primary.sqlite.bz2, ...).
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mholt/archives"

	"github.com/glorpus-work/rpmirror/pkg/fsutil"
)

// Manager handles decompression of repository metadata.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// readCloser couples a decompressing reader with the underlying file.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open returns a reader yielding the decompressed content of path.
// Files in no recognised compression format are returned as-is.
func (am *Manager) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	format, stream, err := archives.Identify(ctx, path, file)
	if errors.Is(err, archives.NoMatch) {
		return &readCloser{Reader: stream, closers: []io.Closer{file}}, nil
	}
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to identify format of %s: %w", path, err)
	}

	decomp, ok := format.(archives.Decompressor)
	if !ok {
		_ = file.Close()
		return nil, fmt.Errorf("%s is an archive, not a compressed file", path)
	}
	rc, err := decomp.OpenReader(stream)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to open decompressor for %s: %w", path, err)
	}
	return &readCloser{Reader: rc, closers: []io.Closer{rc, file}}, nil
}

// DecompressFile writes the decompressed content of src to dst atomically.
func (am *Manager) DecompressFile(ctx context.Context, src, dst string) error {
	rc, err := am.Open(ctx, src)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	if err := fsutil.WriteAtomic(dst, rc, fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("failed to decompress %s to %s: %w", src, dst, err)
	}
	return nil
}
