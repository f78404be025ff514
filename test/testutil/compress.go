package testutil

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func writeWith(t *testing.T, path string, data []byte, wrap func(io.Writer) (io.WriteCloser, error)) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	w, err := wrap(f)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

// WriteXZ writes data to path as an xz stream.
func WriteXZ(t *testing.T, path string, data []byte) {
	t.Helper()
	writeWith(t, path, data, func(w io.Writer) (io.WriteCloser, error) { return xz.NewWriter(w) })
}

// WriteGzip writes data to path as a gzip stream.
func WriteGzip(t *testing.T, path string, data []byte) {
	t.Helper()
	writeWith(t, path, data, func(w io.Writer) (io.WriteCloser, error) { return gzip.NewWriter(w), nil })
}

// WriteZstd writes data to path as a zstd stream.
func WriteZstd(t *testing.T, path string, data []byte) {
	t.Helper()
	writeWith(t, path, data, func(w io.Writer) (io.WriteCloser, error) { return zstd.NewWriter(w) })
}
