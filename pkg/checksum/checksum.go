// Package checksum computes and verifies file digests using the algorithm
// names that appear in repository metadata (repomd.xml, primary_db).
package checksum

import (
	"crypto/md5"  //nolint:gosec // legacy repositories still publish md5
	"crypto/sha1" //nolint:gosec // "sha" and "sha1" are metadata algorithm names
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/glorpus-work/rpmirror/pkg/errors"
)

var algorithms = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha":    sha1.New,
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// Supported reports whether algorithm names a known digest.
func Supported(algorithm string) bool {
	_, ok := algorithms[strings.ToLower(algorithm)]
	return ok
}

// New returns a fresh hash for algorithm.
func New(algorithm string) (hash.Hash, error) {
	ctor, ok := algorithms[strings.ToLower(algorithm)]
	if !ok {
		return nil, fmt.Errorf("%q: %w", algorithm, errors.ErrUnsupportedAlgorithm)
	}
	return ctor(), nil
}

// Digest returns the lowercase hex digest of the file at path.
func Digest(algorithm, path string) (string, error) {
	h, err := New(algorithm)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", path, errors.ErrChecksumIO, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%s: %w: %w", path, errors.ErrChecksumIO, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify reports whether the file digest equals expected.
func Verify(algorithm, path, expected string) (bool, error) {
	got, err := Digest(algorithm, path)
	if err != nil {
		return false, err
	}
	return got == Normalize(expected), nil
}

// Normalize trims and lowercases a hex digest.
func Normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
