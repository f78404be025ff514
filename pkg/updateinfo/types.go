package updateinfo

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/glorpus-work/rpmirror/pkg/errors"
)

// FeedFormat selects how <filename> values map to paths in the updates tree.
type FeedFormat string

const (
	// FormatLegacy stores packages under a directory named after the
	// lowercased first letter of the file name (f/foo-1.0-1.x86_64.rpm).
	FormatLegacy FeedFormat = "legacy"
	// FormatFlat uses the file name as published.
	FormatFlat FeedFormat = "flat"
)

// ParseFeedFormat validates a config value. Empty means legacy.
func ParseFeedFormat(s string) (FeedFormat, error) {
	switch FeedFormat(strings.ToLower(s)) {
	case "", FormatLegacy:
		return FormatLegacy, nil
	case FormatFlat:
		return FormatFlat, nil
	default:
		return "", errors.ErrInvalidFeedFormatWithDetails(s)
	}
}

// NormalizeFilename maps a feed <filename> to a slash-separated path below
// the updates directory.
func NormalizeFilename(format FeedFormat, fn string) string {
	trimmed := strings.TrimLeft(fn, "/")
	// Root-relative values are already paths below the updates directory.
	if trimmed != fn || trimmed == "" || format == FormatFlat {
		return trimmed
	}
	if len(fn) > 1 && fn[1] == '/' {
		return fn
	}
	r, _ := utf8.DecodeRuneInString(fn)
	return string(unicode.ToLower(r)) + "/" + fn
}

// Entry is one package of one advisory.
type Entry struct {
	Issued   int64
	Name     string
	Arch     string
	Version  string
	Release  string
	Filename string
}

// Key identifies a package slot on the host.
type Key struct {
	Name string
	Arch string
}

func (k Key) String() string { return k.Name + "." + k.Arch }

// Decision is the newest applicable advisory entry for one Key.
type Decision struct {
	Issued   int64
	Filename string // normalized, relative to the updates directory
	Version  string
	Release  string
}

// Path joins the decision's file with the updates directory.
func (d Decision) Path(updatesDir string) string {
	return filepath.Join(updatesDir, filepath.FromSlash(d.Filename))
}

// Decisions maps each installed package slot to its chosen update.
type Decisions map[Key]Decision

// Keys returns the keys ordered by name, then arch.
func (d Decisions) Keys() []Key {
	keys := make([]Key, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Arch < keys[j].Arch
	})
	return keys
}

// Filenames returns the decision files in Keys order.
func (d Decisions) Filenames() []string {
	keys := d.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = d[k].Filename
	}
	return out
}

// InstalledStore is the part of the host snapshot the reader needs.
type InstalledStore interface {
	BuildTime(ctx context.Context, name, arch string) (int64, bool, error)
	UpdateVersion(ctx context.Context, name, arch, version, release string, buildTime int64) error
}

// Policy can veto entries before they are considered.
type Policy interface {
	Exclude(ctx context.Context, e Entry) (bool, error)
}
