package download

import (
	"context"
	"net/url"
)

// Manager downloads mirror files into a local tree.
type Manager interface {
	// FetchAll downloads all items, respecting Options (e.g., concurrency and destination dir).
	// It returns a map from Item.ID to absolute local file path.
	FetchAll(ctx context.Context, items []Item, opts Options) (map[string]string, error)

	// Fetch downloads a single item below opts.Dir and returns its absolute path.
	Fetch(ctx context.Context, item Item, opts Options) (string, error)
}

// Item represents one remote file to download.
type Item struct {
	ID           string   // stable identifier, unique within a batch
	URL          *url.URL // source URL
	Checksum     string   // optional hex digest; verified when set
	ChecksumType string   // digest algorithm, sha256 when empty
	Filename     string   // slash-separated path below Options.Dir; derived when empty
	Refresh      bool     // download even when a local copy exists
}

// Options control the behavior of the download manager.
type Options struct {
	Dir         string // destination root. Must be absolute.
	Concurrency int    // number of parallel downloads; if <=0, a sane default is used

	// OnDone, when set, is called once per distinct URL after it finishes.
	// Calls may come from several goroutines.
	OnDone func(item Item, err error)
}
