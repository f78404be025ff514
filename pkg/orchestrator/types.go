//go:generate mockgen -destination=./mocks/orchestrator.go . Downloader

package orchestrator

import (
	"context"

	"github.com/glorpus-work/rpmirror/pkg/download"
)

// Downloader handles file downloading.
type Downloader interface {
	FetchAll(ctx context.Context, items []download.Item, opts download.Options) (map[string]string, error)
}

// Orchestrator plans mirror runs and hands them to the download manager.
type Orchestrator struct {
	DL    Downloader
	Hooks Hooks // Hooks for progress and event notifications
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // planning|downloading|done|error
	ID    string // mirror-relative path
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// File is one file to mirror. Path is slash-separated and relative to both
// the mirror base URL and the local root.
type File struct {
	Path         string
	Checksum     string
	ChecksumType string
	Refresh      bool
}

// Options control orchestrator execution.
type Options struct {
	Root        string // local mirror root, absolute
	Concurrency int
	DryRun      bool
}
