package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"

	"github.com/glorpus-work/rpmirror/pkg/download"
	"github.com/glorpus-work/rpmirror/pkg/repomd"
)

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Mirror downloads files from base into opts.Root, keeping their relative
// layout. It returns the local path of every file keyed by its relative path.
// A dry run only emits a planning event per file.
func (o *Orchestrator) Mirror(ctx context.Context, base *url.URL, files []File, opts Options) (map[string]string, error) {
	if o.DL == nil {
		return nil, fmt.Errorf("download manager is not configured")
	}
	if base == nil {
		return nil, fmt.Errorf("mirror URL is not configured")
	}

	items := make([]download.Item, 0, len(files))
	for _, f := range files {
		emit(o.Hooks, Event{Phase: "planning", ID: f.Path, Msg: base.JoinPath(f.Path).String()})
		items = append(items, download.Item{
			ID:           f.Path,
			URL:          base.JoinPath(f.Path),
			Checksum:     f.Checksum,
			ChecksumType: f.ChecksumType,
			Filename:     f.Path,
			Refresh:      f.Refresh,
		})
	}
	if opts.DryRun {
		emit(o.Hooks, Event{Phase: "done", Msg: "dry-run"})
		return nil, nil
	}
	if len(items) == 0 {
		emit(o.Hooks, Event{Phase: "done"})
		return map[string]string{}, nil
	}

	fetched, err := o.DL.FetchAll(ctx, items, download.Options{
		Dir:         opts.Root,
		Concurrency: opts.Concurrency,
		OnDone: func(it download.Item, err error) {
			if err != nil {
				emit(o.Hooks, Event{Phase: "error", ID: it.ID, Msg: err.Error()})
				return
			}
			emit(o.Hooks, Event{Phase: "downloading", ID: it.ID})
		},
	})
	if err != nil {
		return nil, err
	}
	emit(o.Hooks, Event{Phase: "done"})
	return fetched, nil
}

// SyncRepodata refreshes the manifest of the repository at repoDir, then
// mirrors every metadata file it lists, verified against the manifest
// checksums. It returns the parsed manifest. A dry run only plans the
// manifest download and returns nil.
func (o *Orchestrator) SyncRepodata(ctx context.Context, base *url.URL, repoDir string, opts Options) (*repomd.Manifest, error) {
	manifest := path.Join(repoDir, repomd.ManifestPath)
	fetched, err := o.Mirror(ctx, base, []File{{Path: manifest, Refresh: true}}, opts)
	if err != nil || opts.DryRun {
		return nil, err
	}

	local := fetched[manifest]
	if local == "" {
		local = filepath.Join(opts.Root, filepath.FromSlash(manifest))
	}
	m, err := repomd.Parse(local)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(m.Data))
	for _, d := range m.Data {
		files = append(files, File{
			Path:         path.Join(repoDir, d.Location.Href),
			Checksum:     d.Checksum.Value,
			ChecksumType: d.Checksum.Type,
		})
	}
	if _, err := o.Mirror(ctx, base, files, opts); err != nil {
		return nil, err
	}
	return m, nil
}

// New constructs an Orchestrator. Hooks can be empty if no event handling is needed.
func New(dl Downloader, hooks Hooks) *Orchestrator {
	return &Orchestrator{DL: dl, Hooks: hooks}
}
