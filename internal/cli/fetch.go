package cli

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/rpmirror/internal/logger"
	"github.com/glorpus-work/rpmirror/pkg/config"
	"github.com/glorpus-work/rpmirror/pkg/download"
	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/pkg/fsutil"
	"github.com/glorpus-work/rpmirror/pkg/metadata"
	"github.com/glorpus-work/rpmirror/pkg/orchestrator"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	var (
		dryRun      bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Mirror repodata and the selected updates",
		Long: `Download the updates repodata from settings.mirror_url, then every update
selected from the feed. Files keep their layout below mirror_root. Package
checksums are verified when 'check' has already unpacked the primary
database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd.Context(), cmd.OutOrStdout(), dryRun, concurrency)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the files that would be downloaded")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Number of parallel downloads (0=settings.workers)")

	return cmd
}

func runFetch(ctx context.Context, out io.Writer, dryRun bool, concurrency int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, err := cfg.MirrorBaseURL()
	if err != nil {
		return err
	}
	if filepath.IsAbs(cfg.UpdatesDir) {
		return fmt.Errorf("updates_dir must be relative to mirror_root to be mirrored: %s: %w", cfg.UpdatesDir, errors.ErrInvalidPath)
	}
	root, err := filepath.Abs(cfg.MirrorRoot)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", cfg.MirrorRoot, errors.ErrInvalidPath, err)
	}
	if concurrency <= 0 {
		concurrency = cfg.Settings.Workers
	}

	creds, err := cfg.Settings.MirrorAuth.Authenticator()
	if err != nil {
		return err
	}

	prog := &progress{out: out, dryRun: dryRun}
	dl := download.NewManager(cfg.Settings.HTTPTimeout, "rpmirror/"+Version).WithAuth(creds)
	orch := orchestrator.New(dl, orchestrator.Hooks{OnEvent: prog.onEvent})
	opts := orchestrator.Options{Root: root, Concurrency: concurrency, DryRun: dryRun}

	repoDir := filepath.ToSlash(cfg.UpdatesDir)
	m, err := orch.SyncRepodata(ctx, base, repoDir, opts)
	if err != nil {
		return fmt.Errorf("failed to mirror repodata: %w", err)
	}
	if m != nil {
		logger.Info("Repodata synchronized", logger.Fields{"revision": m.Revision, "files": len(m.Data)})
	}

	feed, err := checkEnv(cfg)
	if err != nil {
		if dryRun {
			logger.Info("Skipping package plan until repodata is mirrored", logger.Fields{"reason": err.Error()})
			return nil
		}
		return err
	}

	files, err := planUpdates(ctx, cfg, feed, repoDir)
	if err != nil {
		return err
	}
	if _, err := orch.Mirror(ctx, base, files, opts); err != nil {
		return fmt.Errorf("failed to mirror updates: %w", err)
	}
	if !dryRun {
		logger.Success("Updates mirrored", logger.Fields{"files": len(files)})
	}
	return nil
}

// planUpdates turns the feed decisions into mirror files, attaching package
// checksums when the unpacked updates primary database is available.
func planUpdates(ctx context.Context, cfg *config.Config, feed, repoDir string) ([]orchestrator.File, error) {
	installed, err := metadata.OpenInstalled(cfg.InstalledDBPath())
	if err != nil {
		return nil, err
	}
	defer func() { _ = installed.Close() }()

	reader, err := newReader(cfg, installed, false)
	if err != nil {
		return nil, err
	}
	decisions, err := reader.Read(ctx, feed)
	if err != nil {
		return nil, err
	}

	var primary *metadata.DB
	if fsutil.FileExists(cfg.UpdatesPrimaryDB()) {
		if primary, err = metadata.OpenPrimary(cfg.UpdatesPrimaryDB(), TagUpdates); err != nil {
			return nil, err
		}
		defer func() { _ = primary.Close() }()
	}

	files := make([]orchestrator.File, 0, len(decisions))
	for _, k := range decisions.Keys() {
		d := decisions[k]
		f := orchestrator.File{Path: path.Join(repoDir, d.Filename)}
		if primary != nil {
			c, ok, err := primary.Checksum(ctx, d.Filename)
			if err != nil {
				return nil, err
			}
			if ok {
				f.Checksum, f.ChecksumType = c.Value, c.Algorithm
			}
		}
		files = append(files, f)
	}
	return files, nil
}

// progress renders orchestrator events: the plan on a dry run, a progress
// bar per download batch otherwise.
type progress struct {
	mu      sync.Mutex
	out     io.Writer
	dryRun  bool
	planned int
	bar     *progressbar.ProgressBar
}

func (p *progress) onEvent(e orchestrator.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Phase {
	case "planning":
		p.planned++
		if p.dryRun {
			_, _ = fmt.Fprintln(p.out, e.Msg)
		}
	case "downloading", "error":
		if p.bar == nil {
			p.bar = progressbar.NewOptions(p.planned,
				progressbar.OptionSetWriter(p.out),
				progressbar.OptionSetDescription("downloading"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionThrottle(100*time.Millisecond),
			)
		}
		p.bar.Describe("downloading " + path.Base(e.ID))
		_ = p.bar.Add(1)
		if e.Phase == "error" {
			logger.Error("Download failed", logger.Fields{"file": e.ID, "error": e.Msg})
		}
	case "done":
		if p.bar != nil {
			_ = p.bar.Finish()
			_, _ = fmt.Fprintln(p.out)
			p.bar = nil
		}
		p.planned = 0
	}
}
