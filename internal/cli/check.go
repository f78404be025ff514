package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/rpmirror/internal/logger"
	"github.com/glorpus-work/rpmirror/pkg/archive"
	"github.com/glorpus-work/rpmirror/pkg/checksum"
	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/pkg/inventory"
	"github.com/glorpus-work/rpmirror/pkg/metadata"
	"github.com/glorpus-work/rpmirror/pkg/repomd"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	var headers bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the local updates tree",
		Long: `Verify the updates repodata against repomd.xml, unpack the primary database
to repodata/primary.db and verify every downloaded package in the updates
and release trees against the checksum published for it in the updates or
release snapshot.

Mismatches are printed; they do not fail the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), headers)
		},
	}

	cmd.Flags().BoolVar(&headers, "headers", false, "Also compare each package's rpm header with its database record")

	return cmd
}

type checkJob struct {
	path string
	rec  metadata.Record
}

func runCheck(ctx context.Context, out io.Writer, headers bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := checkEnv(cfg); err != nil {
		return err
	}

	// Output lines come from several goroutines.
	w := &syncWriter{w: out}

	checker := &repomd.Checker{Out: w}
	res, err := checker.Check(ctx, cfg.UpdatesPath(), cfg.ManifestPath())
	if err != nil {
		return err
	}
	if res.PrimaryDB == "" {
		return fmt.Errorf("%s: %w", cfg.ManifestPath(), errors.ErrMissingPrimary)
	}
	if err := archive.NewManager().DecompressFile(ctx, res.PrimaryDB, cfg.UpdatesPrimaryDB()); err != nil {
		return fmt.Errorf("failed to unpack %s: %w", res.PrimaryDB, err)
	}
	logger.Debug("primary database unpacked", logger.Fields{"path": cfg.UpdatesPrimaryDB()})

	updates, err := metadata.OpenPrimary(cfg.UpdatesPrimaryDB(), TagUpdates)
	if err != nil {
		return err
	}
	defer func() { _ = updates.Close() }()
	release, err := metadata.OpenPrimary(cfg.ReleaseDBPath(), TagRelease)
	if err != nil {
		return err
	}
	defer func() { _ = release.Close() }()

	var jobs []checkJob
	for _, root := range []string{cfg.UpdatesPath(), cfg.ReleasesPath()} {
		hrefs, err := inventory.Scan(root)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", root, err)
		}
		for _, href := range hrefs {
			rec, ok, err := lookupRecord(ctx, href, updates, release)
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintf(w, "Unknown package: %s\n", href)
				continue
			}
			jobs = append(jobs, checkJob{path: filepath.Join(root, filepath.FromSlash(href)), rec: rec})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Settings.Workers)
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return verifyPackage(w, job, headers)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("check finished", logger.Fields{"packages": len(jobs), "metadata_mismatches": len(res.Mismatches)})
	return nil
}

func lookupRecord(ctx context.Context, href string, dbs ...*metadata.DB) (metadata.Record, bool, error) {
	for _, db := range dbs {
		rec, ok, err := db.Record(ctx, href)
		if err != nil || ok {
			return rec, ok, err
		}
	}
	return metadata.Record{}, false, nil
}

func verifyPackage(out io.Writer, job checkJob, headers bool) error {
	ok, err := checksum.Verify(job.rec.Checksum.Algorithm, job.path, job.rec.Checksum.Value)
	if err != nil {
		logger.Warn("package could not be hashed", logger.Fields{"path": job.path, "error": err.Error()})
	}
	if !ok {
		_, _ = fmt.Fprintf(out, "Checksum error on: %s\n", job.path)
		return nil
	}
	if !headers {
		return nil
	}
	h, err := inventory.ReadHeader(job.path)
	if err != nil {
		_, _ = fmt.Fprintf(out, "Header error on: %s\n", job.path)
		logger.Debug("header unreadable", logger.Fields{"path": job.path, "error": err.Error()})
		return nil
	}
	if h.Name != job.rec.Name || h.Version != job.rec.Version || h.Release != job.rec.Release || h.Arch != job.rec.Arch {
		_, _ = fmt.Fprintf(out, "Header mismatch on: %s (%s != %s)\n", job.path, h.NEVRA(), job.rec.NEVRA())
	}
	return nil
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
