package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/rpmirror/internal/logger"
	"github.com/glorpus-work/rpmirror/pkg/fsutil"
	"github.com/glorpus-work/rpmirror/pkg/hostdb"
	"github.com/glorpus-work/rpmirror/pkg/metadata"
)

// NewLgetCmd creates the lget command.
func NewLgetCmd() *cobra.Command {
	var fromDir string

	cmd := &cobra.Command{
		Use:   "lget",
		Short: "Snapshot the installed packages",
		Long: `Rebuild the installed database from the host rpm database, or from the
headers of the package files below --from-dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLget(cmd.Context(), fromDir)
		},
	}

	cmd.Flags().StringVar(&fromDir, "from-dir", "", "Read package headers from this directory instead of querying rpm")

	return cmd
}

func runLget(ctx context.Context, fromDir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var records []metadata.Record
	if fromDir != "" {
		records, err = hostdb.FromDir(fromDir)
	} else {
		records, err = hostdb.QueryRPM(ctx)
	}
	if err != nil {
		return err
	}

	if err := fsutil.EnsureFileDir(cfg.InstalledDBPath()); err != nil {
		return err
	}
	db, err := metadata.CreateInstalled(cfg.InstalledDBPath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Replace(ctx, records); err != nil {
		return err
	}
	if err := db.Commit(); err != nil {
		return err
	}

	logger.Success("Installed database rebuilt", logger.Fields{"path": cfg.InstalledDBPath(), "packages": len(records)})
	return nil
}
