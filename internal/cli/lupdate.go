package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/rpmirror/internal/logger"
	"github.com/glorpus-work/rpmirror/pkg/metadata"
)

// NewLupdateCmd creates the lupdate command.
func NewLupdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lupdate",
		Short: "Record the selected updates as installed",
		Long: `Read the update feed and write every selected update back into the installed
database, as if it had been applied to the host.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLupdate(cmd.Context())
		},
	}

	return cmd
}

func runLupdate(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	feed, err := checkEnv(cfg)
	if err != nil {
		return err
	}

	installed, err := metadata.OpenInstalled(cfg.InstalledDBPath())
	if err != nil {
		return err
	}
	defer func() { _ = installed.Close() }()

	reader, err := newReader(cfg, installed, true)
	if err != nil {
		return err
	}
	decisions, err := reader.Read(ctx, feed)
	if err != nil {
		return err
	}
	if err := installed.Commit(); err != nil {
		return err
	}

	logger.Success("Installed database updated", logger.Fields{"updates": len(decisions)})
	return nil
}
