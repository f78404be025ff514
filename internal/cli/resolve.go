package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/rpmirror/internal/logger"
	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/pkg/metadata"
	"github.com/glorpus-work/rpmirror/pkg/resolver"
)

// NewResolveCmd creates the resolve command.
func NewResolveCmd() *cobra.Command {
	var arches metadata.ArchSet

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "List packages the selected updates still need",
		Long: `Resolve the direct requirements of every selected update against the updates
and release snapshots. Each package that is neither downloaded nor installed
is printed once, followed by the updates that need it:

  <path> ==> [name, ...]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd.OutOrStdout(), arches)
		},
	}

	cmd.Flags().Var(archSetValue{set: &arches}, "arches", "Comma-separated arch set (default from resolve_arches)")

	return cmd
}

func runResolve(ctx context.Context, out io.Writer, arches metadata.ArchSet) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	feed, err := checkEnv(cfg)
	if err != nil {
		return err
	}
	s, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	reader, err := newReader(cfg, s.installed, false)
	if err != nil {
		return err
	}
	decisions, err := reader.Read(ctx, feed)
	if err != nil {
		return err
	}

	if len(arches) == 0 {
		arches = cfg.ResolveArchSet()
	}
	r := newResolver(cfg, s, arches)
	acc := resolver.NewAccumulator()
	for _, k := range decisions.Keys() {
		d := decisions[k]
		if err := r.Resolve(ctx, d.Filename, acc); err != nil {
			if stderrors.Is(err, errors.ErrUnknownPackage) {
				_, _ = fmt.Fprintf(out, "Unknown package: %s\n", d.Filename)
				continue
			}
			return err
		}
	}

	for _, rec := range acc.Records() {
		_, _ = fmt.Fprintln(out, rec.String())
	}
	logger.Debug("resolve finished", logger.Fields{"updates": len(decisions), "needed": acc.Len()})
	return nil
}
