package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/pkg/metadata"
	"github.com/glorpus-work/rpmirror/pkg/resolver"
)

// NewParseCmd creates the parse command.
func NewParseCmd() *cobra.Command {
	var arches metadata.ArchSet

	cmd := &cobra.Command{
		Use:   "parse NAME[.ARCH]...",
		Short: "List the files needed to install packages by name",
		Long: `Resolve each named package and its direct requirements and print every file
that is neither downloaded nor installed. Names without an arch suffix are
looked up in every arch of parse_arches.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), cmd.OutOrStdout(), args, arches)
		},
	}

	cmd.Flags().Var(archSetValue{set: &arches}, "arches", "Comma-separated arch set for names without an arch (default from parse_arches)")

	return cmd
}

func runParse(ctx context.Context, out io.Writer, names []string, arches metadata.ArchSet) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(arches) == 0 {
		arches = cfg.ParseArchSet()
	}
	r := newResolver(cfg, s, cfg.ResolveArchSet())
	for _, name := range names {
		acc := resolver.NewAccumulator()
		if err := r.ResolveName(ctx, name, arches, acc); err != nil {
			if stderrors.Is(err, errors.ErrUnknownPackage) {
				_, _ = fmt.Fprintf(out, "Unknown package: %s\n", name)
				continue
			}
			return err
		}
		for _, p := range acc.Paths() {
			_, _ = fmt.Fprintln(out, p)
		}
	}
	return nil
}
