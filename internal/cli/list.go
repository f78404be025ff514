package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	rpmutils "github.com/sassoftware/go-rpmutils"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/rpmirror/pkg/metadata"
	"github.com/glorpus-work/rpmirror/pkg/repomd"
	"github.com/glorpus-work/rpmirror/pkg/updateinfo"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var classify bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the update files to mirror",
		Long: `Read the update feed against the installed packages and print the path of
every selected update, followed by every repodata file of the updates tree.

The installed database is not modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), cmd.OutOrStdout(), classify)
		},
	}

	cmd.Flags().BoolVar(&classify, "classify", false, "Mark each update as upgrade, rebuild or downgrade of the installed version")

	return cmd
}

func runList(ctx context.Context, out io.Writer, classify bool) error {
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

	reader, err := newReader(cfg, installed, false)
	if err != nil {
		return err
	}
	decisions, err := reader.Read(ctx, feed)
	if err != nil {
		return err
	}

	for _, k := range decisions.Keys() {
		d := decisions[k]
		path := d.Path(cfg.UpdatesPath())
		if !classify {
			_, _ = fmt.Fprintln(out, path)
			continue
		}
		recs, err := installed.ByNameArch(ctx, k.Name, k.Arch)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s\t%s\n", path, classifyUpdate(recs, d))
	}

	m, err := repomd.Parse(cfg.ManifestPath())
	if err != nil {
		return err
	}
	for _, loc := range m.Locations() {
		_, _ = fmt.Fprintln(out, filepath.Join(cfg.UpdatesPath(), filepath.FromSlash(loc)))
	}
	return nil
}

// classifyUpdate compares the update against the newest installed row.
func classifyUpdate(installed []metadata.Record, d updateinfo.Decision) string {
	if len(installed) == 0 {
		return "new"
	}
	cur := installed[0]
	for _, r := range installed[1:] {
		if compareVR(r.Version, r.Release, cur.Version, cur.Release) > 0 {
			cur = r
		}
	}
	switch c := compareVR(d.Version, d.Release, cur.Version, cur.Release); {
	case c > 0:
		return "upgrade"
	case c == 0:
		return "rebuild"
	default:
		return "downgrade"
	}
}

func compareVR(v1, r1, v2, r2 string) int {
	if c := rpmutils.Vercmp(v1, v2); c != 0 {
		return c
	}
	return rpmutils.Vercmp(r1, r2)
}
