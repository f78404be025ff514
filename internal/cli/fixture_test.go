package cli

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/rpmirror/internal/logger"
	"github.com/glorpus-work/rpmirror/pkg/checksum"
	"github.com/glorpus-work/rpmirror/test/testutil"
)

const (
	fooHref    = "f/foo-2.0-1.x86_64.rpm"
	barHref    = "b/bar-2.0-1.x86_64.rpm"
	libfooHref = "Packages/l/libfoo-2.0-1.x86_64.rpm"

	primaryHref = "repodata/aaa-primary.sqlite.xz"
	feedHref    = "repodata/bbb-updateinfo.xml.xz"
)

var fooPayload = []byte("foo package payload")

func sha(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

var (
	installedPkgs = []testutil.Pkg{
		{Name: "foo", Version: "1.0", Release: "1", Arch: "x86_64", BuildTime: 100},
		{Name: "bar", Version: "1.0", Release: "1", Arch: "x86_64", BuildTime: 100},
		{Name: "baz", Version: "9.0", Release: "1", Arch: "x86_64", BuildTime: 5000000000},
	}
	updatesPkgs = []testutil.Pkg{
		{Name: "foo", Version: "2.0", Release: "1", Arch: "x86_64", Href: fooHref, Checksum: sha(fooPayload),
			Provides: []string{"foo"}, Requires: []string{"libfoo.so.2", "bar"}},
		{Name: "bar", Version: "2.0", Release: "1", Arch: "x86_64", Href: barHref, Checksum: "deadbeef",
			Provides: []string{"bar"}},
	}
	releasePkgs = []testutil.Pkg{
		{Name: "libfoo", Version: "2.0", Release: "1", Arch: "x86_64", Href: libfooHref, Checksum: "cafe",
			Provides: []string{"libfoo.so.2"}},
	}
	advisories = []testutil.Advisory{
		{ID: "FEDORA-2015-0001", Issued: "2015-11-05 10:00:00", Packages: []testutil.Pkg{
			{Name: "foo", Version: "2.0", Release: "1", Arch: "x86_64", Href: "foo-2.0-1.x86_64.rpm"},
			{Name: "bar", Version: "2.0", Release: "1", Arch: "x86_64", Href: "bar-2.0-1.x86_64.rpm"},
			{Name: "baz", Version: "2.0", Release: "1", Arch: "x86_64", Href: "baz-2.0-1.x86_64.rpm"},
			{Name: "qux", Version: "1.0", Release: "1", Arch: "noarch", Href: "qux-1.0-1.noarch.rpm"},
		}},
	}
)

// env is a mirror root with a config file pointing at it.
type env struct {
	root    string
	cfgPath string
	updates string
	release string
}

// newEnv creates an empty mirror root and points the global config flag at
// a config file below it.
func newEnv(t *testing.T, extraYAML string) *env {
	t.Helper()
	e := &env{root: t.TempDir()}
	e.cfgPath = filepath.Join(e.root, "config.yaml")
	e.updates = filepath.Join(e.root, "updates", "23", "x86_64")
	e.release = filepath.Join(e.root, "releases", "23", "Everything", "x86_64", "os")
	require.NoError(t, os.WriteFile(e.cfgPath, []byte("mirror_root: "+e.root+"\n"+extraYAML), 0o644))

	ConfigPath = &e.cfgPath
	logger.SetTestOutput(io.Discard)
	t.Cleanup(func() {
		ConfigPath = nil
		logger.UnsetTestOutput()
	})
	return e
}

// writeUpdatesRepo writes the updates repodata (compressed primary database,
// feed and manifest) below root.
func writeUpdatesRepo(t *testing.T, root string) {
	t.Helper()
	tmp := testutil.NewPrimaryDB(t, filepath.Join(t.TempDir(), "primary.sqlite"), updatesPkgs)
	raw, err := os.ReadFile(tmp)
	require.NoError(t, err)

	testutil.WriteXZ(t, filepath.Join(root, filepath.FromSlash(primaryHref)), raw)
	testutil.WriteXZ(t, filepath.Join(root, filepath.FromSlash(feedHref)), testutil.UpdateinfoXML(advisories))

	testutil.WriteRepomd(t, root, []testutil.RepomdEntry{
		{Type: "primary_db", Href: primaryHref, Checksum: digest(t, filepath.Join(root, filepath.FromSlash(primaryHref)))},
		{Type: "updateinfo", Href: feedHref, Checksum: digest(t, filepath.Join(root, filepath.FromSlash(feedHref)))},
	})
}

func digest(t *testing.T, path string) string {
	t.Helper()
	sum, err := checksum.Digest("sha256", path)
	require.NoError(t, err)
	return sum
}

// populated returns an env with the installed and release databases and the
// updates repodata in place, as left by lget and fetch.
func populated(t *testing.T) *env {
	t.Helper()
	e := newEnv(t, "")
	testutil.NewInstalledDB(t, filepath.Join(e.root, "installed.db"), installedPkgs)
	testutil.NewPrimaryDB(t, filepath.Join(e.root, "everything-23-x86_64.db"), releasePkgs)
	writeUpdatesRepo(t, e.updates)
	return e
}

// withPrimary adds the unpacked updates primary database, as left by check.
func (e *env) withPrimary(t *testing.T) *env {
	t.Helper()
	testutil.NewPrimaryDB(t, filepath.Join(e.updates, "repodata", "primary.db"), updatesPkgs)
	return e
}

func (e *env) updatesPath(href string) string {
	return filepath.Join(e.updates, filepath.FromSlash(href))
}

func (e *env) releasePath(href string) string {
	return filepath.Join(e.release, filepath.FromSlash(href))
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
