package resolver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/pkg/inventory"
	"github.com/glorpus-work/rpmirror/pkg/metadata"
	mdmocks "github.com/glorpus-work/rpmirror/pkg/metadata/mocks"
	"github.com/glorpus-work/rpmirror/test/testutil"
)

type staticInventory []string

func (s staticInventory) Scan() (inventory.Set, error) { return inventory.NewSet(s), nil }

type fixture struct {
	updates, release, installed []testutil.Pkg
	downloaded                  []string
}

func (f fixture) resolver(t *testing.T) *Resolver {
	t.Helper()
	dir := t.TempDir()
	open := func(path, tag string) *metadata.DB {
		db, err := metadata.OpenPrimary(path, tag)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		return db
	}
	updates := open(testutil.NewPrimaryDB(t, filepath.Join(dir, "updates.db"), f.updates), "updates")
	release := open(testutil.NewPrimaryDB(t, filepath.Join(dir, "release.db"), f.release), "release")
	installed, err := metadata.OpenInstalled(testutil.NewInstalledDB(t, filepath.Join(dir, "installed.db"), f.installed))
	require.NoError(t, err)
	t.Cleanup(func() { _ = installed.Close() })

	return &Resolver{
		Updates:       updates,
		Release:       release,
		Installed:     installed,
		UpdatesSource: updatesSrc,
		ReleaseSource: releaseSrc,
		Inventory:     staticInventory(f.downloaded),
		Arches:        metadata.NewArchSet("x86_64", "noarch"),
	}
}

var (
	bar = testutil.Pkg{Name: "bar", Version: "2.0", Release: "1.fc23", Arch: "x86_64",
		Href: "b/bar-2.0-1.fc23.x86_64.rpm", Requires: []string{"libX.so.1()(64bit)"}}
	baz = testutil.Pkg{Name: "baz", Version: "1.1", Release: "1.fc23", Arch: "noarch",
		Href: "b/baz-1.1-1.fc23.noarch.rpm", Requires: []string{"libX.so.1()(64bit)", "python3"}}
	libX = testutil.Pkg{Name: "libX-pkg", Version: "1.0", Release: "3.fc23", Arch: "x86_64",
		Href: "Packages/l/libX-pkg-1.0-3.fc23.x86_64.rpm", Provides: []string{"libX.so.1()(64bit)"}}
	python3 = testutil.Pkg{Name: "python3", Version: "3.4.3", Release: "5.fc23", Arch: "x86_64",
		Href: "Packages/p/python3-3.4.3-5.fc23.x86_64.rpm", Provides: []string{"python3"}}
)

func TestResolve_RequirementFromRelease(t *testing.T) {
	r := fixture{
		updates:    []testutil.Pkg{bar},
		release:    []testutil.Pkg{libX},
		downloaded: []string{bar.Href},
	}.resolver(t)
	acc := NewAccumulator()

	require.NoError(t, r.Resolve(context.Background(), bar.Href, acc))

	assert.Equal(t, []Record{
		{Source: releaseSrc, Href: libX.Href, Requesters: []string{"bar"}},
	}, acc.Records())
}

func TestResolve_TargetItselfIsAnEntry(t *testing.T) {
	r := fixture{updates: []testutil.Pkg{bar}, release: []testutil.Pkg{libX}}.resolver(t)
	acc := NewAccumulator()

	require.NoError(t, r.Resolve(context.Background(), bar.Href, acc))

	assert.Equal(t, []Record{
		{Source: updatesSrc, Href: bar.Href, Requesters: []string{"bar"}},
		{Source: releaseSrc, Href: libX.Href, Requesters: []string{"bar"}},
	}, acc.Records())
}

func TestResolve_SharedRequirementIsDeduplicated(t *testing.T) {
	r := fixture{
		updates:    []testutil.Pkg{bar, baz},
		release:    []testutil.Pkg{libX, python3},
		downloaded: []string{bar.Href, baz.Href},
	}.resolver(t)
	acc := NewAccumulator()
	ctx := context.Background()

	require.NoError(t, r.Resolve(ctx, bar.Href, acc))
	require.NoError(t, r.Resolve(ctx, baz.Href, acc))

	assert.Equal(t, []Record{
		{Source: releaseSrc, Href: libX.Href, Requesters: []string{"bar", "baz"}},
		{Source: releaseSrc, Href: python3.Href, Requesters: []string{"baz"}},
	}, acc.Records())
}

func TestResolve_DownloadedProviderSatisfies(t *testing.T) {
	r := fixture{
		updates:    []testutil.Pkg{bar},
		release:    []testutil.Pkg{libX},
		downloaded: []string{bar.Href, libX.Href},
	}.resolver(t)
	acc := NewAccumulator()

	require.NoError(t, r.Resolve(context.Background(), bar.Href, acc))
	assert.Zero(t, acc.Len())
}

func TestResolve_InstalledProviderSatisfies(t *testing.T) {
	r := fixture{
		updates:    []testutil.Pkg{bar},
		release:    []testutil.Pkg{libX},
		installed:  []testutil.Pkg{libX},
		downloaded: []string{bar.Href},
	}.resolver(t)
	acc := NewAccumulator()

	require.NoError(t, r.Resolve(context.Background(), bar.Href, acc))
	assert.Zero(t, acc.Len())
}

func TestResolve_AnyAvailableProviderSatisfies(t *testing.T) {
	compat := libX
	compat.Name, compat.Href = "libX-compat", "Packages/l/libX-compat-1.0-3.fc23.x86_64.rpm"
	r := fixture{
		updates:    []testutil.Pkg{bar},
		release:    []testutil.Pkg{libX, compat},
		downloaded: []string{bar.Href, compat.Href},
	}.resolver(t)
	acc := NewAccumulator()

	require.NoError(t, r.Resolve(context.Background(), bar.Href, acc))
	assert.Zero(t, acc.Len())
}

func TestResolve_FirstProviderWins(t *testing.T) {
	compat := libX
	compat.Name, compat.Href = "libX-compat", "Packages/l/libX-compat-9.0-1.fc23.x86_64.rpm"
	r := fixture{
		updates:    []testutil.Pkg{bar},
		release:    []testutil.Pkg{libX, compat},
		downloaded: []string{bar.Href},
	}.resolver(t)
	acc := NewAccumulator()

	require.NoError(t, r.Resolve(context.Background(), bar.Href, acc))
	assert.Equal(t, []string{libX.Href}, hrefs(acc))
}

func TestResolve_UpdatesProvidersShadowRelease(t *testing.T) {
	newer := libX
	newer.Href = "l/libX-pkg-1.1-1.fc23.x86_64.rpm"
	newer.Version, newer.Release = "1.1", "1.fc23"
	r := fixture{
		updates:    []testutil.Pkg{bar, newer},
		release:    []testutil.Pkg{libX},
		installed:  []testutil.Pkg{libX},
		downloaded: []string{bar.Href},
	}.resolver(t)
	acc := NewAccumulator()

	require.NoError(t, r.Resolve(context.Background(), bar.Href, acc))
	assert.Equal(t, []Record{
		{Source: updatesSrc, Href: newer.Href, Requesters: []string{"bar"}},
	}, acc.Records(), "release provider is never consulted once updates has one")
}

func TestResolve_UnsatisfiableRequirementIsDropped(t *testing.T) {
	r := fixture{updates: []testutil.Pkg{bar}, downloaded: []string{bar.Href}}.resolver(t)
	acc := NewAccumulator()

	require.NoError(t, r.Resolve(context.Background(), bar.Href, acc))
	assert.Zero(t, acc.Len())
}

func TestResolve_SameProviderForTwoCapabilitiesQueuedOnce(t *testing.T) {
	multi := bar
	multi.Requires = []string{"libX.so.1()(64bit)", "libX-pkg"}
	lib := libX
	lib.Provides = []string{"libX.so.1()(64bit)", "libX-pkg"}
	r := fixture{
		updates:    []testutil.Pkg{multi},
		release:    []testutil.Pkg{lib},
		downloaded: []string{multi.Href},
	}.resolver(t)
	acc := NewAccumulator()

	require.NoError(t, r.Resolve(context.Background(), multi.Href, acc))
	assert.Equal(t, []Record{
		{Source: releaseSrc, Href: lib.Href, Requesters: []string{"bar"}},
	}, acc.Records())
}

func TestResolve_ReleaseTargetUsesReleaseRequires(t *testing.T) {
	app := testutil.Pkg{Name: "app", Version: "1", Release: "1", Arch: "x86_64",
		Href: "Packages/a/app-1-1.x86_64.rpm", Requires: []string{"python3"}}
	r := fixture{release: []testutil.Pkg{app, python3}}.resolver(t)
	acc := NewAccumulator()

	require.NoError(t, r.Resolve(context.Background(), app.Href, acc))
	assert.Equal(t, []Record{
		{Source: releaseSrc, Href: app.Href, Requesters: []string{"app"}},
		{Source: releaseSrc, Href: python3.Href, Requesters: []string{"app"}},
	}, acc.Records())
}

func TestResolve_UnknownTarget(t *testing.T) {
	r := fixture{updates: []testutil.Pkg{bar}}.resolver(t)
	acc := NewAccumulator()

	err := r.Resolve(context.Background(), "n/nope-1-1.x86_64.rpm", acc)
	assert.ErrorIs(t, err, errors.ErrUnknownPackage)
	assert.Zero(t, acc.Len())
}

func TestResolve_SearchesUpdatesBeforeRelease(t *testing.T) {
	ctrl := gomock.NewController(t)
	updates := mdmocks.NewMockStore(ctrl)
	release := mdmocks.NewMockStore(ctrl)
	installed := mdmocks.NewMockStore(ctrl)
	ctx := context.Background()
	target := metadata.Record{Name: "bar", Version: "2.0", Release: "1", Arch: "x86_64", Href: bar.Href}

	gomock.InOrder(
		updates.EXPECT().Record(gomock.Any(), bar.Href).Return(metadata.Record{}, false, nil),
		release.EXPECT().Record(gomock.Any(), bar.Href).Return(target, true, nil),
		updates.EXPECT().Requires(gomock.Any(), bar.Href).Return(nil, nil),
		release.EXPECT().Requires(gomock.Any(), bar.Href).Return(nil, nil),
	)
	installed.EXPECT().CountExact(gomock.Any(), "bar", "2.0", "1", "x86_64").Return(0, nil)

	r := &Resolver{
		Updates: updates, Release: release, Installed: installed,
		UpdatesSource: updatesSrc, ReleaseSource: releaseSrc,
		Inventory: staticInventory(nil),
		Arches:    metadata.NewArchSet("x86_64"),
	}
	acc := NewAccumulator()
	require.NoError(t, r.Resolve(ctx, bar.Href, acc))
	assert.Equal(t, []Record{{Source: releaseSrc, Href: bar.Href, Requesters: []string{"bar"}}}, acc.Records())
}

func TestResolve_AvailabilityRecomputedPerCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	updates := mdmocks.NewMockStore(ctrl)
	release := mdmocks.NewMockStore(ctrl)
	installed := mdmocks.NewMockStore(ctrl)
	target := metadata.Record{Name: "bar", Version: "2.0", Release: "1", Arch: "x86_64", Href: bar.Href}

	updates.EXPECT().Record(gomock.Any(), bar.Href).Return(target, true, nil).Times(2)
	updates.EXPECT().Requires(gomock.Any(), bar.Href).Return(nil, nil).Times(2)
	release.EXPECT().Requires(gomock.Any(), bar.Href).Return(nil, nil).Times(2)
	gomock.InOrder(
		installed.EXPECT().CountExact(gomock.Any(), "bar", "2.0", "1", "x86_64").Return(0, nil),
		installed.EXPECT().CountExact(gomock.Any(), "bar", "2.0", "1", "x86_64").Return(1, nil),
	)

	r := &Resolver{
		Updates: updates, Release: release, Installed: installed,
		UpdatesSource: updatesSrc, ReleaseSource: releaseSrc,
		Inventory: staticInventory(nil),
		Arches:    metadata.NewArchSet("x86_64"),
	}
	ctx := context.Background()

	first := NewAccumulator()
	require.NoError(t, r.Resolve(ctx, bar.Href, first))
	assert.Equal(t, 1, first.Len())

	second := NewAccumulator()
	require.NoError(t, r.Resolve(ctx, bar.Href, second))
	assert.Zero(t, second.Len(), "installed state is queried again, not cached")
}

func TestResolveName(t *testing.T) {
	bar686 := bar
	bar686.Arch, bar686.Href = "i686", "b/bar-2.0-1.fc23.i686.rpm"
	r := fixture{
		updates:    []testutil.Pkg{bar, bar686},
		release:    []testutil.Pkg{libX, python3},
		downloaded: []string{bar.Href, bar686.Href},
	}.resolver(t)
	ctx := context.Background()
	defaults := metadata.NewArchSet("i686", "x86_64", "noarch")

	acc := NewAccumulator()
	require.NoError(t, r.ResolveName(ctx, "bar.x86_64", defaults, acc))
	assert.Equal(t, []string{libX.Href}, hrefs(acc))

	acc = NewAccumulator()
	require.NoError(t, r.ResolveName(ctx, "python3", defaults, acc))
	assert.Equal(t, []string{python3.Href}, hrefs(acc), "falls back to the release snapshot")

	err := r.ResolveName(ctx, "bar.aarch64", defaults, NewAccumulator())
	assert.ErrorIs(t, err, errors.ErrUnknownPackage)
}

func TestSplitNameArch(t *testing.T) {
	tests := []struct {
		in, name, arch string
	}{
		{"bar", "bar", ""},
		{"bar.x86_64", "bar", "x86_64"},
		{"python3.5", "python3.5", ""},
		{"glibc.i686", "glibc", "i686"},
		{"perl-Foo.noarch", "perl-Foo", "noarch"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, arch := SplitNameArch(tt.in)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.arch, arch)
		})
	}
}

func hrefs(acc *Accumulator) []string {
	var out []string
	for _, r := range acc.Records() {
		out = append(out, r.Href)
	}
	return out
}
