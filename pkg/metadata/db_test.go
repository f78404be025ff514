package metadata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/test/testutil"
)

var primaryFixture = []testutil.Pkg{
	{
		Name: "bar", Version: "1.2", Release: "3.fc23", Arch: "x86_64",
		Href: "b/bar-1.2-3.fc23.x86_64.rpm", Checksum: "aaaa", ChecksumType: "sha256", BuildTime: 300,
		Provides: []string{"bar", "bar(x86-64)"}, Requires: []string{"libX.so.1()(64bit)", "/bin/sh"},
	},
	{
		Name: "bar", Version: "1.2", Release: "3.fc23", Arch: "i686",
		Href: "b/bar-1.2-3.fc23.i686.rpm", Checksum: "bbbb", ChecksumType: "sha", BuildTime: 301,
		Provides: []string{"bar"},
	},
	{
		Name: "libX", Version: "2.0", Release: "1.fc23", Arch: "x86_64",
		Href: "l/libX-2.0-1.fc23.x86_64.rpm", Checksum: "cccc", BuildTime: 200,
		Provides: []string{"libX.so.1()(64bit)", "libX"},
	},
	{
		Name: "libX-compat", Version: "1.0", Release: "1.fc23", Arch: "x86_64",
		Href: "l/libX-compat-1.0-1.fc23.x86_64.rpm", Checksum: "dddd", BuildTime: 100,
		Provides: []string{"libX.so.1()(64bit)"},
	},
	{
		Name: "bash", Version: "4.3", Release: "1.fc23", Arch: "x86_64",
		Href: "b/bash-4.3-1.fc23.x86_64.rpm", Checksum: "eeee", BuildTime: 50,
		Provides: []string{"/bin/sh", "bash"},
	},
}

func openPrimaryFixture(t *testing.T) *DB {
	t.Helper()
	path := testutil.NewPrimaryDB(t, filepath.Join(t.TempDir(), "primary.db"), primaryFixture)
	db, err := OpenPrimary(path, "updates")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_Missing(t *testing.T) {
	_, err := OpenPrimary(filepath.Join(t.TempDir(), "nope.db"), "release")
	assert.ErrorIs(t, err, errors.ErrStoreMissing)

	_, err = OpenInstalled(filepath.Join(t.TempDir(), "installed.db"))
	assert.ErrorIs(t, err, errors.ErrStoreMissing)
}

func TestDB_HrefsByNameArch(t *testing.T) {
	db := openPrimaryFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		pkg    string
		arches ArchSet
		want   []string
	}{
		{"single arch", "bar", NewArchSet("x86_64"), []string{"b/bar-1.2-3.fc23.x86_64.rpm"}},
		{"multi arch", "bar", NewArchSet("i686", "x86_64", "noarch"),
			[]string{"b/bar-1.2-3.fc23.x86_64.rpm", "b/bar-1.2-3.fc23.i686.rpm"}},
		{"arch filtered out", "bar", NewArchSet("noarch"), nil},
		{"unknown name", "zsh", NewArchSet("x86_64"), nil},
		{"empty arch set", "bar", NewArchSet(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.HrefsByNameArch(ctx, tt.pkg, tt.arches)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDB_ArchSetIsParameterized(t *testing.T) {
	db := openPrimaryFixture(t)

	got, err := db.HrefsByNameArch(context.Background(), "bar", NewArchSet("x86_64') OR ('1'='1"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDB_BuildTimeAndCount(t *testing.T) {
	db := openPrimaryFixture(t)
	ctx := context.Background()

	ts, ok, err := db.BuildTime(ctx, "bar", "i686")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(301), ts)

	_, ok, err = db.BuildTime(ctx, "bar", "aarch64")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := db.CountExact(ctx, "libX", "2.0", "1.fc23", "x86_64")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = db.CountExact(ctx, "libX", "2.0", "2.fc23", "x86_64")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDB_ChecksumAndRecord(t *testing.T) {
	db := openPrimaryFixture(t)
	ctx := context.Background()

	c, ok, err := db.Checksum(ctx, "b/bar-1.2-3.fc23.i686.rpm")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Checksum{Value: "bbbb", Algorithm: "sha"}, c)

	_, ok, err = db.Checksum(ctx, "x/missing.rpm")
	require.NoError(t, err)
	assert.False(t, ok)

	rec, ok, err := db.Record(ctx, "l/libX-2.0-1.fc23.x86_64.rpm")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "libX", rec.Name)
	assert.Equal(t, "2.0-1.fc23", rec.EVR())
	assert.Equal(t, int64(200), rec.BuildTime)
	assert.Equal(t, "libX-2.0-1.fc23.x86_64", rec.NEVRA())

	_, ok, err = db.Record(ctx, "x/missing.rpm")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDB_Requires(t *testing.T) {
	db := openPrimaryFixture(t)
	ctx := context.Background()

	got, err := db.Requires(ctx, "b/bar-1.2-3.fc23.x86_64.rpm")
	require.NoError(t, err)
	assert.Equal(t, []string{"libX.so.1()(64bit)", "/bin/sh"}, got)

	got, err = db.Requires(ctx, "l/libX-2.0-1.fc23.x86_64.rpm")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = db.Requires(ctx, "x/unknown.rpm")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDB_Providers(t *testing.T) {
	db := openPrimaryFixture(t)
	ctx := context.Background()

	got, err := db.Providers(ctx, "libX.so.1()(64bit)", NewArchSet("x86_64", "noarch"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "libX", got[0].Name, "first row of the snapshot comes first")
	assert.Equal(t, "libX-compat", got[1].Name)

	got, err = db.Providers(ctx, "bar", NewArchSet("i686"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b/bar-1.2-3.fc23.i686.rpm", got[0].Href)

	got, err = db.Providers(ctx, "nothing-provides-this", NewArchSet("x86_64"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDB_PrimaryIsReadOnly(t *testing.T) {
	db := openPrimaryFixture(t)

	err := db.UpdateVersion(context.Background(), "bar", "x86_64", "9", "9", 9)
	assert.ErrorIs(t, err, errors.ErrReadOnly)
	assert.ErrorIs(t, db.Replace(context.Background(), nil), errors.ErrReadOnly)
}

func TestArchSet(t *testing.T) {
	s := NewArchSet("x86_64", "", "noarch", "x86_64", " i686 ")
	assert.Equal(t, ArchSet{"x86_64", "noarch", "i686"}, s)
	assert.True(t, s.Contains("noarch"))
	assert.False(t, s.Contains("aarch64"))
	assert.Equal(t, "x86_64,noarch,i686", s.String())
}
