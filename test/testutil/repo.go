// Package testutil builds on-disk repository fixtures: createrepo-style
// primary databases, host snapshots, manifests and advisory feeds.
package testutil

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// Pkg describes one package row of a fixture database.
type Pkg struct {
	Name, Epoch, Version, Release, Arch string
	Href                                string
	Checksum, ChecksumType              string
	BuildTime                           int64
	Provides, Requires                  []string
}

const primarySchema = `
CREATE TABLE packages (pkgKey INTEGER PRIMARY KEY, pkgId TEXT, name TEXT, arch TEXT,
	version TEXT, epoch TEXT, release TEXT, time_build INTEGER, location_href TEXT, checksum_type TEXT);
CREATE TABLE provides (name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT, pkgKey INTEGER);
CREATE TABLE requires (name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT, pkgKey INTEGER, pre BOOLEAN DEFAULT FALSE);
CREATE INDEX packagename ON packages (name);
CREATE INDEX pkgprovides ON provides (pkgKey);
CREATE INDEX pkgrequires ON requires (pkgKey);
`

const installedSchema = `
CREATE TABLE packages (name TEXT, version TEXT, release TEXT, arch TEXT, time_build INTEGER);
CREATE INDEX pkgname ON packages (name);
CREATE INDEX pkgarch ON packages (arch);
`

func openFresh(t *testing.T, path, schema string) *sql.DB {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

// NewPrimaryDB creates a primary_db style sqlite file at path.
// Rows are inserted in slice order, so pkgKey follows the slice index.
func NewPrimaryDB(t *testing.T, path string, pkgs []Pkg) string {
	t.Helper()
	db := openFresh(t, path, primarySchema)
	defer func() { require.NoError(t, db.Close()) }()

	for _, p := range pkgs {
		ctype := p.ChecksumType
		if ctype == "" {
			ctype = "sha256"
		}
		res, err := db.Exec(`INSERT INTO packages (pkgId, name, arch, version, epoch, release, time_build, location_href, checksum_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Checksum, p.Name, p.Arch, p.Version, p.Epoch, p.Release, p.BuildTime, p.Href, ctype)
		require.NoError(t, err)
		key, err := res.LastInsertId()
		require.NoError(t, err)

		for _, prov := range p.Provides {
			_, err := db.Exec(`INSERT INTO provides (name, pkgKey) VALUES (?, ?)`, prov, key)
			require.NoError(t, err)
		}
		for _, req := range p.Requires {
			_, err := db.Exec(`INSERT INTO requires (name, pkgKey) VALUES (?, ?)`, req, key)
			require.NoError(t, err)
		}
	}
	return path
}

// NewInstalledDB creates a host snapshot database at path.
func NewInstalledDB(t *testing.T, path string, pkgs []Pkg) string {
	t.Helper()
	db := openFresh(t, path, installedSchema)
	defer func() { require.NoError(t, db.Close()) }()

	for _, p := range pkgs {
		_, err := db.Exec(`INSERT INTO packages (name, version, release, arch, time_build) VALUES (?, ?, ?, ?, ?)`,
			p.Name, p.Version, p.Release, p.Arch, p.BuildTime)
		require.NoError(t, err)
	}
	return path
}

// WriteFile writes content below root at the slash-separated rel path and
// returns its sha256.
func WriteFile(t *testing.T, root, rel string, content []byte) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// RepomdEntry is one <data> element of a fixture manifest.
type RepomdEntry struct {
	Type, Href, ChecksumType, Checksum string
}

// WriteRepomd writes root/repodata/repomd.xml and returns its path.
func WriteRepomd(t *testing.T, root string, entries []RepomdEntry) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<repomd xmlns="http://linux.duke.edu/metadata/repo" xmlns:rpm="http://linux.duke.edu/metadata/rpm">` + "\n")
	b.WriteString("  <revision>1446740800</revision>\n")
	for _, e := range entries {
		ctype := e.ChecksumType
		if ctype == "" {
			ctype = "sha256"
		}
		fmt.Fprintf(&b, "  <data type=%q>\n    <checksum type=%q>%s</checksum>\n    <location href=%q/>\n  </data>\n",
			e.Type, ctype, e.Checksum, e.Href)
	}
	b.WriteString("</repomd>\n")

	path := filepath.Join(root, "repodata", "repomd.xml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

// Advisory is one <update> element of a fixture feed.
type Advisory struct {
	ID       string
	Issued   string
	Packages []Pkg
}

// UpdateinfoXML renders advisories as an updateinfo document. A package's
// Href is used as the <filename> text.
func UpdateinfoXML(advisories []Advisory) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<updates>\n")
	for _, a := range advisories {
		fmt.Fprintf(&b, "  <update from=\"updates@fedoraproject.org\" status=\"stable\" type=\"bugfix\" version=\"2.0\">\n")
		fmt.Fprintf(&b, "    <id>%s</id>\n    <issued date=%q/>\n    <pkglist>\n      <collection short=\"F23\">\n", a.ID, a.Issued)
		for _, p := range a.Packages {
			fmt.Fprintf(&b, "        <package name=%q version=%q release=%q epoch=\"0\" arch=%q>\n", p.Name, p.Version, p.Release, p.Arch)
			fmt.Fprintf(&b, "          <filename>%s</filename>\n        </package>\n", p.Href)
		}
		b.WriteString("      </collection>\n    </pkglist>\n  </update>\n")
	}
	b.WriteString("</updates>\n")
	return []byte(b.String())
}
