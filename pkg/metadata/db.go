// Package metadata queries the sqlite package databases rpmirror works with:
// the createrepo primary_db snapshots of the release and updates trees, and
// the host snapshot of installed packages.
package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/glorpus-work/rpmirror/pkg/errors"
)

const driverName = "sqlite"

const recordColumns = `p.name, p.epoch, p.version, p.release, p.arch, p.location_href, p.pkgId, p.checksum_type, p.time_build`

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DB is a Store over one sqlite file. The installed variant also accepts
// writes, which are collected in a single transaction until Commit.
type DB struct {
	db   *sql.DB
	kind Kind
	tag  string
	path string

	mu sync.Mutex
	tx *sql.Tx
}

var _ Store = (*DB)(nil)

// OpenPrimary opens a primary_db snapshot. tag names the repository the
// snapshot belongs to.
func OpenPrimary(path, tag string) (*DB, error) {
	return open(path, tag, KindPrimary, false)
}

// OpenInstalled opens an existing host snapshot.
func OpenInstalled(path string) (*DB, error) {
	return open(path, "installed", KindInstalled, false)
}

// CreateInstalled opens the host snapshot at path, creating the file if it
// does not exist yet. The table itself is created by Replace.
func CreateInstalled(path string) (*DB, error) {
	return open(path, "installed", KindInstalled, true)
}

func open(path, tag string, kind Kind, create bool) (*DB, error) {
	if !create {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s: %w", path, errors.ErrStoreMissing)
		}
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, errors.ErrStoreOpen, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w: %w", path, errors.ErrStoreOpen, err)
	}
	return &DB{db: db, kind: kind, tag: tag, path: path}, nil
}

// Kind reports the table layout of the database.
func (d *DB) Kind() Kind { return d.kind }

// Tag is the repository tag given at open time.
func (d *DB) Tag() string { return d.tag }

// Path is the sqlite file backing the store.
func (d *DB) Path() string { return d.path }

func (d *DB) q() querier {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx != nil {
		return d.tx
	}
	return d.db
}

func (d *DB) hasLocations() bool { return d.kind == KindPrimary }

func queryErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, errors.ErrStoreQuery, err)
}

// HrefsByNameArch implements Store.
func (d *DB) HrefsByNameArch(ctx context.Context, name string, arches ArchSet) ([]string, error) {
	if !d.hasLocations() || len(arches) == 0 {
		return nil, nil
	}
	in, args := arches.inClause()
	rows, err := d.q().QueryContext(ctx,
		`SELECT location_href FROM packages WHERE name = ? AND arch IN `+in+` ORDER BY pkgKey`,
		append([]any{name}, args...)...)
	if err != nil {
		return nil, queryErr("hrefs by name", err)
	}
	return scanStrings(rows)
}

// BuildTime implements Store. When several rows share (name, arch), as with
// parallel-installed kernels, the newest build time wins.
func (d *DB) BuildTime(ctx context.Context, name, arch string) (int64, bool, error) {
	var ts sql.NullInt64
	err := d.q().QueryRowContext(ctx,
		`SELECT MAX(time_build) FROM packages WHERE name = ? AND arch = ?`, name, arch).Scan(&ts)
	if err != nil {
		return 0, false, queryErr("build time", err)
	}
	return ts.Int64, ts.Valid, nil
}

// CountExact implements Store.
func (d *DB) CountExact(ctx context.Context, name, version, release, arch string) (int, error) {
	var n int
	err := d.q().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM packages WHERE name = ? AND version = ? AND release = ? AND arch = ?`,
		name, version, release, arch).Scan(&n)
	if err != nil {
		return 0, queryErr("count", err)
	}
	return n, nil
}

// Checksum implements Store.
func (d *DB) Checksum(ctx context.Context, href string) (Checksum, bool, error) {
	if !d.hasLocations() {
		return Checksum{}, false, nil
	}
	var c Checksum
	err := d.q().QueryRowContext(ctx,
		`SELECT pkgId, checksum_type FROM packages WHERE location_href = ? LIMIT 1`, href).
		Scan(&c.Value, &c.Algorithm)
	if err == sql.ErrNoRows {
		return Checksum{}, false, nil
	}
	if err != nil {
		return Checksum{}, false, queryErr("checksum", err)
	}
	return c, true, nil
}

// Requires implements Store.
func (d *DB) Requires(ctx context.Context, href string) ([]string, error) {
	if !d.hasLocations() {
		return nil, nil
	}
	rows, err := d.q().QueryContext(ctx,
		`SELECT r.name FROM requires r JOIN packages p ON r.pkgKey = p.pkgKey
		WHERE p.location_href = ? ORDER BY r.rowid`, href)
	if err != nil {
		return nil, queryErr("requires", err)
	}
	return scanStrings(rows)
}

// Providers implements Store. Results are ordered by package key, so the
// first element is the first matching row of the snapshot.
func (d *DB) Providers(ctx context.Context, capability string, arches ArchSet) ([]Record, error) {
	if !d.hasLocations() || len(arches) == 0 {
		return nil, nil
	}
	in, args := arches.inClause()
	rows, err := d.q().QueryContext(ctx,
		`SELECT DISTINCT `+recordColumns+`, p.pkgKey FROM packages p JOIN provides v ON v.pkgKey = p.pkgKey
		WHERE v.name = ? AND p.arch IN `+in+` ORDER BY p.pkgKey`,
		append([]any{capability}, args...)...)
	if err != nil {
		return nil, queryErr("providers", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var key int64
		rec, err := scanRecord(rows, &key)
		if err != nil {
			return nil, queryErr("providers", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("providers", err)
	}
	return out, nil
}

// Record implements Store.
func (d *DB) Record(ctx context.Context, href string) (Record, bool, error) {
	if !d.hasLocations() {
		return Record{}, false, nil
	}
	row := d.q().QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM packages p WHERE p.location_href = ? LIMIT 1`, href)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, queryErr("record", err)
	}
	return rec, true, nil
}

// ByNameArch lists the identity of every row matching (name, arch). Only
// name, version, release, arch and build time are filled in, so it works
// against both table layouts.
func (d *DB) ByNameArch(ctx context.Context, name, arch string) ([]Record, error) {
	rows, err := d.q().QueryContext(ctx,
		`SELECT name, version, release, arch, time_build FROM packages WHERE name = ? AND arch = ?`, name, arch)
	if err != nil {
		return nil, queryErr("by name", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var r Record
		var ts sql.NullInt64
		if err := rows.Scan(&r.Name, &r.Version, &r.Release, &r.Arch, &ts); err != nil {
			return nil, queryErr("by name", err)
		}
		r.BuildTime = ts.Int64
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("by name", err)
	}
	return out, nil
}

// Count returns the number of package rows.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.q().QueryRowContext(ctx, `SELECT COUNT(*) FROM packages`).Scan(&n); err != nil {
		return 0, queryErr("count", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner, extra ...any) (Record, error) {
	var (
		r                          Record
		epoch, pkgID, checksumType sql.NullString
		buildTime                  sql.NullInt64
	)
	dest := []any{&r.Name, &epoch, &r.Version, &r.Release, &r.Arch, &r.Href, &pkgID, &checksumType, &buildTime}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return Record{}, err
	}
	r.Epoch = epoch.String
	r.Checksum = Checksum{Value: pkgID.String, Algorithm: checksumType.String}
	r.BuildTime = buildTime.Int64
	return r, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, queryErr("scan", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("scan", err)
	}
	return out, nil
}

// Close rolls back uncommitted writes and closes the database.
func (d *DB) Close() error {
	d.mu.Lock()
	tx := d.tx
	d.tx = nil
	d.mu.Unlock()
	if tx != nil {
		_ = tx.Rollback()
	}
	return d.db.Close()
}
