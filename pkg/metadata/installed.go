package metadata

import (
	"context"
	"fmt"

	"github.com/glorpus-work/rpmirror/pkg/errors"
)

const installedSchema = `
CREATE TABLE packages (name TEXT, version TEXT, release TEXT, arch TEXT, time_build INTEGER);
CREATE INDEX pkgname ON packages (name);
CREATE INDEX pkgarch ON packages (arch);
`

func (d *DB) writer(ctx context.Context) (querier, error) {
	if d.kind != KindInstalled {
		return nil, fmt.Errorf("%s: %w", d.path, errors.ErrReadOnly)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx == nil {
		tx, err := d.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin: %w: %w", errors.ErrStoreWrite, err)
		}
		d.tx = tx
	}
	return d.tx, nil
}

// Replace drops the packages table and rebuilds it from records.
func (d *DB) Replace(ctx context.Context, records []Record) error {
	w, err := d.writer(ctx)
	if err != nil {
		return err
	}
	if _, err := w.ExecContext(ctx, `DROP TABLE IF EXISTS packages`); err != nil {
		return fmt.Errorf("drop: %w: %w", errors.ErrStoreWrite, err)
	}
	if _, err := w.ExecContext(ctx, installedSchema); err != nil {
		return fmt.Errorf("create: %w: %w", errors.ErrStoreWrite, err)
	}
	for _, r := range records {
		if _, err := w.ExecContext(ctx,
			`INSERT INTO packages (name, version, release, arch, time_build) VALUES (?, ?, ?, ?, ?)`,
			r.Name, r.Version, r.Release, r.Arch, r.BuildTime); err != nil {
			return fmt.Errorf("insert %s: %w: %w", r.NEVRA(), errors.ErrStoreWrite, err)
		}
	}
	return nil
}

// UpdateVersion rewrites version, release and build time of every row
// matching (name, arch).
func (d *DB) UpdateVersion(ctx context.Context, name, arch, version, release string, buildTime int64) error {
	w, err := d.writer(ctx)
	if err != nil {
		return err
	}
	if _, err := w.ExecContext(ctx,
		`UPDATE packages SET version = ?, release = ?, time_build = ? WHERE name = ? AND arch = ?`,
		version, release, buildTime, name, arch); err != nil {
		return fmt.Errorf("update %s.%s: %w: %w", name, arch, errors.ErrStoreWrite, err)
	}
	return nil
}

// Commit makes pending writes durable. It is a no-op without writes.
func (d *DB) Commit() error {
	d.mu.Lock()
	tx := d.tx
	d.tx = nil
	d.mu.Unlock()
	if tx == nil {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w: %w", errors.ErrStoreWrite, err)
	}
	return nil
}
