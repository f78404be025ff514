// Package resolver works out which packages have to be fetched so that a
// candidate update can be installed on the host.
//
// Requirements are looked up in the updates snapshot first and the release
// snapshot second. The first provider found wins; there is no version
// comparison between alternatives.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/glorpus-work/rpmirror/internal/logger"
	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/pkg/inventory"
	"github.com/glorpus-work/rpmirror/pkg/metadata"
)

// Scanner lists the package files already downloaded.
type Scanner interface {
	Scan() (inventory.Set, error)
}

// Resolver resolves targets against the three package databases.
type Resolver struct {
	Updates   metadata.Store
	Release   metadata.Store
	Installed metadata.Store

	UpdatesSource Source
	ReleaseSource Source

	Inventory Scanner
	Arches    metadata.ArchSet
}

type candidate struct {
	src Source
	rec metadata.Record
}

// Resolve adds every unavailable package needed by href, href included, to
// acc. An unknown href yields an error wrapping errors.ErrUnknownPackage and
// leaves acc untouched.
func (r *Resolver) Resolve(ctx context.Context, href string, acc *Accumulator) error {
	return r.resolve(ctx, href, r.Arches, acc)
}

func (r *Resolver) resolve(ctx context.Context, href string, arches metadata.ArchSet, acc *Accumulator) error {
	target, ok, err := r.lookup(ctx, href)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", href, errors.ErrUnknownPackage)
	}

	inv, err := r.Inventory.Scan()
	if err != nil {
		return fmt.Errorf("failed to scan downloaded packages: %w", err)
	}

	worklist := []candidate{target}
	queued := map[string]bool{target.rec.Href: true}

	reqs, err := r.requires(ctx, href)
	if err != nil {
		return err
	}
	for _, capability := range reqs {
		providers, src, err := r.providers(ctx, capability, arches)
		if err != nil {
			return err
		}
		if len(providers) == 0 {
			logger.Debug("requirement has no provider", logger.Fields{"target": href, "requires": capability})
			continue
		}

		satisfied := false
		for _, p := range providers {
			avail, err := r.Available(ctx, inv, p)
			if err != nil {
				return err
			}
			if avail {
				satisfied = true
				break
			}
		}
		if satisfied {
			continue
		}

		first := providers[0]
		if queued[first.Href] {
			continue
		}
		queued[first.Href] = true
		worklist = append(worklist, candidate{src: src, rec: first})
	}

	for _, c := range worklist {
		avail, err := r.Available(ctx, inv, c.rec)
		if err != nil {
			return err
		}
		if !avail {
			acc.Upsert(c.src, c.rec.Href, target.rec.Name)
		}
	}
	return nil
}

func (r *Resolver) lookup(ctx context.Context, href string) (candidate, bool, error) {
	rec, ok, err := r.Updates.Record(ctx, href)
	if err != nil || ok {
		return candidate{src: r.UpdatesSource, rec: rec}, ok, err
	}
	rec, ok, err = r.Release.Record(ctx, href)
	return candidate{src: r.ReleaseSource, rec: rec}, ok, err
}

// requires takes the first non-empty requirement list; the two snapshots
// are not merged.
func (r *Resolver) requires(ctx context.Context, href string) ([]string, error) {
	reqs, err := r.Updates.Requires(ctx, href)
	if err != nil || len(reqs) > 0 {
		return reqs, err
	}
	return r.Release.Requires(ctx, href)
}

func (r *Resolver) providers(ctx context.Context, capability string, arches metadata.ArchSet) ([]metadata.Record, Source, error) {
	recs, err := r.Updates.Providers(ctx, capability, arches)
	if err != nil || len(recs) > 0 {
		return recs, r.UpdatesSource, err
	}
	recs, err = r.Release.Providers(ctx, capability, arches)
	return recs, r.ReleaseSource, err
}

// Available reports whether rec is already downloaded or installed.
func (r *Resolver) Available(ctx context.Context, inv inventory.Set, rec metadata.Record) (bool, error) {
	if inv.Contains(rec.Href) {
		return true, nil
	}
	n, err := r.Installed.CountExact(ctx, rec.Name, rec.Version, rec.Release, rec.Arch)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// knownArches are the suffixes recognised by SplitNameArch.
var knownArches = metadata.NewArchSet(
	"noarch", "x86_64", "i386", "i486", "i586", "i686", "aarch64", "armv7hl", "ppc64", "ppc64le", "s390x", "src",
)

// SplitNameArch splits "name.arch" when the suffix is a known architecture.
func SplitNameArch(spec string) (name, arch string) {
	if i := strings.LastIndexByte(spec, '.'); i > 0 && knownArches.Contains(spec[i+1:]) {
		return spec[:i], spec[i+1:]
	}
	return spec, ""
}

// ResolveName resolves a package given as "name" or "name.arch". Without an
// arch suffix, defaults is used as the arch set. Every matching href from
// the updates snapshot, or failing that the release snapshot, is resolved
// into acc.
func (r *Resolver) ResolveName(ctx context.Context, spec string, defaults metadata.ArchSet, acc *Accumulator) error {
	name, arch := SplitNameArch(spec)
	arches := defaults
	if arch != "" {
		arches = metadata.NewArchSet(arch)
	}

	hrefs, err := r.Updates.HrefsByNameArch(ctx, name, arches)
	if err != nil {
		return err
	}
	if len(hrefs) == 0 {
		if hrefs, err = r.Release.HrefsByNameArch(ctx, name, arches); err != nil {
			return err
		}
	}
	if len(hrefs) == 0 {
		return fmt.Errorf("%s: %w", spec, errors.ErrUnknownPackage)
	}

	for _, href := range hrefs {
		if err := r.resolve(ctx, href, arches, acc); err != nil {
			return err
		}
	}
	return nil
}
