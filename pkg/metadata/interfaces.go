//go:generate mockgen -destination=./mocks/metadata.go . Store

package metadata

import "context"

// Store is the query surface shared by the installed, release and updates
// package databases. Lookups that find nothing return zero values and a nil
// error; only database failures are reported as errors.
type Store interface {
	// HrefsByNameArch returns the location of every package called name
	// whose arch is in arches.
	HrefsByNameArch(ctx context.Context, name string, arches ArchSet) ([]string, error)
	// BuildTime returns the build time of (name, arch); ok is false when the
	// package is unknown.
	BuildTime(ctx context.Context, name, arch string) (ts int64, ok bool, err error)
	// CountExact counts rows matching the full (name, version, release, arch).
	CountExact(ctx context.Context, name, version, release, arch string) (int, error)
	// Checksum returns the published digest of href.
	Checksum(ctx context.Context, href string) (Checksum, bool, error)
	// Requires lists the capability names href depends on.
	Requires(ctx context.Context, href string) ([]string, error)
	// Providers lists the packages providing capability, restricted to arches.
	Providers(ctx context.Context, capability string, arches ArchSet) ([]Record, error)
	// Record returns the package stored at href.
	Record(ctx context.Context, href string) (Record, bool, error)
}
