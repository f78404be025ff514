package metadata

import "strings"

// Kind selects the table layout behind a DB.
type Kind int

const (
	// KindPrimary is a createrepo primary_db snapshot (release or updates).
	KindPrimary Kind = iota
	// KindInstalled is the host snapshot rebuilt by lget.
	KindInstalled
)

func (k Kind) String() string {
	if k == KindInstalled {
		return "installed"
	}
	return "primary"
}

// Record is one package row. Capability sets are not carried here; they are
// queried through Store.Requires and Store.Providers.
type Record struct {
	Name      string
	Epoch     string
	Version   string
	Release   string
	Arch      string
	Href      string
	Checksum  Checksum
	BuildTime int64
}

// EVR renders epoch:version-release, omitting an empty or zero epoch.
func (r Record) EVR() string {
	if r.Epoch == "" || r.Epoch == "0" {
		return r.Version + "-" + r.Release
	}
	return r.Epoch + ":" + r.Version + "-" + r.Release
}

// NEVRA renders name-evr.arch.
func (r Record) NEVRA() string {
	return r.Name + "-" + r.EVR() + "." + r.Arch
}

// Checksum is a digest value and the algorithm that produced it.
type Checksum struct {
	Value     string
	Algorithm string
}

// ArchSet is an ordered set of architectures.
type ArchSet []string

// NewArchSet builds a set, dropping blanks and duplicates while keeping order.
func NewArchSet(arches ...string) ArchSet {
	set := make(ArchSet, 0, len(arches))
	seen := make(map[string]bool, len(arches))
	for _, a := range arches {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		set = append(set, a)
	}
	return set
}

// Contains reports whether arch is in the set.
func (s ArchSet) Contains(arch string) bool {
	for _, a := range s {
		if a == arch {
			return true
		}
	}
	return false
}

func (s ArchSet) String() string { return strings.Join(s, ",") }

// inClause returns "(?, ?, ...)" and the matching arguments.
func (s ArchSet) inClause() (string, []any) {
	args := make([]any, len(s))
	marks := make([]string, len(s))
	for i, a := range s {
		args[i] = a
		marks[i] = "?"
	}
	return "(" + strings.Join(marks, ", ") + ")", args
}
