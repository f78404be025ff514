package resolver

import (
	"path/filepath"
	"strings"
)

// Source identifies the repository a package was found in.
type Source struct {
	Tag  string // "updates" or "release"
	Root string // tree the package's href is relative to
}

// Record is one package that has to be fetched, and the top-level targets
// that pulled it in.
type Record struct {
	Source     Source
	Href       string
	Requesters []string
}

// Path is the local file the record refers to.
func (r Record) Path() string {
	return filepath.Join(r.Source.Root, filepath.FromSlash(r.Href))
}

// String renders "<path> ==> [a, b]".
func (r Record) String() string {
	return r.Path() + " ==> [" + strings.Join(r.Requesters, ", ") + "]"
}

type recordKey struct {
	tag  string
	href string
}

// Accumulator collects Records across many Resolve calls, keeping one
// record per (source, href) in first-seen order. The zero value is ready
// to use.
type Accumulator struct {
	index   map[recordKey]int
	records []Record
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{index: make(map[recordKey]int)}
}

// Upsert records that requester needs href from src.
func (a *Accumulator) Upsert(src Source, href, requester string) {
	k := recordKey{tag: src.Tag, href: href}
	if i, ok := a.index[k]; ok {
		a.records[i].Requesters = append(a.records[i].Requesters, requester)
		return
	}
	if a.index == nil {
		a.index = make(map[recordKey]int)
	}
	a.index[k] = len(a.records)
	a.records = append(a.records, Record{Source: src, Href: href, Requesters: []string{requester}})
}

// Len is the number of distinct records.
func (a *Accumulator) Len() int { return len(a.records) }

// Records returns a copy of the collected records.
func (a *Accumulator) Records() []Record {
	out := make([]Record, len(a.records))
	for i, r := range a.records {
		r.Requesters = append([]string(nil), r.Requesters...)
		out[i] = r
	}
	return out
}

// Paths lists the local path of every record.
func (a *Accumulator) Paths() []string {
	out := make([]string, len(a.records))
	for i, r := range a.records {
		out[i] = r.Path()
	}
	return out
}
