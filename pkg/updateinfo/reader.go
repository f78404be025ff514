// Package updateinfo reads a repository's advisory feed (updateinfo.xml)
// and decides, per installed package, which published update is newest.
package updateinfo

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/glorpus-work/rpmirror/internal/logger"
	"github.com/glorpus-work/rpmirror/pkg/archive"
	"github.com/glorpus-work/rpmirror/pkg/errors"
)

// IssuedLayout is the layout of <issued date>, fractional seconds removed.
const IssuedLayout = "2006-01-02 15:04:05"

type advisory struct {
	ID       string            `xml:"id"`
	Issued   *issued           `xml:"issued"`
	Packages []advisoryPackage `xml:"pkglist>collection>package"`
}

type issued struct {
	Date string `xml:"date,attr"`
}

type advisoryPackage struct {
	Name     string `xml:"name,attr"`
	Arch     string `xml:"arch,attr"`
	Version  string `xml:"version,attr"`
	Release  string `xml:"release,attr"`
	Filename string `xml:"filename"`
}

// Reader turns an advisory feed into Decisions.
type Reader struct {
	Installed InstalledStore
	// WriteBack persists every accepted decision into Installed right away,
	// so later entries for the same package compare against it.
	WriteBack bool
	Format    FeedFormat
	Policy    Policy
	// Location interprets issued dates; nil means time.Local.
	Location *time.Location
	Archive  *archive.Manager
}

// ParseIssued converts an <issued date> value to unix seconds.
func ParseIssued(s string, loc *time.Location) (int64, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(strings.SplitN(s, ".", 2)[0])
	t, err := time.ParseInLocation(IssuedLayout, s, loc)
	if err != nil {
		return 0, fmt.Errorf("%q: %w: %w", s, errors.ErrMalformedDate, err)
	}
	return t.Unix(), nil
}

// Read decompresses and processes the feed at path.
func (r *Reader) Read(ctx context.Context, path string) (Decisions, error) {
	am := r.Archive
	if am == nil {
		am = archive.NewManager()
	}
	rc, err := am.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrFeedParse, err)
	}
	defer func() { _ = rc.Close() }()
	return r.Decode(ctx, rc)
}

// Decode processes an uncompressed feed.
func (r *Reader) Decode(ctx context.Context, in io.Reader) (Decisions, error) {
	decisions := make(Decisions)
	dec := xml.NewDecoder(in)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return decisions, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrFeedParse, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "update" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var adv advisory
		if err := dec.DecodeElement(&adv, &se); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrFeedParse, err)
		}
		if err := r.apply(ctx, decisions, adv); err != nil {
			return nil, err
		}
	}
}

func (r *Reader) apply(ctx context.Context, decisions Decisions, adv advisory) error {
	if adv.Issued == nil {
		logger.Debug("advisory without issued date", logger.Fields{"id": adv.ID})
		return nil
	}
	ts, err := ParseIssued(adv.Issued.Date, r.Location)
	if err != nil {
		return fmt.Errorf("advisory %s: %w", adv.ID, err)
	}

	for _, p := range adv.Packages {
		e := Entry{
			Issued:   ts,
			Name:     p.Name,
			Arch:     p.Arch,
			Version:  p.Version,
			Release:  p.Release,
			Filename: strings.TrimSpace(p.Filename),
		}
		if err := r.consider(ctx, decisions, e); err != nil {
			return err
		}
	}
	return nil
}

// consider applies one entry. The comparison baseline is re-read from the
// installed store each time because write-back may have moved it.
func (r *Reader) consider(ctx context.Context, decisions Decisions, e Entry) error {
	key := Key{Name: e.Name, Arch: e.Arch}
	best, installed, err := r.Installed.BuildTime(ctx, e.Name, e.Arch)
	if err != nil {
		return err
	}
	if !installed {
		return nil
	}
	if d, ok := decisions[key]; ok && d.Issued > best {
		best = d.Issued
	}
	if e.Issued <= best {
		return nil
	}

	href := NormalizeFilename(r.Format, e.Filename)
	if href == "" {
		logger.Debug("advisory entry without filename", logger.Fields{"package": key.String()})
		return nil
	}
	if r.Policy != nil {
		excluded, err := r.Policy.Exclude(ctx, e)
		if err != nil {
			return err
		}
		if excluded {
			logger.Debug("advisory entry excluded by policy", logger.Fields{"package": key.String(), "file": href})
			return nil
		}
	}

	decisions[key] = Decision{Issued: e.Issued, Filename: href, Version: e.Version, Release: e.Release}
	logger.DebugfWithFields(logger.Fields{"issued": e.Issued, "file": href}, "update selected for %s", key)

	if r.WriteBack {
		if err := r.Installed.UpdateVersion(ctx, e.Name, e.Arch, e.Version, e.Release, e.Issued); err != nil {
			return err
		}
	}
	return nil
}
