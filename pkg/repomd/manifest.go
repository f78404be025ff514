// Package repomd reads repodata/repomd.xml and checks the metadata files it
// lists against their published checksums.
package repomd

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/glorpus-work/rpmirror/pkg/errors"
)

// ManifestPath is the location of the manifest below a repository root.
const ManifestPath = "repodata/repomd.xml"

// Well-known <data type> values.
const (
	TypePrimaryDB  = "primary_db"
	TypeUpdateInfo = "updateinfo"
)

// Manifest is the <repomd> document.
type Manifest struct {
	XMLName  xml.Name `xml:"repomd"`
	Revision string   `xml:"revision"`
	Data     []Data   `xml:"data"`
}

// Data is one <data> entry.
type Data struct {
	Type         string   `xml:"type,attr"`
	Checksum     Checksum `xml:"checksum"`
	OpenChecksum Checksum `xml:"open-checksum"`
	Location     Location `xml:"location"`
	Timestamp    string   `xml:"timestamp"`
	Size         string   `xml:"size"`
}

// Checksum is a <checksum type="...">digest</checksum> element.
type Checksum struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// Location is a <location href="..."/> element.
type Location struct {
	Href string `xml:"href,attr"`
}

// Parse reads and decodes the manifest at path.
func Parse(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, errors.ErrManifestParse, err)
	}
	defer func() { _ = f.Close() }()

	var m Manifest
	if err := xml.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, errors.ErrManifestParse, err)
	}
	return &m, nil
}

// Find returns the first entry of the given type.
func (m *Manifest) Find(dataType string) (Data, bool) {
	for _, d := range m.Data {
		if d.Type == dataType {
			return d, true
		}
	}
	return Data{}, false
}

// FindHref returns the first href containing substr.
func (m *Manifest) FindHref(substr string) (string, bool) {
	for _, d := range m.Data {
		if strings.Contains(d.Location.Href, substr) {
			return d.Location.Href, true
		}
	}
	return "", false
}

// Locations lists every href in the manifest followed by the manifest itself,
// i.e. every repodata file a mirror has to carry.
func (m *Manifest) Locations() []string {
	out := make([]string, 0, len(m.Data)+1)
	for _, d := range m.Data {
		out = append(out, d.Location.Href)
	}
	return append(out, ManifestPath)
}
