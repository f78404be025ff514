package inventory

import (
	"fmt"
	"os"

	rpmutils "github.com/sassoftware/go-rpmutils"

	"github.com/glorpus-work/rpmirror/pkg/errors"
)

// Header is the identity carried in a package file's rpm header.
type Header struct {
	Name      string
	Epoch     string
	Version   string
	Release   string
	Arch      string
	BuildTime int64
}

// NEVRA renders name-[epoch:]version-release.arch.
func (h Header) NEVRA() string {
	evr := h.Version + "-" + h.Release
	if h.Epoch != "" && h.Epoch != "0" {
		evr = h.Epoch + ":" + evr
	}
	return h.Name + "-" + evr + "." + h.Arch
}

// ReadHeader reads the rpm header of the package file at path.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("%s: %w: %w", path, errors.ErrRPMHeader, err)
	}
	defer func() { _ = f.Close() }()

	hdr, err := rpmutils.ReadHeader(f)
	if err != nil {
		return Header{}, fmt.Errorf("%s: %w: %w", path, errors.ErrRPMHeader, err)
	}
	nevra, err := hdr.GetNEVRA()
	if err != nil {
		return Header{}, fmt.Errorf("%s: %w: %w", path, errors.ErrRPMHeader, err)
	}

	h := Header{
		Name:    nevra.Name,
		Epoch:   nevra.Epoch,
		Version: nevra.Version,
		Release: nevra.Release,
		Arch:    nevra.Arch,
	}
	if ts, err := hdr.GetUint32s(rpmutils.BUILDTIME); err == nil && len(ts) == 1 {
		h.BuildTime = int64(ts[0])
	}
	return h, nil
}
