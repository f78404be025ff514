package hostdb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/pkg/metadata"
)

func TestParseQuery(t *testing.T) {
	out := "bash\t4.3.42\t1.fc23\tx86_64\t1444300000\n" +
		"\n" +
		"gpg-pubkey\t34ec9cba\t54e38751\t(none)\t1424197457\n" +
		"glibc\t2.22\t5.fc23\ti686\t1445000000\r\n"

	got, err := ParseQuery(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, []metadata.Record{
		{Name: "bash", Version: "4.3.42", Release: "1.fc23", Arch: "x86_64", BuildTime: 1444300000},
		{Name: "glibc", Version: "2.22", Release: "5.fc23", Arch: "i686", BuildTime: 1445000000},
	}, got)
}

func TestParseQuery_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"too few fields", "bash\t4.3\t1\tx86_64\n"},
		{"bad build time", "bash\t4.3\t1\tx86_64\tyesterday\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuery(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, errors.ErrHostQuery)
		})
	}
}

func TestParseQuery_Empty(t *testing.T) {
	got, err := ParseQuery(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryRPM_MissingBinary(t *testing.T) {
	orig := RPMCommand
	RPMCommand = filepath.Join(t.TempDir(), "no-such-rpm")
	defer func() { RPMCommand = orig }()

	_, err := QueryRPM(context.Background())
	assert.ErrorIs(t, err, errors.ErrHostQuery)
}

func TestFromDir(t *testing.T) {
	dir := t.TempDir()

	got, err := FromDir(dir)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken-1-1.x86_64.rpm"), []byte("not an rpm"), 0o644))
	_, err = FromDir(dir)
	assert.ErrorIs(t, err, errors.ErrRPMHeader)
}
