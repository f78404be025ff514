package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/pkg/updateinfo"
)

var kernel = updateinfo.Entry{
	Name: "kernel", Arch: "x86_64", Version: "4.4.6", Release: "300.fc23",
	Filename: "kernel-4.4.6-300.fc23.x86_64.rpm", Issued: 1459000000,
}

func TestScript_Exclude(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		entry updateinfo.Entry
		want  bool
	}{
		{"empty script keeps everything", `// nothing`, kernel, false},
		{"exclude by name", `if name == "kernel" { exclude = true }`, kernel, true},
		{"other names pass", `if name == "firefox" { exclude = true }`, kernel, false},
		{"stdlib strings", `
			strings := import("strings")
			exclude = strings.has_prefix(name, "kern") && arch == "x86_64"
		`, kernel, true},
		{"issued cutoff", `exclude = issued > 1450000000`, kernel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile(tt.name, []byte(tt.src))
			require.NoError(t, err)

			got, err := s.Exclude(context.Background(), tt.entry)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScript_StateDoesNotLeakBetweenEntries(t *testing.T) {
	s, err := Compile("leak", []byte(`if name == "kernel" { exclude = true }`))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := s.Exclude(ctx, kernel)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = s.Exclude(ctx, updateinfo.Entry{Name: "bash", Arch: "x86_64"})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestScript_Errors(t *testing.T) {
	_, err := Compile("syntax", []byte(`if {`))
	assert.ErrorIs(t, err, errors.ErrPolicyLoad)

	s, err := Compile("runtime", []byte(`y := 0; x := 10 / y`))
	require.NoError(t, err)
	_, err = s.Exclude(context.Background(), kernel)
	assert.ErrorIs(t, err, errors.ErrPolicyExecution)

	s, err = Compile("err var", []byte(`err := "feed is poisoned"`))
	require.NoError(t, err)
	_, err = s.Exclude(context.Background(), kernel)
	assert.ErrorIs(t, err, errors.ErrPolicyScript)
	assert.Contains(t, err.Error(), "feed is poisoned")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.tengo")
	require.NoError(t, os.WriteFile(path, []byte(`exclude = arch == "i686"`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	got, err := s.Exclude(context.Background(), updateinfo.Entry{Name: "glibc", Arch: "i686"})
	require.NoError(t, err)
	assert.True(t, got)

	_, err = Load(filepath.Join(t.TempDir(), "missing.tengo"))
	assert.ErrorIs(t, err, errors.ErrPolicyLoad)
}
