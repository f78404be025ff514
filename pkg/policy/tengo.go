// Package policy evaluates user-supplied tengo scripts that can veto
// advisory entries before they become update decisions.
//
// A script sees the variables name, arch, version, release, filename and
// issued (unix seconds) and assigns `exclude = true` to drop the entry.
// Setting `err` to a non-empty string aborts the run.
package policy

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/pkg/updateinfo"
)

var inputs = []string{"name", "arch", "version", "release", "filename", "issued"}

// Script is a compiled exclusion policy. It is safe for concurrent use.
type Script struct {
	name     string
	mu       sync.Mutex
	compiled *tengo.Compiled
}

var _ updateinfo.Policy = (*Script)(nil)

// Compile compiles src. name is used in error messages.
func Compile(name string, src []byte) (*Script, error) {
	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap("fmt", "strings", "text", "times"))

	for _, in := range inputs {
		var zero interface{} = ""
		if in == "issued" {
			zero = int64(0)
		}
		if err := script.Add(in, zero); err != nil {
			return nil, fmt.Errorf("failed to add %s to script: %w", in, err)
		}
	}
	if err := script.Add("exclude", false); err != nil {
		return nil, fmt.Errorf("failed to add exclude to script: %w", err)
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, errors.ErrPolicyLoad, err)
	}
	return &Script{name: name, compiled: compiled}, nil
}

// Load reads and compiles the script at path.
func Load(path string) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, errors.ErrPolicyLoad, err)
	}
	return Compile(path, src)
}

// Exclude runs the script for one advisory entry.
func (s *Script) Exclude(ctx context.Context, e updateinfo.Entry) (bool, error) {
	s.mu.Lock()
	run := s.compiled.Clone()
	s.mu.Unlock()

	values := map[string]interface{}{
		"name":     e.Name,
		"arch":     e.Arch,
		"version":  e.Version,
		"release":  e.Release,
		"filename": e.Filename,
		"issued":   e.Issued,
	}
	for k, v := range values {
		if err := run.Set(k, v); err != nil {
			return false, fmt.Errorf("failed to set %s: %w", k, err)
		}
	}

	if err := run.RunContext(ctx); err != nil {
		return false, fmt.Errorf("%s: %w: %w", s.name, errors.ErrPolicyExecution, err)
	}

	if errVar := run.Get("err"); errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return false, fmt.Errorf("%w: %w", errors.ErrPolicyScript, v)
		case string:
			if v != "" {
				return false, fmt.Errorf("%w: %s", errors.ErrPolicyScript, v)
			}
		}
	}
	return run.Get("exclude").Bool(), nil
}
