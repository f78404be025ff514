package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture points the logger at a fresh buffer for the duration of the test.
func capture(t *testing.T, level string, format OutputFormat) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	t.Cleanup(func() {
		UnsetTestOutput()
		logger = nil
	})
	InitLogger(level, format)
	return buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		rec := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec), "line %q", line)
		out = append(out, rec)
	}
	return out
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want OutputFormat
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"text", FormatText},
		{"", FormatText},
		{"yaml", FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormat(tt.in))
		})
	}
}

func TestGetOutput_DefaultsToStderr(t *testing.T) {
	UnsetTestOutput()
	assert.Equal(t, io.Writer(os.Stderr), getOutput())

	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()
	assert.Equal(t, io.Writer(buf), getOutput())
}

func TestJSONFormat_Records(t *testing.T) {
	buf := capture(t, "debug", FormatJSON)

	Warn("checksum drift", Fields{"repo": "updates", "count": 42})
	Success("lupdate committed", Fields{"packages": 3})
	DebugfWithFields(Fields{"target": "foo"}, "resolving %s", "foo")

	recs := decodeLines(t, buf)
	require.Len(t, recs, 3)

	assert.Equal(t, "WARN", recs[0]["level"])
	assert.Equal(t, "checksum drift", recs[0]["msg"])
	assert.Equal(t, "updates", recs[0]["repo"])
	assert.Equal(t, float64(42), recs[0]["count"])

	assert.Equal(t, "INFO", recs[1]["level"])
	assert.Equal(t, "success", recs[1]["status"])
	assert.Equal(t, float64(3), recs[1]["packages"])

	assert.Equal(t, "DEBUG", recs[2]["level"])
	assert.Equal(t, "resolving foo", recs[2]["msg"])
	assert.Equal(t, "foo", recs[2]["target"])
}

func TestInitLogger_Levels(t *testing.T) {
	tests := []struct {
		level  string
		debug  bool
		info   bool
		warn   bool
		errors bool
	}{
		{"debug", true, true, true, true},
		{"info", false, true, true, true},
		{"warning", false, false, true, true},
		{"error", false, false, false, true},
		{"bogus", false, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := capture(t, tt.level, FormatText)
			Debugf("d%d", 1)
			Infof("i%d", 1)
			Warnf("w%d", 1)
			Errorf("e%d", 1)

			out := buf.String()
			assert.Equal(t, tt.debug, strings.Contains(out, "msg=d1"))
			assert.Equal(t, tt.info, strings.Contains(out, "msg=i1"))
			assert.Equal(t, tt.warn, strings.Contains(out, "msg=w1"))
			assert.Equal(t, tt.errors, strings.Contains(out, "msg=e1"))
		})
	}
}

func TestSetOutputFormat_KeepsLevel(t *testing.T) {
	buf := capture(t, "warn", FormatText)

	SetOutputFormat(FormatJSON)
	Info("dropped")
	Warn("kept")

	recs := decodeLines(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "kept", recs[0]["msg"])

	// The level var is shared with the new handler.
	buf.Reset()
	currentLevel.Set(slog.LevelDebug)
	Debug("now visible")
	recs = decodeLines(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "DEBUG", recs[0]["level"])
}

func TestGetLogger_InitializesIfNil(t *testing.T) {
	SetTestOutput(io.Discard)
	defer UnsetTestOutput()
	logger = nil

	lg := GetLogger()
	require.NotNil(t, lg)
	assert.Same(t, lg, GetLogger())
}

func TestMergeFields_LaterWins(t *testing.T) {
	attrs := mergeFields(Fields{"href": "a.rpm"}, Fields{"href": "b.rpm", "tag": "release"})
	got := map[string]interface{}{}
	for i := 0; i < len(attrs); i += 2 {
		got[attrs[i].(string)] = attrs[i+1]
	}
	assert.Equal(t, map[string]interface{}{"href": "b.rpm", "tag": "release"}, got)
	assert.Equal(t, "href", attrs[0], "first-seen key order is kept")
}
