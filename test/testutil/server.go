package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// MirrorServer serves a directory tree over HTTP and counts requests.
type MirrorServer struct {
	*httptest.Server
	Requests atomic.Int64
}

// NewMirrorServer starts an httptest server rooted at dir. It is closed
// when the test finishes.
func NewMirrorServer(t *testing.T, dir string) *MirrorServer {
	t.Helper()
	ms := &MirrorServer{}
	files := http.FileServer(http.Dir(dir))
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms.Requests.Add(1)
		files.ServeHTTP(w, r)
	}))
	t.Cleanup(ms.Close)
	return ms
}
