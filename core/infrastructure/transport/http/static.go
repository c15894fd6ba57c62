package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/meterscope/meterscope/core/infrastructure/transport/http/handlers"
)

// StaticHandler serves a pre-built client bundle with SPA fallback to
// index.html. API and websocket paths never fall through to the bundle.
type StaticHandler struct {
	dir string
}

func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if isReservedPath(r.URL.Path) {
		routeNotFound(w, r)
		return
	}

	index := filepath.Join(h.dir, "index.html")
	if h.dir == "" || !isFile(index) {
		handlers.WriteJSON(w, http.StatusNotFound,
			map[string]string{"error": "Client build not found. Build the client bundle first."}, nil)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		routeNotFound(w, r)
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	if clean != "/" {
		candidate := filepath.Join(h.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
		if isFile(candidate) {
			http.ServeFile(w, r, candidate)
			return
		}
	}

	http.ServeFile(w, r, index)
}

func isReservedPath(p string) bool {
	for _, prefix := range []string{"/api", "/ws"} {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
