package handler

import (
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/boozedog/devserve/internal/web/reload"
)

// Handler serves the dev server's routes.
type Handler struct {
	fsys   fs.FS
	files  http.Handler
	broker *reload.Broker
}

// New creates a Handler serving files from root. Lookups go through the
// os.Root, so nothing outside the directory is reachable, symlinks included.
func New(root *os.Root, broker *reload.Broker) *Handler {
	fsys := root.FS()
	return &Handler{
		fsys:   fsys,
		files:  http.FileServerFS(fsys),
		broker: broker,
	}
}

// Static serves a file under the root. Regular files are written directly,
// so /index.html answers 200 instead of redirecting to /. Directories fall
// through to http.FileServerFS for index pages and listings.
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "."
	}

	f, err := h.fsys.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if info.IsDir() {
		h.files.ServeHTTP(w, r)
		return
	}
	// A trailing slash or "/." names a directory, never a file.
	if !info.Mode().IsRegular() || strings.HasSuffix(r.URL.Path, "/") || strings.HasSuffix(r.URL.Path, "/.") {
		http.NotFound(w, r)
		return
	}

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		h.files.ServeHTTP(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), rs)
}
