package handlers

import (
	"embed"
	"io"
	"net/http"
	"path"
	"strings"
)

// StaticHandlers serves the embedded demo UI
type StaticHandlers struct {
	staticFS embed.FS
	httpDir  string
}

// NewStaticHandlers creates a new static file handler
func NewStaticHandlers(staticFS embed.FS, httpDir string) *StaticHandlers {
	return &StaticHandlers{
		staticFS: staticFS,
		httpDir:  httpDir,
	}
}

// ServeStatic serves static files from the embedded filesystem
func (h *StaticHandlers) ServeStatic(w http.ResponseWriter, r *http.Request) {
	cleanPath := path.Clean(r.URL.Path)
	if cleanPath == "/" {
		cleanPath = "/index.html"
	}

	relativePath := strings.TrimPrefix(cleanPath, "/")
	fullPath := path.Join(h.httpDir, relativePath)

	file, err := h.staticFS.Open(fullPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	// No directory listings.
	if fileInfo.IsDir() {
		http.NotFound(w, r)
		return
	}

	if contentType := contentTypeFor(fullPath); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := io.Copy(w, file); err != nil {
		// Response already started; nothing useful left to do.
		return
	}
}

// contentTypeFor maps file extensions to content types
func contentTypeFor(filePath string) string {
	switch path.Ext(filePath) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript"
	case ".json":
		return "application/json"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".ico":
		return "image/x-icon"
	default:
		return ""
	}
}
