package server

import (
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// staticFiles serves files from a stack of file systems, preferring a
// precompressed ".br" sibling when the client accepts brotli. The first layer
// holding a file wins.
type staticFiles struct {
	layers []fs.FS
}

// newStaticFiles layers dir over the built-in assets. Either may be empty.
func newStaticFiles(dir string, assets fs.FS) *staticFiles {
	var layers []fs.FS
	if dir != "" {
		layers = append(layers, os.DirFS(dir))
	}
	if assets != nil {
		layers = append(layers, assets)
	}
	if len(layers) == 0 {
		return nil
	}
	return &staticFiles{layers: layers}
}

// staticRelPath returns a sanitized relative path for a static file request.
// It rejects traversal and absolute-path tricks so serving cannot escape the
// static directory.
func staticRelPath(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(urlPath, "/")
	if rel == "" {
		return "", false
	}

	// Reject NUL early (can appear via %00).
	if strings.IndexByte(rel, 0) != -1 {
		return "", false
	}

	// Reject platform-dependent separators.
	if strings.Contains(rel, "\\") {
		return "", false
	}

	// A leading "/" after trimming one indicates an absolute-path attempt.
	if strings.HasPrefix(rel, "/") {
		return "", false
	}

	// Reject dot-segments before cleaning so traversal is not cleaned away.
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == "" || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}

	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}

	return clean, true
}

// ServeHTTP serves GET and HEAD requests for existing files; everything else
// is a 404 or 405.
func (s *staticFiles) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rel, ok := staticRelPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	fsys := s.lookup(rel)
	if fsys == nil {
		http.NotFound(w, r)
		return
	}

	name := rel
	if acceptsBrotli(r) && isFile(fsys, rel+".br") {
		name = rel + ".br"
		w.Header().Set("Content-Encoding", "br")
		if ctype := mime.TypeByExtension(path.Ext(rel)); ctype != "" {
			w.Header().Set("Content-Type", ctype)
		}
	}
	w.Header().Add("Vary", "Accept-Encoding")

	f, err := fsys.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		w.Header().Del("Content-Encoding")
		http.NotFound(w, r)
		return
	}

	seeker, ok := f.(io.ReadSeeker)
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	applyCacheHeaders(w, rel)
	http.ServeContent(w, r, rel, info.ModTime(), seeker)
}

// lookup returns the first layer holding rel.
func (s *staticFiles) lookup(rel string) fs.FS {
	for _, fsys := range s.layers {
		if isFile(fsys, rel) {
			return fsys
		}
	}
	return nil
}

func isFile(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && !info.IsDir()
}

// acceptsBrotli reports whether the request lists br in Accept-Encoding.
func acceptsBrotli(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "br") {
			continue
		}
		q, ok := strings.CutPrefix(strings.TrimSpace(params), "q=")
		if !ok {
			return true
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(q), 64)
		return err == nil && weight > 0
	}
	return false
}

// applyCacheHeaders marks fingerprinted files immutable and asks browsers to
// revalidate everything else.
func applyCacheHeaders(w http.ResponseWriter, filePath string) {
	if isFingerprinted(filePath) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
}

// isFingerprinted checks if a file path has a hash in its name,
// e.g. "app.a1b2c3d4.css".
func isFingerprinted(filePath string) bool {
	parts := strings.Split(path.Base(filePath), ".")
	if len(parts) < 3 {
		return false
	}

	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return false
	}
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
