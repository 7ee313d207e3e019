// Package static serves files from the web root for every GET that no
// API route claims.
//
// A request moves through these states:
//
//	Resolving → Rejected                 (escapes the root, missing, not a regular file)
//	Resolving → (directory) → index.html → Resolving
//	Resolving → Streaming → Done         (file fully sent)
//	                      → Aborted      (write failed, client gone)
//
// Rejected requests get 400 "Could not open path {path}". Missing and
// forbidden are deliberately indistinguishable.
package static

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aanand-mishra/student-webserver/internal/utils/response"
	"github.com/gabriel-vasile/mimetype"
)

// ChunkSize is how much of a file is read and written per step.
const ChunkSize = 128 * 1024

// IndexFile is served for directory requests.
const IndexFile = "index.html"

// ErrOutsideRoot is returned by Resolve for paths that leave the web root.
var ErrOutsideRoot = errors.New("path escapes web root")

// Handler serves the files under Root.
type Handler struct {
	// Root is the canonical (absolute, symlink-free) web root.
	Root string
}

// ─────────────────────────────────────────────────────────────────────────────
// New canonicalises webRoot and checks that it is a directory.
//
// Root is stored in its final form (absolute, symlinks evaluated) once,
// at start-up; every Resolve compares against that exact string.
// ─────────────────────────────────────────────────────────────────────────────
func New(webRoot string) (*Handler, error) {
	abs, err := filepath.Abs(webRoot)
	if err != nil {
		return nil, fmt.Errorf("static.New: abs: %w", err)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("static.New: resolve %s: %w", webRoot, err)
	}
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("static.New: stat: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("static.New: %s is not a directory", root)
	}
	return &Handler{Root: root}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Resolve maps a URL path to a regular file under Root.
//
// HOW THE PATH GUARD WORKS:
// ─────────────────────────
//  1. Join Root and the URL path.
//  2. EvalSymlinks resolves ".." segments and links to the real file.
//  3. filepath.Rel(Root, real) must not start with "..".
//
// A directory swaps in its index.html and repeats steps 2 and 3, so an
// index.html symlinked out of the tree is rejected too.
// ─────────────────────────────────────────────────────────────────────────────
func (h *Handler) Resolve(urlPath string) (string, error) {
	p, err := h.canonical(filepath.Join(h.Root, filepath.FromSlash(urlPath)))
	if err != nil {
		return "", err
	}

	fi, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		if p, err = h.canonical(filepath.Join(p, IndexFile)); err != nil {
			return "", err
		}
		if fi, err = os.Stat(p); err != nil {
			return "", err
		}
	}

	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", p)
	}
	return p, nil
}

func (h *Handler) canonical(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(h.Root, resolved)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return resolved, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ServeHTTP resolves and streams the requested file.
//
// Content-Type and Content-Length are set from the file before the first
// byte goes out. Once the 200 is written, a failure can only abort the
// transfer; the client sees a body shorter than Content-Length.
// ─────────────────────────────────────────────────────────────────────────────
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reject := func(err error) {
		slog.Info("static file rejected",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		response.WriteText(w, http.StatusBadRequest, "Could not open path "+r.URL.Path)
	}

	path, err := h.Resolve(r.URL.Path)
	if err != nil {
		reject(err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		reject(err)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		reject(err)
		return
	}

	w.Header().Set("Content-Type", contentType(path))
	w.Header().Set("Content-Length", strconv.FormatInt(fi.Size(), 10))
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := Stream(w, f, func() error { return rc.Flush() }); err != nil {
		slog.Warn("connection interrupted",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Stream copies src to dst in ChunkSize pieces.
//
// HOW ONE STEP WORKS:
// ───────────────────
// ReadFull fills the buffer; whatever was read is written and flushed
// before the next read, so at most one chunk is in flight. A short read
// (ErrUnexpectedEOF) or EOF ends the file. Any other error stops the
// loop and is returned.
// ─────────────────────────────────────────────────────────────────────────────
func Stream(dst io.Writer, src io.Reader, flush func() error) error {
	buf := make([]byte, ChunkSize)
	for {
		n, rerr := io.ReadFull(src, buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("write chunk: %w", err)
			}
			if flush != nil {
				if err := flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
					return fmt.Errorf("flush chunk: %w", err)
				}
			}
		}
		switch {
		case rerr == nil:
			continue
		case errors.Is(rerr, io.EOF), errors.Is(rerr, io.ErrUnexpectedEOF):
			// a short or empty read is the end of the file
			return nil
		default:
			return fmt.Errorf("read chunk: %w", rerr)
		}
	}
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	if mt, err := mimetype.DetectFile(path); err == nil {
		return mt.String()
	}
	return "application/octet-stream"
}
