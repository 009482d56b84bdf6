// Package playback streams the local media file behind a clip so a preview
// player can seek within it.
package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

var (
	ErrNotLocal   = errors.New("source is not a local file")
	ErrNoSource   = errors.New("clip has no media source")
	ErrIsDir      = errors.New("source is a directory")
	ErrSourceGone = errors.New("source file not found")
)

// LocalPath resolves a clip's source URL to a filesystem path. Absolute
// paths and file:// URLs are accepted; anything else is ErrNotLocal.
func LocalPath(source string) (string, error) {
	if source == "" {
		return "", ErrNoSource
	}
	if filepath.IsAbs(source) {
		return filepath.Clean(source), nil
	}
	u, err := url.Parse(source)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", fmt.Errorf("%w: %q", ErrNotLocal, source)
	}
	return filepath.Clean(filepath.FromSlash(u.Path)), nil
}

type Server struct {
	logger *slog.Logger
}

func NewServer(logger *slog.Logger) *Server {
	return &Server{logger: logger}
}

// ServeSource writes the file behind source to w, honouring a Range header.
// Errors returned before anything is written are ErrNoSource, ErrNotLocal,
// ErrSourceGone or ErrIsDir; the caller maps them to a response.
func (s *Server) ServeSource(w http.ResponseWriter, r *http.Request, source string) error {
	path, err := LocalPath(source)
	if err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrSourceGone
		}
		return fmt.Errorf("open source: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if stat.IsDir() {
		return ErrIsDir
	}

	size := stat.Size()
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Type", contentType)

	rng, err := ParseRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, ErrUnsatisfiable):
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	case errors.Is(err, ErrInvalidRange):
		// Malformed ranges are ignored and the whole file is sent.
		rng = nil
	}

	if rng == nil {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return nil
		}
		s.copy(w, file, size, path)
		return nil
	}

	h.Set("Content-Length", strconv.FormatInt(rng.ContentLength(), 10))
	h.Set("Content-Range", rng.ContentRange(size))
	if _, err := file.Seek(rng.Start, io.SeekStart); err != nil {
		return fmt.Errorf("seek source: %w", err)
	}
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return nil
	}
	s.copy(w, file, rng.ContentLength(), path)
	return nil
}

func (s *Server) copy(w io.Writer, file *os.File, n int64, path string) {
	if _, err := io.CopyN(w, file, n); err != nil && s.logger != nil {
		s.logger.Debug("source stream interrupted", "path", path, "error", err)
	}
}
