// Package archive assembles in-memory ZIP files.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/yungbote/playbook-backend/internal/render"
)

var ErrFinalized = errors.New("archive already finalized")

// Writer collects entries and produces the ZIP bytes once. Entry paths use forward slashes and
// must be unique.
type Writer struct {
	buf       bytes.Buffer
	zw        *zip.Writer
	modified  time.Time
	seen      map[string]bool
	finalized bool
}

func NewWriter(modified time.Time) *Writer {
	w := &Writer{modified: modified, seen: map[string]bool{}}
	w.zw = zip.NewWriter(&w.buf)
	return w
}

func (w *Writer) Add(name string, blob []byte) error {
	if w.finalized {
		return &render.RenderError{Op: "zip add " + name, Err: ErrFinalized}
	}
	clean, err := cleanPath(name)
	if err != nil {
		return &render.RenderError{Op: "zip add " + name, Err: err}
	}
	if w.seen[clean] {
		return &render.RenderError{Op: "zip add " + name, Err: fmt.Errorf("duplicate entry %q", clean)}
	}
	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     clean,
		Method:   zip.Deflate,
		Modified: w.modified,
	})
	if err != nil {
		return &render.RenderError{Op: "zip add " + name, Err: err}
	}
	if _, err := fw.Write(blob); err != nil {
		return &render.RenderError{Op: "zip add " + name, Err: err}
	}
	w.seen[clean] = true
	return nil
}

func (w *Writer) Len() int { return len(w.seen) }

func (w *Writer) Finalize() ([]byte, error) {
	if w.finalized {
		return nil, &render.RenderError{Op: "zip finalize", Err: ErrFinalized}
	}
	w.finalized = true
	if err := w.zw.Close(); err != nil {
		return nil, &render.RenderError{Op: "zip finalize", Err: err}
	}
	return w.buf.Bytes(), nil
}

func cleanPath(name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if name == "" {
		return "", errors.New("empty entry name")
	}
	clean := path.Clean(name)
	if strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("entry %q escapes the archive root", name)
	}
	return clean, nil
}
