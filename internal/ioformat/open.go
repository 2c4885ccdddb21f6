// Package ioformat reads and writes files for the viewer: configuration
// files, volumetric grids and state blobs, any of them optionally gzipped.
package ioformat

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/san-kum/atomscene/internal/errs"
)

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading, transparently decompressing gzip content
// whatever the file is called.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.IO("open", path, err)
	}
	br := bufio.NewReader(f)
	head, _ := br.Peek(262)
	if !filetype.Is(head, "gz") {
		return &readCloser{Reader: br, closers: []io.Closer{f}}, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		f.Close()
		return nil, errs.IO("gunzip", path, err)
	}
	return &readCloser{Reader: zr, closers: []io.Closer{f, zr}}, nil
}

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Create opens path for writing, gzip-compressing when it ends in .gz.
func Create(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.IO("create", path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.IO("create", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return &writeCloser{Writer: f, closers: []io.Closer{f}}, nil
	}
	zw := gzip.NewWriter(f)
	return &writeCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
}

// Ext returns the lower-case extension of path ignoring a trailing .gz.
func Ext(path string) string {
	p := strings.TrimSuffix(strings.ToLower(path), ".gz")
	return filepath.Ext(p)
}
