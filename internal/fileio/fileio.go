// Package fileio opens input and output files, decompressing or compressing
// them on the fly when the name ends in .gz or .zst.
package fileio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies the codec wrapping a file.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
)

// CompressionFor picks the codec from the file extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	default:
		return None
	}
}

// Format returns the extension of path after stripping any compression
// suffix, e.g. "json" for "errors.json.zst".
func Format(path string) string {
	if CompressionFor(path) != None {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Open opens path for reading.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	switch CompressionFor(path) {
	case Gzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case Zstd:
		dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		return &readCloser{Reader: dec, closers: []io.Closer{dec.IOReadCloser(), f}}, nil
	default:
		return f, nil
	}
}

// Create creates or truncates path for writing. Close flushes the codec
// before closing the file.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	switch CompressionFor(path) {
	case Gzip:
		zw := gzip.NewWriter(f)
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case Zstd:
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		return &writeCloser{Writer: enc, closers: []io.Closer{enc, f}}, nil
	default:
		return f, nil
	}
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error { return closeAll(r.closers) }

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error { return closeAll(w.closers) }

// closeAll closes innermost first and reports every failure.
func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
