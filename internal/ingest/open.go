package ingest

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Open returns a reader over path, decompressing .zst, .gz and .bz2 files
// transparently. The caller must Close it.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return &readCloser{Reader: dec, close: func() error { dec.Close(); return f.Close() }}, nil
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return &readCloser{Reader: gz, close: func() error { gz.Close(); return f.Close() }}, nil
	case ".bz2":
		return &readCloser{Reader: bzip2.NewReader(f), close: f.Close}, nil
	default:
		return f, nil
	}
}

// BaseExt returns the extension of path ignoring a compression suffix, so
// "ticks.csv.zst" yields ".csv".
func BaseExt(path string) string {
	p := strings.ToLower(path)
	switch filepath.Ext(p) {
	case ".zst", ".zstd", ".gz", ".bz2":
		p = strings.TrimSuffix(p, filepath.Ext(p))
	}
	return filepath.Ext(p)
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error { return r.close() }
