package docs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

// CacheKey derives a cache key for generator output from the project
// directory and the flags it was generated with.
func CacheKey(dir string, flags []string) string {
	h := xxhash.New()
	h.WriteString(dir)
	for _, f := range flags {
		h.WriteString("\x00")
		h.WriteString(f)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// IndexCache stores generator output as zstd-compressed JSON files in Dir.
type IndexCache struct {
	Dir string
}

func (c IndexCache) path(key string) string {
	return filepath.Join(c.Dir, key+".json.zst")
}

// Save compresses and saves crystal docs JSON bytes to disk.
func (c IndexCache) Save(data []byte, key string) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("creating json cache dir: %w", err)
	}

	f, err := os.Create(c.path(key))
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing compressed data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// Load decompresses cached crystal docs JSON from disk.
func (c IndexCache) Load(key string) ([]byte, error) {
	f, err := os.Open(c.path(key))
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()
	return readZstd(f)
}

// Has checks whether cached output exists for key.
func (c IndexCache) Has(key string) bool {
	_, err := os.Stat(c.path(key))
	return err == nil
}

// Clear removes every cached generator output.
func (c IndexCache) Clear() error {
	if err := os.RemoveAll(c.Dir); err != nil {
		return fmt.Errorf("removing json cache dir: %w", err)
	}
	return nil
}

func readZstd(r io.Reader) ([]byte, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return data, nil
}
