package docs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Source produces raw crystal docs JSON.
type Source interface {
	Read(ctx context.Context) ([]byte, error)
}

// FileSource reads previously generated JSON from a file. "-" reads stdin and
// a ".zst" suffix is decompressed transparently.
type FileSource struct {
	Path  string
	Stdin io.Reader
}

func (s FileSource) Read(ctx context.Context) ([]byte, error) {
	if s.Path == "-" {
		in := s.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(s.Path, ".zst") {
		return readZstd(f)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading index %s: %w", s.Path, err)
	}
	return data, nil
}

// CommandSource runs the crystal docs generator in Dir.
type CommandSource struct {
	Binary string
	Dir    string
	Flags  []string
}

func (s CommandSource) args() []string {
	return append([]string{
		"docs",
		"--format=json",
		"--project-name=",
		"--project-version=",
		"--source-refname=master",
	}, s.Flags...)
}

func (s CommandSource) Read(ctx context.Context) ([]byte, error) {
	bin := s.Binary
	if bin == "" {
		bin = "crystal"
	}
	cmd := exec.CommandContext(ctx, bin, s.args()...)
	cmd.Dir = s.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	slog.Debug("running docs generator", "bin", bin, "args", s.args(), "dir", s.Dir)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running %s docs: %w: %s", bin, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// CachedSource serves a CommandSource's output from the JSON cache when present.
type CachedSource struct {
	Source CommandSource
	Cache  IndexCache
}

func (s CachedSource) Read(ctx context.Context) ([]byte, error) {
	dir := s.Source.Dir
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}
	key := CacheKey(dir, s.Source.Flags)
	if s.Cache.Has(key) {
		data, err := s.Cache.Load(key)
		if err == nil {
			return data, nil
		}
		slog.Warn("ignoring unreadable index cache", "key", key, "error", err)
	}

	data, err := s.Source.Read(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.Save(data, key); err != nil {
		slog.Warn("failed to cache index", "key", key, "error", err)
	}
	return data, nil
}

// Load reads src and builds the item tree.
func Load(ctx context.Context, src Source) (*Tree, error) {
	data, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadCached builds the tree from the generator's output, running it only
// when cacheDir holds no output for the same directory and flags.
func LoadCached(ctx context.Context, src CommandSource, cacheDir string) (*Tree, error) {
	return Load(ctx, CachedSource{Source: src, Cache: IndexCache{Dir: cacheDir}})
}
