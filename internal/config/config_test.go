package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestCacheBase_XDGSet(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	got := cacheBase()
	want := filepath.Join("/custom/cache", "crystalref")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_HomeDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	got := cacheBase()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	want := filepath.Join(home, ".cache", "crystalref")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_TmpFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "")
	got := cacheBase()
	if !strings.Contains(got, "crystalref") {
		t.Errorf("expected crystalref in path, got %q", got)
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/c")
	for got, want := range map[string]string{
		DBPath():       "/c/crystalref/inventory.db",
		CASDir():       "/c/crystalref/cas",
		JSONCacheDir(): "/c/crystalref/json",
	} {
		if got != filepath.FromSlash(want) {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

func settings(fileFilters interface{}) map[string]interface{} {
	return map[string]interface{}{
		"collect": map[string]interface{}{"file_filters": fileFilters},
		"render":  map[string]interface{}{"heading_level": 2},
	}
}

func TestDecode_FileFilters(t *testing.T) {
	t.Parallel()
	tags := []string{"https://github.com/o/r/blob/master/src/ext/size.cr"}

	tests := []struct {
		name  string
		value interface{}
		keep  bool
	}{
		{"true", true, true},
		{"false", false, false},
		{"patterns", []interface{}{"src/", "!ext/"}, false},
		{"patterns keeping", []interface{}{"!src/", "size"}, true},
		{"env bool", "false", false},
		{"env list", "src/,!ext/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := decode(settings(tt.value))
			if err != nil {
				t.Fatal(err)
			}
			if got := cfg.CollectOptions().Filters.Match(tags); got != tt.keep {
				t.Errorf("Match = %v, want %v (filters %s)", got, tt.keep, cfg.Collect.FileFilters)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()
	for name, s := range map[string]map[string]interface{}{
		"bad regex":     settings([]interface{}{"("}),
		"empty list":    settings([]interface{}{}),
		"wrong type":    settings(3.5),
		"heading level": {"render": map[string]interface{}{"heading_level": 9}},
	} {
		if _, err := decode(s); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("CRYSTALREF_RENDER_HEADING_LEVEL", "4")
	t.Setenv("CRYSTALREF_INDEX_CRYSTAL_DOCS_FLAGS", "--warnings=none src/app.cr")

	toml := `
[collect]
nested_types = true
file_filters = ["src/", "!ext/"]

[inventory]
base_url = "https://example.org/api/index.json"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}

	viper.Reset()
	t.Cleanup(viper.Reset)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Render.HeadingLevel != 4 {
		t.Errorf("heading level = %d, want 4 from the environment", cfg.Render.HeadingLevel)
	}
	if want := []string{"--warnings=none", "src/app.cr"}; strings.Join(cfg.Index.CrystalDocsFlags, "|") != strings.Join(want, "|") {
		t.Errorf("flags = %q, want %q", cfg.Index.CrystalDocsFlags, want)
	}
	if cfg.Index.Binary != "crystal" || cfg.Render.Language != "crystal" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if !cfg.Render.ShowSourceLinks || !cfg.Render.DeduplicateTOC {
		t.Errorf("boolean defaults not applied: %+v", cfg.Render)
	}
	if !cfg.Collect.NestedTypes {
		t.Error("nested_types from file not applied")
	}
	if got := cfg.Collect.FileFilters.String(); got != "[src/, !ext/]" {
		t.Errorf("file filters = %s", got)
	}
	if cfg.Inventory.BaseURL != "https://example.org/api/index.json" {
		t.Errorf("base url = %q", cfg.Inventory.BaseURL)
	}

	opts := cfg.RenderOptions()
	if opts.HeadingLevel != 4 || !opts.Collect.NestedTypes || opts.Collect.Filters.String() != cfg.Collect.FileFilters.String() {
		t.Errorf("render options = %+v", opts)
	}
}
