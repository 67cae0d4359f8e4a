package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/jcdickinson/crystalref/internal/render"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type IndexConfig struct {
	// Path is a JSON index file ("-" for stdin). Empty runs the generator.
	Path             string   `mapstructure:"path"`
	Binary           string   `mapstructure:"binary"`
	CrystalDocsFlags []string `mapstructure:"crystal_docs_flags"`
}

type CollectConfig struct {
	NestedTypes bool            `mapstructure:"nested_types"`
	FileFilters docs.FilterSpec `mapstructure:"file_filters"`
}

type RenderConfig struct {
	HeadingLevel    int    `mapstructure:"heading_level"`
	ShowSourceLinks bool   `mapstructure:"show_source_links"`
	DeduplicateTOC  bool   `mapstructure:"deduplicate_toc"`
	Language        string `mapstructure:"language"`
	Style           string `mapstructure:"style"`
	Workers         int    `mapstructure:"workers"`
}

type InventoryConfig struct {
	Project string `mapstructure:"project"`
	BaseURL string `mapstructure:"base_url"`
}

type Config struct {
	Index     IndexConfig     `mapstructure:"index"`
	Collect   CollectConfig   `mapstructure:"collect"`
	Render    RenderConfig    `mapstructure:"render"`
	Inventory InventoryConfig `mapstructure:"inventory"`
}

// CollectOptions returns the view options for lookups.
func (c *Config) CollectOptions() docs.CollectOptions {
	return docs.CollectOptions{NestedTypes: c.Collect.NestedTypes, Filters: c.Collect.FileFilters}
}

// RenderOptions returns the page options for the renderer.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		HeadingLevel:    c.Render.HeadingLevel,
		ShowSourceLinks: c.Render.ShowSourceLinks,
		DeduplicateTOC:  c.Render.DeduplicateTOC,
		Collect:         c.CollectOptions(),
	}
}

// cacheBase returns the base cache directory for crystalref.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/crystalref as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "crystalref")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "crystalref")
	}
	return filepath.Join(os.TempDir(), "crystalref")
}

// DBPath returns the path to the SQLite inventory database.
func DBPath() string {
	return filepath.Join(cacheBase(), "inventory.db")
}

// CASDir returns the path to the rendered page store.
func CASDir() string {
	return filepath.Join(cacheBase(), "cas")
}

// JSONCacheDir returns the path to the cached generator output.
func JSONCacheDir() string {
	return filepath.Join(cacheBase(), "json")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "crystalref"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "crystalref"))
	}

	viper.SetDefault("index.path", "")
	viper.SetDefault("index.binary", "crystal")
	viper.SetDefault("index.crystal_docs_flags", []string{})
	viper.SetDefault("collect.nested_types", false)
	viper.SetDefault("collect.file_filters", true)
	viper.SetDefault("render.heading_level", 2)
	viper.SetDefault("render.show_source_links", true)
	viper.SetDefault("render.deduplicate_toc", true)
	viper.SetDefault("render.language", "crystal")
	viper.SetDefault("render.style", "github")
	viper.SetDefault("render.workers", 0)
	viper.SetDefault("inventory.project", "")
	viper.SetDefault("inventory.base_url", "")

	viper.SetEnvPrefix("CRYSTALREF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// filterSpecHookFunc decodes file_filters from a bool, a list of patterns, or
// (from the environment) "true", "false" or a comma-separated list.
func filterSpecHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(docs.FilterSpec{}) {
			return data, nil
		}
		if s, ok := data.(string); ok {
			if b, err := strconv.ParseBool(s); err == nil {
				data = b
			} else {
				data = strings.Split(s, ",")
			}
		}
		return docs.ParseFilterSpec(data)
	}
}

func decode(settings map[string]interface{}) (*Config, error) {
	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			filterSpecHookFunc(),
			mapstructure.StringToSliceHookFunc(" "),
		),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if l := config.Render.HeadingLevel; l < 1 || l > 6 {
		return nil, fmt.Errorf("render.heading_level must be between 1 and 6, got %d", l)
	}
	return &config, nil
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}
	return decode(viper.AllSettings())
}
