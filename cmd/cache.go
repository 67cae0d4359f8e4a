package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jcdickinson/crystalref/internal/cas"
	"github.com/jcdickinson/crystalref/internal/config"
	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove cached crystal docs output and stored pages",
	Args:  cobra.NoArgs,
	Run:   runClearCache,
}

var clearCacheAll bool

func init() {
	clearCacheCmd.Flags().BoolVar(&clearCacheAll, "all", false, "also remove the inventory database")
}

func runClearCache(cmd *cobra.Command, args []string) {
	if err := (docs.IndexCache{Dir: config.JSONCacheDir()}).Clear(); err != nil {
		slog.Error("failed to clear index cache", "error", err)
		os.Exit(1)
	}
	if err := cas.Default().Clear(); err != nil {
		slog.Error("failed to clear page store", "error", err)
		os.Exit(1)
	}
	if clearCacheAll {
		if err := os.Remove(config.DBPath()); err != nil && !os.IsNotExist(err) {
			slog.Error("failed to remove database", "error", err)
			os.Exit(1)
		}
	}
	fmt.Println("cache cleared")
}
