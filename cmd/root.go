package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcdickinson/crystalref/internal/config"
	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/jcdickinson/crystalref/internal/highlight"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	debug bool
	cfg   *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "crystalref",
	Short:             "Resolve, render and index Crystal API documentation",
	PersistentPreRunE: setup,
	SilenceUsage:      true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose log output")
	rootCmd.PersistentFlags().String("index", "", `crystal docs JSON file ("-" for stdin); runs crystal docs when empty`)
	viper.BindPFlag("index.path", rootCmd.PersistentFlags().Lookup("index"))

	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(linkifyCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(clearCacheCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg = c
	return nil
}

// loadTree reads the configured index file, or runs crystal docs in the
// working directory with its output cached.
func loadTree(ctx context.Context) (*docs.Tree, error) {
	if cfg.Index.Path != "" {
		slog.Debug("loading index", "path", cfg.Index.Path)
		return docs.Load(ctx, docs.FileSource{Path: cfg.Index.Path, Stdin: os.Stdin})
	}
	slog.Debug("generating index", "binary", cfg.Index.Binary, "flags", cfg.Index.CrystalDocsFlags)
	return docs.LoadCached(ctx, docs.CommandSource{
		Binary: cfg.Index.Binary,
		Flags:  cfg.Index.CrystalDocsFlags,
	}, config.JSONCacheDir())
}

func mustLoadTree(ctx context.Context) *docs.Tree {
	tree, err := loadTree(ctx)
	if err != nil {
		log.Fatalf("failed to load documentation: %v", err)
	}
	return tree
}

func newHighlighter() *highlight.Highlighter {
	return highlight.New(cfg.Render.Language, highlight.Options{Style: cfg.Render.Style})
}

func waitForSignal(errCh chan error) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		slog.Info("received signal", "signal", sig)
		return nil
	case err := <-errCh:
		return err
	}
}
