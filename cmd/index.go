package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jcdickinson/crystalref/internal/cas"
	"github.com/jcdickinson/crystalref/internal/config"
	"github.com/jcdickinson/crystalref/internal/db"
	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/jcdickinson/crystalref/internal/render"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Render every page and record the project's inventory",
	Long: `Render all pages of the project into the local page store and record every
identifier with its URL in the inventory database, so that "get" can serve
them and other projects can link to them.`,
	Example: `  crystalref index
  crystalref index --project my_shard --base-url https://example.org/api/`,
	Args: cobra.NoArgs,
	Run:  runIndex,
}

var (
	indexProject string
	indexBaseURL string
)

func init() {
	indexCmd.Flags().StringVar(&indexProject, "project", "", "project name (default inventory.project, then the directory name)")
	indexCmd.Flags().StringVar(&indexBaseURL, "base-url", "", "URL the page paths are joined onto (default inventory.base_url)")
}

func runIndex(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	tree := mustLoadTree(ctx)

	project := firstNonEmpty(indexProject, cfg.Inventory.Project)
	if project == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("determining project name: %v", err)
		}
		project = filepath.Base(wd)
	}
	baseURL := firstNonEmpty(indexBaseURL, cfg.Inventory.BaseURL)

	site := &render.Site{
		Renderer: render.New(tree, newHighlighter().Func(), nil, cfg.RenderOptions()),
		Workers:  cfg.Render.Workers,
	}
	pages, err := site.RenderAll(ctx)
	if err != nil {
		log.Fatalf("rendering failed: %v", err)
	}

	store := cas.Default()
	hashByPath := make(map[string]string, len(pages))
	for _, p := range pages {
		hash, err := store.Write(p.HTML)
		if err != nil {
			log.Fatalf("storing %s: %v", p.AbsID, err)
		}
		hashByPath[p.Path] = hash
	}

	objs, err := inventoryObjects(tree, baseURL, hashByPath)
	if err != nil {
		log.Fatalf("building inventory: %v", err)
	}

	database, err := db.New(config.DBPath())
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer database.Close()

	p, err := database.UpsertProject(project, baseURL)
	if err != nil {
		log.Fatalf("recording project: %v", err)
	}
	if err := database.ReplaceObjects(p.ID, objs); err != nil {
		log.Fatalf("recording inventory: %v", err)
	}

	fmt.Printf("%s: %d pages, %d objects indexed\n", project, len(pages), len(objs))
}

// inventoryObjects pairs every object with its URL and the hash of the page
// it appears on.
func inventoryObjects(tree *docs.Tree, baseURL string, hashByPath map[string]string) ([]db.Object, error) {
	local := docs.ListObjects(tree)
	urls := docs.ListObjectURLs(tree, baseURL)
	if len(local) != len(urls) {
		return nil, fmt.Errorf("inventory changed while listing: %d vs %d objects", len(local), len(urls))
	}

	objs := make([]db.Object, len(local))
	for i, o := range local {
		page, _, _ := strings.Cut(o.Path, "#")
		objs[i] = db.Object{
			AbsID:       o.AbsID,
			URL:         urls[i].Path,
			Kind:        string(o.Kind),
			ContentHash: hashByPath[page],
		}
	}
	return objs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
