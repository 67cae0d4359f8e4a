package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/spf13/cobra"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "List every identifier with the URL it is documented at",
	Example: `  crystalref inventory
  crystalref inventory --base-url https://example.org/api/index.json`,
	Args: cobra.NoArgs,
	Run:  runInventory,
}

var (
	inventoryBaseURL string
	inventoryJSON    bool
)

func init() {
	inventoryCmd.Flags().StringVar(&inventoryBaseURL, "base-url", "", "URL the page paths are joined onto (default inventory.base_url)")
	inventoryCmd.Flags().BoolVar(&inventoryJSON, "json", false, "print JSON")
}

func runInventory(cmd *cobra.Command, args []string) {
	tree := mustLoadTree(context.Background())

	base := inventoryBaseURL
	if base == "" {
		base = cfg.Inventory.BaseURL
	}
	objs := docs.ListObjectURLs(tree, base)

	if inventoryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(objs); err != nil {
			log.Fatalf("encoding inventory: %v", err)
		}
		return
	}
	for _, o := range objs {
		fmt.Printf("%s\t%s\n", o.AbsID, o.Path)
	}
}
