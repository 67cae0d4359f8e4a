package cmd

import (
	"context"
	"log"
	"time"

	"github.com/jcdickinson/crystalref/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as MCP server on stdio",
	Args:  cobra.NoArgs,
	Run:   runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	server := mcp.NewServer(loadTree, mcp.Options{
		Render:    cfg.RenderOptions(),
		Highlight: newHighlighter().Func(),
		BaseURL:   cfg.Inventory.BaseURL,
	})

	errCh := make(chan error)
	go func() { errCh <- server.Run() }()

	if err := waitForSignal(errCh); err != nil {
		log.Fatalf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
