package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jcdickinson/crystalref/internal/render"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <identifier>",
	Short: "Render the documentation of an identifier as HTML",
	Example: `  crystalref render Foo::Bar
  crystalref render --css 'Foo::Bar#baz' > baz.html`,
	Args: cobra.ExactArgs(1),
	Run:  runRender,
}

var renderCSS bool

func init() {
	renderCmd.Flags().BoolVar(&renderCSS, "css", false, "prepend the highlighting stylesheet")
}

func runRender(cmd *cobra.Command, args []string) {
	tree := mustLoadTree(context.Background())
	hl := newHighlighter()
	r := render.New(tree, hl.Func(), nil, cfg.RenderOptions())

	page, err := r.Render(args[0], nil)
	if err != nil {
		log.Fatalf("render failed: %v", err)
	}

	if renderCSS {
		fmt.Println("<style>")
		if err := hl.WriteCSS(os.Stdout); err != nil {
			log.Fatalf("writing stylesheet: %v", err)
		}
		fmt.Println("</style>")
	}
	fmt.Println(page.HTML)
}
