package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jcdickinson/crystalref/internal/codehtml"
	"github.com/jcdickinson/crystalref/internal/render"
	"github.com/spf13/cobra"
)

var linkifyCmd = &cobra.Command{
	Use:   "linkify [crystal-html]",
	Short: "Highlight a crystal docs code fragment, keeping its type links",
	Long: `Strip the markup from a fragment of crystal docs HTML such as args_html,
highlight the text, and carry every link over to the highlighted output as a
cross-reference. The fragment is read from stdin when no argument is given.`,
	Example: `  crystalref linkify '(x : <a href="Int32.html">Int32</a>)'
  crystalref linkify --title Foo::Bar.new < fragment.html`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLinkify,
}

var linkifyTitle string

func init() {
	linkifyCmd.Flags().StringVar(&linkifyTitle, "title", "", "title shown above the code")
}

func runLinkify(cmd *cobra.Command, args []string) {
	var fragment string
	if len(args) == 1 {
		fragment = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("reading stdin: %v", err)
		}
		fragment = string(data)
	}

	tree := mustLoadTree(context.Background())
	r := render.New(tree, newHighlighter().Func(), nil, cfg.RenderOptions())

	out, err := r.CodeHighlight(codehtml.Extract(fragment), linkifyTitle)
	if err != nil {
		log.Fatalf("highlighting failed: %v", err)
	}
	fmt.Println(out)
}
