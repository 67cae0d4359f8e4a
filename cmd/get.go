package cmd

import (
	"fmt"
	"log"

	"github.com/jcdickinson/crystalref/internal/cas"
	"github.com/jcdickinson/crystalref/internal/config"
	"github.com/jcdickinson/crystalref/internal/db"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <abs-id>",
	Short: "Read an indexed page by canonical identifier",
	Example: `  crystalref get Foo::Bar
  crystalref get --url 'Foo::Bar#baz(x,y)'`,
	Args: cobra.ExactArgs(1),
	Run:  runGet,
}

var getURL bool

func init() {
	getCmd.Flags().BoolVar(&getURL, "url", false, "print the URL instead of the page")
}

func runGet(cmd *cobra.Command, args []string) {
	database, err := db.New(config.DBPath())
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer database.Close()

	obj, err := database.FindObject(args[0])
	if err != nil {
		log.Fatalf("lookup failed: %v", err)
	}
	if obj == nil {
		log.Fatalf("%s is not indexed; run \"crystalref index\" first", args[0])
	}

	if getURL {
		fmt.Println(obj.URL)
		return
	}
	if obj.ContentHash == "" {
		log.Fatalf("%s has no stored page", obj.AbsID)
	}
	page, err := cas.Default().Read(obj.ContentHash)
	if err != nil {
		log.Fatalf("reading page: %v", err)
	}
	fmt.Println(page)
}
