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

var lookupCmd = &cobra.Command{
	Use:   "lookup <identifier>",
	Short: "Resolve an identifier and list its members",
	Example: `  crystalref lookup Foo::Bar
  crystalref lookup --scope Foo::Bar baz
  crystalref lookup --index docs.json 'Foo::Bar#baz(x,y)'`,
	Args: cobra.ExactArgs(1),
	Run:  runLookup,
}

var (
	lookupScope       string
	lookupNestedTypes bool
	lookupJSON        bool
)

func init() {
	lookupCmd.Flags().StringVar(&lookupScope, "scope", "", "abs id of the type to resolve from")
	lookupCmd.Flags().BoolVar(&lookupNestedTypes, "nested-types", false, "include nested types")
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "print JSON")
}

type lookupOutput struct {
	AbsID    string              `json:"abs_id"`
	Kind     docs.Kind           `json:"kind"`
	FullName string              `json:"full_name"`
	Path     string              `json:"path"`
	Anchor   string              `json:"anchor,omitempty"`
	Members  map[string][]string `json:"members,omitempty"`
}

func runLookup(cmd *cobra.Command, args []string) {
	tree := mustLoadTree(context.Background())

	var scope *docs.Item
	if lookupScope != "" {
		var ok bool
		if scope, ok = tree.ByAbsID(lookupScope); !ok {
			log.Fatalf("unknown scope %q", lookupScope)
		}
	}

	opts := cfg.CollectOptions()
	if cmd.Flags().Changed("nested-types") {
		opts.NestedTypes = lookupNestedTypes
	}
	v, err := tree.Collect(args[0], scope, opts)
	if err != nil {
		log.Fatalf("lookup failed: %v", err)
	}

	out := lookupOutput{
		AbsID:    v.AbsID(),
		Kind:     v.Kind(),
		FullName: v.FullName(),
		Path:     v.Path(),
		Anchor:   v.Anchor(),
		Members:  make(map[string][]string),
	}
	for _, c := range docs.Categories {
		for _, m := range v.Members(c) {
			out.Members[c.String()] = append(out.Members[c.String()], m.AbsID())
		}
	}

	if lookupJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("encoding result: %v", err)
		}
		return
	}

	fmt.Printf("%s (%s)\n", out.AbsID, out.Kind)
	if out.Anchor != "" {
		fmt.Printf("  %s#%s\n", out.Path, out.Anchor)
	} else {
		fmt.Printf("  %s\n", out.Path)
	}
	for _, c := range docs.Categories {
		ids := out.Members[c.String()]
		if len(ids) == 0 {
			continue
		}
		fmt.Printf("%s:\n", c)
		for _, id := range ids {
			fmt.Printf("  %s\n", id)
		}
	}
}
