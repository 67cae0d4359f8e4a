// Package markdown converts documentation comments to HTML with the
// extension points crystal docs need: cross-reference spans on inline code,
// highlighted code blocks, shifted headings and escaped raw HTML.
package markdown

import (
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmhtml "github.com/gomarkdown/markdown/html"
	gmparser "github.com/gomarkdown/markdown/parser"
	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/jcdickinson/crystalref/internal/highlight"
)

// Resolver finds the item an identifier refers to from within scope.
type Resolver interface {
	Lookup(identifier string, scope *docs.Item) (*docs.Item, error)
}

// Renderer converts markdown. It is safe for concurrent use.
type Renderer struct {
	resolver  Resolver
	highlight highlight.Func
	dedupTOC  bool
}

type Option func(*Renderer)

// WithDeduplicatedTOC drops repeated consecutive entries from the table of
// contents, as produced by overloaded methods.
func WithDeduplicatedTOC(on bool) Option {
	return func(r *Renderer) { r.dedupTOC = on }
}

// New returns a Renderer. A nil highlighter renders code blocks unhighlighted.
func New(resolver Resolver, hl highlight.Func, opts ...Option) *Renderer {
	r := &Renderer{resolver: resolver, highlight: hl}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Document is converted markdown.
type Document struct {
	HTML string
	TOC  []TOCEntry
}

// Convert renders text as HTML. Inline code naming an item visible from scope
// is marked as an optional cross-reference. Headings are shifted down by
// headingLevel.
func (r *Renderer) Convert(text string, scope *docs.Item, headingLevel int) Document {
	doc := gm.Parse([]byte(text), gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.AutoHeadingIDs,
	))

	shiftHeadings(doc, headingLevel)
	toc := collectTOC(doc)
	if r.dedupTOC {
		toc = DeduplicateTOC(toc)
	}

	renderer := gmhtml.NewRenderer(gmhtml.RendererOptions{
		Flags: gmhtml.FlagsNone,
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			return r.renderNode(w, node, entering, scope)
		},
	})
	return Document{HTML: string(gm.Render(doc, renderer)), TOC: toc}
}

func (r *Renderer) renderNode(w io.Writer, node ast.Node, entering bool, scope *docs.Item) (ast.WalkStatus, bool) {
	switch n := node.(type) {
	case *ast.HTMLSpan:
		io.WriteString(w, html.EscapeString(string(n.Literal)))
		return ast.GoToNext, true
	case *ast.HTMLBlock:
		io.WriteString(w, "<p>"+html.EscapeString(strings.TrimSpace(string(n.Literal)))+"</p>\n")
		return ast.GoToNext, true
	case *ast.Code:
		r.renderCode(w, n, scope)
		return ast.GoToNext, true
	case *ast.CodeBlock:
		r.renderCodeBlock(w, n)
		return ast.GoToNext, true
	}
	return ast.GoToNext, false
}

func (r *Renderer) renderCode(w io.Writer, n *ast.Code, scope *docs.Item) {
	code := "<code>" + html.EscapeString(string(n.Literal)) + "</code>"
	if r.resolver == nil || insideLink(n) {
		io.WriteString(w, code)
		return
	}
	it, err := r.resolver.Lookup(string(n.Literal), scope)
	if err != nil {
		io.WriteString(w, code)
		return
	}
	fmt.Fprintf(w, `<span data-autorefs-optional="%s">%s</span>`, html.EscapeString(it.AbsID()), code)
}

func insideLink(n ast.Node) bool {
	for p := n.GetParent(); p != nil; p = p.GetParent() {
		if _, ok := p.(*ast.Link); ok {
			return true
		}
	}
	return false
}

func (r *Renderer) renderCodeBlock(w io.Writer, n *ast.CodeBlock) {
	lang, _, _ := strings.Cut(strings.TrimSpace(string(n.Info)), " ")
	if r.highlight != nil {
		out, err := r.highlight(string(n.Literal), lang)
		if err == nil {
			io.WriteString(w, out)
			return
		}
		slog.Debug("highlighting failed", "lang", lang, "error", err)
	}
	io.WriteString(w, "<pre><code>"+html.EscapeString(string(n.Literal))+"</code></pre>\n")
}
