// Package render turns documented items into HTML sections: signatures are
// highlighted and cross-linked, docs go through markdown, and members are
// grouped under their category headings.
package render

import (
	"embed"
	"fmt"
	"html"
	"html/template"
	"strings"
	"unicode"

	"github.com/jcdickinson/crystalref/internal/codehtml"
	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/jcdickinson/crystalref/internal/highlight"
	"github.com/jcdickinson/crystalref/internal/markdown"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options controls page rendering.
type Options struct {
	// HeadingLevel is the level of the entity heading, 1 to 6.
	HeadingLevel    int
	ShowSourceLinks bool
	DeduplicateTOC  bool
	Collect         docs.CollectOptions
}

// DefaultOptions mirrors the defaults of the configuration file.
func DefaultOptions() Options {
	return Options{HeadingLevel: 2, ShowSourceLinks: true, DeduplicateTOC: true}
}

// Renderer renders items of one tree. It is safe for concurrent use.
type Renderer struct {
	tree *docs.Tree
	hl   highlight.Func
	md   *markdown.Renderer
	opts Options
	tmpl *template.Template
}

// New returns a Renderer. A nil hl renders code unhighlighted; a nil md gets a
// markdown renderer resolving against tree.
func New(tree *docs.Tree, hl highlight.Func, md *markdown.Renderer, opts Options) *Renderer {
	if md == nil {
		md = markdown.New(tree, hl, markdown.WithDeduplicatedTOC(opts.DeduplicateTOC))
	}
	if opts.HeadingLevel < 1 {
		opts.HeadingLevel = 1
	}
	tmpl := template.Must(template.New("page").
		Funcs(template.FuncMap{"heading": heading}).
		ParseFS(templateFS, "templates/*.html"))
	return &Renderer{tree: tree, hl: hl, md: md, opts: opts, tmpl: tmpl}
}

func (r *Renderer) Tree() *docs.Tree { return r.tree }

func (r *Renderer) Options() Options { return r.opts }

// Reference wraps inner, which must already be HTML, in an optional
// cross-reference to the item path names. Paths with generic arguments and
// paths that do not resolve from the root leave inner as it is.
func (r *Renderer) Reference(path, inner string) string {
	if strings.Contains(path, "(") {
		return inner
	}
	it, err := r.tree.Lookup(path, nil)
	if err != nil {
		return inner
	}
	return fmt.Sprintf(`<span data-autorefs-optional="%s">%s</span>`, html.EscapeString(it.AbsID()), inner)
}

// CodeHighlight highlights code, keeps its leading indentation, carries its
// links over to the highlighted markup and prefixes an optional title.
func (r *Renderer) CodeHighlight(code codehtml.TextWithLinks, title string) (string, error) {
	stripped := strings.TrimLeftFunc(code.Text, unicode.IsSpace)
	indent := code.Text[:len(code.Text)-len(stripped)]

	// The text gets its own element so links open inside <code>, as they do
	// in highlighted output.
	out := "<pre><code><span>" + html.EscapeString(stripped) + "</span></code></pre>"
	if r.hl != nil {
		var err error
		if out, err = r.hl(stripped, ""); err != nil {
			return "", fmt.Errorf("highlighting %q: %w", code.Text, err)
		}
	}
	if indent != "" {
		out = injectAfterFirstTag(out, html.EscapeString(indent))
	}
	if code.HasLinks() {
		out = codehtml.Linkify(out, code.Spans, r.Reference)
	}
	if title != "" {
		out = injectAfterFirstTag(out, `<span class="doc-title">`+html.EscapeString(title)+`</span>`)
	}
	return out, nil
}

func injectAfterFirstTag(s, inject string) string {
	i := strings.IndexByte(s, '>')
	if i < 0 {
		return inject + s
	}
	return s[:i+1] + inject + s[i+1:]
}

// Page is one rendered item.
type Page struct {
	AbsID string
	Path  string
	HTML  string
	TOC   []markdown.TOCEntry
}

// Render resolves identifier from scope and renders the result.
func (r *Renderer) Render(identifier string, scope *docs.Item) (Page, error) {
	v, err := r.tree.Collect(identifier, scope, r.opts.Collect)
	if err != nil {
		return Page{}, err
	}
	return r.Page(v)
}

// Page renders the section of v, including its filtered members.
func (r *Renderer) Page(v *docs.View) (Page, error) {
	sec, err := r.section(v, r.opts.HeadingLevel)
	if err != nil {
		return Page{}, fmt.Errorf("rendering %s: %w", v.AbsID(), err)
	}
	var b strings.Builder
	if err := r.tmpl.ExecuteTemplate(&b, "section", sec); err != nil {
		return Page{}, fmt.Errorf("rendering %s: %w", v.AbsID(), err)
	}
	toc := []markdown.TOCEntry{sec.toc()}
	if r.opts.DeduplicateTOC {
		toc = markdown.DeduplicateTOC(toc)
	}
	return Page{AbsID: v.AbsID(), Path: v.Path(), HTML: b.String(), TOC: toc}, nil
}

func clampLevel(l int) int {
	return min(max(l, 1), 6)
}

func heading(level int, id string, inner template.HTML) template.HTML {
	level = clampLevel(level)
	attrs := ` class="doc doc-heading"`
	if id != "" {
		attrs = fmt.Sprintf(` id="%s"`, html.EscapeString(id)) + attrs
	}
	return template.HTML(fmt.Sprintf("<h%d%s>%s</h%d>", level, attrs, inner, level))
}
