// Package highlight renders source code as HTML with chroma.
package highlight

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Func highlights src in lang; an empty lang selects the default language.
type Func func(src, lang string) (string, error)

// Options configures a Highlighter.
type Options struct {
	// Style names a chroma style. Only used for inline styles and CSS output.
	Style string
	// Inline emits style attributes instead of CSS classes.
	Inline bool
}

// Highlighter produces HTML for code blocks, with a default language bound
// at construction.
type Highlighter struct {
	lang      string
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

func New(defaultLang string, opts Options) *Highlighter {
	style := styles.Get(opts.Style)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{
		lang:      defaultLang,
		style:     style,
		formatter: chromahtml.New(chromahtml.WithClasses(!opts.Inline)),
	}
}

// DefaultLanguage is the language used when a block names none.
func (h *Highlighter) DefaultLanguage() string { return h.lang }

func (h *Highlighter) lexer(lang string) chroma.Lexer {
	if lang == "" {
		lang = h.lang
	}
	l := lexers.Get(lang)
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

// Highlight renders src as a <pre> block. Unknown languages are rendered as
// plain text.
func (h *Highlighter) Highlight(src, lang string) (string, error) {
	it, err := h.lexer(lang).Tokenise(nil, src)
	if err != nil {
		return "", fmt.Errorf("tokenising %s code: %w", lang, err)
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, it); err != nil {
		return "", fmt.Errorf("formatting code: %w", err)
	}
	return b.String(), nil
}

// Func returns Highlight as a plain function value.
func (h *Highlighter) Func() Func { return h.Highlight }

// WriteCSS writes the stylesheet for class-based output.
func (h *Highlighter) WriteCSS(w io.Writer) error {
	return h.formatter.WriteCSS(w, h.style)
}
