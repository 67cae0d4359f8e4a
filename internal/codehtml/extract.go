// Package codehtml merges the links of generator-produced code HTML into
// independently syntax-highlighted HTML of the same text.
package codehtml

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Span marks the characters [Start, End) of a text as a link to Target.
// Offsets count runes of the text with all markup removed.
type Span struct {
	Start  int
	End    int
	Target string
}

// TextWithLinks is plain text together with the link spans found in it.
type TextWithLinks struct {
	Text  string
	Spans []Span
}

func (t TextWithLinks) String() string { return t.Text }

// GoString makes test failures readable.
func (t TextWithLinks) GoString() string {
	return fmt.Sprintf("TextWithLinks(%q, %v)", t.Text, t.Spans)
}

// HasLinks reports whether the text carries any spans.
func (t TextWithLinks) HasLinks() bool { return len(t.Spans) > 0 }

// Prefix returns the text with s prepended and the spans shifted to match.
func (t TextWithLinks) Prefix(s string) TextWithLinks {
	n := utf8.RuneCountInString(s)
	spans := make([]Span, len(t.Spans))
	for i, sp := range t.Spans {
		spans[i] = Span{Start: sp.Start + n, End: sp.End + n, Target: sp.Target}
	}
	return TextWithLinks{Text: s + t.Text, Spans: spans}
}

// Extract strips the markup from a fragment of link-annotated code HTML,
// recording where each <a href> begins and ends in the remaining text.
// Entities are decoded. Anchors without an href produce no span.
func Extract(fragment string) TextWithLinks {
	type open struct {
		start  int
		target string
	}
	var (
		text  strings.Builder
		n     int
		stack []open
		spans []Span
	)
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
			return TextWithLinks{Text: text.String(), Spans: spans}
		case html.TextToken:
			s := string(z.Text())
			text.WriteString(s)
			n += utf8.RuneCountInString(s)
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" {
				continue
			}
			var target string
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = z.TagAttr()
				if string(k) == "href" {
					target = LinkToPath(string(v))
				}
			}
			stack = append(stack, open{start: n, target: target})
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) != "a" || len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.target != "" {
				spans = append(spans, Span{Start: top.start, End: n, Target: top.target})
			}
		}
	}
}

// LinkToPath turns a relative page href into an identifier:
// "../Foo/Bar.html" becomes "Foo::Bar".
func LinkToPath(href string) string {
	href = strings.TrimSuffix(href, ".html")
	for strings.HasPrefix(href, "../") {
		href = href[3:]
	}
	return strings.ReplaceAll(href, "/", "::")
}
