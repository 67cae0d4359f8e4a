package markdown

import (
	"strings"

	"github.com/gomarkdown/markdown/ast"
)

// shiftHeadings moves every heading down by shift levels, capped at h6.
func shiftHeadings(doc ast.Node, shift int) {
	if shift == 0 {
		return
	}
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if h, ok := node.(*ast.Heading); ok && entering {
			h.Level = min(max(h.Level+shift, 1), 6)
		}
		return ast.GoToNext
	})
}

// TOCEntry is one heading in a table of contents.
type TOCEntry struct {
	Level    int
	ID       string
	Name     string
	Children []TOCEntry
}

// collectTOC nests the document's headings by level.
func collectTOC(doc ast.Node) []TOCEntry {
	var flat []TOCEntry
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		h, ok := node.(*ast.Heading)
		if !ok || !entering {
			return ast.GoToNext
		}
		flat = append(flat, TOCEntry{Level: h.Level, ID: h.HeadingID, Name: nodeText(h)})
		return ast.SkipChildren
	})
	var toc []TOCEntry
	for i := 0; i < len(flat); {
		var part []TOCEntry
		part, i = nest(flat, i)
		toc = append(toc, part...)
	}
	return toc
}

// nest builds the entries starting at flat[i] that are deeper than their
// parent, returning them and the index of the first entry it did not consume.
func nest(flat []TOCEntry, i int) ([]TOCEntry, int) {
	var out []TOCEntry
	if i >= len(flat) {
		return nil, i
	}
	level := flat[i].Level
	for i < len(flat) && flat[i].Level >= level {
		if flat[i].Level > level && len(out) > 0 {
			var children []TOCEntry
			children, i = nest(flat, i)
			last := &out[len(out)-1]
			last.Children = append(last.Children, children...)
			continue
		}
		out = append(out, flat[i])
		i++
	}
	return out, i
}

func nodeText(n ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(n, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch t := node.(type) {
		case *ast.Text:
			b.Write(t.Literal)
		case *ast.Code:
			b.Write(t.Literal)
		}
		return ast.GoToNext
	})
	return b.String()
}

// DeduplicateTOC removes a leaf entry when the entry before it has the same
// name. Entries with children are kept and deduplicated recursively.
func DeduplicateTOC(toc []TOCEntry) []TOCEntry {
	out := make([]TOCEntry, 0, len(toc))
	for i, e := range toc {
		if len(e.Children) > 0 {
			e.Children = DeduplicateTOC(e.Children)
		} else if i > 0 && e.Name == toc[i-1].Name {
			continue
		}
		out = append(out, e)
	}
	return out
}
