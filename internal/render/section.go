package render

import (
	"html"
	"html/template"

	"github.com/jcdickinson/crystalref/internal/codehtml"
	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/jcdickinson/crystalref/internal/markdown"
)

// memberOrder is the order groups appear in on a page.
var memberOrder = []struct {
	cat   docs.Category
	title string
}{
	{docs.Constants, "Constants"},
	{docs.Constructors, "Constructors"},
	{docs.ClassMethods, "Class methods"},
	{docs.Macros, "Macros"},
	{docs.InstanceMethods, "Instance methods"},
	{docs.Types, "Types"},
}

type section struct {
	Level     int
	ID        string
	Kind      docs.Kind
	Title     template.HTML
	Signature template.HTML
	Relations []relation
	Doc       template.HTML
	Sources   []docs.Location
	Groups    []group

	name   string
	docTOC []markdown.TOCEntry
}

type relation struct {
	Label string
	Refs  []template.HTML
}

type group struct {
	Key     string
	Level   int
	Title   template.HTML
	Members []section
}

func (r *Renderer) section(v *docs.View, level int) (section, error) {
	it := v.Item
	name := it.ShortName()
	switch {
	case it.IsRoot():
		name = it.Name()
	case it.Kind().IsType():
		name = it.FullName()
	}
	sec := section{
		Level: clampLevel(level),
		ID:    it.AbsID(),
		Kind:  it.Kind(),
		Title: template.HTML("<code>" + html.EscapeString(name) + "</code>"),
		name:  name,
	}

	if sig, ok := signature(it); ok {
		out, err := r.CodeHighlight(sig, "")
		if err != nil {
			return section{}, err
		}
		sec.Signature = template.HTML(out)
	}
	sec.Relations = r.relations(it)
	if it.Doc() != "" {
		doc := r.md.Convert(it.Doc(), it, sec.Level)
		sec.Doc = template.HTML(doc.HTML)
		sec.docTOC = doc.TOC
	}
	if r.opts.ShowSourceLinks {
		sec.Sources = it.Locations()
	}

	for _, g := range memberOrder {
		members := v.Members(g.cat)
		if len(members) == 0 {
			continue
		}
		grp := group{Key: g.cat.String(), Level: clampLevel(level + 1), Title: template.HTML(g.title)}
		for _, m := range members {
			ms, err := r.section(r.tree.View(m, v.Options()), level+2)
			if err != nil {
				return section{}, err
			}
			grp.Members = append(grp.Members, ms)
		}
		sec.Groups = append(sec.Groups, grp)
	}
	return sec, nil
}

func (s section) toc() markdown.TOCEntry {
	e := markdown.TOCEntry{Level: s.Level, ID: s.ID, Name: s.name}
	e.Children = append(e.Children, s.docTOC...)
	for _, g := range s.Groups {
		ge := markdown.TOCEntry{Level: g.Level, Name: string(g.Title)}
		for _, m := range g.Members {
			ge.Children = append(ge.Children, m.toc())
		}
		e.Children = append(e.Children, ge)
	}
	return e
}

// signature is the declaration line of an item, with links to the types
// it mentions.
func signature(it *docs.Item) (codehtml.TextWithLinks, bool) {
	kind := it.Kind()
	var prefix string
	if it.IsAbstract() {
		prefix = "abstract "
	}
	switch {
	case it.IsRoot():
		return codehtml.TextWithLinks{}, false
	case kind == docs.KindAlias:
		head := "alias " + it.FullName() + " = "
		if h := it.AliasedHTML(); h != "" {
			return codehtml.Extract(h).Prefix(head), true
		}
		target := it.Aliased()
		return codehtml.TextWithLinks{
			Text:  head + target,
			Spans: []codehtml.Span{{Start: runeLen(head), End: runeLen(head + target), Target: target}},
		}, true
	case kind.IsType():
		head := prefix + string(kind) + " " + it.FullName()
		sup, ok := it.Superclass()
		if !ok {
			return codehtml.TextWithLinks{Text: head}, true
		}
		head += " < "
		return codehtml.TextWithLinks{
			Text:  head + sup.FullName,
			Spans: []codehtml.Span{{Start: runeLen(head), End: runeLen(head + sup.FullName), Target: sup.AbsID()}},
		}, true
	case kind == docs.KindConstant:
		return codehtml.TextWithLinks{Text: it.Name() + " = " + it.Value()}, true
	case kind == docs.KindMacro:
		return codehtml.Extract(it.ArgsHTML()).Prefix(prefix + "macro " + it.Name()), true
	case kind == docs.KindClassMethod || kind == docs.KindConstructor:
		return codehtml.Extract(it.ArgsHTML()).Prefix(prefix + "def self." + it.Name()), true
	default:
		return codehtml.Extract(it.ArgsHTML()).Prefix(prefix + "def " + it.Name()), true
	}
}

func runeLen(s string) int { return len([]rune(s)) }

func (r *Renderer) relations(it *docs.Item) []relation {
	if !it.Kind().IsType() {
		return nil
	}
	var out []relation
	add := func(label string, refs []docs.TypeRef) {
		if len(refs) == 0 {
			return
		}
		rel := relation{Label: label}
		for _, ref := range refs {
			rel.Refs = append(rel.Refs, template.HTML(r.Reference(ref.AbsID(), "<code>"+html.EscapeString(ref.FullName)+"</code>")))
		}
		out = append(out, rel)
	}
	add("Included modules", it.IncludedModules())
	add("Extended modules", it.ExtendedModules())
	add("Direct known subclasses", it.Subclasses())
	add("Direct including types", it.IncludingTypes())
	return out
}
