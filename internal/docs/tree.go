package docs

import (
	"fmt"
	"html"
	"iter"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// ItemID addresses an item inside its Tree.
type ItemID int

// NoItem is the parent id of the root.
const NoItem ItemID = -1

// Tree is an immutable arena of documented items built once from the
// generator's output. Items refer to their parent by id, never by pointer.
type Tree struct {
	items   []*Item
	byAbsID map[string]ItemID

	viewsMu sync.Mutex
	views   map[viewKey]*View
}

// Item is a documentable entity: a type, constant or method. The Kind field
// decides which of the kind-specific accessors are meaningful.
type Item struct {
	tree   *Tree
	id     ItemID
	parent ItemID
	kind   Kind
	rec    *Record

	relID string
	absID string

	groups   [numCategories][]ItemID
	mapOnce  [numCategories]sync.Once
	mappings [numCategories]*Mapping
}

// NewTree builds the item tree rooted at the given program record.
func NewTree(root *Record) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("building tree: missing program record")
	}
	t := &Tree{
		byAbsID: make(map[string]ItemID),
		views:   make(map[viewKey]*View),
	}
	kind := Kind(root.Kind)
	if kind == "" {
		kind = KindModule
	}
	if !kind.IsType() {
		return nil, fmt.Errorf("building tree: root has non-type kind %q", root.Kind)
	}
	if _, err := t.add(root, NoItem, kind); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) add(rec *Record, parent ItemID, kind Kind) (ItemID, error) {
	it := &Item{
		tree:   t,
		id:     ItemID(len(t.items)),
		parent: parent,
		kind:   kind,
		rec:    rec,
	}
	t.items = append(t.items, it)
	it.relID, it.absID = t.identify(it)

	if prev, dup := t.byAbsID[it.absID]; dup {
		slog.Debug("duplicate abs id", "id", it.absID, "first", prev, "second", it.id)
	} else {
		t.byAbsID[it.absID] = it.id
	}

	if !kind.IsType() {
		return it.id, nil
	}
	for _, c := range Categories {
		for _, child := range rec.group(c) {
			if child == nil {
				continue
			}
			childKind := c.memberKind()
			if c == Types {
				childKind = Kind(child.Kind)
				if !childKind.IsType() {
					return 0, fmt.Errorf("building tree: %s has unknown type kind %q", child.FullName, child.Kind)
				}
			}
			id, err := t.add(child, it.id, childKind)
			if err != nil {
				return 0, err
			}
			it.groups[c] = append(it.groups[c], id)
		}
	}
	return it.id, nil
}

func (t *Tree) identify(it *Item) (rel, abs string) {
	rec := it.rec
	switch {
	case it.kind.IsType():
		// The root's full name is always empty.
		if it.parent == NoItem {
			return stripGeneric(rec.Name), ""
		}
		return stripGeneric(rec.Name), stripGeneric(rec.FullName)
	case it.kind.IsMethod():
		rel = methodRelID(rec.Name, rec.args())
	default:
		rel = rec.Name
	}
	owner := t.items[it.parent].absID
	if owner == "" && it.kind == KindConstant {
		return rel, rel
	}
	return rel, owner + it.kind.idSeparator() + rel
}

func methodRelID(name string, a ArgList) string {
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i] = arg.ExternalName
	}
	if a.SplatIndex != nil && *a.SplatIndex >= 0 && *a.SplatIndex < len(args) {
		args[*a.SplatIndex] = "*" + args[*a.SplatIndex]
	}
	if a.DoubleSplat != nil {
		args = append(args, "**"+a.DoubleSplat.ExternalName)
	}
	if a.BlockArg != nil {
		args = append(args, "&")
	}
	return name + "(" + strings.Join(args, ",") + ")"
}

// Root returns the top-level namespace.
func (t *Tree) Root() *Item { return t.items[0] }

// Item returns the item with the given id, or nil.
func (t *Tree) Item(id ItemID) *Item {
	if id < 0 || int(id) >= len(t.items) {
		return nil
	}
	return t.items[id]
}

// Len returns the number of items in the tree, the root included.
func (t *Tree) Len() int { return len(t.items) }

// All iterates every item in construction (depth-first) order.
func (t *Tree) All() iter.Seq[*Item] {
	return func(yield func(*Item) bool) {
		for _, it := range t.items {
			if !yield(it) {
				return
			}
		}
	}
}

// ByAbsID finds an item by its canonical identifier without any fallback.
func (t *Tree) ByAbsID(absID string) (*Item, bool) {
	id, ok := t.byAbsID[absID]
	if !ok {
		return nil, false
	}
	return t.items[id], true
}

func (it *Item) ID() ItemID       { return it.id }
func (it *Item) Kind() Kind       { return it.kind }
func (it *Item) Tree() *Tree      { return it.tree }
func (it *Item) Record() *Record  { return it.rec }
func (it *Item) IsRoot() bool     { return it.parent == NoItem }
func (it *Item) Root() *Item      { return it.tree.Root() }
func (it *Item) Name() string     { return it.rec.Name }
func (it *Item) Doc() string      { return it.rec.Doc }
func (it *Item) Summary() string  { return it.rec.Summary }
func (it *Item) IsAbstract() bool { return it.rec.Abstract }

// RelID is the identifier relative to the parent, e.g. "Foo" or "baz(x,y)".
func (it *Item) RelID() string { return it.relID }

// AbsID is the canonical identifier, e.g. "Foo::Bar" or "Foo::Bar#baz(x,y)".
// It is also used as the HTML id of the item.
func (it *Item) AbsID() string { return it.absID }

// FullName is the name including generic parameters for types ("Foo::Bar(T)").
func (it *Item) FullName() string {
	if it.kind.IsType() {
		return it.rec.FullName
	}
	owner := it.Parent().FullName()
	if owner == "" {
		return it.rec.Name
	}
	return owner + it.kind.idSeparator() + it.rec.Name
}

// ShortName is the name prefixed with the method separator a reader would type,
// e.g. "#bar" or ".baz". Macros and non-methods have no prefix.
func (it *Item) ShortName() string {
	switch it.kind {
	case KindInstanceMethod, KindClassMethod, KindConstructor:
		return it.kind.idSeparator() + it.rec.Name
	}
	return it.rec.Name
}

// Parent returns the enclosing namespace, or nil for the root.
func (it *Item) Parent() *Item {
	if it.parent == NoItem {
		return nil
	}
	return it.tree.items[it.parent]
}

// Group returns the members of one child group in source order.
func (it *Item) Group(c Category) []*Item {
	if c < 0 || c >= numCategories {
		return nil
	}
	ids := it.groups[c]
	out := make([]*Item, len(ids))
	for i, id := range ids {
		out[i] = it.tree.items[id]
	}
	return out
}

// Mapping returns the lookup index of one child group, building it on first use.
func (it *Item) Mapping(c Category) *Mapping {
	if c < 0 || c >= numCategories {
		return emptyMapping
	}
	it.mapOnce[c].Do(func() {
		it.mappings[c] = NewMapping(it.Group(c))
	})
	return it.mappings[c]
}

// WalkTypes iterates all types under this one (excluding itself) depth-first.
func (it *Item) WalkTypes() iter.Seq[*Item] {
	return func(yield func(*Item) bool) {
		it.walkTypes(yield)
	}
}

func (it *Item) walkTypes(yield func(*Item) bool) bool {
	for _, typ := range it.Group(Types) {
		if !yield(typ) || !typ.walkTypes(yield) {
			return false
		}
	}
	return true
}

// Value is the source text of a constant's value.
func (it *Item) Value() string { return it.rec.Value }

// Aliased is the plain identifier an alias points to, e.g. "Array(String)".
// The HTML form wins when the generator emitted both.
func (it *Item) Aliased() string {
	if it.rec.AliasedHTML != "" {
		return stripTags(it.rec.AliasedHTML)
	}
	return it.rec.Aliased
}

// AliasedHTML is the alias target with links to other types, when the
// generator produced it.
func (it *Item) AliasedHTML() string { return it.rec.AliasedHTML }

var tagRe = regexp.MustCompile(`<[\w/].*?>`)

func stripTags(s string) string {
	return html.UnescapeString(tagRe.ReplaceAllString(s, ""))
}

// ArgsString is the plain-text rendering of a method's parameter list.
func (it *Item) ArgsString() string {
	return stripTags(it.ArgsHTML())
}

// ArgsHTML is the parameter list with embedded type links. Older generators
// put the links straight into args_string.
func (it *Item) ArgsHTML() string {
	if it.rec.ArgsHTML != "" {
		return it.rec.ArgsHTML
	}
	return it.rec.ArgsString
}

// Path is the page path of a type, e.g. "Foo/Bar.html". Members report the
// page of their owner.
func (it *Item) Path() string {
	if it.kind.IsType() {
		return it.rec.Path
	}
	return it.Parent().Path()
}

// Anchor is the fragment under which a member appears on its owner's page.
func (it *Item) Anchor() string {
	switch {
	case it.kind.IsType():
		return ""
	case it.kind == KindConstant:
		return it.rec.Name
	case it.rec.HTMLID != "":
		return it.rec.HTMLID
	}
	return it.relID
}

// Locations lists where the item is defined.
func (it *Item) Locations() []Location {
	if it.kind.IsType() {
		return it.rec.Locations
	}
	if it.rec.Location != nil {
		return []Location{*it.rec.Location}
	}
	if l, ok := parseSourceLink(it.rec.SourceLink); ok {
		return []Location{l}
	}
	return nil
}

var sourceLinkRe = regexp.MustCompile(`^.+?/(?:blob|tree)/[^/]+/(.+)#L(\d+)$`)

func parseSourceLink(link string) (Location, bool) {
	m := sourceLinkRe.FindStringSubmatch(link)
	if m == nil {
		return Location{}, false
	}
	line, _ := strconv.Atoi(m[2])
	return Location{Filename: m[1], LineNumber: line, URL: link}, true
}

// TypeRef is a reference to another type by name, resolvable within the tree.
type TypeRef struct {
	FullName string
	tree     *Tree
}

// AbsID drops the generic part of the referenced name.
func (r TypeRef) AbsID() string { return stripGeneric(r.FullName) }

func (r TypeRef) String() string { return r.FullName }

// Lookup resolves the reference from the root of its tree.
func (r TypeRef) Lookup() (*Item, error) {
	return r.tree.Lookup("::"+r.AbsID(), nil)
}

func (it *Item) refs(recs []TypeRefRecord) []TypeRef {
	out := make([]TypeRef, len(recs))
	for i, r := range recs {
		out[i] = TypeRef{FullName: r.FullName, tree: it.tree}
	}
	return out
}

// Superclass returns the parent class, if any.
func (it *Item) Superclass() (TypeRef, bool) {
	if it.rec.Superclass == nil {
		return TypeRef{}, false
	}
	return TypeRef{FullName: it.rec.Superclass.FullName, tree: it.tree}, true
}

func (it *Item) Ancestors() []TypeRef       { return it.refs(it.rec.Ancestors) }
func (it *Item) IncludedModules() []TypeRef { return it.refs(it.rec.IncludedModules) }
func (it *Item) ExtendedModules() []TypeRef { return it.refs(it.rec.ExtendedModules) }
func (it *Item) Subclasses() []TypeRef      { return it.refs(it.rec.Subclasses) }
func (it *Item) IncludingTypes() []TypeRef  { return it.refs(it.rec.IncludingTypes) }

func (it *Item) String() string {
	return fmt.Sprintf("%s(%s)", it.kind, it.absID)
}
