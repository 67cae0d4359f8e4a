package docs

import "strings"

// Object is one entry of the cross-project inventory.
type Object struct {
	AbsID string
	Kind  Kind
	Path  string
}

// ListObjects enumerates every item of the tree with the page path it is
// documented at. Types get their own page; members are anchors on their
// owner's page.
func ListObjects(t *Tree) []Object {
	var objs []Object
	listObjects(t.Root(), &objs)
	return objs
}

func listObjects(typ *Item, objs *[]Object) {
	path := typ.Path()
	if !typ.IsRoot() {
		*objs = append(*objs, Object{AbsID: typ.AbsID(), Kind: typ.Kind(), Path: path})
	}
	for _, c := range []Category{Constants, Constructors, ClassMethods, InstanceMethods, Macros} {
		for _, m := range typ.Group(c) {
			*objs = append(*objs, Object{AbsID: m.AbsID(), Kind: m.Kind(), Path: path + "#" + m.Anchor()})
		}
	}
	for _, sub := range typ.Group(Types) {
		listObjects(sub, objs)
	}
}

// ListObjectURLs is ListObjects with paths joined onto a base url. A url
// pointing at the generator's index.json is reduced to its directory.
func ListObjectURLs(t *Tree, url string) []Object {
	base := strings.TrimSuffix(url, "/index.json")
	objs := ListObjects(t)
	for i := range objs {
		objs[i].Path = joinURL(base, objs[i].Path)
	}
	return objs
}

func joinURL(base, p string) string {
	if base == "" || strings.HasPrefix(p, "/") {
		return p
	}
	return strings.TrimSuffix(base, "/") + "/" + p
}
