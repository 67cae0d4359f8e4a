package docs_test

import (
	"testing"

	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListObjects(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)

	objs := docs.ListObjects(tree)
	require.Len(t, objs, tree.Len()-1, "every item but the root")

	byID := make(map[string]docs.Object, len(objs))
	for _, o := range objs {
		byID[o.AbsID] = o
	}
	tests := []struct {
		id   string
		path string
	}{
		{"ROOT_LEVEL", "toplevel.html#ROOT_LEVEL"},
		{"#puts(*objects)", "toplevel.html#puts(*objects):Nil-instance-method"},
		{"Foo", "Foo.html"},
		{"Foo::VERSION", "Foo.html#VERSION"},
		{"Foo::Bar", "Foo/Bar.html"},
		{"Foo::Bar.new(value)", "Foo/Bar.html#new(value:Int32)-class-method"},
		{"Foo::Bar#baz(x,y)", "Foo/Bar.html#baz(x,y)-instance-method"},
		{"Foo::Bar:def_thing(name)", "Foo/Bar.html#def_thing(name)-macro"},
		{"Foo::Bar::Baz", "Foo/Bar/Baz.html"},
	}
	for _, tt := range tests {
		o, ok := byID[tt.id]
		if assert.True(t, ok, "missing %q", tt.id) {
			assert.Equal(t, tt.path, o.Path)
		}
	}

	// Constructors are listed before methods, nested types after members.
	assert.Equal(t, "Foo::Bar", objs[5].AbsID)
	assert.Equal(t, "Foo::Bar.new(value)", objs[6].AbsID)
}

func TestListObjectURLs(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)

	tests := []struct {
		base string
		want string
	}{
		{"https://example.org/api/index.json", "https://example.org/api/Foo/Bar.html"},
		{"https://example.org/api/", "https://example.org/api/Foo/Bar.html"},
		{"", "Foo/Bar.html"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			t.Parallel()
			for _, o := range docs.ListObjectURLs(tree, tt.base) {
				if o.AbsID == "Foo::Bar" {
					assert.Equal(t, tt.want, o.Path)
					return
				}
			}
			t.Fatal("Foo::Bar not listed")
		})
	}
}
