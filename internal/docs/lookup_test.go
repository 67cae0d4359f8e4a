package docs_test

import (
	"errors"
	"os"
	"testing"

	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTree(t *testing.T) *docs.Tree {
	t.Helper()
	data, err := os.ReadFile("testdata/program.json")
	require.NoError(t, err)
	tree, err := docs.Parse(data)
	require.NoError(t, err)
	return tree
}

func mustLookup(t *testing.T, tree *docs.Tree, id string) *docs.Item {
	t.Helper()
	it, err := tree.Lookup(id, nil)
	require.NoError(t, err, "looking up %q", id)
	return it
}

func TestLookup_RoundTrip(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)

	for it := range tree.All() {
		if it.IsRoot() {
			continue
		}
		if it.Kind() == docs.KindAlias {
			// Resolvable aliases stand in for their target.
			if target, err := tree.Lookup(it.Aliased(), nil); err == nil {
				got, err := tree.Lookup(it.AbsID(), nil)
				require.NoError(t, err, "looking up %q", it.AbsID())
				assert.Same(t, target, got, "alias %q resolves to its target", it.AbsID())
			}
			continue
		}
		got, err := tree.Lookup(it.AbsID(), nil)
		require.NoError(t, err, "looking up %q", it.AbsID())
		assert.Same(t, it, got, "round trip of %q", it.AbsID())
	}
}

func TestLookup_AbsIDs(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)

	want := []string{
		"ROOT_LEVEL",
		"#puts(*objects)",
		"Foo",
		"Foo::VERSION",
		"Foo#qux()",
		"Foo::Bar",
		"Foo::Bar.new(value)",
		"Foo::Bar#baz(x,y)",
		"Foo::Bar#size()",
		"Foo::Bar#to_s()",
		"Foo::Bar#to_s(io)",
		"Foo::Bar#run(*args,**opts,&)",
		"Foo::Bar.size()",
		"Foo::Bar:def_thing(name)",
		"Foo::Bar::Baz",
		"Foo::Al",
	}
	for _, id := range want {
		_, ok := tree.ByAbsID(id)
		assert.True(t, ok, "missing abs id %q", id)
	}
}

func TestLookup_EndToEnd(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)

	it := mustLookup(t, tree, "Foo::Bar#baz(x,y)")
	assert.Equal(t, docs.KindInstanceMethod, it.Kind())
	assert.Equal(t, "baz(x,y)", it.RelID())
	assert.Equal(t, "Foo::Bar#baz(x,y)", it.AbsID())
	assert.Equal(t, "Foo::Bar", it.Parent().AbsID())

	tests := []string{
		"Foo::Bar#baz",
		"Foo::Bar#baz(x, y)",
		"::Foo::Bar#baz(x,y)",
		"Foo::Bar.baz",
	}
	for _, id := range tests {
		assert.Same(t, it, mustLookup(t, tree, id), "identifier %q", id)
	}
}

func TestLookup_Determinism(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)
	bar := mustLookup(t, tree, "Foo::Bar")

	first, err := tree.Lookup("size", bar)
	require.NoError(t, err)
	for range 10 {
		again, err := tree.Lookup("size", bar)
		require.NoError(t, err)
		assert.Same(t, first, again)
	}
}

func TestLookup_ScopeFallback(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)
	bar := mustLookup(t, tree, "Foo::Bar")
	baz := mustLookup(t, tree, "Foo::Bar#baz(x,y)")

	tests := []struct {
		name  string
		id    string
		scope *docs.Item
		want  string
	}{
		{"member of scope", "baz", bar, "Foo::Bar#baz(x,y)"},
		{"one level up", "qux", bar, "Foo#qux()"},
		{"method scope", "qux", baz, "Foo#qux()"},
		{"sibling type", "Al", bar, "Foo::Bar"},
		{"nested type from inside", "Baz", mustLookup(t, tree, "Foo::Bar::Baz"), "Foo::Bar::Baz"},
		{"root constant", "ROOT_LEVEL", bar, "ROOT_LEVEL"},
		{"root method", "puts", bar, "#puts(*objects)"},
		{"absolute ignores scope", "::Foo", bar, "Foo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tree.Lookup(tt.id, tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.AbsID())
		})
	}
}

func TestLookup_SeparatorPriority(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)
	bar := mustLookup(t, tree, "Foo::Bar")

	tests := []struct {
		id   string
		want string
	}{
		{"Foo::Bar#size", "Foo::Bar#size()"},
		{"Foo::Bar.size", "Foo::Bar.size()"},
		{"Foo::Bar.new", "Foo::Bar.new(value)"},
		{"Foo::Bar#new", "Foo::Bar.new(value)"},
		{"Foo::Bar:def_thing", "Foo::Bar:def_thing(name)"},
		{"Foo::Bar#def_thing", "Foo::Bar:def_thing(name)"},
		{"Foo::Bar#to_s", "Foo::Bar#to_s()"},
		{"Foo::Bar#to_s(io)", "Foo::Bar#to_s(io)"},
		{"Foo::VERSION", "Foo::VERSION"},
		{"Foo::Bar::Baz(T)", "Foo::Bar::Baz"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mustLookup(t, tree, tt.id).AbsID())
		})
	}

	got, err := tree.Lookup("size", bar)
	require.NoError(t, err)
	assert.Equal(t, "Foo::Bar#size()", got.AbsID(), "instance methods come before class methods")

	_, err = tree.Lookup("Foo::Bar::size", nil)
	var rerr *docs.ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "size", rerr.Name)
	assert.NoError(t, rerr.Unwrap())
}

func TestLookup_Aliases(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)

	t.Run("single", func(t *testing.T) {
		assert.Equal(t, "Foo::Bar", mustLookup(t, tree, "Foo::Al").AbsID())
	})
	t.Run("member through alias", func(t *testing.T) {
		assert.Equal(t, "Foo::Bar#baz(x,y)", mustLookup(t, tree, "Foo::Al#baz").AbsID())
	})
	t.Run("chain", func(t *testing.T) {
		assert.Equal(t, "Foo::Bar", mustLookup(t, tree, "Foo::AlAl").AbsID())
	})
	t.Run("dangling keeps alias", func(t *testing.T) {
		it := mustLookup(t, tree, "Foo::Dangling")
		assert.Equal(t, docs.KindAlias, it.Kind())
		assert.Equal(t, "Hash(String, Nope)", it.Aliased())
	})
	t.Run("cycle fails", func(t *testing.T) {
		_, err := tree.Lookup("Foo::Loop1", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, docs.ErrAliasDepth))
	})
	t.Run("html form wins", func(t *testing.T) {
		al, ok := tree.ByAbsID("Foo::Al")
		require.True(t, ok)
		assert.Equal(t, "Foo::Bar", al.Aliased())
		assert.Contains(t, al.AliasedHTML(), `href="../Foo/Bar.html"`)
	})
}

func TestLookup_NotFound(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)

	for _, id := range []string{"Nope", "Foo::Nope", "Foo::Bar#nope", "Foo::VERSION::X", ""} {
		_, err := tree.Lookup(id, nil)
		var rerr *docs.ResolutionError
		assert.ErrorAs(t, err, &rerr, "identifier %q", id)
	}
}

func TestCollect_View(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)

	v, err := tree.Collect("Foo", nil, docs.CollectOptions{})
	require.NoError(t, err)
	assert.Empty(t, v.Members(docs.Types))
	assert.Equal(t, 0, v.Mapping(docs.Types).Len())
	assert.Len(t, v.Members(docs.Constants), 1)

	nested, err := tree.Collect("Foo", nil, docs.CollectOptions{NestedTypes: true})
	require.NoError(t, err)
	var names []string
	for _, it := range nested.Members(docs.Types) {
		names = append(names, it.Name())
	}
	assert.Equal(t, []string{"Bar", "Al", "AlAl", "Loop1", "Loop2", "Dangling"}, names)

	again, err := tree.Collect("::Foo", nil, docs.CollectOptions{NestedTypes: true})
	require.NoError(t, err)
	assert.Same(t, nested, again)

	_, err = tree.Collect("Nope", nil, docs.CollectOptions{})
	assert.Error(t, err)
}

func TestItem_Accessors(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)

	root := tree.Root()
	assert.True(t, root.IsRoot())
	assert.Equal(t, "", root.AbsID())
	assert.Nil(t, root.Parent())

	puts := mustLookup(t, tree, "#puts")
	assert.Equal(t, "(*objects) : Nil", puts.ArgsString())
	assert.Contains(t, puts.ArgsHTML(), `<a href="Nil.html">`)
	assert.Equal(t, "toplevel.html", puts.Path())
	assert.Equal(t, "puts(*objects):Nil-instance-method", puts.Anchor())
	assert.Same(t, root, puts.Root())

	baz := mustLookup(t, tree, "Foo::Bar::Baz")
	assert.Equal(t, "Foo::Bar::Baz(T)", baz.FullName())
	assert.Equal(t, "Baz", baz.RelID())

	sizeClass := mustLookup(t, tree, "Foo::Bar.size")
	require.Len(t, sizeClass.Locations(), 1)
	assert.Equal(t, "src/ext/size.cr", sizeClass.Locations()[0].Filename)
	assert.Equal(t, 9, sizeClass.Locations()[0].LineNumber)
	assert.Equal(t, ".size", sizeClass.ShortName())
	assert.Equal(t, "Foo::Bar.size", sizeClass.FullName())

	bar := mustLookup(t, tree, "Foo::Bar")
	sup, ok := bar.Superclass()
	require.True(t, ok)
	assert.Equal(t, "Reference", sup.AbsID())
	_, err := sup.Lookup()
	assert.Error(t, err)

	var walked []string
	for typ := range mustLookup(t, tree, "Foo").WalkTypes() {
		walked = append(walked, typ.AbsID())
	}
	assert.Equal(t, []string{"Foo::Bar", "Foo::Bar::Baz", "Foo::Al", "Foo::AlAl", "Foo::Loop1", "Foo::Loop2", "Foo::Dangling"}, walked)

	version := mustLookup(t, tree, "Foo::VERSION")
	assert.Equal(t, `"1.0"`, version.Value())
	assert.Equal(t, "VERSION", version.Anchor())
}
