package docs_test

import (
	"testing"

	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func absIDs(items []*docs.Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.AbsID()
	}
	return ids
}

func TestFilterSpec_Match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		patterns []string
		tags     []string
		want     bool
	}{
		{"include", []string{`bar\.cr`}, []string{"src/bar.cr"}, true},
		{"no match excludes", []string{`bar\.cr`}, []string{"src/foo.cr"}, false},
		{"exclude only", []string{`!ext/`}, []string{"src/bar.cr"}, false},
		{"last match wins", []string{`src/`, `!ext/`}, []string{"src/ext/size.cr"}, false},
		{"later include overrides", []string{`!ext/`, `size`}, []string{"src/ext/size.cr"}, true},
		{"any tag", []string{`baz`}, []string{"src/foo.cr", "src/baz.cr"}, true},
		{"no tags", []string{`.*`}, nil, false},
		{"search not anchored", []string{`ext`}, []string{"https://x/src/ext/a.cr"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, err := docs.NewFilterSpec(tt.patterns...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Match(tt.tags))
		})
	}
}

func TestParseFilterSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      any
		keepAll bool
		dropAll bool
		wantErr bool
	}{
		{name: "nil", in: nil, keepAll: true},
		{name: "true", in: true, keepAll: true},
		{name: "false", in: false, dropAll: true},
		{name: "strings", in: []string{"a", "!b"}},
		{name: "any strings", in: []any{"a"}},
		{name: "empty list", in: []string{}, wantErr: true},
		{name: "empty any list", in: []any{}, wantErr: true},
		{name: "non-string element", in: []any{"a", 1}, wantErr: true},
		{name: "plain string", in: "a", wantErr: true},
		{name: "bad regex", in: []string{"("}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, err := docs.ParseFilterSpec(tt.in)
			if tt.wantErr {
				var ferr *docs.FilterSpecError
				require.ErrorAs(t, err, &ferr)
				assert.NotEmpty(t, ferr.Error())
				return
			}
			require.NoError(t, err)
			if tt.keepAll {
				assert.Equal(t, docs.KeepAll.String(), f.String())
			}
			if tt.dropAll {
				assert.Equal(t, docs.DropAll.String(), f.String())
			}
		})
	}
}

func TestFilterSpec_BadRegexUnwraps(t *testing.T) {
	t.Parallel()
	_, err := docs.NewFilterSpec("ok", "[")
	var ferr *docs.FilterSpecError
	require.ErrorAs(t, err, &ferr)
	assert.Error(t, ferr.Unwrap())
}

func TestFilterSpec_Apply(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)
	bar := mustLookup(t, tree, "Foo::Bar")
	methods := bar.Group(docs.InstanceMethods)

	f, err := docs.NewFilterSpec(`bar\.cr`, `!ext/`)
	require.NoError(t, err)

	kept := f.Apply(methods)
	assert.Equal(t, []string{
		"Foo::Bar#baz(x,y)",
		"Foo::Bar#to_s()",
		"Foo::Bar#to_s(io)",
		"Foo::Bar#run(*args,**opts,&)",
	}, absIDs(kept))

	assert.Equal(t, absIDs(kept), absIDs(f.Apply(kept)), "filtering is idempotent")
	assert.Equal(t, absIDs(methods), absIDs(docs.KeepAll.Apply(methods)))
	assert.Empty(t, docs.DropAll.Apply(methods))

	onlyExclude, err := docs.NewFilterSpec(`!ext/`)
	require.NoError(t, err)
	assert.Empty(t, onlyExclude.Apply(methods))
}

func TestItem_FilterTags(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)

	assert.Equal(t, []string{"https://github.com/o/r/blob/master/src/foo/bar.cr"},
		mustLookup(t, tree, "Foo::Bar#baz").FilterTags())
	assert.Equal(t, []string{"https://github.com/o/r/blob/master/src/foo.cr"},
		mustLookup(t, tree, "Foo::VERSION").FilterTags(), "constants use their owner's locations")
	assert.Equal(t, []string{"https://github.com/o/r/blob/master/src/ext/size.cr"},
		mustLookup(t, tree, "Foo::Bar.size").FilterTags(), "source links are parsed")
}

func TestCollect_Filters(t *testing.T) {
	t.Parallel()
	tree := loadTree(t)

	f, err := docs.NewFilterSpec(`!ext/`, `foo/bar\.cr`)
	require.NoError(t, err)
	v, err := tree.Collect("Foo::Bar", nil, docs.CollectOptions{Filters: f, NestedTypes: true})
	require.NoError(t, err)

	assert.Empty(t, v.Members(docs.ClassMethods))
	assert.Len(t, v.Members(docs.Constructors), 1)
	assert.Len(t, v.Members(docs.InstanceMethods), 4)
	assert.Empty(t, v.Members(docs.Types), "Baz lives in its own file")

	_, ok := v.Mapping(docs.InstanceMethods).Get("size")
	assert.False(t, ok)
	_, ok = v.Mapping(docs.InstanceMethods).Get("to_s(io)")
	assert.True(t, ok)
	assert.Equal(t, f.String(), v.Options().Filters.String())
}
