package cmd

import (
	"context"
	"testing"

	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryObjects(t *testing.T) {
	t.Parallel()
	tree, err := docs.Load(context.Background(), docs.FileSource{Path: "../internal/docs/testdata/program.json"})
	require.NoError(t, err)

	objs, err := inventoryObjects(tree, "https://example.org/api/index.json", map[string]string{
		"Foo/Bar.html": "abc123",
	})
	require.NoError(t, err)
	require.Len(t, objs, tree.Len()-1)

	byID := make(map[string]int, len(objs))
	for i, o := range objs {
		byID[o.AbsID] = i
	}
	bar := objs[byID["Foo::Bar"]]
	assert.Equal(t, "https://example.org/api/Foo/Bar.html", bar.URL)
	assert.Equal(t, "class", bar.Kind)
	assert.Equal(t, "abc123", bar.ContentHash)

	baz := objs[byID["Foo::Bar#baz(x,y)"]]
	assert.Equal(t, "https://example.org/api/Foo/Bar.html#baz(x,y)-instance-method", baz.URL)
	assert.Equal(t, "abc123", baz.ContentHash, "members share their owner's page")

	assert.Empty(t, objs[byID["Foo"]].ContentHash)
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}
