package outline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(nodes []*TreeNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ItemID)
	}
	return out
}

func TestBuildTree_Orders(t *testing.T) {
	links := []Link{
		{ItemID: "c2", ContainerID: "root", ParentID: "root", Weight: 2},
		{ItemID: "v2", ContainerID: "root", ParentID: "c1", Weight: 2, IsLeaf: true},
		{ItemID: "root", ContainerID: "root"},
		{ItemID: "c1", ContainerID: "root", ParentID: "root", Weight: 1},
		{ItemID: "v1", ContainerID: "root", ParentID: "c1", Weight: 1, IsLeaf: true},
		{ItemID: "v1b", ContainerID: "root", ParentID: "c1", Weight: 1, IsLeaf: true},
	}

	tree := BuildTree(links, "root")
	require.NotNil(t, tree)
	assert.Equal(t, []string{"c1", "c2"}, ids(tree.Children))
	assert.Equal(t, []string{"v1", "v1b", "v2"}, ids(tree.Children[0].Children))
	assert.True(t, tree.Children[0].Children[0].IsLeaf)
	assert.Equal(t, 6, tree.Count())

	assert.True(t, tree.HasChildren)
	assert.True(t, tree.Children[0].HasChildren)
	assert.False(t, tree.Children[1].HasChildren, "chapter without verses")
	assert.False(t, tree.Children[0].Children[0].HasChildren)
}

func TestBuildTree_DropsUnreachableAndCycles(t *testing.T) {
	links := []Link{
		{ItemID: "root", ContainerID: "root"},
		{ItemID: "a", ContainerID: "root", ParentID: "root"},
		// b and c point at each other and never reach the root
		{ItemID: "b", ContainerID: "root", ParentID: "c"},
		{ItemID: "c", ContainerID: "root", ParentID: "b"},
		// root listed as its own child must not loop
		{ItemID: "root", ContainerID: "root", ParentID: "a"},
		{ItemID: "orphan", ContainerID: "root", ParentID: "gone"},
	}

	tree := BuildTree(links, "root")
	assert.Equal(t, 2, tree.Count())
	assert.Equal(t, []string{"a"}, ids(tree.Children))
	assert.Empty(t, tree.Children[0].Children)
}

func TestBuildTree_MissingRoot(t *testing.T) {
	tree := BuildTree(nil, "root")
	assert.Equal(t, "root", tree.ItemID)
	assert.Equal(t, 1, tree.Count())
}

func TestTree_FromStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, Link{ItemID: "root", ContainerID: "root"}))
	require.NoError(t, s.Put(ctx, Link{ItemID: "c1", ContainerID: "root", ParentID: "root", Weight: 1}))
	require.NoError(t, s.Put(ctx, Link{ItemID: "x", ContainerID: "other", ParentID: "other"}))

	tree, err := Tree(ctx, s, "root", "root")
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Count())
}
