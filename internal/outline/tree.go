package outline

import "sort"

// TreeNode is one node of an assembled outline.
// HasChildren is derived from the links actually present, so a chapter with no
// assigned verses reports false.
type TreeNode struct {
	ItemID      string      `json:"item_id"`
	Weight      int         `json:"weight"`
	IsLeaf      bool        `json:"is_leaf,omitempty"`
	HasChildren bool        `json:"has_children"`
	Children    []*TreeNode `json:"children,omitempty"`
}

// Count returns the number of nodes in the subtree, root included.
func (n *TreeNode) Count() int {
	if n == nil {
		return 0
	}
	total := 0
	stack := []*TreeNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		total++
		stack = append(stack, cur.Children...)
	}
	return total
}

// BuildTree assembles links into a tree rooted at rootID. Siblings are ordered by
// weight, then item ID. Links not reachable from the root are dropped, and an item
// reached twice is kept only at its first position, so the result is always acyclic.
func BuildTree(links []Link, rootID string) *TreeNode {
	children := make(map[string][]Link)
	var root *TreeNode
	for _, l := range links {
		if l.ItemID == rootID {
			root = &TreeNode{ItemID: l.ItemID, Weight: l.Weight, IsLeaf: l.IsLeaf}
			continue
		}
		children[l.ParentID] = append(children[l.ParentID], l)
	}
	if root == nil {
		root = &TreeNode{ItemID: rootID}
	}

	for _, kids := range children {
		sort.Slice(kids, func(i, j int) bool {
			if kids[i].Weight != kids[j].Weight {
				return kids[i].Weight < kids[j].Weight
			}
			return kids[i].ItemID < kids[j].ItemID
		})
	}

	visited := map[string]bool{rootID: true}
	stack := []*TreeNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, l := range children[node.ItemID] {
			if visited[l.ItemID] {
				continue
			}
			visited[l.ItemID] = true
			child := &TreeNode{ItemID: l.ItemID, Weight: l.Weight, IsLeaf: l.IsLeaf}
			node.Children = append(node.Children, child)
			node.HasChildren = true
			stack = append(stack, child)
		}
	}
	return root
}
