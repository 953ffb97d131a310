package pipetree

import (
	"fmt"

	"github.com/chrisstore/store/pkg/domain"
)

// Build makes a tree from resolved nodes.
//
// Returns
//
// - *Tree: tree whose node i is nodes[i].
//
// - error: *domain.ValidationError (domain.ErrInvalidTree) when nodes has no root,
// has two or more roots, or refers a parent out of the list.
func Build(nodes []Node) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, invalidTree("Invalid tree list. List is empty.")
	}

	rootIndex := -1
	for ix, n := range nodes {
		if n.PreviousIndex == nil {
			rootIndex = ix
			break
		}
	}
	if rootIndex < 0 {
		return nil, invalidTree("Couldn't find the root of the tree in the tree list.")
	}

	tree := &Tree{RootIndex: rootIndex, Nodes: make([]TreeNode, len(nodes))}
	for ix, n := range nodes {
		defaults := n.ParameterDefaults
		if defaults == nil {
			defaults = []ParameterDefault{}
		}
		tree.Nodes[ix] = TreeNode{
			PluginId:          n.PluginId,
			ParameterDefaults: defaults,
			ChildIndices:      []int{},
		}
	}

	for ix, n := range nodes {
		if ix == rootIndex {
			continue
		}
		prev := n.PreviousIndex
		if prev == nil {
			return nil, invalidTree(
				"Invalid 'previous_index' for node #%d: only one node can be the root (#%d).", ix, rootIndex,
			)
		}
		if *prev < 0 || len(nodes) <= *prev {
			return nil, invalidTree("Invalid 'previous_index' %d for node #%d.", *prev, ix)
		}
		tree.Nodes[*prev].ChildIndices = append(tree.Nodes[*prev].ChildIndices, ix)
	}
	return tree, nil
}

// Validate checks the tree is connected: every node is reachable from the root exactly once.
//
// Returns
//
// - error: *domain.ValidationError. domain.ErrDisconnectedTree when some nodes are
// not reachable from the root, and domain.ErrInvalidTree when the tree is malformed
// (root or children out of range, a node having two parents).
func Validate(tree *Tree) error {
	size := tree.Size()
	if tree.RootIndex < 0 || size <= tree.RootIndex {
		return invalidTree("Invalid root index %d.", tree.RootIndex)
	}

	reached := make([]bool, size)
	reached[tree.RootIndex] = true
	count := 1
	queue := []int{tree.RootIndex}
	for len(queue) != 0 {
		ix := queue[0]
		queue = queue[1:]
		for _, c := range tree.Nodes[ix].ChildIndices {
			if c < 0 || size <= c {
				return invalidTree("Invalid child index %d of node #%d.", c, ix)
			}
			if reached[c] {
				return invalidTree("Node #%d is reached twice. It is not a tree.", c)
			}
			reached[c] = true
			count++
			queue = append(queue, c)
		}
	}

	if count != size {
		unreachable := []int{}
		for ix, r := range reached {
			if !r {
				unreachable = append(unreachable, ix)
			}
		}
		return domain.NewValidationError(
			domain.ErrDisconnectedTree, domain.FieldPluginTree,
			fmt.Sprintf("This is not a valid tree (disconnected). Nodes %v are not reachable from the root.", unreachable),
		)
	}
	return nil
}

// BuildAndValidate = Build then Validate.
func BuildAndValidate(nodes []Node) (*Tree, error) {
	tree, err := Build(nodes)
	if err != nil {
		return nil, err
	}
	if err := Validate(tree); err != nil {
		return nil, err
	}
	return tree, nil
}
