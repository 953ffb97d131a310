package pipetree

import (
	"fmt"
	"sort"

	"github.com/chrisstore/store/pkg/domain"
)

// FromPipings makes a tree back from stored pipings.
//
// Nodes are indexed in breadth-first order, so the root is node 0.
// Siblings are ordered by their piping id.
// Defaults with value become parameter defaults of nodes.
//
// Args
//
// - pipings: all pipings of a pipeline.
//
// - defaults: defaults of pipings, keyed by piping id.
//
// Returns
//
// - *Tree
//
// - error: domain.ErrInvalidTree when pipings are not a tree.
func FromPipings(pipings []domain.Piping, defaults map[int][]domain.PipingDefault) (*Tree, error) {
	if len(pipings) == 0 {
		return nil, fmt.Errorf("%w: pipeline has no pipings", domain.ErrInvalidTree)
	}

	children := map[int][]domain.Piping{}
	roots := []domain.Piping{}
	for _, p := range pipings {
		if p.PreviousId == nil {
			roots = append(roots, p)
			continue
		}
		children[*p.PreviousId] = append(children[*p.PreviousId], p)
	}
	if len(roots) != 1 {
		return nil, fmt.Errorf("%w: pipeline has %d root pipings", domain.ErrInvalidTree, len(roots))
	}
	for _, cs := range children {
		sort.Slice(cs, func(i, j int) bool { return cs[i].Id < cs[j].Id })
	}

	tree := &Tree{RootIndex: 0, Nodes: make([]TreeNode, 0, len(pipings))}
	queue := []domain.Piping{roots[0]}
	for len(queue) != 0 {
		p := queue[0]
		queue = queue[1:]

		ix := len(tree.Nodes)
		node := TreeNode{
			PluginId:          p.PluginId,
			ParameterDefaults: []ParameterDefault{},
			ChildIndices:      []int{},
		}
		for _, d := range defaults[p.Id] {
			if d.Value == nil {
				continue
			}
			node.ParameterDefaults = append(node.ParameterDefaults, ParameterDefault{Name: d.Name, Value: d.Value})
		}
		for nth := range children[p.Id] {
			node.ChildIndices = append(node.ChildIndices, ix+len(queue)+nth+1)
		}
		tree.Nodes = append(tree.Nodes, node)
		queue = append(queue, children[p.Id]...)
	}

	if len(tree.Nodes) != len(pipings) {
		return nil, fmt.Errorf("%w: some pipings are not reachable from the root", domain.ErrInvalidTree)
	}
	return tree, nil
}
