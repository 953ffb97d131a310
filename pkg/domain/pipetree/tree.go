// Package pipetree builds, validates and materializes plugin trees of pipelines.
//
// A plugin tree is submitted as a flat list of nodes. Each node refers to a plugin
// and to its parent by the index in the list (previous_index).
// The root node has no parent.
//
// The list is resolved (Resolve), turned into a tree indexed by list position
// (Build), checked to be connected (Validate), and then stored as pipings (Materialize).
package pipetree

import (
	"encoding/json"

	"github.com/chrisstore/store/pkg/domain"
)

// Override is a parameter default given to a node, as submitted.
type Override struct {
	Name string `json:"name"`

	// decoded JSON value
	Default any `json:"default"`
}

// NodeParam is a node of plugin tree, as submitted.
type NodeParam struct {
	// plugin identifier. When nil, PluginName and PluginVersion are used.
	PluginId      *int
	PluginName    string
	PluginVersion string

	// index of the parent node. nil means "this is the root".
	PreviousIndex *int

	Overrides []Override
}

// ParameterDefault is a validated parameter default of a node.
type ParameterDefault struct {
	Name  string
	Value domain.Value
}

func (p ParameterDefault) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name    string `json:"name"`
		Default any    `json:"default"`
	}{
		Name:    p.Name,
		Default: domain.AnyOf(p.Value),
	})
}

// Node is a resolved node.
type Node struct {
	PluginId          int
	PreviousIndex     *int
	ParameterDefaults []ParameterDefault
}

// TreeNode is a node in Tree.
type TreeNode struct {
	PluginId          int                `json:"plugin_id"`
	ParameterDefaults []ParameterDefault `json:"plugin_parameter_defaults"`
	ChildIndices      []int              `json:"child_indices"`
}

// Tree is a plugin tree.
//
// Nodes are indexed by their position in the submitted list.
type Tree struct {
	RootIndex int        `json:"root_index"`
	Nodes     []TreeNode `json:"tree"`
}

// Size is the number of nodes.
func (t *Tree) Size() int {
	return len(t.Nodes)
}

// Walk visits nodes in breadth-first order from the root.
//
// Nodes unreachable from the root are not visited. Each node is visited at most once.
func (t *Tree) Walk(visit func(index int, node TreeNode, parent int) error) error {
	type entry struct{ index, parent int }
	if t.RootIndex < 0 || len(t.Nodes) <= t.RootIndex {
		return nil
	}
	visited := make([]bool, len(t.Nodes))
	queue := []entry{{t.RootIndex, -1}}
	visited[t.RootIndex] = true
	for len(queue) != 0 {
		e := queue[0]
		queue = queue[1:]
		node := t.Nodes[e.index]
		if err := visit(e.index, node, e.parent); err != nil {
			return err
		}
		for _, c := range node.ChildIndices {
			if c < 0 || len(t.Nodes) <= c || visited[c] {
				continue
			}
			visited[c] = true
			queue = append(queue, entry{c, e.index})
		}
	}
	return nil
}
