package pipelines

import (
	"encoding/json"
	"time"

	"github.com/chrisstore/store/pkg/utils/cmp"
)

// Creation is a request to create a pipeline.
type Creation struct {
	Name        string `json:"name"`
	Authors     string `json:"authors"`
	Category    string `json:"category"`
	Description string `json:"description"`

	// nil means locked.
	Locked *bool `json:"locked"`

	// PluginTree is a list of nodes, or a string containing it.
	PluginTree json.RawMessage `json:"plugin_tree"`
}

// Update is a request to change a pipeline. Omitted fields are left as they are.
type Update struct {
	Name        *string `json:"name,omitempty"`
	Locked      *bool   `json:"locked,omitempty"`
	Authors     *string `json:"authors,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
}

type Detail struct {
	Id               int       `json:"id"`
	Name             string    `json:"name"`
	Locked           bool      `json:"locked"`
	Authors          string    `json:"authors"`
	Category         string    `json:"category"`
	Description      string    `json:"description"`
	Owner            string    `json:"owner_username"`
	CreationDate     time.Time `json:"creation_date"`
	ModificationDate time.Time `json:"modification_date"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id &&
		d.Name == o.Name &&
		d.Locked == o.Locked &&
		d.Authors == o.Authors &&
		d.Category == o.Category &&
		d.Description == o.Description &&
		d.Owner == o.Owner &&
		d.CreationDate.Equal(o.CreationDate) &&
		d.ModificationDate.Equal(o.ModificationDate)
}

type ParameterDefault struct {
	Name    string `json:"name"`
	Default any    `json:"default"`
}

type TreeNode struct {
	PluginId          int                `json:"plugin_id"`
	ParameterDefaults []ParameterDefault `json:"plugin_parameter_defaults"`
	ChildIndices      []int              `json:"child_indices"`
}

func (n TreeNode) Equal(o TreeNode) bool {
	return n.PluginId == o.PluginId &&
		cmp.SliceEq(n.ParameterDefaults, o.ParameterDefaults) &&
		cmp.SliceEq(n.ChildIndices, o.ChildIndices)
}

// Tree is a plugin tree. Nodes refer each other by their index in Tree.
type Tree struct {
	RootIndex int        `json:"root_index"`
	Nodes     []TreeNode `json:"tree"`
}

func (t Tree) Equal(o Tree) bool {
	return t.RootIndex == o.RootIndex && cmp.SliceEqWith(t.Nodes, o.Nodes, TreeNode.Equal)
}

// PipingDefaults is a request to re-save parameter defaults of a piping.
type PipingDefaults struct {
	// list of {"name": ..., "default": ...}
	ParameterDefaults json.RawMessage `json:"plugin_parameter_defaults"`
}

// PipingDefault is a saved default of a plugin parameter in a piping.
type PipingDefault struct {
	PipingId    int    `json:"plugin_piping_id"`
	ParameterId int    `json:"plugin_param_id"`
	Name        string `json:"param_name"`
	Type        string `json:"type"`

	// nil means "no value"
	Value any `json:"value"`
}
