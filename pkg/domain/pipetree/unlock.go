package pipetree

import (
	"fmt"

	"github.com/chrisstore/store/pkg/domain"
)

// CheckUnlockFeasibility checks every parameter of every node has a default value,
// either from the plugin or from the node.
//
// Args
//
// - tree: validated tree
//
// - plugins: plugins referred by the tree, keyed by plugin id.
//
// Returns
//
// - error: *domain.ValidationError (domain.ErrIncompleteDefaults) when some parameter lacks default.
func CheckUnlockFeasibility(tree *Tree, plugins map[int]*domain.Plugin) error {
	missing := []string{}
	for ix, node := range tree.Nodes {
		plugin, ok := plugins[node.PluginId]
		if !ok {
			return domain.NewValidationError(
				domain.ErrNotFound, domain.FieldPluginTree,
				fmt.Sprintf("Couldn't find any plugin with id %d.", node.PluginId),
			)
		}

		overridden := map[string]struct{}{}
		for _, d := range node.ParameterDefaults {
			if d.Value != nil {
				overridden[d.Name] = struct{}{}
			}
		}
		for _, param := range plugin.Parameters {
			if param.Default != nil {
				continue
			}
			if _, ok := overridden[param.Name]; ok {
				continue
			}
			missing = append(missing, fmt.Sprintf(
				"Parameter %q of plugin %s (%s) at node #%d has no default value.",
				param.Name, plugin.Name(), plugin.Version, ix,
			))
		}
	}

	if len(missing) != 0 {
		return domain.NewValidationError(
			domain.ErrIncompleteDefaults, domain.FieldNonField,
			append(
				[]string{"Pipeline can not be unlocked until all plugin parameters have default values."},
				missing...,
			)...,
		)
	}
	return nil
}

// CheckStoredDefaults checks defaults stored for pipings of a pipeline are all filled.
//
// Returns
//
// - error: *domain.ValidationError (domain.ErrIncompleteDefaults, keyed by "locked") when some default is null.
func CheckStoredDefaults(defaults []domain.PipingDefault) error {
	for _, d := range defaults {
		if d.Value == nil {
			return domain.NewValidationError(
				domain.ErrIncompleteDefaults, domain.FieldLocked,
				"Pipeline can not be unlocked until all plugin parameters have default values.",
			)
		}
	}
	return nil
}
