package pipetree

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisstore/store/pkg/domain"
)

// PluginLookup finds plugins referred by nodes.
type PluginLookup interface {
	// Get returns plugins with given ids. Plugins not found are not in the result.
	Get(ctx context.Context, pluginIds []int) (map[int]*domain.Plugin, error)

	// GetByNameVersion returns the plugin with the name and the version.
	//
	// It returns an error wrapping domain.ErrMissing when not found.
	GetByNameVersion(ctx context.Context, name string, version string) (*domain.Plugin, error)
}

// Resolve finds plugins of nodes and validates parameter defaults given to nodes.
//
// Returns
//
// - []Node: resolved nodes, in the order of params.
//
// - map[int]*domain.Plugin: plugins referred by nodes, keyed by plugin id.
//
// - error: *domain.ValidationError kinds of domain.ErrNotFound, domain.ErrInvalidTree
// or domain.ErrInvalidParameterDefault, on invalid nodes. Other errors come from lookup.
func Resolve(ctx context.Context, lookup PluginLookup, params []NodeParam) ([]Node, map[int]*domain.Plugin, error) {
	ids := []int{}
	for _, p := range params {
		if p.PluginId != nil {
			ids = append(ids, *p.PluginId)
		}
	}
	plugins := map[int]*domain.Plugin{}
	if len(ids) != 0 {
		found, err := lookup.Get(ctx, ids)
		if err != nil {
			return nil, nil, err
		}
		for id, p := range found {
			plugins[id] = p
		}
	}

	nodes := make([]Node, 0, len(params))
	for _, p := range params {
		plugin, err := resolvePlugin(ctx, lookup, plugins, p)
		if err != nil {
			return nil, nil, err
		}
		plugins[plugin.Id] = plugin

		if plugin.Meta.Type == domain.FSPlugin {
			return nil, nil, invalidTree(
				"Plugin %s (%s) is of type 'fs' and therefore can not be used to create a pipeline.",
				plugin.Name(), plugin.Version,
			)
		}

		defaults, err := ValidateOverrides(plugin, p.Overrides)
		if err != nil {
			return nil, nil, err
		}

		nodes = append(nodes, Node{
			PluginId:          plugin.Id,
			PreviousIndex:     p.PreviousIndex,
			ParameterDefaults: defaults,
		})
	}
	return nodes, plugins, nil
}

func resolvePlugin(ctx context.Context, lookup PluginLookup, known map[int]*domain.Plugin, p NodeParam) (*domain.Plugin, error) {
	if p.PluginId != nil {
		plugin, ok := known[*p.PluginId]
		if !ok {
			return nil, domain.NewValidationError(
				domain.ErrNotFound, domain.FieldPluginTree,
				fmt.Sprintf("Couldn't find any plugin with id %d.", *p.PluginId),
			)
		}
		return plugin, nil
	}

	for _, plugin := range known {
		if plugin.Name() == p.PluginName && plugin.Version == p.PluginVersion {
			return plugin, nil
		}
	}
	plugin, err := lookup.GetByNameVersion(ctx, p.PluginName, p.PluginVersion)
	if errors.Is(err, domain.ErrMissing) {
		return nil, domain.NewValidationError(
			domain.ErrNotFound, domain.FieldPluginTree,
			fmt.Sprintf("Couldn't find any plugin with name %s and version %s.", p.PluginName, p.PluginVersion),
		)
	}
	if err != nil {
		return nil, err
	}
	return plugin, nil
}

// ValidateOverrides checks names and types of parameter defaults given for the plugin.
//
// Returns
//
// - []ParameterDefault: coerced defaults. Empty (not nil) when overrides is empty.
//
// - error: *domain.ValidationError (domain.ErrInvalidParameterDefault) on invalid overrides.
func ValidateOverrides(plugin *domain.Plugin, overrides []Override) ([]ParameterDefault, error) {
	defaults := make([]ParameterDefault, 0, len(overrides))
	seen := map[string]struct{}{}
	for _, o := range overrides {
		param, ok := plugin.Parameter(o.Name)
		if !ok {
			return nil, domain.NewValidationError(
				domain.ErrInvalidParameterDefault, domain.FieldPluginTree,
				fmt.Sprintf("Invalid parameter default name %q for plugin %s (%s).", o.Name, plugin.Name(), plugin.Version),
			)
		}
		if _, ok := seen[o.Name]; ok {
			return nil, domain.NewValidationError(
				domain.ErrInvalidParameterDefault, domain.FieldPluginTree,
				fmt.Sprintf("Parameter default for %q is given more than once.", o.Name),
			)
		}
		seen[o.Name] = struct{}{}

		v, err := param.Type.Coerce(o.Default)
		if err != nil {
			return nil, domain.NewValidationError(
				domain.ErrInvalidParameterDefault, domain.FieldPluginTree,
				fmt.Sprintf("Invalid default value %v for parameter %q: %s", o.Default, o.Name, err),
			)
		}
		defaults = append(defaults, ParameterDefault{Name: o.Name, Value: v})
	}
	return defaults, nil
}
