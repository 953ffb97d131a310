package pipetree

import (
	"context"
	"fmt"

	"github.com/chrisstore/store/pkg/domain"
)

// Writer stores pipings and their parameter defaults.
//
// Implementations are expected to run in a transaction which is committed by the caller.
type Writer interface {
	// CreatePiping stores a new piping and returns it with its id.
	CreatePiping(ctx context.Context, piping domain.Piping) (*domain.Piping, error)

	// GetPipingDefaults returns defaults stored for the piping.
	GetPipingDefaults(ctx context.Context, pipingId int) ([]domain.PipingDefault, error)

	// CreatePipingDefault stores a new default.
	CreatePipingDefault(ctx context.Context, d domain.PipingDefault) error

	// UpdatePipingDefault changes value of the default identified by (PipingId, ParameterId).
	UpdatePipingDefault(ctx context.Context, d domain.PipingDefault) error
}

// Materialize stores the tree as pipings of the pipeline.
//
// Pipings are created in breadth-first order, so the parent of each piping is created before it.
// Each piping gets defaults for all parameters of its plugin (see AttachDefaults).
//
// Args
//
// - w: Writer. It should be transactional; nothing is rolled back here on error.
//
// - pipelineId: pipeline which pipings belong to.
//
// - tree: validated tree.
//
// - plugins: plugins referred by tree, keyed by plugin id.
//
// Returns
//
// - []domain.Piping: created pipings, in creation order.
//
// - error
func Materialize(ctx context.Context, w Writer, pipelineId int, tree *Tree, plugins map[int]*domain.Plugin) ([]domain.Piping, error) {
	created := make([]domain.Piping, 0, tree.Size())
	pipingOf := map[int]domain.Piping{}

	err := tree.Walk(func(ix int, node TreeNode, parent int) error {
		plugin, ok := plugins[node.PluginId]
		if !ok {
			return fmt.Errorf("%w: plugin %d is not resolved", domain.ErrNotFound, node.PluginId)
		}

		spec := domain.Piping{PipelineId: pipelineId, PluginId: plugin.Id}
		if 0 <= parent {
			prev := pipingOf[parent].Id
			spec.PreviousId = &prev
		}
		p, err := w.CreatePiping(ctx, spec)
		if err != nil {
			return err
		}
		if _, err := AttachDefaults(ctx, w, *p, plugin, node.ParameterDefaults); err != nil {
			return err
		}
		pipingOf[ix] = *p
		created = append(created, *p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AttachDefaults stores defaults of all parameters of the plugin for the piping.
//
// For each parameter,
//
//   - when the piping already has its default, it is updated with the override if given, or left as is.
//   - otherwise, a new default is created with the override, the plugin's default or nil, in this order.
//
// Calling this again with the same arguments changes nothing.
//
// Returns
//
// - []domain.PipingDefault: defaults of the piping after this call, in the order of plugin parameters.
//
// - error
func AttachDefaults(
	ctx context.Context, w Writer, piping domain.Piping, plugin *domain.Plugin, overrides []ParameterDefault,
) ([]domain.PipingDefault, error) {
	existing, err := w.GetPipingDefaults(ctx, piping.Id)
	if err != nil {
		return nil, err
	}
	stored := map[int]domain.PipingDefault{}
	for _, d := range existing {
		stored[d.ParameterId] = d
	}

	given := map[string]domain.Value{}
	for _, o := range overrides {
		given[o.Name] = o.Value
	}

	result := make([]domain.PipingDefault, 0, len(plugin.Parameters))
	for _, param := range plugin.Parameters {
		override, hasOverride := given[param.Name]

		if d, ok := stored[param.Id]; ok {
			if hasOverride && d.Value != override {
				d.Value = override
				if err := w.UpdatePipingDefault(ctx, d); err != nil {
					return nil, err
				}
			}
			result = append(result, d)
			continue
		}

		value := param.Default
		if hasOverride {
			value = override
		}
		d := domain.PipingDefault{
			PipingId:    piping.Id,
			ParameterId: param.Id,
			Name:        param.Name,
			Type:        param.Type,
			Value:       value,
		}
		if err := w.CreatePipingDefault(ctx, d); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}
