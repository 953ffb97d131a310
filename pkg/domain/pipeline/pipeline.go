// Package pipeline creates, updates and exports pipelines.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisstore/store/pkg/domain"
	"github.com/chrisstore/store/pkg/domain/pipeline/db"
	"github.com/chrisstore/store/pkg/domain/pipetree"
)

const maxNameLength = 100

// Creation is a request to create a pipeline.
type Creation struct {
	Name        string
	Authors     string
	Category    string
	Description string

	// nil means locked.
	Locked *bool

	// user creating the pipeline. It becomes the owner.
	Owner string

	// plugin_tree, in JSON. A list of nodes, or a string containing it.
	PluginTree []byte
}

type Interface interface {
	Database() db.PipelineInterface

	// Create validates the pipeline and its plugin tree and stores them.
	//
	// Nothing is written unless everything is valid.
	//
	// Returns
	//
	// - *domain.Pipeline: created pipeline
	//
	// - error: *domain.ValidationError when the request is invalid.
	Create(ctx context.Context, c Creation) (*domain.Pipeline, error)

	// Get returns a pipeline accessible for the user.
	//
	// The administrating user (see WithAdmin) can get any pipeline.
	//
	// Returns
	//
	// - error: wrapping domain.ErrNotFound when not found or not accessible.
	Get(ctx context.Context, user string, pipelineId int) (*domain.Pipeline, error)

	// Update changes a pipeline owned by the user.
	//
	// The plugin tree can not be changed.
	// Unlocking the pipeline requires all stored defaults have values.
	//
	// Returns
	//
	// - *domain.Pipeline: updated pipeline
	//
	// - error: domain.ErrForbidden when the user is not the owner,
	// or *domain.ValidationError when the update is invalid.
	Update(ctx context.Context, user string, pipelineId int, update domain.PipelineUpdate) (*domain.Pipeline, error)

	// Tree exports the plugin tree of a pipeline accessible for the user.
	Tree(ctx context.Context, user string, pipelineId int) (*pipetree.Tree, error)

	// UpdatePipingDefaults re-saves defaults of a piping with overrides.
	//
	// Returns
	//
	// - []domain.PipingDefault: defaults of the piping after saving.
	//
	// - error: domain.ErrForbidden when the user is not the owner of the pipeline,
	// or *domain.ValidationError when overrides are invalid.
	UpdatePipingDefaults(ctx context.Context, user string, pipingId int, overrides []pipetree.Override) ([]domain.PipingDefault, error)

	// BuildTree builds and validates a plugin tree without storing it.
	BuildTree(ctx context.Context, pluginTree []byte) (*pipetree.Tree, error)
}

type impl struct {
	db      db.PipelineInterface
	plugins pipetree.PluginLookup
	admin   string
}

type Option func(*impl)

// WithAdmin sets the user who can see every pipeline, including locked ones of others.
//
// Administrating user does not become an owner of them.
func WithAdmin(user string) Option {
	return func(i *impl) {
		i.admin = user
	}
}

func New(db db.PipelineInterface, plugins pipetree.PluginLookup, options ...Option) Interface {
	i := &impl{db: db, plugins: plugins}
	for _, o := range options {
		o(i)
	}
	return i
}

func (i *impl) Database() db.PipelineInterface {
	return i.db
}

func validateName(name string) error {
	if name == "" {
		return domain.NewValidationError(domain.ErrInvalidPipeline, domain.FieldName, "This field may not be blank.")
	}
	if maxNameLength < len(name) {
		return domain.NewValidationError(
			domain.ErrInvalidPipeline, domain.FieldName,
			fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength),
		)
	}
	return nil
}

func (i *impl) checkNameIsFree(ctx context.Context, name string) error {
	exists, err := i.db.ExistsName(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewValidationError(
			domain.ErrDuplicatePipeline, domain.FieldName, "pipeline with this name already exists.",
		)
	}
	return nil
}

func (i *impl) BuildTree(ctx context.Context, pluginTree []byte) (*pipetree.Tree, error) {
	tree, _, err := i.buildTree(ctx, pluginTree)
	return tree, err
}

func (i *impl) buildTree(ctx context.Context, pluginTree []byte) (*pipetree.Tree, map[int]*domain.Plugin, error) {
	if pluginTree == nil {
		return nil, nil, domain.NewValidationError(
			domain.ErrInvalidTree, domain.FieldPluginTree, "This field is required.",
		)
	}
	params, err := pipetree.Decode(pluginTree)
	if err != nil {
		return nil, nil, err
	}
	nodes, plugins, err := pipetree.Resolve(ctx, i.plugins, params)
	if err != nil {
		return nil, nil, err
	}
	tree, err := pipetree.BuildAndValidate(nodes)
	if err != nil {
		return nil, nil, err
	}
	return tree, plugins, nil
}

func (i *impl) Create(ctx context.Context, c Creation) (*domain.Pipeline, error) {
	if err := validateName(c.Name); err != nil {
		return nil, err
	}

	tree, plugins, err := i.buildTree(ctx, c.PluginTree)
	if err != nil {
		return nil, err
	}

	locked := c.Locked == nil || *c.Locked
	if !locked {
		if err := pipetree.CheckUnlockFeasibility(tree, plugins); err != nil {
			return nil, err
		}
	}

	if err := i.checkNameIsFree(ctx, c.Name); err != nil {
		return nil, err
	}

	id, err := i.db.Register(ctx, &domain.PipelineSpec{
		Name:        c.Name,
		Locked:      locked,
		Authors:     c.Authors,
		Category:    c.Category,
		Description: c.Description,
		Owner:       c.Owner,
	}, tree, plugins)
	if err != nil {
		return nil, err
	}
	return i.db.Get(ctx, id)
}

func (i *impl) Get(ctx context.Context, user string, pipelineId int) (*domain.Pipeline, error) {
	p, err := i.db.Get(ctx, pipelineId)
	if errors.Is(err, domain.ErrMissing) {
		return nil, fmt.Errorf("%w: pipeline %d", domain.ErrNotFound, pipelineId)
	} else if err != nil {
		return nil, err
	}
	if !i.visible(p, user) {
		return nil, fmt.Errorf("%w: pipeline %d", domain.ErrNotFound, pipelineId)
	}
	return p, nil
}

func (i *impl) visible(p *domain.Pipeline, user string) bool {
	if i.admin != "" && user == i.admin {
		return true
	}
	return p.Accessible(user)
}

func (i *impl) owned(ctx context.Context, user string, pipelineId int) (*domain.Pipeline, error) {
	p, err := i.Get(ctx, user, pipelineId)
	if err != nil {
		return nil, err
	}
	if p.Owner != user {
		return nil, fmt.Errorf("%w: pipeline %d is owned by other user", domain.ErrForbidden, pipelineId)
	}
	return p, nil
}

func (i *impl) Update(ctx context.Context, user string, pipelineId int, update domain.PipelineUpdate) (*domain.Pipeline, error) {
	p, err := i.owned(ctx, user, pipelineId)
	if err != nil {
		return nil, err
	}

	if update.Name != nil && *update.Name != p.Name {
		if err := validateName(*update.Name); err != nil {
			return nil, err
		}
		if err := i.checkNameIsFree(ctx, *update.Name); err != nil {
			return nil, err
		}
	}

	if update.Locked != nil && !*update.Locked && p.Locked {
		defaults, err := i.db.Defaults(ctx, pipelineId)
		if err != nil {
			return nil, err
		}
		for _, ds := range defaults {
			if err := pipetree.CheckStoredDefaults(ds); err != nil {
				return nil, err
			}
		}
	}

	return i.db.Update(ctx, pipelineId, update)
}

func (i *impl) Tree(ctx context.Context, user string, pipelineId int) (*pipetree.Tree, error) {
	if _, err := i.Get(ctx, user, pipelineId); err != nil {
		return nil, err
	}
	pipings, err := i.db.Pipings(ctx, pipelineId)
	if err != nil {
		return nil, err
	}
	defaults, err := i.db.Defaults(ctx, pipelineId)
	if err != nil {
		return nil, err
	}
	return pipetree.FromPipings(pipings, defaults)
}

func (i *impl) UpdatePipingDefaults(
	ctx context.Context, user string, pipingId int, overrides []pipetree.Override,
) ([]domain.PipingDefault, error) {
	piping, err := i.db.GetPiping(ctx, pipingId)
	if errors.Is(err, domain.ErrMissing) {
		return nil, fmt.Errorf("%w: piping %d", domain.ErrNotFound, pipingId)
	} else if err != nil {
		return nil, err
	}
	if _, err := i.owned(ctx, user, piping.PipelineId); err != nil {
		return nil, err
	}

	found, err := i.plugins.Get(ctx, []int{piping.PluginId})
	if err != nil {
		return nil, err
	}
	plugin, ok := found[piping.PluginId]
	if !ok {
		return nil, fmt.Errorf("%w: plugin %d", domain.ErrNotFound, piping.PluginId)
	}

	defaults, err := pipetree.ValidateOverrides(plugin, overrides)
	if err != nil {
		if verr := new(domain.ValidationError); errors.As(err, &verr) {
			return nil, domain.NewValidationError(verr.Kind(), domain.FieldDefaults, verr.Messages...)
		}
		return nil, err
	}

	return i.db.SaveDefaults(ctx, *piping, plugin, defaults)
}
