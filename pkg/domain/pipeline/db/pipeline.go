package db

import (
	"context"

	"github.com/chrisstore/store/pkg/domain"
	"github.com/chrisstore/store/pkg/domain/pipetree"
)

type PipelineInterface interface {
	// register a new pipeline with its plugin tree
	//
	// The pipeline and its pipings with their defaults are written in one transaction.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.PipelineSpec: pipeline to be created
	//
	// - *pipetree.Tree: validated plugin tree
	//
	// - map[int]*domain.Plugin: plugins referred by the tree, keyed by plugin id
	//
	// Returns
	//
	// - int: id of the registered pipeline
	//
	// - error: wrapping domain.ErrDuplicatePipeline when the name is used.
	Register(ctx context.Context, spec *domain.PipelineSpec, tree *pipetree.Tree, plugins map[int]*domain.Plugin) (int, error)

	// ExistsName tells some pipeline has the name.
	ExistsName(ctx context.Context, name string) (bool, error)

	// Get returns a pipeline.
	//
	// Returns
	//
	// - error: wrapping domain.ErrMissing when not found.
	Get(ctx context.Context, pipelineId int) (*domain.Pipeline, error)

	// Update changes fields of a pipeline, and bumps its modification date.
	//
	// Returns
	//
	// - *domain.Pipeline: updated pipeline
	//
	// - error: wrapping domain.ErrMissing when not found, or domain.ErrDuplicatePipeline when the new name is used.
	Update(ctx context.Context, pipelineId int, update domain.PipelineUpdate) (*domain.Pipeline, error)

	// Pipings returns pipings of a pipeline, ordered by id.
	Pipings(ctx context.Context, pipelineId int) ([]domain.Piping, error)

	// GetPiping returns a piping.
	//
	// Returns
	//
	// - error: wrapping domain.ErrMissing when not found.
	GetPiping(ctx context.Context, pipingId int) (*domain.Piping, error)

	// Defaults returns defaults of all pipings of a pipeline, keyed by piping id.
	Defaults(ctx context.Context, pipelineId int) (map[int][]domain.PipingDefault, error)

	// SaveDefaults stores defaults of a piping with overrides, in one transaction.
	//
	// See pipetree.AttachDefaults.
	//
	// Returns
	//
	// - []domain.PipingDefault: defaults of the piping after saving.
	//
	// - error
	SaveDefaults(
		ctx context.Context, piping domain.Piping, plugin *domain.Plugin, overrides []pipetree.ParameterDefault,
	) ([]domain.PipingDefault, error)
}
