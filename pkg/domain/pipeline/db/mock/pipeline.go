package mocks

import (
	"context"
	"errors"

	"github.com/chrisstore/store/pkg/domain"
	kdbmock "github.com/chrisstore/store/pkg/domain/internal/db/mock"
	kdb "github.com/chrisstore/store/pkg/domain/pipeline/db"
	"github.com/chrisstore/store/pkg/domain/pipetree"
)

type RegisterArgs struct {
	Spec    *domain.PipelineSpec
	Tree    *pipetree.Tree
	Plugins map[int]*domain.Plugin
}

type UpdateArgs struct {
	PipelineId int
	Update     domain.PipelineUpdate
}

type SaveDefaultsArgs struct {
	Piping    domain.Piping
	Plugin    *domain.Plugin
	Overrides []pipetree.ParameterDefault
}

type PipelineInterface struct {
	Impl struct {
		Register     func(context.Context, *domain.PipelineSpec, *pipetree.Tree, map[int]*domain.Plugin) (int, error)
		ExistsName   func(context.Context, string) (bool, error)
		Get          func(context.Context, int) (*domain.Pipeline, error)
		Update       func(context.Context, int, domain.PipelineUpdate) (*domain.Pipeline, error)
		Pipings      func(context.Context, int) ([]domain.Piping, error)
		GetPiping    func(context.Context, int) (*domain.Piping, error)
		Defaults     func(context.Context, int) (map[int][]domain.PipingDefault, error)
		SaveDefaults func(context.Context, domain.Piping, *domain.Plugin, []pipetree.ParameterDefault) ([]domain.PipingDefault, error)
	}
	Calls struct {
		Register     kdbmock.CallLog[RegisterArgs]
		ExistsName   kdbmock.CallLog[string]
		Get          kdbmock.CallLog[int]
		Update       kdbmock.CallLog[UpdateArgs]
		Pipings      kdbmock.CallLog[int]
		GetPiping    kdbmock.CallLog[int]
		Defaults     kdbmock.CallLog[int]
		SaveDefaults kdbmock.CallLog[SaveDefaultsArgs]
	}
}

var _ kdb.PipelineInterface = &PipelineInterface{}

func NewPipelineInterface() *PipelineInterface {
	return &PipelineInterface{}
}

func (m *PipelineInterface) Register(
	ctx context.Context, spec *domain.PipelineSpec, tree *pipetree.Tree, plugins map[int]*domain.Plugin,
) (int, error) {
	m.Calls.Register = append(m.Calls.Register, RegisterArgs{Spec: spec, Tree: tree, Plugins: plugins})
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, spec, tree, plugins)
	}

	panic(errors.New("should not be called"))
}

func (m *PipelineInterface) ExistsName(ctx context.Context, name string) (bool, error) {
	m.Calls.ExistsName = append(m.Calls.ExistsName, name)
	if m.Impl.ExistsName != nil {
		return m.Impl.ExistsName(ctx, name)
	}

	panic(errors.New("should not be called"))
}

func (m *PipelineInterface) Get(ctx context.Context, pipelineId int) (*domain.Pipeline, error) {
	m.Calls.Get = append(m.Calls.Get, pipelineId)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, pipelineId)
	}

	panic(errors.New("should not be called"))
}

func (m *PipelineInterface) Update(ctx context.Context, pipelineId int, update domain.PipelineUpdate) (*domain.Pipeline, error) {
	m.Calls.Update = append(m.Calls.Update, UpdateArgs{PipelineId: pipelineId, Update: update})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, pipelineId, update)
	}

	panic(errors.New("should not be called"))
}

func (m *PipelineInterface) Pipings(ctx context.Context, pipelineId int) ([]domain.Piping, error) {
	m.Calls.Pipings = append(m.Calls.Pipings, pipelineId)
	if m.Impl.Pipings != nil {
		return m.Impl.Pipings(ctx, pipelineId)
	}

	panic(errors.New("should not be called"))
}

func (m *PipelineInterface) GetPiping(ctx context.Context, pipingId int) (*domain.Piping, error) {
	m.Calls.GetPiping = append(m.Calls.GetPiping, pipingId)
	if m.Impl.GetPiping != nil {
		return m.Impl.GetPiping(ctx, pipingId)
	}

	panic(errors.New("should not be called"))
}

func (m *PipelineInterface) Defaults(ctx context.Context, pipelineId int) (map[int][]domain.PipingDefault, error) {
	m.Calls.Defaults = append(m.Calls.Defaults, pipelineId)
	if m.Impl.Defaults != nil {
		return m.Impl.Defaults(ctx, pipelineId)
	}

	panic(errors.New("should not be called"))
}

func (m *PipelineInterface) SaveDefaults(
	ctx context.Context, piping domain.Piping, plugin *domain.Plugin, overrides []pipetree.ParameterDefault,
) ([]domain.PipingDefault, error) {
	m.Calls.SaveDefaults = append(m.Calls.SaveDefaults, SaveDefaultsArgs{Piping: piping, Plugin: plugin, Overrides: overrides})
	if m.Impl.SaveDefaults != nil {
		return m.Impl.SaveDefaults(ctx, piping, plugin, overrides)
	}

	panic(errors.New("should not be called"))
}
