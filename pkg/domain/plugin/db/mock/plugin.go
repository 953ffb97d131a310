package mocks

import (
	"context"
	"errors"

	"github.com/chrisstore/store/pkg/domain"
	kdbmock "github.com/chrisstore/store/pkg/domain/internal/db/mock"
	kdb "github.com/chrisstore/store/pkg/domain/plugin/db"
)

type NameVersionArgs struct {
	Name    string
	Version string
}

type NameImageArgs struct {
	Name      string
	DockImage string
}

type UpdateMetaArgs struct {
	Name   string
	Update domain.PluginMetaUpdate
}

type PluginInterface struct {
	Impl struct {
		Get              func(context.Context, []int) (map[int]*domain.Plugin, error)
		GetByNameVersion func(context.Context, string, string) (*domain.Plugin, error)
		GetMeta          func(context.Context, string) (*domain.PluginMeta, error)
		ExistsVersion    func(context.Context, string, string) (bool, error)
		ExistsImage      func(context.Context, string, string) (bool, error)
		Register         func(context.Context, *domain.PluginSpec) (int, error)
		UpdateMeta       func(context.Context, string, domain.PluginMetaUpdate) error
		Remove           func(context.Context, int) error
	}
	Calls struct {
		Get              kdbmock.CallLog[[]int]
		GetByNameVersion kdbmock.CallLog[NameVersionArgs]
		GetMeta          kdbmock.CallLog[string]
		ExistsVersion    kdbmock.CallLog[NameVersionArgs]
		ExistsImage      kdbmock.CallLog[NameImageArgs]
		Register         kdbmock.CallLog[*domain.PluginSpec]
		UpdateMeta       kdbmock.CallLog[UpdateMetaArgs]
		Remove           kdbmock.CallLog[int]
	}
}

var _ kdb.PluginInterface = &PluginInterface{}

func NewPluginInterface() *PluginInterface {
	return &PluginInterface{}
}

func (m *PluginInterface) Get(ctx context.Context, pluginIds []int) (map[int]*domain.Plugin, error) {
	m.Calls.Get = append(m.Calls.Get, pluginIds)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, pluginIds)
	}

	panic(errors.New("should not be called"))
}

func (m *PluginInterface) GetByNameVersion(ctx context.Context, name string, version string) (*domain.Plugin, error) {
	m.Calls.GetByNameVersion = append(m.Calls.GetByNameVersion, NameVersionArgs{Name: name, Version: version})
	if m.Impl.GetByNameVersion != nil {
		return m.Impl.GetByNameVersion(ctx, name, version)
	}

	panic(errors.New("should not be called"))
}

func (m *PluginInterface) GetMeta(ctx context.Context, name string) (*domain.PluginMeta, error) {
	m.Calls.GetMeta = append(m.Calls.GetMeta, name)
	if m.Impl.GetMeta != nil {
		return m.Impl.GetMeta(ctx, name)
	}

	panic(errors.New("should not be called"))
}

func (m *PluginInterface) ExistsVersion(ctx context.Context, name string, version string) (bool, error) {
	m.Calls.ExistsVersion = append(m.Calls.ExistsVersion, NameVersionArgs{Name: name, Version: version})
	if m.Impl.ExistsVersion != nil {
		return m.Impl.ExistsVersion(ctx, name, version)
	}

	panic(errors.New("should not be called"))
}

func (m *PluginInterface) ExistsImage(ctx context.Context, name string, dockImage string) (bool, error) {
	m.Calls.ExistsImage = append(m.Calls.ExistsImage, NameImageArgs{Name: name, DockImage: dockImage})
	if m.Impl.ExistsImage != nil {
		return m.Impl.ExistsImage(ctx, name, dockImage)
	}

	panic(errors.New("should not be called"))
}

func (m *PluginInterface) Register(ctx context.Context, spec *domain.PluginSpec) (int, error) {
	m.Calls.Register = append(m.Calls.Register, spec)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, spec)
	}

	panic(errors.New("should not be called"))
}

func (m *PluginInterface) UpdateMeta(ctx context.Context, name string, update domain.PluginMetaUpdate) error {
	m.Calls.UpdateMeta = append(m.Calls.UpdateMeta, UpdateMetaArgs{Name: name, Update: update})
	if m.Impl.UpdateMeta != nil {
		return m.Impl.UpdateMeta(ctx, name, update)
	}

	panic(errors.New("should not be called"))
}

func (m *PluginInterface) Remove(ctx context.Context, pluginId int) error {
	m.Calls.Remove = append(m.Calls.Remove, pluginId)
	if m.Impl.Remove != nil {
		return m.Impl.Remove(ctx, pluginId)
	}

	panic(errors.New("should not be called"))
}
