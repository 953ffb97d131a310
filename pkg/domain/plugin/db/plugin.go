package db

import (
	"context"

	"github.com/chrisstore/store/pkg/domain"
)

type PluginInterface interface {
	// Retrieve plugins by their ids
	//
	// Args
	//
	// - context.Context
	//
	// - []int: plugin ids to be searched
	//
	// Returns
	//
	// - map[int]*domain.Plugin: mapping plugin id to a found plugin, with its meta and parameters.
	// Plugins not found are not in the map.
	//
	// - error
	Get(context.Context, []int) (map[int]*domain.Plugin, error)

	// Retrieve a plugin by its name and version
	//
	// Returns
	//
	// - *domain.Plugin
	//
	// - error: wrapping domain.ErrMissing when not found.
	GetByNameVersion(ctx context.Context, name string, version string) (*domain.Plugin, error)

	// Retrieve a plugin meta by its name, with collaborators.
	//
	// Returns
	//
	// - *domain.PluginMeta
	//
	// - error: wrapping domain.ErrMissing when not found.
	GetMeta(ctx context.Context, name string) (*domain.PluginMeta, error)

	// ExistsVersion tells the plugin with the name has the version.
	ExistsVersion(ctx context.Context, name string, version string) (bool, error)

	// ExistsImage tells the plugin with the name has a version with the docker image.
	ExistsImage(ctx context.Context, name string, dockImage string) (bool, error)

	// register a new plugin version
	//
	// When no plugin meta has the name, it is created and the submitter becomes its owner.
	// The plugin, its parameters and their defaults are written in one transaction.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.PluginSpec: validated plugin
	//
	// Returns
	//
	// - int: id of the registered plugin
	//
	// - error: domain.ErrDuplicateVersion or domain.ErrDuplicateImage when conflicting with stored plugins.
	Register(context.Context, *domain.PluginSpec) (int, error)

	// UpdateMeta changes the public repository and owners of the plugin meta, in one transaction.
	//
	// The modification date is always refreshed.
	//
	// Returns
	//
	// - error: wrapping domain.ErrMissing when no plugin meta has the name.
	UpdateMeta(ctx context.Context, name string, update domain.PluginMetaUpdate) error

	// Remove deletes a plugin version.
	//
	// When it was the last version of its meta, the meta is deleted too.
	//
	// Returns
	//
	// - error: wrapping domain.ErrMissing when the plugin is not found.
	Remove(ctx context.Context, pluginId int) error
}
