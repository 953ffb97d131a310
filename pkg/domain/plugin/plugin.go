// Package plugin registers and manages plugins.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/go-containerregistry/pkg/name"

	"github.com/chrisstore/store/pkg/domain"
	"github.com/chrisstore/store/pkg/domain/descriptor"
	"github.com/chrisstore/store/pkg/domain/plugin/db"
)

const (
	maxNameLength       = 100
	maxPublicRepoLength = 300
	maxDockImageLength  = 500

	minUserNameLength = 4
	maxUserNameLength = 32
)

// Registration is a request to register a plugin version.
type Registration struct {
	Name       string
	PublicRepo string
	DockImage  string

	// user submitting the plugin
	Submitter string

	// plugin descriptor, in JSON
	Descriptor []byte
}

type Interface interface {
	Database() db.PluginInterface

	// Register validates the registration and stores it.
	//
	// Nothing is written unless the registration is valid.
	//
	// Returns
	//
	// - *domain.Plugin: registered plugin
	//
	// - error: *domain.ValidationError when the registration is invalid or conflicting with stored plugins.
	Register(ctx context.Context, reg Registration) (*domain.Plugin, error)

	// Get returns a plugin.
	//
	// Returns
	//
	// - error: wrapping domain.ErrNotFound when the plugin is not found.
	Get(ctx context.Context, pluginId int) (*domain.Plugin, error)

	// GetMeta returns a plugin meta with its collaborators.
	//
	// Returns
	//
	// - error: wrapping domain.ErrNotFound when no plugin has the name.
	GetMeta(ctx context.Context, name string) (*domain.PluginMeta, error)

	// UpdateMeta changes the public repository of a plugin, or adds an owner to it.
	//
	// Ownership of the caller is not checked.
	//
	// Returns
	//
	// - *domain.PluginMeta: updated meta
	//
	// - error: wrapping domain.ErrNotFound when no plugin has the name,
	// or *domain.ValidationError when the update is invalid.
	UpdateMeta(ctx context.Context, name string, update domain.PluginMetaUpdate) (*domain.PluginMeta, error)

	// UpdateOwnedMeta is UpdateMeta on behalf of the user.
	//
	// Returns
	//
	// - error: domain.ErrForbidden when the user is not an owner of the plugin,
	// or errors UpdateMeta returns.
	UpdateOwnedMeta(ctx context.Context, user string, name string, update domain.PluginMetaUpdate) (*domain.PluginMeta, error)

	// Remove deletes a plugin version.
	Remove(ctx context.Context, pluginId int) error
}

type impl struct {
	db db.PluginInterface
}

func New(db db.PluginInterface) Interface {
	return &impl{db: db}
}

func (i *impl) Database() db.PluginInterface {
	return i.db
}

// ValidateName checks a plugin name.
func ValidateName(pluginName string) error {
	if pluginName == "" {
		return domain.NewValidationError(domain.ErrInvalidPluginMeta, domain.FieldName, "This field may not be blank.")
	}
	if maxNameLength < len(pluginName) {
		return domain.NewValidationError(
			domain.ErrInvalidPluginMeta, domain.FieldName,
			fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength),
		)
	}
	return nil
}

// ValidatePublicRepo checks the public repository is a http(s) URL.
func ValidatePublicRepo(publicRepo string) error {
	invalid := domain.NewValidationError(domain.ErrInvalidPluginMeta, domain.FieldPublicRepo, "Enter a valid URL.")
	if maxPublicRepoLength < len(publicRepo) {
		return invalid
	}
	u, err := url.Parse(publicRepo)
	if err != nil {
		return invalid
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid
	}
	return nil
}

// ValidateNewOwner checks the name of a user to be an owner.
func ValidateNewOwner(user string) error {
	if len(user) < minUserNameLength {
		return domain.NewValidationError(
			domain.ErrInvalidPluginMeta, domain.FieldNewOwner,
			fmt.Sprintf("Ensure this field has at least %d characters.", minUserNameLength),
		)
	}
	if maxUserNameLength < len(user) {
		return domain.NewValidationError(
			domain.ErrInvalidPluginMeta, domain.FieldNewOwner,
			fmt.Sprintf("Ensure this field has no more than %d characters.", maxUserNameLength),
		)
	}
	return nil
}

// ValidateDockImage checks the docker image is a valid image reference.
func ValidateDockImage(dockImage string) error {
	if dockImage == "" {
		return domain.NewValidationError(domain.ErrInvalidPluginMeta, domain.FieldDockImage, "This field may not be blank.")
	}
	if maxDockImageLength < len(dockImage) {
		return domain.NewValidationError(
			domain.ErrInvalidPluginMeta, domain.FieldDockImage,
			fmt.Sprintf("Ensure this field has no more than %d characters.", maxDockImageLength),
		)
	}
	if _, err := name.ParseReference(dockImage); err != nil {
		return domain.NewValidationError(
			domain.ErrInvalidPluginMeta, domain.FieldDockImage,
			fmt.Sprintf("Invalid docker image reference %q: %s", dockImage, err),
		)
	}
	return nil
}

func (i *impl) Register(ctx context.Context, reg Registration) (*domain.Plugin, error) {
	if err := ValidateName(reg.Name); err != nil {
		return nil, err
	}
	if err := ValidatePublicRepo(reg.PublicRepo); err != nil {
		return nil, err
	}
	if err := ValidateDockImage(reg.DockImage); err != nil {
		return nil, err
	}
	if reg.Descriptor == nil {
		return nil, domain.NewValidationError(
			domain.ErrMissingDescriptor, domain.FieldDescriptorFile, "This field is required.",
		)
	}
	desc, err := descriptor.Parse(reg.Descriptor)
	if err != nil {
		return nil, err
	}

	meta, err := i.db.GetMeta(ctx, reg.Name)
	if err != nil && !errors.Is(err, domain.ErrMissing) {
		return nil, err
	}
	if meta != nil {
		if !meta.IsCollaborator(reg.Submitter) {
			return nil, domain.NewValidationError(
				domain.ErrOwnershipConflict, domain.FieldName,
				fmt.Sprintf("Plugin name %q is already owned by other users.", reg.Name),
			)
		}

		if exists, err := i.db.ExistsVersion(ctx, reg.Name, desc.Version); err != nil {
			return nil, err
		} else if exists {
			return nil, domain.NewValidationError(
				domain.ErrDuplicateVersion, domain.FieldDescriptorFile,
				fmt.Sprintf("Plugin with name %q and version %q already exists.", reg.Name, desc.Version),
			)
		}

		if exists, err := i.db.ExistsImage(ctx, reg.Name, reg.DockImage); err != nil {
			return nil, err
		} else if exists {
			return nil, domain.NewValidationError(
				domain.ErrDuplicateImage, domain.FieldDockImage,
				fmt.Sprintf("Docker image %q is already used by other version of plugin %q.", reg.DockImage, reg.Name),
			)
		}
	}

	spec := &domain.PluginSpec{
		Name:          reg.Name,
		PublicRepo:    reg.PublicRepo,
		Submitter:     reg.Submitter,
		Title:         desc.Title,
		License:       desc.License,
		Type:          desc.Type,
		Icon:          desc.Icon,
		Category:      desc.Category,
		Authors:       desc.Authors,
		Documentation: desc.Documentation,
		Version:       desc.Version,
		DockImage:     reg.DockImage,
		ExecShell:     desc.ExecShell,
		SelfPath:      desc.SelfPath,
		SelfExec:      desc.SelfExec,
		Description:   desc.Description,
		Limits:        desc.Limits.Resolve(),
		Parameters:    desc.Parameters,
	}

	id, err := i.db.Register(ctx, spec)
	if err != nil {
		return nil, err
	}
	return i.Get(ctx, id)
}

func (i *impl) Get(ctx context.Context, pluginId int) (*domain.Plugin, error) {
	found, err := i.db.Get(ctx, []int{pluginId})
	if err != nil {
		return nil, err
	}
	p, ok := found[pluginId]
	if !ok {
		return nil, fmt.Errorf("%w: plugin %d", domain.ErrNotFound, pluginId)
	}
	return p, nil
}

func (i *impl) GetMeta(ctx context.Context, pluginName string) (*domain.PluginMeta, error) {
	meta, err := i.db.GetMeta(ctx, pluginName)
	if errors.Is(err, domain.ErrMissing) {
		return nil, fmt.Errorf("%w: plugin %q", domain.ErrNotFound, pluginName)
	} else if err != nil {
		return nil, err
	}
	return meta, nil
}

func (i *impl) UpdateMeta(ctx context.Context, pluginName string, update domain.PluginMetaUpdate) (*domain.PluginMeta, error) {
	if update.PublicRepo != nil {
		if err := ValidatePublicRepo(*update.PublicRepo); err != nil {
			return nil, err
		}
	}
	if update.NewOwner != nil {
		if err := ValidateNewOwner(*update.NewOwner); err != nil {
			return nil, err
		}
	}

	if err := i.db.UpdateMeta(ctx, pluginName, update); errors.Is(err, domain.ErrMissing) {
		return nil, fmt.Errorf("%w: plugin %q", domain.ErrNotFound, pluginName)
	} else if err != nil {
		return nil, err
	}
	return i.GetMeta(ctx, pluginName)
}

func (i *impl) UpdateOwnedMeta(
	ctx context.Context, user string, pluginName string, update domain.PluginMetaUpdate,
) (*domain.PluginMeta, error) {
	meta, err := i.GetMeta(ctx, pluginName)
	if err != nil {
		return nil, err
	}
	if !meta.IsOwner(user) {
		return nil, fmt.Errorf("%w: plugin %q is not owned by %s", domain.ErrForbidden, pluginName, user)
	}
	return i.UpdateMeta(ctx, pluginName, update)
}

func (i *impl) Remove(ctx context.Context, pluginId int) error {
	return i.db.Remove(ctx, pluginId)
}
