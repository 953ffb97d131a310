package plugins

import (
	"fmt"

	apiplugins "github.com/chrisstore/store/pkg/api/types/plugins"
	"github.com/chrisstore/store/pkg/domain"
	"github.com/chrisstore/store/pkg/domain/plugin"
	"github.com/chrisstore/store/pkg/utils"
)

func ComposeParameter(p domain.PluginParameter) apiplugins.Parameter {
	return apiplugins.Parameter{
		Id:        p.Id,
		Name:      p.Name,
		Type:      string(p.Type),
		Optional:  p.Optional,
		Flag:      p.Flag,
		ShortFlag: p.ShortFlag,
		Action:    p.Action,
		Help:      p.Help,
		UIExposed: p.UIExposed,
		Default:   domain.AnyOf(p.Default),
	}
}

// ComposeLimits shows limits in the form of descriptors.
//
// CPU is in millicores ("1000m") and memory is in Mi ("200Mi").
func ComposeLimits(l domain.ResourceLimits) apiplugins.Limits {
	return apiplugins.Limits{
		MinNumberOfWorkers: l.MinWorkers,
		MaxNumberOfWorkers: l.MaxWorkers,
		MinCPULimit:        fmt.Sprintf("%dm", l.MinCPU),
		MaxCPULimit:        fmt.Sprintf("%dm", l.MaxCPU),
		MinMemoryLimit:     fmt.Sprintf("%dMi", l.MinMemory),
		MaxMemoryLimit:     fmt.Sprintf("%dMi", l.MaxMemory),
		MinGPULimit:        l.MinGPU,
		MaxGPULimit:        l.MaxGPU,
	}
}

func owners(m domain.PluginMeta) []string {
	owners := []string{}
	for _, c := range m.Collaborators {
		if c.Role == domain.Owner {
			owners = append(owners, c.User)
		}
	}
	return owners
}

func ComposeMeta(m domain.PluginMeta) apiplugins.Meta {
	return apiplugins.Meta{
		Id:               m.Id,
		Name:             m.Name,
		Title:            m.Title,
		PublicRepo:       m.PublicRepo,
		License:          m.License,
		Type:             string(m.Type),
		Icon:             m.Icon,
		Category:         m.Category,
		Authors:          m.Authors,
		Documentation:    m.Documentation,
		Owners:           owners(m),
		CreationDate:     m.CreatedAt,
		ModificationDate: m.ModifiedAt,
	}
}

// ParseMetaUpdate converts a meta update request from the user.
func ParseMetaUpdate(req apiplugins.MetaUpdate) domain.PluginMetaUpdate {
	return domain.PluginMetaUpdate{
		PublicRepo: req.PublicRepo,
		NewOwner:   req.NewOwner,
	}
}

func ComposeDetail(p domain.Plugin) apiplugins.Detail {
	return apiplugins.Detail{
		Id:            p.Id,
		Name:          p.Meta.Name,
		Title:         p.Meta.Title,
		PublicRepo:    p.Meta.PublicRepo,
		License:       p.Meta.License,
		Type:          string(p.Meta.Type),
		Icon:          p.Meta.Icon,
		Category:      p.Meta.Category,
		Authors:       p.Meta.Authors,
		Documentation: p.Meta.Documentation,
		Version:       p.Version,
		DockImage:     p.DockImage,
		ExecShell:     p.ExecShell,
		SelfPath:      p.SelfPath,
		SelfExec:      p.SelfExec,
		Description:   p.Description,
		Owners:        owners(p.Meta),
		CreationDate:  p.CreatedAt,
		Limits:        ComposeLimits(p.Limits),
		Resources:     p.Limits.Requirements(),
		Parameters:    utils.Map(p.Parameters, ComposeParameter),
	}
}

// ParseRegistration converts a registration request from the user.
func ParseRegistration(req apiplugins.Registration, submitter string) plugin.Registration {
	var desc []byte
	if len(req.DescriptorFile) != 0 {
		desc = []byte(req.DescriptorFile)
	}
	return plugin.Registration{
		Name:       req.Name,
		PublicRepo: req.PublicRepo,
		DockImage:  req.DockImage,
		Submitter:  submitter,
		Descriptor: desc,
	}
}
