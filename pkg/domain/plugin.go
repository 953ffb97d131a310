package domain

import (
	"fmt"
	"math"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
)

// PluginType is the kind of a plugin.
type PluginType string

const (
	// plugin processing data in feeds
	DataPlugin PluginType = "ds"

	// plugin bringing data into feeds from filesystem. It can not be a part of pipelines.
	FSPlugin PluginType = "fs"

	// plugin joining outputs of other plugins
	TopologyPlugin PluginType = "ts"
)

func ParsePluginType(s string) (PluginType, error) {
	switch t := PluginType(s); t {
	case DataPlugin, FSPlugin, TopologyPlugin:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown plugin type: %q", ErrInvalidDescriptor, s)
}

// Role of collaborators of a plugin.
type Role string

const (
	Owner      Role = "O"
	Maintainer Role = "M"
)

type Collaborator struct {
	User string
	Role Role
}

// PluginMeta is information shared across versions of a plugin.
type PluginMeta struct {
	Id            int
	Name          string
	Title         string
	PublicRepo    string
	License       string
	Type          PluginType
	Icon          string
	Category      string
	Authors       string
	Documentation string
	Collaborators []Collaborator
	CreatedAt     time.Time
	ModifiedAt    time.Time
}

// IsCollaborator tells the user can add versions to the plugin.
func (m *PluginMeta) IsCollaborator(user string) bool {
	for _, c := range m.Collaborators {
		if c.User == user {
			return true
		}
	}
	return false
}

// IsOwner tells the user can change the plugin meta.
func (m *PluginMeta) IsOwner(user string) bool {
	for _, c := range m.Collaborators {
		if c.User == user && c.Role == Owner {
			return true
		}
	}
	return false
}

// PluginMetaUpdate holds fields to be changed. nil fields are left as they are.
type PluginMetaUpdate struct {
	PublicRepo *string

	// user to be added as an owner. A maintainer is promoted.
	NewOwner *string
}

// Resource limit values applied when a descriptor does not tell them.
const (
	DefaultMinWorkers int64 = 1
	DefaultMinCPU     int64 = 1000 // millicores
	DefaultMinMemory  int64 = 200  // Mi
	DefaultMinGPU     int64 = 0
	DefaultMaxGPU     int64 = 0

	// upper bound of limits meaning "unbounded"
	Unlimited int64 = math.MaxInt32
)

// ResourceLimits are resource requirements of a plugin.
//
// CPU is in millicores, Memory is in Mi.
type ResourceLimits struct {
	MinWorkers int64
	MaxWorkers int64
	MinCPU     int64
	MaxCPU     int64
	MinMemory  int64
	MaxMemory  int64
	MinGPU     int64
	MaxGPU     int64
}

func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{
		MinWorkers: DefaultMinWorkers,
		MaxWorkers: Unlimited,
		MinCPU:     DefaultMinCPU,
		MaxCPU:     Unlimited,
		MinMemory:  DefaultMinMemory,
		MaxMemory:  Unlimited,
		MinGPU:     DefaultMinGPU,
		MaxGPU:     DefaultMaxGPU,
	}
}

// GPUResourceName is the name of GPU resource in ResourceRequirements.
const GPUResourceName corev1.ResourceName = "nvidia.com/gpu"

// Requirements converts limits into a form of kubernetes container resources.
//
// Minimums become requests, and maximums become limits. Unlimited maximums are omitted.
func (l ResourceLimits) Requirements() corev1.ResourceRequirements {
	req := corev1.ResourceRequirements{
		Requests: corev1.ResourceList{
			corev1.ResourceCPU:    *resource.NewMilliQuantity(l.MinCPU, resource.DecimalSI),
			corev1.ResourceMemory: *resource.NewQuantity(l.MinMemory*1024*1024, resource.BinarySI),
		},
		Limits: corev1.ResourceList{},
	}
	if l.MaxCPU < Unlimited {
		req.Limits[corev1.ResourceCPU] = *resource.NewMilliQuantity(l.MaxCPU, resource.DecimalSI)
	}
	if l.MaxMemory < Unlimited {
		req.Limits[corev1.ResourceMemory] = *resource.NewQuantity(l.MaxMemory*1024*1024, resource.BinarySI)
	}
	if 0 < l.MinGPU {
		req.Requests[GPUResourceName] = *resource.NewQuantity(l.MinGPU, resource.DecimalSI)
	}
	if 0 < l.MaxGPU && l.MaxGPU < Unlimited {
		req.Limits[GPUResourceName] = *resource.NewQuantity(l.MaxGPU, resource.DecimalSI)
	}
	return req
}

type PluginParameter struct {
	Id        int
	Name      string
	Type      ParameterType
	Optional  bool
	Flag      string
	ShortFlag string
	Action    string
	Help      string
	UIExposed bool

	// plugin's own default. nil if not given.
	Default Value
}

type Plugin struct {
	Id          int
	Meta        PluginMeta
	Version     string
	DockImage   string
	ExecShell   string
	SelfPath    string
	SelfExec    string
	Description string
	Limits      ResourceLimits
	Parameters  []PluginParameter
	CreatedAt   time.Time
}

// Name is the name of the plugin.
func (p *Plugin) Name() string {
	return p.Meta.Name
}

// Parameter finds a parameter by its name.
func (p *Plugin) Parameter(name string) (PluginParameter, bool) {
	for _, param := range p.Parameters {
		if param.Name == name {
			return param, true
		}
	}
	return PluginParameter{}, false
}

// PluginSpec is a validated plugin to be registered.
type PluginSpec struct {
	// name of the plugin. A new PluginMeta is created if no plugin has this name.
	Name       string
	PublicRepo string

	// the user submitting. When the plugin name is new, the user becomes its owner.
	Submitter string

	Title         string
	License       string
	Type          PluginType
	Icon          string
	Category      string
	Authors       string
	Documentation string

	Version     string
	DockImage   string
	ExecShell   string
	SelfPath    string
	SelfExec    string
	Description string
	Limits      ResourceLimits
	Parameters  []PluginParameter
}
