package plugins

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrisstore/store/pkg/utils/cmp"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
)

// Registration is a request to register a plugin version.
type Registration struct {
	Name       string `json:"name" yaml:"name"`
	PublicRepo string `json:"public_repo" yaml:"public_repo"`
	DockImage  string `json:"dock_image" yaml:"dock_image"`

	// DescriptorFile is the plugin descriptor.
	//
	// In JSON, it can be either an object or a string containing JSON.
	DescriptorFile Descriptor `json:"descriptor_file" yaml:"-"`
}

// Descriptor is a raw plugin descriptor in JSON.
//
// Empty Descriptor means "not given".
type Descriptor []byte

func (d Descriptor) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *Descriptor) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, string(b) == "null":
		*d = nil
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = Descriptor(bytes.TrimSpace([]byte(s)))
		return nil
	case b[0] == '{':
		*d = append(Descriptor{}, b...)
		return nil
	}
	return fmt.Errorf("descriptor_file should be an object or a string: %s", b)
}

// MetaUpdate is a request to change a plugin meta. Omitted fields are left as they are.
type MetaUpdate struct {
	PublicRepo *string `json:"public_repo,omitempty" yaml:"public_repo,omitempty"`

	// user to be added as an owner.
	NewOwner *string `json:"new_owner,omitempty" yaml:"new_owner,omitempty"`
}

// Meta is information shared across versions of a plugin.
type Meta struct {
	Id               int       `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	Title            string    `json:"title" yaml:"title"`
	PublicRepo       string    `json:"public_repo" yaml:"public_repo"`
	License          string    `json:"license" yaml:"license"`
	Type             string    `json:"type" yaml:"type"`
	Icon             string    `json:"icon" yaml:"icon"`
	Category         string    `json:"category" yaml:"category"`
	Authors          string    `json:"authors" yaml:"authors"`
	Documentation    string    `json:"documentation" yaml:"documentation"`
	Owners           []string  `json:"owners" yaml:"owners"`
	CreationDate     time.Time `json:"creation_date" yaml:"creation_date"`
	ModificationDate time.Time `json:"modification_date" yaml:"modification_date"`
}

type Parameter struct {
	Id        int    `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Optional  bool   `json:"optional" yaml:"optional"`
	Flag      string `json:"flag" yaml:"flag"`
	ShortFlag string `json:"short_flag" yaml:"short_flag"`
	Action    string `json:"action" yaml:"action"`
	Help      string `json:"help" yaml:"help"`
	UIExposed bool   `json:"ui_exposed" yaml:"ui_exposed"`

	// nil when the parameter has no default.
	Default any `json:"default" yaml:"default"`
}

func (p Parameter) Equal(o Parameter) bool {
	return p.Id == o.Id &&
		p.Name == o.Name &&
		p.Type == o.Type &&
		p.Optional == o.Optional &&
		p.Flag == o.Flag &&
		p.ShortFlag == o.ShortFlag &&
		p.Action == o.Action &&
		p.Help == o.Help &&
		p.UIExposed == o.UIExposed &&
		p.Default == o.Default
}

// Limits are resource limits of a plugin, in the form of descriptors.
type Limits struct {
	MinNumberOfWorkers int64  `json:"min_number_of_workers" yaml:"min_number_of_workers"`
	MaxNumberOfWorkers int64  `json:"max_number_of_workers" yaml:"max_number_of_workers"`
	MinCPULimit        string `json:"min_cpu_limit" yaml:"min_cpu_limit"`
	MaxCPULimit        string `json:"max_cpu_limit" yaml:"max_cpu_limit"`
	MinMemoryLimit     string `json:"min_memory_limit" yaml:"min_memory_limit"`
	MaxMemoryLimit     string `json:"max_memory_limit" yaml:"max_memory_limit"`
	MinGPULimit        int64  `json:"min_gpu_limit" yaml:"min_gpu_limit"`
	MaxGPULimit        int64  `json:"max_gpu_limit" yaml:"max_gpu_limit"`
}

type Detail struct {
	Id            int       `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Title         string    `json:"title" yaml:"title"`
	PublicRepo    string    `json:"public_repo" yaml:"public_repo"`
	License       string    `json:"license" yaml:"license"`
	Type          string    `json:"type" yaml:"type"`
	Icon          string    `json:"icon" yaml:"icon"`
	Category      string    `json:"category" yaml:"category"`
	Authors       string    `json:"authors" yaml:"authors"`
	Documentation string    `json:"documentation" yaml:"documentation"`
	Version       string    `json:"version" yaml:"version"`
	DockImage     string    `json:"dock_image" yaml:"dock_image"`
	ExecShell     string    `json:"execshell" yaml:"execshell"`
	SelfPath      string    `json:"selfpath" yaml:"selfpath"`
	SelfExec      string    `json:"selfexec" yaml:"selfexec"`
	Description   string    `json:"description" yaml:"description"`
	Owners        []string  `json:"owners" yaml:"owners"`
	CreationDate  time.Time `json:"creation_date" yaml:"creation_date"`

	Limits `yaml:",inline"`

	// Resources are the limits in the form of container resources.
	Resources corev1.ResourceRequirements `json:"resources" yaml:"-"`

	Parameters []Parameter `json:"parameters" yaml:"parameters"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id &&
		d.Name == o.Name &&
		d.Title == o.Title &&
		d.PublicRepo == o.PublicRepo &&
		d.License == o.License &&
		d.Type == o.Type &&
		d.Icon == o.Icon &&
		d.Category == o.Category &&
		d.Authors == o.Authors &&
		d.Documentation == o.Documentation &&
		d.Version == o.Version &&
		d.DockImage == o.DockImage &&
		d.ExecShell == o.ExecShell &&
		d.SelfPath == o.SelfPath &&
		d.SelfExec == o.SelfExec &&
		d.Description == o.Description &&
		cmp.SliceContentEq(d.Owners, o.Owners) &&
		d.CreationDate.Equal(o.CreationDate) &&
		d.Limits == o.Limits &&
		equality.Semantic.DeepEqual(d.Resources, o.Resources) &&
		cmp.SliceEqWith(d.Parameters, o.Parameters, Parameter.Equal)
}
