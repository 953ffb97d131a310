// Package descriptor validates plugin descriptors.
//
// A plugin descriptor (app representation) is a JSON document which plugin authors
// submit with their plugin images. It tells how to run the plugin, how much resources
// the plugin requires, and which parameters the plugin takes.
package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/chrisstore/store/pkg/domain"
	"github.com/chrisstore/store/pkg/domain/quantity"
)

// Limits are resource limits told in a descriptor.
//
// nil means "not told". Defaults are applied by Resolve.
type Limits struct {
	MinWorkers *int64
	MaxWorkers *int64
	MinCPU     *int64
	MaxCPU     *int64
	MinMemory  *int64
	MaxMemory  *int64
	MinGPU     *int64
	MaxGPU     *int64
}

// Resolve fills limits not told with default values.
func (l Limits) Resolve() domain.ResourceLimits {
	ret := domain.DefaultResourceLimits()
	for _, p := range []struct {
		from *int64
		to   *int64
	}{
		{l.MinWorkers, &ret.MinWorkers},
		{l.MaxWorkers, &ret.MaxWorkers},
		{l.MinCPU, &ret.MinCPU},
		{l.MaxCPU, &ret.MaxCPU},
		{l.MinMemory, &ret.MinMemory},
		{l.MaxMemory, &ret.MaxMemory},
		{l.MinGPU, &ret.MinGPU},
		{l.MaxGPU, &ret.MaxGPU},
	} {
		if p.from != nil {
			*p.to = *p.from
		}
	}
	return ret
}

// Descriptor is a validated and normalized plugin descriptor.
type Descriptor struct {
	Version   string
	ExecShell string
	SelfPath  string
	SelfExec  string

	Title         string
	Description   string
	License       string
	Type          domain.PluginType
	Icon          string
	Category      string
	Authors       string
	Documentation string

	Limits Limits

	// parameters with inferred actions and coerced defaults. Ids are not assigned.
	Parameters []domain.PluginParameter
}

const (
	maxVersionLength       = 10
	maxParameterNameLength = 50
	maxFlagLength          = 52
	maxTitleLength         = 400
)

var versionPattern = regexp.MustCompile(`^[0-9.]+$`)

var requiredFields = []string{"version", "execshell", "selfpath", "selfexec", "parameters"}

type dimension struct {
	min, max string
	parse    func(any) (int64, error)
	minOf    func(*Limits) **int64
	maxOf    func(*Limits) **int64
	message  string
}

var dimensions = []dimension{
	{
		min:     "min_number_of_workers",
		max:     "max_number_of_workers",
		parse:   workers,
		minOf:   func(l *Limits) **int64 { return &l.MinWorkers },
		maxOf:   func(l *Limits) **int64 { return &l.MaxWorkers },
		message: "Minimum number of workers should be less than maximum number of workers",
	},
	{
		min:     "min_cpu_limit",
		max:     "max_cpu_limit",
		parse:   quantity.CPU,
		minOf:   func(l *Limits) **int64 { return &l.MinCPU },
		maxOf:   func(l *Limits) **int64 { return &l.MaxCPU },
		message: "Minimum cpu limit should be less than maximum cpu limit",
	},
	{
		min:     "min_memory_limit",
		max:     "max_memory_limit",
		parse:   quantity.Memory,
		minOf:   func(l *Limits) **int64 { return &l.MinMemory },
		maxOf:   func(l *Limits) **int64 { return &l.MaxMemory },
		message: "Minimum memory limit should be less than maximum memory limit",
	},
	{
		min:     "min_gpu_limit",
		max:     "max_gpu_limit",
		parse:   quantity.Count,
		minOf:   func(l *Limits) **int64 { return &l.MinGPU },
		maxOf:   func(l *Limits) **int64 { return &l.MaxGPU },
		message: "Minimum gpu limit should be less than maximum gpu limit",
	},
}

func workers(v any) (int64, error) {
	n, err := quantity.Count(v)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: number of workers should be 1 or more", quantity.ErrInvalidQuantity)
	}
	return n, nil
}

func invalid(kind error, format string, args ...any) error {
	return domain.NewValidationError(kind, domain.FieldDescriptorFile, fmt.Sprintf(format, args...))
}

// Parse reads a descriptor from JSON and validates it.
//
// Returns
//
// - *Descriptor: normalized descriptor.
//
// - error: *domain.ValidationError when the document is not a valid descriptor.
func Parse(document []byte) (*Descriptor, error) {
	dec := json.NewDecoder(bytes.NewReader(document))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, invalid(domain.ErrInvalidDescriptor, "Invalid json representation file.")
	}
	if dec.More() {
		return nil, invalid(domain.ErrInvalidDescriptor, "Invalid json representation file.")
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, invalid(domain.ErrInvalidDescriptor, "Invalid json representation file.")
	}
	return Validate(obj)
}

// Validate validates a descriptor decoded from JSON.
//
// Numbers in the document are expected to be decoded as json.Number or float64.
//
// Returns
//
// - *Descriptor: normalized descriptor.
//
// - error: *domain.ValidationError when the document is not a valid descriptor.
// It is one of domain.ErrMissingDescriptor, domain.ErrInvalidResourceLimits,
// domain.ErrInvalidParameterType, domain.ErrMissingDefault, domain.ErrInvalidDefaultValue
// or domain.ErrInvalidDescriptor.
func Validate(doc map[string]any) (*Descriptor, error) {
	for _, f := range requiredFields {
		if _, ok := doc[f]; !ok {
			return nil, invalid(domain.ErrMissingDescriptor, "Descriptor must contain a %q field.", f)
		}
	}

	d := &Descriptor{}

	version, ok := doc["version"].(string)
	if !ok {
		return nil, invalid(domain.ErrInvalidDescriptor, "Invalid 'version' type. Must be a string.")
	}
	if !versionPattern.MatchString(version) || maxVersionLength < len(version) {
		return nil, invalid(
			domain.ErrInvalidDescriptor,
			"Invalid 'version' %q. Must be numbers and dots, up to %d characters.", version, maxVersionLength,
		)
	}
	d.Version = version

	for _, f := range []struct {
		key string
		to  *string
	}{
		{"execshell", &d.ExecShell},
		{"selfpath", &d.SelfPath},
		{"selfexec", &d.SelfExec},
	} {
		s, ok := doc[f.key].(string)
		if !ok || s == "" {
			return nil, invalid(domain.ErrInvalidDescriptor, "Invalid '%s'. Must be a non-empty string.", f.key)
		}
		*f.to = s
	}

	for _, f := range []struct {
		key string
		to  *string
	}{
		{"title", &d.Title},
		{"description", &d.Description},
		{"license", &d.License},
		{"icon", &d.Icon},
		{"category", &d.Category},
		{"authors", &d.Authors},
		{"documentation", &d.Documentation},
	} {
		v, ok := doc[f.key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, invalid(domain.ErrInvalidDescriptor, "Invalid '%s' type. Must be a string.", f.key)
		}
		*f.to = s
	}
	if maxTitleLength < len(d.Title) {
		return nil, invalid(domain.ErrInvalidDescriptor, "'title' is too long. up to %d characters.", maxTitleLength)
	}

	d.Type = domain.DataPlugin
	if v, ok := doc["type"]; ok && v != nil {
		s, _ := v.(string)
		t, err := domain.ParsePluginType(s)
		if err != nil {
			return nil, invalid(domain.ErrInvalidDescriptor, "Invalid 'type' %v. Must be one of ds, fs or ts.", v)
		}
		d.Type = t
	}

	limits, err := validateLimits(doc)
	if err != nil {
		return nil, err
	}
	d.Limits = limits

	params, err := validateParameters(doc["parameters"])
	if err != nil {
		return nil, err
	}
	d.Parameters = params

	return d, nil
}

func validateLimits(doc map[string]any) (Limits, error) {
	limits := Limits{}
	for _, dim := range dimensions {
		for _, f := range []struct {
			key string
			to  **int64
		}{
			{dim.min, dim.minOf(&limits)},
			{dim.max, dim.maxOf(&limits)},
		} {
			v, ok := doc[f.key]
			if !ok || v == nil {
				continue
			}
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			n, err := dim.parse(v)
			if err != nil {
				return Limits{}, domain.NewValidationError(
					domain.ErrInvalidResourceLimits, domain.FieldDescriptorFile,
					fmt.Sprintf("Invalid '%s': %s", f.key, err),
				)
			}
			*f.to = &n
		}

		lo, hi := *dim.minOf(&limits), *dim.maxOf(&limits)
		if lo != nil && hi != nil && *hi < *lo {
			return Limits{}, domain.NewValidationError(
				domain.ErrInvalidResourceLimits, domain.FieldDescriptorFile, dim.message,
			)
		}
	}
	return limits, nil
}

func validateParameters(v any) ([]domain.PluginParameter, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, invalid(domain.ErrInvalidDescriptor, "Invalid 'parameters'. Must be a list.")
	}

	params := make([]domain.PluginParameter, 0, len(list))
	names := map[string]struct{}{}
	for nth, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, invalid(domain.ErrInvalidDescriptor, "Invalid parameter #%d. Must be a JSON object.", nth)
		}
		p, err := validateParameter(obj)
		if err != nil {
			return nil, err
		}
		if _, ok := names[p.Name]; ok {
			return nil, invalid(domain.ErrInvalidDescriptor, "Parameter %q is declared more than once.", p.Name)
		}
		names[p.Name] = struct{}{}
		params = append(params, p)
	}
	return params, nil
}

func validateParameter(obj map[string]any) (domain.PluginParameter, error) {
	p := domain.PluginParameter{Action: "store", UIExposed: true}

	name, _ := obj["name"].(string)
	if name == "" || maxParameterNameLength < len(name) {
		return p, invalid(
			domain.ErrInvalidDescriptor,
			"Invalid parameter name %v. Must be a non-empty string up to %d characters.", obj["name"], maxParameterNameLength,
		)
	}
	p.Name = name

	// rule 1: type
	tag, _ := obj["type"].(string)
	typ, ok := domain.ParameterTypeOfDescriptor(tag)
	if !ok {
		return p, invalid(domain.ErrInvalidParameterType, "Invalid type for parameter %q: %v", name, obj["type"])
	}
	p.Type = typ

	flag, _ := obj["flag"].(string)
	if flag == "" || maxFlagLength < len(flag) {
		return p, invalid(
			domain.ErrInvalidDescriptor,
			"Invalid flag for parameter %q. Must be a non-empty string up to %d characters.", name, maxFlagLength,
		)
	}
	p.Flag = flag

	for _, f := range []struct {
		key string
		to  *string
	}{
		{"short_flag", &p.ShortFlag},
		{"action", &p.Action},
		{"help", &p.Help},
	} {
		v, ok := obj[f.key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return p, invalid(domain.ErrInvalidDescriptor, "Invalid '%s' for parameter %q. Must be a string.", f.key, name)
		}
		*f.to = s
	}
	_, actionGiven := obj["action"].(string)

	for _, f := range []struct {
		key string
		to  *bool
	}{
		{"optional", &p.Optional},
		{"ui_exposed", &p.UIExposed},
	} {
		v, ok := obj[f.key]
		if !ok || v == nil {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return p, invalid(domain.ErrInvalidDescriptor, "Invalid '%s' for parameter %q. Must be a boolean.", f.key, name)
		}
		*f.to = b
	}

	rawDefault, hasDefault := obj["default"]
	hasDefault = hasDefault && rawDefault != nil

	// rule 2: optional parameters
	if p.Optional {
		if typ.IsPath() {
			return p, invalid(
				domain.ErrInvalidParameterType,
				"Parameters of type '%s' can not be optional: %q", typ.DescriptorTag(), name,
			)
		}
		if !hasDefault {
			return p, invalid(domain.ErrMissingDefault, "A default value is required for optional parameter %q.", name)
		}
	}

	// rule 3: required parameters are shown in UI
	if !p.Optional && !p.UIExposed {
		return p, invalid(
			domain.ErrInvalidDescriptor,
			"Parameter %q is not optional, so it should be exposed to the UI.", name,
		)
	}

	// rule 5: default coercion
	if hasDefault {
		v, err := typ.Coerce(rawDefault)
		if err != nil {
			return p, invalid(domain.ErrInvalidDefaultValue, "Invalid default value for parameter %q: %s", name, err)
		}
		p.Default = v
	}

	// rule 4: boolean flags invert true defaults
	if typ == domain.Boolean && !actionGiven {
		if p.Default != nil && p.Default.Truthy() {
			p.Action = "store_false"
		} else {
			p.Action = "store_true"
		}
	}

	return p, nil
}
