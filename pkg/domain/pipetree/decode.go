package pipetree

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/chrisstore/store/pkg/domain"
)

func invalidTree(format string, args ...any) error {
	return domain.NewValidationError(domain.ErrInvalidTree, domain.FieldPluginTree, fmt.Sprintf(format, args...))
}

func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected trailing data")
	}
	return nil
}

// Decode reads nodes of plugin tree from JSON.
//
// The JSON should be a non-empty list of nodes, or a string containing such a list.
// Each node looks like:
//
//	{
//		"plugin_id": 1,                    // or "plugin_name" and "plugin_version"
//		"previous_index": null,            // required. null for the root node
//		"plugin_parameter_defaults": [     // optional
//			{"name": "dir", "default": "./"}
//		]
//	}
//
// Returns
//
// - []NodeParam: decoded nodes. Plugins are not resolved yet.
//
// - error: *domain.ValidationError (domain.ErrInvalidTree) when raw is malformed.
func Decode(raw []byte) ([]NodeParam, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, domain.NewValidationError(domain.ErrInvalidTree, domain.FieldPluginTree, "This field is required.")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, invalidTree("Invalid JSON string %s.", raw)
		}
		raw = bytes.TrimSpace([]byte(s))
	}

	var items []json.RawMessage
	if err := decodeStrict(raw, &items); err != nil {
		return nil, invalidTree("Invalid tree list in %s", raw)
	}
	if len(items) == 0 {
		return nil, invalidTree("Invalid tree list in %s. List is empty.", raw)
	}

	nodes := make([]NodeParam, 0, len(items))
	for nth, item := range items {
		node, err := decodeNode(item)
		if err != nil {
			return nil, invalidTree(
				"Object item %s (#%d) in tree list must be a JSON object with 'plugin_id' or "+
					"'plugin_name' and 'plugin_version' properties and a 'previous_index' property: %s",
				item, nth, err,
			)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func decodeNode(item json.RawMessage) (NodeParam, error) {
	node := NodeParam{Overrides: []Override{}}

	var obj map[string]json.RawMessage
	if err := decodeStrict(item, &obj); err != nil || obj == nil {
		return node, fmt.Errorf("not an object")
	}

	prev, ok := obj["previous_index"]
	if !ok {
		return node, fmt.Errorf("'previous_index' is missing")
	}
	if err := decodeStrict(prev, &node.PreviousIndex); err != nil {
		return node, fmt.Errorf("'previous_index' should be an integer or null")
	}

	if id, ok := obj["plugin_id"]; ok && string(id) != "null" {
		var pluginId int
		if err := decodeStrict(id, &pluginId); err != nil {
			return node, fmt.Errorf("'plugin_id' should be an integer")
		}
		node.PluginId = &pluginId
	} else {
		nameRaw, hasName := obj["plugin_name"]
		versionRaw, hasVersion := obj["plugin_version"]
		if !hasName || !hasVersion {
			return node, fmt.Errorf("plugin is not specified")
		}
		if err := decodeStrict(nameRaw, &node.PluginName); err != nil {
			return node, fmt.Errorf("'plugin_name' should be a string")
		}
		if err := decodeStrict(versionRaw, &node.PluginVersion); err != nil {
			return node, fmt.Errorf("'plugin_version' should be a string")
		}
	}

	defaults, ok := obj["plugin_parameter_defaults"]
	if !ok || string(defaults) == "null" {
		return node, nil
	}
	ovs, err := decodeOverrides(defaults)
	if err != nil {
		return node, err
	}
	node.Overrides = ovs
	return node, nil
}

func decodeOverrides(raw []byte) ([]Override, error) {
	var overrides []map[string]json.RawMessage
	if err := decodeStrict(raw, &overrides); err != nil {
		return nil, fmt.Errorf("'plugin_parameter_defaults' should be a list of objects")
	}
	ret := make([]Override, 0, len(overrides))
	for _, o := range overrides {
		nameRaw, hasName := o["name"]
		defaultRaw, hasDefault := o["default"]
		if !hasName || !hasDefault {
			return nil, fmt.Errorf("each of 'plugin_parameter_defaults' should have 'name' and 'default'")
		}
		ov := Override{}
		if err := decodeStrict(nameRaw, &ov.Name); err != nil {
			return nil, fmt.Errorf("'name' of parameter defaults should be a string")
		}
		if err := decodeStrict(defaultRaw, &ov.Default); err != nil {
			return nil, err
		}
		ret = append(ret, ov)
	}
	return ret, nil
}

// DecodeOverrides reads a list of parameter defaults, like
// `[{"name": "dir", "default": "./"}]`.
//
// Returns
//
// - error: *domain.ValidationError (domain.ErrInvalidParameterDefault) keyed by
// plugin_parameter_defaults when raw is malformed.
func DecodeOverrides(raw []byte) ([]Override, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, domain.NewValidationError(
			domain.ErrInvalidParameterDefault, domain.FieldDefaults, "This field is required.",
		)
	}
	ovs, err := decodeOverrides(raw)
	if err != nil {
		return nil, domain.NewValidationError(
			domain.ErrInvalidParameterDefault, domain.FieldDefaults, err.Error(),
		)
	}
	return ovs, nil
}
