package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParameterType is the type tag of plugin parameters, as stored and as shown to users.
type ParameterType string

const (
	String    ParameterType = "string"
	Integer   ParameterType = "integer"
	Float     ParameterType = "float"
	Boolean   ParameterType = "boolean"
	Path      ParameterType = "path"
	UnextPath ParameterType = "unextpath"
)

// parameter types and their tags used in plugin descriptors.
//
// This table is read only.
var parameterTypes = [...]struct {
	typ     ParameterType
	backend string
}{
	{String, "str"},
	{Integer, "int"},
	{Float, "float"},
	{Boolean, "bool"},
	{Path, "path"},
	{UnextPath, "unextpath"},
}

// ParameterTypes returns all parameter types.
func ParameterTypes() []ParameterType {
	ret := make([]ParameterType, 0, len(parameterTypes))
	for _, pt := range parameterTypes {
		ret = append(ret, pt.typ)
	}
	return ret
}

// ParseParameterType finds a ParameterType by its own tag ("string", "integer", ...).
func ParseParameterType(tag string) (ParameterType, bool) {
	for _, pt := range parameterTypes {
		if string(pt.typ) == tag {
			return pt.typ, true
		}
	}
	return "", false
}

// ParameterTypeOfDescriptor finds a ParameterType by the tag in plugin descriptors ("str", "int", ...).
func ParameterTypeOfDescriptor(tag string) (ParameterType, bool) {
	for _, pt := range parameterTypes {
		if pt.backend == tag {
			return pt.typ, true
		}
	}
	return "", false
}

// DescriptorTag is the tag for this type in plugin descriptors.
func (t ParameterType) DescriptorTag() string {
	for _, pt := range parameterTypes {
		if pt.typ == t {
			return pt.backend
		}
	}
	return ""
}

// IsPath tells parameters of this type point files in the input directory.
//
// Such parameters are always required.
func (t ParameterType) IsPath() bool {
	return t == Path || t == UnextPath
}

// ValueKind is the kind of Value which parameters of this type hold.
func (t ParameterType) ValueKind() ValueKind {
	switch t {
	case Integer:
		return KindInteger
	case Float:
		return KindFloat
	case Boolean:
		return KindBoolean
	default:
		return KindString
	}
}

var ErrNotCoercible = errors.New("value is not coercible")

// Coerce converts a decoded JSON value into Value of this type.
//
// Args
//
// - v: value decoded from JSON. string, bool, json.Number, float64 and Go integers are understood.
//
// Returns
//
// - Value: coerced value.
//
// - error: ErrNotCoercible when v is not acceptable as this type.
func (t ParameterType) Coerce(v any) (Value, error) {
	switch t.ValueKind() {
	case KindInteger:
		return coerceInteger(v)
	case KindFloat:
		return coerceFloat(v)
	case KindBoolean:
		if b, ok := v.(bool); ok {
			return BoolValue(b), nil
		}
		return nil, fmt.Errorf("%w: must be a valid boolean", ErrNotCoercible)
	default:
		return coerceString(v)
	}
}

func coerceString(v any) (Value, error) {
	switch s := v.(type) {
	case string:
		return StringValue(s), nil
	case json.Number:
		return StringValue(s.String()), nil
	case float64:
		return StringValue(strconv.FormatFloat(s, 'f', -1, 64)), nil
	case int:
		return StringValue(strconv.Itoa(s)), nil
	case int64:
		return StringValue(strconv.FormatInt(s, 10)), nil
	}
	return nil, fmt.Errorf("%w: not a valid string", ErrNotCoercible)
}

func coerceInteger(v any) (Value, error) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		p, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: a valid integer is required", ErrNotCoercible)
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: a valid integer is required", ErrNotCoercible)
		}
		f = p
	default:
		return nil, fmt.Errorf("%w: a valid integer is required", ErrNotCoercible)
	}

	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("%w: a valid integer is required", ErrNotCoercible)
	}
	if f < math.MinInt32 || math.MaxInt32 < f {
		return nil, fmt.Errorf(
			"%w: integer should be in [%d, %d]", ErrNotCoercible, math.MinInt32, math.MaxInt32,
		)
	}
	return IntValue(int64(f)), nil
}

func coerceFloat(v any) (Value, error) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		p, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: a valid number is required", ErrNotCoercible)
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: a valid number is required", ErrNotCoercible)
		}
		f = p
	default:
		return nil, fmt.Errorf("%w: a valid number is required", ErrNotCoercible)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("%w: a valid number is required", ErrNotCoercible)
	}
	return FloatValue(f), nil
}
