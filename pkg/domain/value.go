package domain

import "fmt"

type ValueKind string

const (
	KindString  ValueKind = "string"
	KindInteger ValueKind = "integer"
	KindFloat   ValueKind = "float"
	KindBoolean ValueKind = "boolean"
)

// Value is a parameter value. It is one of StringValue, IntValue, FloatValue or BoolValue.
//
// Values are comparable with ==.
type Value interface {
	Kind() ValueKind

	// Any returns the value as a plain Go value (string, int64, float64 or bool).
	Any() any

	// Truthy tells the value is considered as "true".
	//
	// Zero value and empty string are false. Others are true.
	Truthy() bool

	isValue()
}

type StringValue string

func (StringValue) Kind() ValueKind { return KindString }
func (s StringValue) Any() any      { return string(s) }
func (s StringValue) Truthy() bool  { return s != "" }
func (s StringValue) String() string {
	return string(s)
}
func (StringValue) isValue() {}

type IntValue int64

func (IntValue) Kind() ValueKind { return KindInteger }
func (i IntValue) Any() any      { return int64(i) }
func (i IntValue) Truthy() bool  { return i != 0 }
func (i IntValue) String() string {
	return fmt.Sprintf("%d", int64(i))
}
func (IntValue) isValue() {}

type FloatValue float64

func (FloatValue) Kind() ValueKind { return KindFloat }
func (f FloatValue) Any() any      { return float64(f) }
func (f FloatValue) Truthy() bool  { return f != 0 }
func (f FloatValue) String() string {
	return fmt.Sprintf("%g", float64(f))
}
func (FloatValue) isValue() {}

type BoolValue bool

func (BoolValue) Kind() ValueKind { return KindBoolean }
func (b BoolValue) Any() any      { return bool(b) }
func (b BoolValue) Truthy() bool  { return bool(b) }
func (b BoolValue) String() string {
	return fmt.Sprintf("%t", bool(b))
}
func (BoolValue) isValue() {}

// AnyOf returns plain Go value of v, or nil when v is nil.
func AnyOf(v Value) any {
	if v == nil {
		return nil
	}
	return v.Any()
}
