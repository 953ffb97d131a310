// Package postgres holds marshalling helpers shared by postgres repositories.
package postgres

import (
	"fmt"

	"github.com/jackc/pgtype"

	"github.com/chrisstore/store/pkg/domain"
)

// Columns are typed value columns.
//
// At most one of them is non-null, chosen by the parameter type.
type Columns struct {
	String  pgtype.Text
	Integer pgtype.Int4
	Float   pgtype.Float8
	Boolean pgtype.Bool
}

func nulls() Columns {
	return Columns{
		String:  pgtype.Text{Status: pgtype.Null},
		Integer: pgtype.Int4{Status: pgtype.Null},
		Float:   pgtype.Float8{Status: pgtype.Null},
		Boolean: pgtype.Bool{Status: pgtype.Null},
	}
}

// ToColumns splits value into typed columns.
//
// nil value makes all columns null.
func ToColumns(typ domain.ParameterType, value domain.Value) (Columns, error) {
	c := nulls()
	if value == nil {
		return c, nil
	}
	if typ.ValueKind() != value.Kind() {
		return c, fmt.Errorf(
			"%w: value %v is not a %s", domain.ErrInvalidParameterDefault, value, typ,
		)
	}

	switch v := value.(type) {
	case domain.StringValue:
		c.String = pgtype.Text{String: string(v), Status: pgtype.Present}
	case domain.IntValue:
		c.Integer = pgtype.Int4{Int: int32(v), Status: pgtype.Present}
	case domain.FloatValue:
		c.Float = pgtype.Float8{Float: float64(v), Status: pgtype.Present}
	case domain.BoolValue:
		c.Boolean = pgtype.Bool{Bool: bool(v), Status: pgtype.Present}
	}
	return c, nil
}

// Value reads the column for typ.
//
// It returns nil when the column is null.
func (c Columns) Value(typ domain.ParameterType) domain.Value {
	switch typ.ValueKind() {
	case domain.KindString:
		if c.String.Status == pgtype.Present {
			return domain.StringValue(c.String.String)
		}
	case domain.KindInteger:
		if c.Integer.Status == pgtype.Present {
			return domain.IntValue(c.Integer.Int)
		}
	case domain.KindFloat:
		if c.Float.Status == pgtype.Present {
			return domain.FloatValue(c.Float.Float)
		}
	case domain.KindBoolean:
		if c.Boolean.Status == pgtype.Present {
			return domain.BoolValue(c.Boolean.Bool)
		}
	}
	return nil
}
