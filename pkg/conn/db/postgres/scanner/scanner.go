package scanner

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v4"
)

type Queryer interface {
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
}

// Scanner converts rows into structs.
//
// Columns are mapped into fields
//
//  1. with tag `sql:"column_name"`, or
//  2. named in CamelCase of the column name ("plugin_id" -> "PluginId").
//
// Example:
//
//	type pipingRow struct {
//		Id         int
//		PreviousId pgtype.Int4 `sql:"previous_id"`
//	}
//
//	rows, err := scanner.New[pipingRow]().QueryAll(ctx, conn, `select "id", "previous_id" from "plugin_piping"`)
type Scanner[T any] struct {
	byTag  map[string]string
	byName map[string]string
}

func New[T any]() *Scanner[T] {
	byTag := map[string]string{}
	byName := map[string]string{}

	typ := reflect.TypeOf(*new(T))
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		byName[f.Name] = f.Name
		if tag, ok := f.Tag.Lookup("sql"); ok {
			byTag[tag] = f.Name
		}
	}
	return &Scanner[T]{byTag: byTag, byName: byName}
}

func camel(s string) string {
	b := &strings.Builder{}
	for _, ss := range strings.Split(s, "_") {
		if len(ss) == 0 {
			continue
		}
		b.WriteString(strings.ToUpper(ss[0:1]))
		b.WriteString(ss[1:])
	}
	return b.String()
}

func (s *Scanner[T]) field(column string) (string, bool) {
	if f, ok := s.byTag[column]; ok {
		return f, true
	}
	if f, ok := s.byName[camel(column)]; ok {
		return f, true
	}
	return "", false
}

// ScanAll reads all rows.
func (s *Scanner[T]) ScanAll(rows pgx.Rows) ([]T, error) {
	columns := rows.FieldDescriptions()
	fields := make([]string, 0, len(columns))
	for _, fd := range columns {
		f, ok := s.field(string(fd.Name))
		if !ok {
			return nil, fmt.Errorf(`field for column "%s" is not found in type "%T"`, fd.Name, *new(T))
		}
		fields = append(fields, f)
	}

	ret := []T{}
	for rows.Next() {
		elem := new(T)
		rv := reflect.ValueOf(elem).Elem()
		dest := make([]any, len(fields))
		for nth, f := range fields {
			dest[nth] = rv.FieldByName(f).Addr().Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		ret = append(ret, *elem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// QueryAll sends the query and reads all rows of the response.
func (s *Scanner[T]) QueryAll(ctx context.Context, conn Queryer, query string, params ...interface{}) ([]T, error) {
	rows, err := conn.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.ScanAll(rows)
}
