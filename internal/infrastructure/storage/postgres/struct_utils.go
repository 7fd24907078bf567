package postgres

import (
	"reflect"
	"strings"
	"sync"
)

// Column is a table column bound to a (possibly nested) struct field.
// A nested field such as Place.Location.Latitude maps to the column
// location_latitude and is selected under the alias "location.latitude",
// which is how scany addresses nested struct fields.
type Column struct {
	Path []string

	// index is the field index chain used by reflect to read the value
	index []int
}

// Name returns the SQL column name.
func (c Column) Name() string { return strings.Join(c.Path, "_") }

// Select returns the select-list entry for the column.
func (c Column) Select() string {
	if len(c.Path) == 1 {
		return c.Path[0]
	}
	return c.Name() + ` AS "` + strings.Join(c.Path, ".") + `"`
}

// ExtractDBColumns extracts all columns from struct "db" tags.
// Embedded structs are flattened; tagged struct fields that carry their own
// "db" tags are expanded into prefixed columns.
//
// Usage:
//
//	columns := ExtractDBColumns[Place]()
//	// Returns: [id name price tags location_latitude location_longitude ...]
func ExtractDBColumns[T any]() []Column {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

// Global cache for column metadata (thread-safe).
var typeCache sync.Map // map[reflect.Type][]Column

func columnsOf(t reflect.Type) []Column {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	if cached, ok := typeCache.Load(t); ok {
		return cached.([]Column)
	}

	var cols []Column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Handle embedded structs
		if field.Anonymous {
			for _, n := range columnsOf(field.Type) {
				cols = append(cols, Column{Path: n.Path, index: append([]int{i}, n.index...)})
			}
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}

		// time.Time, decimal.Decimal and other opaque structs have no tagged
		// fields and stay single columns.
		if nested := columnsOf(field.Type); len(nested) > 0 {
			for _, n := range nested {
				cols = append(cols, Column{
					Path:  append([]string{tag}, n.Path...),
					index: append([]int{i}, n.index...),
				})
			}
			continue
		}

		cols = append(cols, Column{Path: []string{tag}, index: []int{i}})
	}

	typeCache.Store(t, cols)
	return cols
}

func columnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	return names
}

func selectList(cols []Column) []string {
	list := make([]string, len(cols))
	for i, c := range cols {
		list[i] = c.Select()
	}
	return list
}

// columnValues reads the value of every column from v, a struct or a pointer
// to one. A nil pointer on the way yields a NULL; a nil slice is written as an
// empty array, since pgx would send it as NULL.
func columnValues(v reflect.Value, cols []Column) []any {
	row := make([]any, len(cols))
	for i, c := range cols {
		fv := v
		for _, idx := range c.index {
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					fv = reflect.Value{}
					break
				}
				fv = fv.Elem()
			}
			fv = fv.Field(idx)
		}
		switch {
		case !fv.IsValid():
		case fv.Kind() == reflect.Slice && fv.IsNil() && fv.Type().Elem().Kind() != reflect.Uint8:
			row[i] = reflect.MakeSlice(fv.Type(), 0, 0).Interface()
		default:
			row[i] = fv.Interface()
		}
	}
	return row
}
