package celengine

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"sieve/internal/core/apperror"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// fieldInfo is a struct field exposed to CEL under its "db" tag.
type fieldInfo struct {
	index []int
	name  string
}

// typeCache maps reflect.Type to []fieldInfo.
var typeCache sync.Map

// Record converts a struct (or pointer to one) into an activation map keyed by
// "db" tags. Nested tagged structs become nested maps so that dotted field
// paths like location.latitude resolve. Maps are normalized in place of structs.
func Record(v any) (map[string]any, error) {
	if v == nil {
		return nil, apperror.NewNullArgument("record")
	}
	if m, ok := v.(map[string]any); ok {
		return normalizeMap(m), nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, apperror.NewNullArgument("record")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, apperror.NewInvalidArgument("record", fmt.Sprintf("expected struct or map, got %T", v))
	}
	return structToMap(rv), nil
}

func structFields(t reflect.Type) []fieldInfo {
	if cached, ok := typeCache.Load(t); ok {
		return cached.([]fieldInfo)
	}

	var fields []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			for _, inner := range structFields(f.Type) {
				fields = append(fields, fieldInfo{
					index: append([]int{i}, inner.index...),
					name:  inner.name,
				})
			}
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		fields = append(fields, fieldInfo{index: []int{i}, name: tag})
	}

	typeCache.Store(t, fields)
	return fields
}

func structToMap(rv reflect.Value) map[string]any {
	fields := structFields(rv.Type())
	res := make(map[string]any, len(fields))
	for _, fi := range fields {
		res[fi.name] = normalize(rv.FieldByIndex(fi.index))
	}
	return res
}

func normalizeMap(m map[string]any) map[string]any {
	res := make(map[string]any, len(m))
	for k, v := range m {
		res[k] = normalize(reflect.ValueOf(v))
	}
	return res
}

// normalize reduces v to the types CEL handles natively: int64, uint64,
// float64, string, bool, time.Time, []any and map[string]any.
// A nil slice becomes an empty list.
func normalize(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}

	switch v.Type() {
	case timeType:
		return v.Interface()
	case decimalType:
		return v.Interface().(decimal.Decimal).InexactFloat64()
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return normalize(v.Elem())
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	case reflect.Array:
		if st, ok := v.Interface().(fmt.Stringer); ok {
			return st.String()
		}
		fallthrough
	case reflect.Slice:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = normalize(v.Index(i))
		}
		return out
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return v.Interface()
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value())
		}
		return out
	case reflect.Struct:
		return structToMap(v)
	default:
		return v.Interface()
	}
}
