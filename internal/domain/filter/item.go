package filter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sieve/internal/core/apperror"
	"sieve/internal/core/expr"
	"sieve/internal/domain/spec"
)

// Item is one selection row as received from a client, e.g.
//
//	{"field": "price", "operator": "gte", "value": 10}
//	{"field": "tags", "operator": "contains_any", "value": ["RED", "BLUE"]}
//	{"field": "location", "operator": "within", "value": {"latitude": 45.5, "longitude": -73.5, "distanceKm": 5}}
//
// Operator is one of the BasicOp, ArrayOp or LocationOp values.
type Item struct {
	Field    string `json:"field"`    // Field path (dotted for nested attributes)
	Operator string `json:"operator"` // Operation name
	Value    any    `json:"value"`    // Scalar, list or LocationValue
}

// LocationValue is the value of a location Item. Latitude, Longitude and
// DistanceKm are required.
type LocationValue struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     string   `json:"address,omitempty"`
	DistanceKm  *float64 `json:"distanceKm"`
	ToleranceKm *float64 `json:"toleranceKm,omitempty"`
}

// NewLocationValue fills the required fields of a LocationValue.
func NewLocationValue(latitude, longitude, distanceKm float64) LocationValue {
	return LocationValue{Latitude: &latitude, Longitude: &longitude, DistanceKm: &distanceKm}
}

// Filter builds the typed filter the item describes.
func (it Item) Filter() (Compilable, error) {
	if it.Value == nil {
		return nil, apperror.NewNullArgument("value").WithDetail("field", it.Field)
	}

	switch {
	case BasicOp(it.Operator).valid():
		return basicFromValue(BasicOp(it.Operator), it.Value)
	case ArrayOp(it.Operator).valid():
		return arrayFromValue(ArrayOp(it.Operator), it.Value)
	case LocationOp(it.Operator).valid():
		return locationFromValue(LocationOp(it.Operator), it.Value)
	case it.Operator == "":
		return nil, apperror.NewNullArgument("operator").WithDetail("field", it.Field)
	default:
		return nil, apperror.NewInvalidArgument("operator", fmt.Sprintf("unknown operator %q", it.Operator)).
			WithDetail("field", it.Field)
	}
}

// Compile builds the filter and compiles it over the item's field.
func (it Item) Compile() (expr.Predicate, error) {
	f, err := it.Filter()
	if err != nil {
		return nil, err
	}
	return f.Compile(it.Field)
}

// CompileItems ANDs the compiled items. No items yield spec.None.
func CompileItems(items []Item) (spec.Spec, error) {
	specs := make([]spec.Spec, 0, len(items))
	for i, it := range items {
		p, err := it.Compile()
		if err != nil {
			return spec.None, fmt.Errorf("filter item %d (%s): %w", i, it.Field, err)
		}
		specs = append(specs, spec.Of(p))
	}
	return spec.And(specs...), nil
}

func basicFromValue(op BasicOp, value any) (Compilable, error) {
	switch v := value.(type) {
	case string:
		return NewBasic(op, v)
	case float64:
		return NewBasic(op, v)
	case int:
		return NewBasic(op, int64(v))
	case int64:
		return NewBasic(op, v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return NewBasic(op, i)
		}
		f, err := v.Float64()
		if err != nil {
			return nil, apperror.NewInvalidArgument("value", "malformed number").WithCause(err)
		}
		return NewBasic(op, f)
	case decimal.Decimal:
		return NewBasicFunc(op, v, decimal.Decimal.Cmp)
	case time.Time:
		return NewBasicFunc(op, v, time.Time.Compare)
	default:
		return nil, apperror.NewInvalidArgument("value", fmt.Sprintf("unsupported scalar type %T", value))
	}
}

func arrayFromValue(op ArrayOp, value any) (Compilable, error) {
	switch v := value.(type) {
	case []string:
		return NewArray(op, v)
	case []float64:
		return NewArray(op, v)
	case []int64:
		return NewArray(op, v)
	case []any:
		if len(v) == 0 {
			return nil, apperror.NewInvalidArgument("filterValues", "must not be empty")
		}
		switch v[0].(type) {
		case string:
			strs, err := homogeneous[string](v)
			if err != nil {
				return nil, err
			}
			return NewArray(op, strs)
		case float64:
			nums, err := homogeneous[float64](v)
			if err != nil {
				return nil, err
			}
			return NewArray(op, nums)
		case json.Number:
			raw, err := homogeneous[json.Number](v)
			if err != nil {
				return nil, err
			}
			nums := make([]float64, len(raw))
			for i, n := range raw {
				if nums[i], err = n.Float64(); err != nil {
					return nil, apperror.NewInvalidArgument("filterValues", "malformed number").WithCause(err)
				}
			}
			return NewArray(op, nums)
		}
		return nil, apperror.NewInvalidArgument("filterValues", fmt.Sprintf("unsupported element type %T", v[0]))
	default:
		return nil, apperror.NewInvalidArgument("value", fmt.Sprintf("expected a list, got %T", value))
	}
}

func homogeneous[T any](values []any) ([]T, error) {
	out := make([]T, len(values))
	for i, raw := range values {
		if raw == nil {
			return nil, apperror.NewNullArgument("filterValues").WithDetail("index", i)
		}
		v, ok := raw.(T)
		if !ok {
			return nil, apperror.NewInvalidArgument("filterValues", fmt.Sprintf("mixed element types (%T at %d)", raw, i))
		}
		out[i] = v
	}
	return out, nil
}

func locationFromValue(op LocationOp, value any) (Compilable, error) {
	var lv LocationValue
	switch v := value.(type) {
	case LocationValue:
		lv = v
	case *LocationValue:
		if v == nil {
			return nil, apperror.NewNullArgument("value")
		}
		lv = *v
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, apperror.NewInvalidArgument("value", "malformed location").WithCause(err)
		}
		if err := json.Unmarshal(raw, &lv); err != nil {
			return nil, apperror.NewInvalidArgument("value", "malformed location").WithCause(err)
		}
	default:
		return nil, apperror.NewInvalidArgument("value", fmt.Sprintf("expected a location, got %T", value))
	}

	switch {
	case lv.Latitude == nil:
		return nil, apperror.NewNullArgument("latitude")
	case lv.Longitude == nil:
		return nil, apperror.NewNullArgument("longitude")
	case lv.DistanceKm == nil:
		return nil, apperror.NewNullArgument("distanceKm")
	}

	tolerance := DefaultToleranceKm
	if lv.ToleranceKm != nil {
		tolerance = *lv.ToleranceKm
	}
	ref := Location{Latitude: *lv.Latitude, Longitude: *lv.Longitude, Address: lv.Address}
	return NewLocation(op, ref, *lv.DistanceKm, tolerance)
}
