package filter

import (
	"fmt"
	"math"
	"slices"

	"sieve/internal/core/apperror"
	"sieve/internal/core/expr"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
	EarthRadiusKm = 6371.0

	// DefaultToleranceKm is the EXACTLY tolerance when none is given.
	DefaultToleranceKm = 0.1

	degToRad = math.Pi / 180
)

// Location is a point on Earth in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Address   string  `json:"address,omitempty" db:"address"`
}

// Validate rejects coordinates outside [-90, 90] x [-180, 180].
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return apperror.NewInvalidArgument("latitude", "must be within [-90, 90]").WithDetail("value", l.Latitude)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return apperror.NewInvalidArgument("longitude", "must be within [-180, 180]").WithDetail("value", l.Longitude)
	}
	return nil
}

// LocationOp is a distance relation. WITHIN is an alias of DISTANCE_LTE and
// OUTSIDE of DISTANCE_GT in both evaluation paths.
type LocationOp string

const (
	OpWithin                     LocationOp = "within"
	OpOutside                    LocationOp = "outside"
	OpExactly                    LocationOp = "exactly"
	OpDistanceGreaterThan        LocationOp = "distance_gt"
	OpDistanceGreaterThanOrEqual LocationOp = "distance_gte"
	OpDistanceLessThan           LocationOp = "distance_lt"
	OpDistanceLessThanOrEqual    LocationOp = "distance_lte"
)

func (op LocationOp) valid() bool {
	switch op {
	case OpWithin, OpOutside, OpExactly,
		OpDistanceGreaterThan, OpDistanceGreaterThanOrEqual,
		OpDistanceLessThan, OpDistanceLessThanOrEqual:
		return true
	}
	return false
}

// Distance returns the great-circle distance in km between a and b.
//
// Any change here must be mirrored in DistanceExpr. The explicit float64
// conversions keep every product rounded on its own, matching engines that
// evaluate one operation at a time. Square roots clamp at 0 like expr.FuncSqrt:
// near antipodes h rounds above 1.
func Distance(a, b Location) float64 {
	lat1 := float64(a.Latitude * degToRad)
	lon1 := float64(a.Longitude * degToRad)
	lat2 := float64(b.Latitude * degToRad)
	lon2 := float64(b.Longitude * degToRad)

	sinDLat := math.Sin((lat2 - lat1) / 2)
	sinDLon := math.Sin((lon2 - lon1) / 2)

	h := float64(sinDLat*sinDLat) +
		float64(float64(math.Cos(lat1)*math.Cos(lat2))*float64(sinDLon*sinDLon))
	c := float64(2 * math.Atan2(sqrt0(h), sqrt0(1-h)))
	return EarthRadiusKm * c
}

func sqrt0(x float64) float64 { return math.Sqrt(max(0, x)) }

// DistanceExpr is Distance(ref, target) as an expression tree, where the target
// coordinates are read from field.latitude and field.longitude.
func DistanceExpr(ref Location, field ...string) expr.Expr {
	lat1 := ref.Latitude * degToRad
	lon1 := ref.Longitude * degToRad
	lat2 := expr.Mul(expr.Col(slices.Concat(field, []string{"latitude"})...), expr.Lit(degToRad))
	lon2 := expr.Mul(expr.Col(slices.Concat(field, []string{"longitude"})...), expr.Lit(degToRad))

	two := expr.Lit(2.0)
	sinDLat := expr.Sin(expr.Div(expr.Sub(lat2, expr.Lit(lat1)), two))
	sinDLon := expr.Sin(expr.Div(expr.Sub(lon2, expr.Lit(lon1)), two))

	h := expr.Add(
		expr.Mul(sinDLat, sinDLat),
		expr.Mul(expr.Mul(expr.Cos(expr.Lit(lat1)), expr.Cos(lat2)), expr.Mul(sinDLon, sinDLon)),
	)
	c := expr.Mul(two, expr.Atan2(expr.Sqrt(h), expr.Sqrt(expr.Sub(expr.Lit(1.0), h))))
	return expr.Mul(expr.Lit(EarthRadiusKm), c)
}

// LocationFilter compares the distance from a reference point.
type LocationFilter struct {
	ref         Location
	distanceKm  float64
	op          LocationOp
	toleranceKm float64
}

// NewLocation builds a LocationFilter; tolerance only affects EXACTLY.
func NewLocation(op LocationOp, ref Location, distanceKm, toleranceKm float64) (*LocationFilter, error) {
	if op == "" {
		return nil, apperror.NewNullArgument("operation")
	}
	if !op.valid() {
		return nil, apperror.NewInvalidArgument("operation", fmt.Sprintf("unknown location operation %q", op))
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(distanceKm) || distanceKm < 0 {
		return nil, apperror.NewInvalidArgument("distanceKm", "must be >= 0").WithDetail("value", distanceKm)
	}
	if math.IsNaN(toleranceKm) || toleranceKm < 0 {
		return nil, apperror.NewInvalidArgument("toleranceKm", "must be >= 0").WithDetail("value", toleranceKm)
	}
	return &LocationFilter{ref: ref, distanceKm: distanceKm, op: op, toleranceKm: toleranceKm}, nil
}

func Within(ref Location, distanceKm float64) (*LocationFilter, error) {
	return NewLocation(OpWithin, ref, distanceKm, DefaultToleranceKm)
}

func Outside(ref Location, distanceKm float64) (*LocationFilter, error) {
	return NewLocation(OpOutside, ref, distanceKm, DefaultToleranceKm)
}

func Exactly(ref Location, distanceKm float64) (*LocationFilter, error) {
	return NewLocation(OpExactly, ref, distanceKm, DefaultToleranceKm)
}

func ExactlyWithTolerance(ref Location, distanceKm, toleranceKm float64) (*LocationFilter, error) {
	return NewLocation(OpExactly, ref, distanceKm, toleranceKm)
}

func DistanceGreaterThan(ref Location, distanceKm float64) (*LocationFilter, error) {
	return NewLocation(OpDistanceGreaterThan, ref, distanceKm, DefaultToleranceKm)
}

func DistanceGreaterThanOrEqual(ref Location, distanceKm float64) (*LocationFilter, error) {
	return NewLocation(OpDistanceGreaterThanOrEqual, ref, distanceKm, DefaultToleranceKm)
}

func DistanceLessThan(ref Location, distanceKm float64) (*LocationFilter, error) {
	return NewLocation(OpDistanceLessThan, ref, distanceKm, DefaultToleranceKm)
}

func DistanceLessThanOrEqual(ref Location, distanceKm float64) (*LocationFilter, error) {
	return NewLocation(OpDistanceLessThanOrEqual, ref, distanceKm, DefaultToleranceKm)
}

func (f *LocationFilter) Reference() Location  { return f.ref }
func (f *LocationFilter) DistanceKm() float64  { return f.distanceKm }
func (f *LocationFilter) ToleranceKm() float64 { return f.toleranceKm }
func (f *LocationFilter) Op() LocationOp       { return f.op }

// Check evaluates the relation for the distance between the reference and target.
func (f *LocationFilter) Check(target Location) bool {
	d := Distance(f.ref, target)

	switch f.op {
	case OpWithin, OpDistanceLessThanOrEqual:
		return d <= f.distanceKm
	case OpOutside, OpDistanceGreaterThan:
		return d > f.distanceKm
	case OpExactly:
		return math.Abs(d-f.distanceKm) <= f.toleranceKm
	case OpDistanceGreaterThanOrEqual:
		return d >= f.distanceKm
	case OpDistanceLessThan:
		return d < f.distanceKm
	default:
		panic(apperror.NewUnreachable("location operation", f.op))
	}
}

// Compile compares DistanceExpr over field.latitude/field.longitude with the
// configured distance. EXACTLY becomes a closed range of width 2*tolerance.
func (f *LocationFilter) Compile(field string) (expr.Predicate, error) {
	path, err := fieldPath(field)
	if err != nil {
		return nil, err
	}
	d := DistanceExpr(f.ref, path...)

	switch f.op {
	case OpWithin, OpDistanceLessThanOrEqual:
		return expr.Le(d, expr.Lit(f.distanceKm)), nil
	case OpOutside, OpDistanceGreaterThan:
		return expr.Gt(d, expr.Lit(f.distanceKm)), nil
	case OpExactly:
		return expr.And{Terms: []expr.Predicate{
			expr.Ge(d, expr.Lit(f.distanceKm-f.toleranceKm)),
			expr.Le(d, expr.Lit(f.distanceKm+f.toleranceKm)),
		}}, nil
	case OpDistanceGreaterThanOrEqual:
		return expr.Ge(d, expr.Lit(f.distanceKm)), nil
	case OpDistanceLessThan:
		return expr.Lt(d, expr.Lit(f.distanceKm)), nil
	default:
		panic(apperror.NewUnreachable("location operation", f.op))
	}
}

func (f *LocationFilter) String() string {
	if f.op == OpExactly {
		return fmt.Sprintf("%s %gkm (±%gkm) of (%g, %g)", f.op, f.distanceKm, f.toleranceKm, f.ref.Latitude, f.ref.Longitude)
	}
	return fmt.Sprintf("%s %gkm of (%g, %g)", f.op, f.distanceKm, f.ref.Latitude, f.ref.Longitude)
}
