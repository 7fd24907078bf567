package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"sieve/internal/core/apperror"
	"sieve/internal/core/expr"
)

var (
	montreal = Location{Latitude: 45.5017, Longitude: -73.5673, Address: "Montreal"}
	nearby   = Location{Latitude: 45.5088, Longitude: -73.5878, Address: "nearby"}
	farAway  = Location{Latitude: 45.9517, Longitude: -73.5673, Address: "50 km north"}
	paris    = Location{Latitude: 48.8566, Longitude: 2.3522}
	london   = Location{Latitude: 51.5074, Longitude: -0.1278}
)

func genLocation(t *rapid.T, label string) Location {
	return Location{
		Latitude:  rapid.Float64Range(-90, 90).Draw(t, label+".lat"),
		Longitude: rapid.Float64Range(-180, 180).Draw(t, label+".lon"),
	}
}

func TestDistance_KnownValues(t *testing.T) {
	assert.InDelta(t, 1.78, Distance(montreal, nearby), 0.05)
	assert.InDelta(t, 50.0, Distance(montreal, farAway), 0.5)
	assert.InDelta(t, 343.5, Distance(paris, london), 1.0)
	assert.Equal(t, 0.0, Distance(paris, paris))
	// Antipodes are half the circumference apart.
	assert.InDelta(t, math.Pi*EarthRadiusKm, Distance(Location{0, 0, ""}, Location{0, 180, ""}), 1e-6)
}

func TestDistance_Symmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a, b := genLocation(t, "a"), genLocation(t, "b")
		ab, ba := Distance(a, b), Distance(b, a)
		require.False(t, math.IsNaN(ab), "%v %v", a, b)
		assert.InDelta(t, ab, ba, 1e-9)
	})
}

func TestDistance_Antipodes(t *testing.T) {
	a := Location{Latitude: 10, Longitude: 20}
	b := Location{Latitude: -10, Longitude: -160}

	d := Distance(a, b)
	require.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*EarthRadiusKm, d, 1e-6)

	f := Must(Outside(a, 10))
	assert.True(t, f.Check(b))
	assert.False(t, Must(Within(a, 10)).Check(b))
}

func TestLocationFilter_Montreal(t *testing.T) {
	f := Must(Within(montreal, 5.0))

	assert.True(t, f.Check(nearby))
	assert.False(t, f.Check(farAway))
	assert.True(t, Must(Outside(montreal, 5.0)).Check(farAway))
}

func TestLocationFilter_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ref, p := genLocation(t, "ref"), genLocation(t, "p")
		d := Distance(ref, p)

		assert.Equal(t, d <= 10, Must(Within(ref, 10)).Check(p))
		assert.Equal(t, math.Abs(d-5.0) <= 0.1, Must(Exactly(ref, 5.0)).Check(p))
		assert.Equal(t, d >= 10, Must(DistanceGreaterThanOrEqual(ref, 10)).Check(p))
		assert.Equal(t, d < 10, Must(DistanceLessThan(ref, 10)).Check(p))
	})
}

func TestLocationFilter_Aliases(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ref, p := genLocation(t, "ref"), genLocation(t, "p")
		km := rapid.Float64Range(0, 20000).Draw(t, "km")

		within, lte := Must(Within(ref, km)), Must(DistanceLessThanOrEqual(ref, km))
		outside, gt := Must(Outside(ref, km)), Must(DistanceGreaterThan(ref, km))

		assert.Equal(t, within.Check(p), lte.Check(p))
		assert.Equal(t, outside.Check(p), gt.Check(p))
		assert.NotEqual(t, within.Check(p), outside.Check(p))

		pw, err := within.Compile("loc")
		require.NoError(t, err)
		pl, err := lte.Compile("loc")
		require.NoError(t, err)
		assert.Equal(t, pw, pl)
	})
}

func TestLocationFilter_ExactlyInclusiveTolerance(t *testing.T) {
	d := Distance(montreal, nearby)

	assert.True(t, Must(ExactlyWithTolerance(montreal, d, 0)).Check(nearby))
	// dist-d is exact, so the tolerance sits precisely on the boundary.
	dist := d + 0.5
	assert.True(t, Must(ExactlyWithTolerance(montreal, dist, dist-d)).Check(nearby))
	assert.False(t, Must(ExactlyWithTolerance(montreal, dist, 0.49)).Check(nearby))
	assert.Equal(t, DefaultToleranceKm, Must(Exactly(montreal, 1)).ToleranceKm())
}

func TestLocationFilter_ConstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"negative distance", second(Within(montreal, -1))},
		{"NaN distance", second(Within(montreal, math.NaN()))},
		{"negative tolerance", second(ExactlyWithTolerance(montreal, 1, -0.1))},
		{"latitude out of range", second(Within(Location{Latitude: 91}, 1))},
		{"longitude out of range", second(Within(Location{Longitude: -180.5}, 1))},
		{"unknown operation", second(NewLocation("near", montreal, 1, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, apperror.IsInvalidArgument(tt.err), "got %v", tt.err)
		})
	}

	_, err := NewLocation("", montreal, 1, 0)
	assert.True(t, apperror.IsNullArgument(err))
}

func TestLocationFilter_Compile(t *testing.T) {
	d := DistanceExpr(montreal, "location")

	p, err := Must(Within(montreal, 5)).Compile("location")
	require.NoError(t, err)
	assert.Equal(t, expr.Le(d, expr.Lit(5.0)), p)

	p, err = Must(Outside(montreal, 5)).Compile("location")
	require.NoError(t, err)
	assert.Equal(t, expr.Gt(d, expr.Lit(5.0)), p)

	p, err = Must(ExactlyWithTolerance(montreal, 5, 0.25)).Compile("location")
	require.NoError(t, err)
	assert.Equal(t, expr.And{Terms: []expr.Predicate{
		expr.Ge(d, expr.Lit(4.75)),
		expr.Le(d, expr.Lit(5.25)),
	}}, p)

	var names []string
	for _, f := range expr.Fields(p) {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"location.latitude", "location.longitude"}, names)
}

func TestDistanceExpr_UsesPrimitiveFunctions(t *testing.T) {
	s := DistanceExpr(paris, "site", "geo").String()

	for _, fn := range []string{"SIN(", "COS(", "SQRT(", "ATAN2("} {
		assert.Contains(t, s, fn)
	}
	assert.Contains(t, s, "site.geo.latitude")
	assert.Contains(t, s, "site.geo.longitude")
}

func second[T any](_ T, err error) error { return err }
