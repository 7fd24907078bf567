package place

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sieve/internal/core/apperror"
	"sieve/internal/core/id"
	"sieve/internal/core/types"
	"sieve/internal/domain/filter"
	"sieve/internal/domain/spec"
	"sieve/internal/infrastructure/celengine"
	"sieve/pkg/logger"
)

var montreal = filter.Location{Latitude: 45.5017, Longitude: -73.5673, Address: "Montreal, QC"}

func TestNewPlace(t *testing.T) {
	p := NewPlace("Cafe Olimpico", CategoryCafe, montreal)
	assert.False(t, id.IsNil(p.ID))
	assert.False(t, p.CreatedAt.IsZero())
	require.NoError(t, p.Validate(context.Background()))
}

func TestPlace_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Place)
		check  func(error) bool
	}{
		{"BlankName", func(p *Place) { p.Name = "  " }, apperror.IsNullArgument},
		{"Category", func(p *Place) { p.Category = "bar" }, apperror.IsInvalidArgument},
		{"NegativePrice", func(p *Place) { p.Price = types.MustMoney("-1") }, apperror.IsInvalidArgument},
		{"Rating", func(p *Place) { p.Rating = 5.5 }, apperror.IsInvalidArgument},
		{"Latitude", func(p *Place) { p.Location.Latitude = 91 }, apperror.IsInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlace("Cafe", CategoryCafe, montreal)
			tt.mutate(p)
			err := p.Validate(context.Background())
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
}

func TestPlace_HasTag(t *testing.T) {
	p := NewPlace("Cafe", CategoryCafe, montreal)
	p.Tags = []string{"wifi", "terrace"}
	assert.True(t, p.HasTag("terrace"))
	assert.False(t, p.HasTag("parking"))
}

// Typed filters checked in memory agree with the same filters compiled and
// evaluated over the place's record form.
func TestPlace_FiltersAgree(t *testing.T) {
	engine, err := celengine.NewEngine(celengine.WithLogger(logger.Nop()))
	require.NoError(t, err)

	olimpico := NewPlace("Cafe Olimpico", CategoryCafe, filter.Location{Latitude: 45.5226, Longitude: -73.6003})
	olimpico.Price = types.MustMoney("4.50")
	olimpico.Tags = []string{"wifi"}

	cabin := NewPlace("Lac Cabin", CategoryLodging, filter.Location{Latitude: 46.2, Longitude: -74.6})
	cabin.Price = types.MustMoney("180")
	cabin.Tags = []string{"lake", "wifi"}

	near := filter.Must(filter.Within(montreal, 5))
	cheap := filter.Must(filter.NewBasicFunc(filter.OpLessThan, types.MustMoney("20"), types.Money.Cmp))
	wifi := filter.Must(filter.ContainsAny("wifi"))

	s := spec.And(
		filter.Must(spec.Compile(near, "location")),
		filter.Must(spec.Compile(cheap, "price")),
		filter.Must(spec.Compile(wifi, "tags")),
	)
	prg, err := engine.Compile(s)
	require.NoError(t, err)

	for _, p := range []*Place{olimpico, cabin} {
		want := near.Check(p.Location) && cheap.Check(p.Price) && wifi.Check(p.Tags)

		rec, err := celengine.Record(p)
		require.NoError(t, err)
		got, err := prg.Match(rec)
		require.NoError(t, err)
		assert.Equal(t, want, got, p.Name)
	}
	assert.True(t, near.Check(olimpico.Location))
	assert.False(t, near.Check(cabin.Location))
}
