// Package place provides the Place entity, the record type the query stack is wired for.
package place

import (
	"context"
	"slices"
	"strings"

	"sieve/internal/core/apperror"
	"sieve/internal/core/entity"
	"sieve/internal/core/types"
	"sieve/internal/domain/filter"
)

// Category classifies a place.
type Category string

const (
	CategoryCafe       Category = "cafe"
	CategoryRestaurant Category = "restaurant"
	CategoryPark       Category = "park"
	CategoryMuseum     Category = "museum"
	CategoryLodging    Category = "lodging"
)

var _ entity.Validatable = (*Place)(nil)

// Place is a point of interest with a price, tags and a location.
type Place struct {
	entity.BaseEntity

	Name     string      `db:"name" json:"name"`
	Category Category    `db:"category" json:"category"`
	Price    types.Money `db:"price" json:"price"`

	// Rating is the average review score, 0 to 5
	Rating float64 `db:"rating" json:"rating"`

	Tags     []string        `db:"tags" json:"tags"`
	Location filter.Location `db:"location" json:"location"`
}

// NewPlace creates a new Place with required fields.
func NewPlace(name string, category Category, loc filter.Location) *Place {
	return &Place{
		BaseEntity: entity.NewBaseEntity(),
		Name:       name,
		Category:   category,
		Location:   loc,
	}
}

// Validate implements entity.Validatable interface.
func (p *Place) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewNullArgument("name")
	}
	if !isValidCategory(p.Category) {
		return apperror.NewInvalidArgument("category", "unknown category").
			WithDetail("value", string(p.Category))
	}
	if p.Price.IsNegative() {
		return apperror.NewInvalidArgument("price", "must not be negative").
			WithDetail("value", p.Price.String())
	}
	if p.Rating < 0 || p.Rating > 5 {
		return apperror.NewInvalidArgument("rating", "must be between 0 and 5").
			WithDetail("value", p.Rating)
	}
	return p.Location.Validate()
}

// HasTag reports whether the place carries tag.
func (p *Place) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

func isValidCategory(c Category) bool {
	switch c {
	case CategoryCafe, CategoryRestaurant, CategoryPark, CategoryMuseum, CategoryLodging:
		return true
	}
	return false
}
