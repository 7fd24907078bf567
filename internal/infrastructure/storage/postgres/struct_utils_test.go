package postgres

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"sieve/internal/core/id"
	"sieve/internal/domain/filter"
)

type mockBase struct {
	ID        id.ID     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

type mockPlace struct {
	mockBase
	Name     string          `db:"name"`
	Price    decimal.Decimal `db:"price"`
	Tags     []string        `db:"tags"`
	Location filter.Location `db:"location"`
	Ignored  string          `db:"-"`
	NoTag    string
}

func TestExtractDBColumns_Nested(t *testing.T) {
	cols := ExtractDBColumns[mockPlace]()

	assert.Equal(t, []string{
		"id", "created_at", "name", "price", "tags",
		"location_latitude", "location_longitude", "location_address",
	}, columnNames(cols))
}

func TestExtractDBColumns_Pointer(t *testing.T) {
	assert.Equal(t, ExtractDBColumns[mockPlace](), ExtractDBColumns[*mockPlace]())
	assert.Empty(t, ExtractDBColumns[int]())
}

func TestColumn_Select(t *testing.T) {
	assert.Equal(t, "name", Column{Path: []string{"name"}}.Select())
	assert.Equal(t, `location_latitude AS "location.latitude"`, Column{Path: []string{"location", "latitude"}}.Select())
}

func TestColumnValues(t *testing.T) {
	p := &mockPlace{
		mockBase: mockBase{ID: id.MustParse("0190f5d2-7c1e-7a3b-8000-000000000001")},
		Name:     "Cafe",
		Price:    decimal.NewFromInt(12),
		Tags:     []string{"wifi"},
		Location: filter.Location{Latitude: 45.5, Longitude: -73.5},
		Ignored:  "skip",
	}

	row := columnValues(reflect.ValueOf(p), ExtractDBColumns[mockPlace]())
	assert.Equal(t, []any{
		p.ID, time.Time{}, "Cafe", decimal.NewFromInt(12), []string{"wifi"},
		45.5, -73.5, "",
	}, row)

	var nilPlace *mockPlace
	assert.Equal(t, make([]any, 8), columnValues(reflect.ValueOf(nilPlace), ExtractDBColumns[mockPlace]()))
}

func TestColumnValues_NilSliceIsEmptyArray(t *testing.T) {
	row := columnValues(reflect.ValueOf(mockPlace{Name: "Museum"}), ExtractDBColumns[mockPlace]())

	tags, ok := row[4].([]string)
	assert.True(t, ok)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}
