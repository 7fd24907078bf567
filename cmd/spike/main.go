// Package main runs one place query through both engines: the in-process CEL
// engine over sample records, and PostgreSQL when DATABASE_URL is set.
//
// Filters are read as JSON from FILTER_JSON, e.g.
//
//	FILTER_JSON='[{"field":"location","operator":"within","value":{"latitude":45.5017,"longitude":-73.5673,"distanceKm":5}}]'
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	appctx "sieve/internal/core/context"
	"sieve/internal/core/types"
	"sieve/internal/domain"
	"sieve/internal/domain/filter"
	"sieve/internal/domain/place"
	"sieve/internal/infrastructure/celengine"
	"sieve/internal/infrastructure/storage/postgres"
	"sieve/pkg/logger"
)

const placesDDL = `CREATE TABLE IF NOT EXISTS places (
	id                 uuid PRIMARY KEY,
	created_at         timestamptz NOT NULL,
	name               text NOT NULL,
	category           text NOT NULL,
	price              numeric(12, 2) NOT NULL,
	rating             double precision NOT NULL,
	tags               text[] NOT NULL DEFAULT '{}',
	location_latitude  double precision NOT NULL,
	location_longitude double precision NOT NULL,
	location_address   text NOT NULL DEFAULT ''
)`

const defaultFilter = `[
	{"field": "location", "operator": "within", "value": {"latitude": 45.5017, "longitude": -73.5673, "distanceKm": 5}},
	{"field": "tags", "operator": "contains_any", "value": ["wifi"]}
]`

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := appctx.WithTrace(context.Background(), appctx.NewTraceContext())
	logger.SetDefault(log)
	ctx = logger.WithLogger(ctx, log)

	items, err := parseItems(getEnv("FILTER_JSON", defaultFilter))
	if err != nil {
		log.Fatalw("invalid FILTER_JSON", "error", err)
	}
	f := domain.ListFilter{
		Items:   items,
		OrderBy: strings.Split(getEnv("ORDER_BY", "name"), ","),
		Limit:   uint64(getEnvInt("LIMIT", 50)),
	}

	// --- In-process evaluation ---
	engine, err := celengine.NewEngine(celengine.WithLogger(log))
	if err != nil {
		log.Fatalw("failed to create CEL engine", "error", err)
	}

	s, err := filter.CompileItems(f.Items)
	if err != nil {
		log.Fatalw("failed to build specification", "error", err)
	}
	log.Infow("specification built", "spec", s.String())

	records := make([]map[string]any, 0, len(samplePlaces()))
	for _, p := range samplePlaces() {
		rec, err := celengine.Record(p)
		if err != nil {
			log.Fatalw("failed to convert place", "name", p.Name, "error", err)
		}
		records = append(records, rec)
	}
	matched, err := engine.Select(ctx, records, s)
	if err != nil {
		log.Fatalw("in-process evaluation failed", "error", err)
	}
	for _, rec := range matched {
		log.Infow("match (cel)", "name", rec["name"], "price", rec["price"])
	}

	repo := postgres.NewSpecRepo[place.Place](nil, "places")
	sql, args, err := repo.SelectSQL(s, domain.FindOptions{OrderBy: f.OrderBy, Limit: f.Limit})
	if err != nil {
		log.Fatalw("failed to build SQL", "error", err)
	}
	log.Infow("sql", "query", sql, "args", args)

	// --- PostgreSQL evaluation ---
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Info("DATABASE_URL not set, skipping database query")
		return
	}

	poolCfg := postgres.DefaultPoolConfig(dsn)
	if maxConns := getEnvInt("DB_MAX_CONNS", 5); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	poolCfg.SearchPath = getEnv("DB_SEARCH_PATH", "")
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool).
		WithStatementTimeout(getEnvDuration("DB_STATEMENT_TIMEOUT", 5*time.Second))
	repo = postgres.NewSpecRepo[place.Place](txm, "places")

	if getEnv("SEED_PLACES", "false") == "true" {
		if err := seed(ctx, pool, repo); err != nil {
			log.Fatalw("failed to seed places", "error", err)
		}
	}

	result, err := place.NewService(repo).List(ctx, f)
	if err != nil {
		log.Errorw("database query failed", "error", err)
		return
	}
	for _, p := range result.Items {
		log.Infow("match (postgres)", "id", p.ID, "name", p.Name, "price", p.Price.String())
	}
	log.Infow("database query done", "total", result.TotalCount, "returned", len(result.Items))
	pool.LogStats(ctx)
}

func seed(ctx context.Context, pool *postgres.Pool, repo *postgres.SpecRepo[place.Place]) error {
	if _, err := pool.Exec(ctx, placesDDL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	rows := make([]place.Place, 0, len(samplePlaces()))
	for _, p := range samplePlaces() {
		if err := p.Validate(ctx); err != nil {
			return err
		}
		rows = append(rows, *p)
	}
	_, err := repo.Insert(ctx, rows)
	return err
}

// parseItems decodes filter items, keeping numbers as json.Number so integer
// values stay integers.
func parseItems(raw string) ([]filter.Item, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var items []filter.Item
	if err := dec.Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

func samplePlaces() []*place.Place {
	mk := func(name string, c place.Category, price string, lat, lon float64, tags ...string) *place.Place {
		p := place.NewPlace(name, c, filter.Location{Latitude: lat, Longitude: lon})
		p.Price = types.MustMoney(price)
		p.Tags = tags
		return p
	}
	return []*place.Place{
		mk("Cafe Olimpico", place.CategoryCafe, "4.50", 45.5226, -73.6003, "wifi", "terrace"),
		mk("Musee des beaux-arts", place.CategoryMuseum, "24", 45.4986, -73.5794),
		mk("Parc La Fontaine", place.CategoryPark, "0", 45.5270, -73.5698, "wifi"),
		mk("Chalet Tremblant", place.CategoryLodging, "180", 46.2094, -74.5850, "wifi", "lake"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
