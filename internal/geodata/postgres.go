package geodata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/storemap/internal/db"
)

var (
	storeColumns  = []string{"store_id", "store_name", "division", "dc_id", "health", "turnover", "return_pct", "assigned", "country", "longitude", "latitude"}
	dcColumns     = []string{"dc_id", "dc_name", "division", "longitude", "latitude", "area"}
	regionColumns = []string{"division", "boundary"}
)

// PostgresSource reads and writes the dataset tables in one schema.
// Geometries are stored as EWKB so the tables work with or without PostGIS.
type PostgresSource struct {
	pool   db.Pool
	schema string
}

// NewPostgresSource creates a PostgresSource for schema.
func NewPostgresSource(pool db.Pool, schema string) *PostgresSource {
	return &PostgresSource{pool: pool, schema: schema}
}

func (p *PostgresSource) table(name string) string {
	return pgx.Identifier{p.schema, name}.Sanitize()
}

// Migrate creates the schema and dataset tables if they do not exist.
func (p *PostgresSource) Migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{p.schema}.Sanitize()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			store_id   TEXT PRIMARY KEY,
			store_name TEXT,
			division   TEXT NOT NULL,
			dc_id      TEXT NOT NULL,
			health     DOUBLE PRECISION NOT NULL,
			turnover   DOUBLE PRECISION,
			return_pct DOUBLE PRECISION,
			assigned   BOOLEAN NOT NULL DEFAULT false,
			country    TEXT,
			longitude  DOUBLE PRECISION NOT NULL,
			latitude   DOUBLE PRECISION NOT NULL
		)`, p.table("stores")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dc_id     TEXT PRIMARY KEY,
			dc_name   TEXT,
			division  TEXT,
			longitude DOUBLE PRECISION NOT NULL,
			latitude  DOUBLE PRECISION NOT NULL,
			area      BYTEA
		)`, p.table("distribution_centers")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			division TEXT PRIMARY KEY,
			boundary BYTEA NOT NULL
		)`, p.table("regions")),
	}
	for _, sql := range stmts {
		if _, err := p.pool.Exec(ctx, sql); err != nil {
			return eris.Wrap(err, "geodata: migrate")
		}
	}
	return nil
}

// Load reads the dataset tables. Stores from a country other than country
// (when set) are dropped.
func (p *PostgresSource) Load(ctx context.Context, country string) (*Dataset, error) {
	stores, err := p.loadStores(ctx, country)
	if err != nil {
		return nil, err
	}
	dcs, err := p.loadDCs(ctx)
	if err != nil {
		return nil, err
	}
	regions, err := p.loadRegions(ctx)
	if err != nil {
		return nil, err
	}
	return New(stores, dcs, regions), nil
}

func (p *PostgresSource) loadStores(ctx context.Context, country string) ([]Store, error) {
	sql := fmt.Sprintf(`SELECT store_id, COALESCE(store_name, ''), division, dc_id, health,
		turnover, return_pct, assigned, COALESCE(country, ''), longitude, latitude
		FROM %s
		WHERE $1 = '' OR country IS NULL OR country = '' OR upper(country) = upper($1)
		ORDER BY store_id`, p.table("stores"))
	rows, err := p.pool.Query(ctx, sql, country)
	if err != nil {
		return nil, eris.Wrap(err, "geodata: query stores")
	}
	defer rows.Close()

	var stores []Store
	var skipped int
	for rows.Next() {
		var (
			s                   Store
			division            string
			turnover, returnPct pgtype.Float8
			lon, lat            float64
		)
		if err := rows.Scan(&s.ID, &s.Name, &division, &s.DCID, &s.Health,
			&turnover, &returnPct, &s.Assigned, &s.Country, &lon, &lat); err != nil {
			return nil, eris.Wrap(err, "geodata: scan store row")
		}
		div, ok := ParseDivision(division)
		if !ok || div.IsAll() {
			skipped++
			continue
		}
		s.Division = div
		s.Location = orb.Point{lon, lat}
		s.Turnover = float8Ptr(turnover)
		s.ReturnPct = float8Ptr(returnPct)
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "geodata: iterate store rows")
	}
	if skipped > 0 {
		zap.L().Warn("geodata: skipped stores with unknown division", zap.Int("count", skipped))
	}
	return stores, nil
}

func (p *PostgresSource) loadDCs(ctx context.Context) ([]DistributionCenter, error) {
	sql := fmt.Sprintf(`SELECT dc_id, COALESCE(dc_name, ''), COALESCE(division, ''), longitude, latitude, area
		FROM %s ORDER BY dc_id`, p.table("distribution_centers"))
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrap(err, "geodata: query distribution centers")
	}
	defer rows.Close()

	var dcs []DistributionCenter
	for rows.Next() {
		var (
			dc       DistributionCenter
			division string
			lon, lat float64
			area     []byte
		)
		if err := rows.Scan(&dc.ID, &dc.Name, &division, &lon, &lat, &area); err != nil {
			return nil, eris.Wrap(err, "geodata: scan distribution center row")
		}
		dc.Division, _ = ParseDivision(division)
		dc.Centroid = orb.Point{lon, lat}
		if mp, err := decodeMultiPolygon(area); err != nil {
			zap.L().Warn("geodata: ignoring bad DC area", zap.String("dc_id", dc.ID), zap.Error(err))
		} else {
			dc.Area = mp
		}
		dcs = append(dcs, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "geodata: iterate distribution center rows")
	}
	return dcs, nil
}

func (p *PostgresSource) loadRegions(ctx context.Context) ([]Region, error) {
	sql := fmt.Sprintf(`SELECT division, boundary FROM %s ORDER BY division`, p.table("regions"))
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrap(err, "geodata: query regions")
	}
	defer rows.Close()

	var regions []Region
	for rows.Next() {
		var (
			division string
			boundary []byte
		)
		if err := rows.Scan(&division, &boundary); err != nil {
			return nil, eris.Wrap(err, "geodata: scan region row")
		}
		div, ok := ParseDivision(division)
		if !ok || div.IsAll() {
			continue
		}
		mp, err := decodeMultiPolygon(boundary)
		if err != nil || mp == nil {
			zap.L().Warn("geodata: ignoring bad region boundary", zap.String("division", division), zap.Error(err))
			continue
		}
		regions = append(regions, Region{Division: div, Boundary: mp})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "geodata: iterate region rows")
	}
	return regions, nil
}

// ImportCounts reports rows written per table by Import.
type ImportCounts struct {
	Stores  int64 `json:"stores"`
	DCs     int64 `json:"dcs"`
	Regions int64 `json:"regions"`
}

// Import replaces the dataset tables with the contents of ds in one
// transaction.
func (p *PostgresSource) Import(ctx context.Context, ds *Dataset) (ImportCounts, error) {
	var counts ImportCounts

	storeRows, dcRows, regionRows, err := datasetRows(ds)
	if err != nil {
		return counts, err
	}

	n, err := db.ReplaceTables(ctx, p.pool, p.schema, []db.Table{
		{Name: "stores", Columns: storeColumns, Rows: storeRows},
		{Name: "distribution_centers", Columns: dcColumns, Rows: dcRows},
		{Name: "regions", Columns: regionColumns, Rows: regionRows},
	})
	if err != nil {
		return counts, err
	}
	counts.Stores, counts.DCs, counts.Regions = n[0], n[1], n[2]
	return counts, nil
}

// datasetRows flattens ds into rows matching the table column lists.
func datasetRows(ds *Dataset) (stores, dcs, regions [][]any, err error) {
	for _, s := range ds.Stores() {
		stores = append(stores, []any{
			s.ID, nullString(s.Name), string(s.Division), s.DCID, s.Health,
			s.Turnover, s.ReturnPct, s.Assigned, nullString(s.Country),
			s.Location.Lon(), s.Location.Lat(),
		})
	}
	for _, dc := range ds.DCs() {
		var area []byte
		if len(dc.Area) > 0 {
			if area, err = EncodeEWKB(dc.Area); err != nil {
				return nil, nil, nil, err
			}
		}
		dcs = append(dcs, []any{
			dc.ID, nullString(dc.Name), nullString(string(dc.Division)),
			dc.Centroid.Lon(), dc.Centroid.Lat(), area,
		})
	}
	for _, r := range ds.Regions() {
		b, encErr := EncodeEWKB(r.Boundary)
		if encErr != nil {
			return nil, nil, nil, encErr
		}
		regions = append(regions, []any{string(r.Division), b})
	}
	return stores, dcs, regions, nil
}

func decodeMultiPolygon(data []byte) (orb.MultiPolygon, error) {
	g, err := DecodeEWKB(data)
	if err != nil || g == nil {
		return nil, err
	}
	mp, ok := g.(orb.MultiPolygon)
	if !ok {
		return nil, eris.Errorf("geodata: expected multipolygon, got %s", g.GeoJSONType())
	}
	return mp, nil
}

func float8Ptr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
