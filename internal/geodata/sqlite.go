package geodata

import (
	"context"
	"database/sql"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS stores (
	store_id   TEXT PRIMARY KEY,
	store_name TEXT,
	division   TEXT NOT NULL,
	dc_id      TEXT NOT NULL,
	health     REAL NOT NULL,
	turnover   REAL,
	return_pct REAL,
	assigned   INTEGER NOT NULL DEFAULT 0,
	country    TEXT,
	longitude  REAL NOT NULL,
	latitude   REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS distribution_centers (
	dc_id     TEXT PRIMARY KEY,
	dc_name   TEXT,
	division  TEXT,
	longitude REAL NOT NULL,
	latitude  REAL NOT NULL,
	area      BLOB
);

CREATE TABLE IF NOT EXISTS regions (
	division TEXT PRIMARY KEY,
	boundary BLOB NOT NULL
);
`

// SQLiteSource reads and writes the dataset in a single-file SQLite
// database, for laptops and demos without Postgres.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens the SQLite database at dsn.
func OpenSQLite(dsn string) (*SQLiteSource, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "geodata: open sqlite")
	}
	if _, err := sqlDB.Exec("PRAGMA busy_timeout=5000"); err != nil {
		sqlDB.Close()
		return nil, eris.Wrap(err, "geodata: sqlite pragma")
	}
	return &SQLiteSource{db: sqlDB}, nil
}

// Close closes the database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Migrate creates the dataset tables if they do not exist.
func (s *SQLiteSource) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return eris.Wrap(err, "geodata: sqlite migrate")
}

// Load reads the dataset tables.
func (s *SQLiteSource) Load(ctx context.Context, country string) (*Dataset, error) {
	stores, err := s.loadStores(ctx, country)
	if err != nil {
		return nil, err
	}

	var dcs []DistributionCenter
	rows, err := s.db.QueryContext(ctx, `SELECT dc_id, COALESCE(dc_name, ''), COALESCE(division, ''), longitude, latitude, area FROM distribution_centers ORDER BY dc_id`)
	if err != nil {
		return nil, eris.Wrap(err, "geodata: sqlite query distribution centers")
	}
	for rows.Next() {
		var (
			dc       DistributionCenter
			division string
			lon, lat float64
			area     []byte
		)
		if err := rows.Scan(&dc.ID, &dc.Name, &division, &lon, &lat, &area); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "geodata: sqlite scan distribution center")
		}
		dc.Division, _ = ParseDivision(division)
		dc.Centroid = orb.Point{lon, lat}
		dc.Area, _ = decodeMultiPolygon(area)
		dcs = append(dcs, dc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "geodata: sqlite iterate distribution centers")
	}

	var regions []Region
	rows, err = s.db.QueryContext(ctx, `SELECT division, boundary FROM regions ORDER BY division`)
	if err != nil {
		return nil, eris.Wrap(err, "geodata: sqlite query regions")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			division string
			boundary []byte
		)
		if err := rows.Scan(&division, &boundary); err != nil {
			return nil, eris.Wrap(err, "geodata: sqlite scan region")
		}
		div, ok := ParseDivision(division)
		mp, decErr := decodeMultiPolygon(boundary)
		if !ok || div.IsAll() || decErr != nil || mp == nil {
			continue
		}
		regions = append(regions, Region{Division: div, Boundary: mp})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "geodata: sqlite iterate regions")
	}

	return New(stores, dcs, regions), nil
}

func (s *SQLiteSource) loadStores(ctx context.Context, country string) ([]Store, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT store_id, COALESCE(store_name, ''), division, dc_id, health,
		turnover, return_pct, assigned, COALESCE(country, ''), longitude, latitude
		FROM stores ORDER BY store_id`)
	if err != nil {
		return nil, eris.Wrap(err, "geodata: sqlite query stores")
	}
	defer rows.Close()

	var stores []Store
	for rows.Next() {
		var (
			st                  Store
			division            string
			turnover, returnPct sql.NullFloat64
			lon, lat            float64
		)
		if err := rows.Scan(&st.ID, &st.Name, &division, &st.DCID, &st.Health,
			&turnover, &returnPct, &st.Assigned, &st.Country, &lon, &lat); err != nil {
			return nil, eris.Wrap(err, "geodata: sqlite scan store")
		}
		div, ok := ParseDivision(division)
		if !ok || div.IsAll() {
			continue
		}
		if country != "" && st.Country != "" && !strings.EqualFold(st.Country, country) {
			continue
		}
		st.Division = div
		st.Location = orb.Point{lon, lat}
		if turnover.Valid {
			st.Turnover = &turnover.Float64
		}
		if returnPct.Valid {
			st.ReturnPct = &returnPct.Float64
		}
		stores = append(stores, st)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "geodata: sqlite iterate stores")
	}
	return stores, nil
}

// Import replaces the dataset tables with the contents of ds in one transaction.
func (s *SQLiteSource) Import(ctx context.Context, ds *Dataset) (ImportCounts, error) {
	var counts ImportCounts
	storeRows, dcRows, regionRows, err := datasetRows(ds)
	if err != nil {
		return counts, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return counts, eris.Wrap(err, "geodata: sqlite begin import")
	}
	defer func() { _ = tx.Rollback() }()

	tables := []struct {
		name    string
		columns []string
		rows    [][]any
		count   *int64
	}{
		{"stores", storeColumns, storeRows, &counts.Stores},
		{"distribution_centers", dcColumns, dcRows, &counts.DCs},
		{"regions", regionColumns, regionRows, &counts.Regions},
	}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t.name); err != nil {
			return counts, eris.Wrapf(err, "geodata: sqlite clear %s", t.name)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(t.columns)), ",")
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+t.name+" ("+strings.Join(t.columns, ", ")+") VALUES ("+placeholders+")")
		if err != nil {
			return counts, eris.Wrapf(err, "geodata: sqlite prepare %s", t.name)
		}
		for _, row := range t.rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				stmt.Close()
				return counts, eris.Wrapf(err, "geodata: sqlite insert %s", t.name)
			}
			*t.count++
		}
		stmt.Close()
	}

	if err := tx.Commit(); err != nil {
		return counts, eris.Wrap(err, "geodata: sqlite commit import")
	}
	return counts, nil
}
