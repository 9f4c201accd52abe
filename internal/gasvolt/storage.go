package gasvolt

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/patrickmn/go-cache"

	"github.com/rubiojr/gasvolt/internal/compare"
	"github.com/rubiojr/gasvolt/pkg/api"
)

const (
	defaultCacheExpirationMinutes = 10
	defaultCacheCleanupMinutes    = 30
	defaultCacheSize              = -1024 * 4 // negative value for KiB
	defaultHistoryLimit           = 50
	vacuumPages                   = 1000

	timeLayout = "2006-01-02T15:04:05Z"
)

// Storage keeps the history of fetched quotes in SQLite.
type Storage struct {
	db    *sql.DB
	cache *cache.Cache
	log   *slog.Logger
}

// HistoryRecord is one stored quote.
type HistoryRecord struct {
	ID        int64     `json:"id"`
	FetchedAt time.Time `json:"fetched_at"`
	StationID int       `json:"station_id"`
	Label     string    `json:"label"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Latitude  float64   `json:"latitude,omitempty"`
	Longitude float64   `json:"longitude,omitempty"`
	Fuel      string    `json:"fuel"`
	Credit    float64   `json:"credit"`
	Cash      *float64  `json:"cash,omitempty"`
	Posted    string    `json:"posted,omitempty"`
}

// HistoryQuery filters History results. Zero values match everything.
type HistoryQuery struct {
	Label string
	Fuel  string
	Since time.Time
	Limit int
}

func NewStorage(ctx context.Context, dbPath string, logger *slog.Logger) (*Storage, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := configureSQLitePragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	s := &Storage{
		db:    db,
		cache: cache.New(defaultCacheExpirationMinutes*time.Minute, defaultCacheCleanupMinutes*time.Minute),
		log:   logger,
	}
	s.log.Debug("Storage opened", "path", dbPath)

	return s, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fetched_at TEXT NOT NULL,
		station_id INTEGER NOT NULL,
		label TEXT NOT NULL,
		name TEXT,
		address TEXT,
		city TEXT,
		latitude REAL,
		longitude REAL,
		fuel TEXT NOT NULL,
		credit REAL NOT NULL,
		cash REAL,
		posted TEXT,
		UNIQUE(fetched_at, station_id, fuel)
	);
	CREATE INDEX IF NOT EXISTS idx_quotes_fetched_at ON quotes(fetched_at);
	CREATE INDEX IF NOT EXISTS idx_quotes_label ON quotes(label);
	`

	_, err := db.ExecContext(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}
	return nil
}

func configureSQLitePragmas(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 10000;"); err != nil {
		return fmt.Errorf("error setting busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("error setting journal mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA auto_vacuum = INCREMENTAL;"); err != nil {
		return fmt.Errorf("error setting auto vacuum: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		return fmt.Errorf("error setting synchronous: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA cache_size = %d;", defaultCacheSize)); err != nil {
		return fmt.Errorf("error setting cache size: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	if s.cache != nil {
		s.cache.Flush()
	}
	return s.db.Close()
}

// SaveQuotes records one collection run. All quotes share the same
// fetched_at timestamp so a run can be read back as a unit.
func (s *Storage) SaveQuotes(ctx context.Context, at time.Time, fuel string, quotes []compare.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	fetchedAt := at.UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.log.Error("rollback error", "error", err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO quotes (
			fetched_at, station_id, label, name, address, city, latitude, longitude,
			fuel, credit, cash, posted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range quotes {
		q := &quotes[i]
		var stationID int
		var address, city string
		var lat, lng any
		if q.Station != nil {
			stationID = q.Station.ID
			address = q.Station.Address
			city = q.Station.City
			if q.Station.HasLocation() {
				lat, lng = q.Station.Latitude, q.Station.Longitude
			}
		}
		var cash any
		if q.Cash != nil {
			cash = *q.Cash
		}
		_, err := stmt.ExecContext(ctx,
			fetchedAt, stationID, q.Label, q.Name(), address, city, lat, lng,
			fuel, q.Credit, cash, q.Updated,
		)
		if err != nil {
			return fmt.Errorf("error inserting quote for %s: %w", q.Label, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	s.cache.Flush()
	s.log.Debug("Saved quotes", "count", len(quotes), "fetched_at", fetchedAt)

	return nil
}

// History returns stored quotes, most recent first.
func (s *Storage) History(ctx context.Context, q HistoryQuery) ([]HistoryRecord, error) {
	query := `SELECT id, fetched_at, station_id, label, name, address, city, latitude, longitude, fuel, credit, cash, posted
			  FROM quotes WHERE 1 = 1`
	var args []any
	if q.Label != "" {
		query += " AND label = ?"
		args = append(args, q.Label)
	}
	if q.Fuel != "" {
		query += " AND fuel = ?"
		args = append(args, q.Fuel)
	}
	if !q.Since.IsZero() {
		query += " AND fetched_at >= ?"
		args = append(args, q.Since.UTC().Format(timeLayout))
	}
	query += " ORDER BY fetched_at DESC, credit ASC LIMIT ?"
	limit := q.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying history: %w", err)
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

func scanRecord(rows *sql.Rows) (HistoryRecord, error) {
	var rec HistoryRecord
	var fetchedAt string
	var name, address, city, posted sql.NullString
	var cash, lat, lng sql.NullFloat64
	if err := rows.Scan(
		&rec.ID, &fetchedAt, &rec.StationID, &rec.Label, &name, &address, &city,
		&lat, &lng, &rec.Fuel, &rec.Credit, &cash, &posted,
	); err != nil {
		return rec, fmt.Errorf("error scanning quote: %w", err)
	}
	t, err := time.Parse(timeLayout, fetchedAt)
	if err != nil {
		return rec, fmt.Errorf("error parsing date %s: %w", fetchedAt, err)
	}
	rec.FetchedAt = t
	rec.Name = name.String
	rec.Address = address.String
	rec.City = city.String
	rec.Posted = posted.String
	rec.Latitude = lat.Float64
	rec.Longitude = lng.Float64
	if cash.Valid {
		v := cash.Float64
		rec.Cash = &v
	}
	return rec, nil
}

// LatestQuotes returns the quotes of the most recent run for fuel, cheapest
// first. found is false when nothing was ever recorded for that fuel.
func (s *Storage) LatestQuotes(ctx context.Context, fuel string) (quotes []compare.Quote, fetchedAt time.Time, found bool, err error) {
	cacheKey := "latest_" + fuel

	type latest struct {
		quotes    []compare.Quote
		fetchedAt time.Time
	}
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.log.Debug("Using cached data", "key", cacheKey)
		l := cached.(latest)
		return l.quotes, l.fetchedAt, true, nil
	}

	var last sql.NullString
	err = s.db.QueryRowContext(ctx, "SELECT MAX(fetched_at) FROM quotes WHERE fuel = ?", fuel).Scan(&last)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("error querying last run: %w", err)
	}
	if !last.Valid {
		return nil, time.Time{}, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fetched_at, station_id, label, name, address, city, latitude, longitude, fuel, credit, cash, posted
		FROM quotes WHERE fuel = ? AND fetched_at = ? ORDER BY credit ASC
	`, fuel, last.String)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("error querying latest quotes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, time.Time{}, false, err
		}
		fetchedAt = rec.FetchedAt
		quotes = append(quotes, rec.Quote())
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("error iterating rows: %w", err)
	}

	s.cache.Set(cacheKey, latest{quotes: quotes, fetchedAt: fetchedAt}, cache.DefaultExpiration)
	return quotes, fetchedAt, true, nil
}

// RecordedDates returns the UTC days with at least one recorded quote,
// oldest first.
func (s *Storage) RecordedDates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT substr(fetched_at, 1, 10) AS day FROM quotes ORDER BY day ASC")
	if err != nil {
		return nil, fmt.Errorf("error querying dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("error scanning date: %w", err)
		}
		date, err := time.Parse(time.DateOnly, day)
		if err != nil {
			continue
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error: %w", err)
	}
	return dates, nil
}

// Quote converts a stored record back into a comparable quote.
func (r HistoryRecord) Quote() compare.Quote {
	return compare.Quote{
		Label: r.Label,
		Station: &api.StationPrice{
			ID:        r.StationID,
			Name:      r.Name,
			Address:   r.Address,
			City:      r.City,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		},
		Credit:  r.Credit,
		Cash:    r.Cash,
		Updated: r.Posted,
	}
}

// DeleteOldRecords removes quotes fetched more than daysOld days ago and
// returns how many rows were deleted.
func (s *Storage) DeleteOldRecords(ctx context.Context, daysOld int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -daysOld).UTC().Format(timeLayout)
	s.log.Info("Starting cleanup of old records", "cutoff_date", cutoff)

	res, err := s.db.ExecContext(ctx, "DELETE FROM quotes WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("error deleting quotes: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting deleted quotes: %w", err)
	}
	s.cache.Flush()

	s.log.Info("Completed quotes cleanup", "deleted_count", deleted)
	return deleted, nil
}

func (s *Storage) VacuumDatabase(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA incremental_vacuum(%d)", vacuumPages))
	if err != nil {
		return fmt.Errorf("error performing incremental vacuum: %w", err)
	}

	return nil
}
