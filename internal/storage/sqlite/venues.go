package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vshankar/margazhi-planner/internal/geo"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// VenueStorage persists venue coordinates across sessions.
type VenueStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// Open opens (creating if needed) the venue cache database at path.
func Open(path string, log *logger.Logger) (*VenueStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open venue cache %s: %w", path, err)
	}

	storage := &VenueStorage{
		db:     db,
		logger: log.Named("sqlite-venues"),
	}
	if err := storage.initDB(); err != nil {
		db.Close()
		return nil, err
	}
	return storage, nil
}

// NewVenueStorage wraps an existing database handle (used by tests).
func NewVenueStorage(db *sql.DB, log *logger.Logger) (*VenueStorage, error) {
	storage := &VenueStorage{
		db:     db,
		logger: log.Named("sqlite-venues"),
	}
	if err := storage.initDB(); err != nil {
		return nil, err
	}
	return storage, nil
}

// initDB initializes the database tables
func (s *VenueStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS venues (
			key TEXT PRIMARY KEY,
			venue TEXT NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			address TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create venues table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_venues_venue ON venues(venue)`)
	if err != nil {
		return fmt.Errorf("failed to create venue index: %w", err)
	}
	return nil
}

// Lookup returns the cached coordinate for a normalized venue key.
func (s *VenueStorage) Lookup(key string) (geo.Coordinate, bool, error) {
	var lat, lon float64
	err := s.db.QueryRow(
		`SELECT lat, lon FROM venues WHERE key = ?`,
		key,
	).Scan(&lat, &lon)
	if err == sql.ErrNoRows {
		return geo.Coordinate{}, false, nil
	}
	if err != nil {
		return geo.Coordinate{}, false, fmt.Errorf("failed to query venue: %w", err)
	}
	return geo.Coordinate{Lat: lat, Lon: lon}, true, nil
}

// Save stores a resolved coordinate. INSERT OR IGNORE keeps concurrent
// writers of the same idempotent entry from conflicting.
func (s *VenueStorage) Save(key, venue string, coord geo.Coordinate, address string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO venues (key, venue, lat, lon, address, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		key,
		venue,
		coord.Lat,
		coord.Lon,
		address,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert venue: %w", err)
	}
	return nil
}

// All returns every cached venue record, newest first.
func (s *VenueStorage) All() ([]*VenueRecord, error) {
	rows, err := s.db.Query(
		`SELECT key, venue, lat, lon, address, created_at
		FROM venues
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	defer rows.Close()

	return s.scanVenueRows(rows)
}

// Count returns the number of cached venues.
func (s *VenueStorage) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM venues`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count venues: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *VenueStorage) Close() error {
	return s.db.Close()
}

// scanVenueRows scans database rows into VenueRecord structs
func (s *VenueStorage) scanVenueRows(rows *sql.Rows) ([]*VenueRecord, error) {
	var records []*VenueRecord
	for rows.Next() {
		var record VenueRecord
		var address sql.NullString
		var createdAt string

		if err := rows.Scan(
			&record.Key,
			&record.Venue,
			&record.Lat,
			&record.Lon,
			&address,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}

		var err error
		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if address.Valid {
			record.Address = address.String
		}

		records = append(records, &record)
	}
	return records, rows.Err()
}
