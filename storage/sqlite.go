package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps champions in a sqlite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("opening %s: %w", s.path, err)
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("creating tables: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveChampion(ctx context.Context, c Champion) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO champions (run_id, generation, car_id, tarmac, avg_speed, network, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			car_id = excluded.car_id,
			tarmac = excluded.tarmac,
			avg_speed = excluded.avg_speed,
			network = excluded.network,
			created_at = excluded.created_at
	`, c.RunID, c.Generation, int64(c.CarID), c.Tarmac, c.AvgSpeed, c.Network, c.CreatedAt.UnixNano())
	return err
}

func (s *SQLiteStore) LatestChampion(ctx context.Context, runID string) (Champion, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Champion{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT run_id, generation, car_id, tarmac, avg_speed, network, created_at
		FROM champions
		WHERE ? = '' OR run_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, runID, runID)

	c, err := scanChampion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Champion{}, false, nil
		}
		return Champion{}, false, err
	}
	return c, true, nil
}

func (s *SQLiteStore) Champions(ctx context.Context, runID string) ([]Champion, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, generation, car_id, tarmac, avg_speed, network, created_at
		FROM champions
		WHERE run_id = ?
		ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Champion
	for rows.Next() {
		c, err := scanChampion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChampion(row scanner) (Champion, error) {
	var (
		c       Champion
		carID   int64
		created int64
	)
	if err := row.Scan(&c.RunID, &c.Generation, &carID, &c.Tarmac, &c.AvgSpeed, &c.Network, &created); err != nil {
		return Champion{}, err
	}
	c.CarID = uint32(carID)
	c.CreatedAt = time.Unix(0, created)
	return c, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS champions (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			car_id INTEGER NOT NULL,
			tarmac REAL NOT NULL,
			avg_speed REAL NOT NULL,
			network BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
