package quota

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists usage counters in a SQLite file so quota survives
// process restarts. All read-modify-write sequences run under one mutex; the
// store is far from being a throughput bottleneck at real traffic volumes.
type SQLiteStore struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (and if necessary initializes) the usage database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("quota: open sqlite: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS usage (
			user_key TEXT PRIMARY KEY,
			count INTEGER DEFAULT 0,
			date TEXT NOT NULL,
			tier TEXT DEFAULT 'free'
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("quota: init schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) today() string {
	return s.now().Format("2006-01-02")
}

// Check implements Store.
func (s *SQLiteStore) Check(key string, tier Tier) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	var count int
	var day, storedTier string
	err := s.db.QueryRow(`SELECT count, date, tier FROM usage WHERE user_key = ?`, key).
		Scan(&count, &day, &storedTier)
	switch {
	case errors.Is(err, sql.ErrNoRows), err == nil && day != today:
		count = 0
		if _, err := s.db.Exec(`INSERT OR REPLACE INTO usage (user_key, count, date, tier) VALUES (?, 0, ?, ?)`,
			key, today, string(tier)); err != nil {
			return false, 0, fmt.Errorf("quota: reset record: %w", err)
		}
	case err != nil:
		return false, 0, fmt.Errorf("quota: read record: %w", err)
	case storedTier != string(tier):
		if _, err := s.db.Exec(`UPDATE usage SET tier = ? WHERE user_key = ?`, string(tier), key); err != nil {
			return false, 0, fmt.Errorf("quota: update tier: %w", err)
		}
	}

	limit := tier.DailyLimit()
	if limit == Unlimited {
		return true, Unlimited, nil
	}
	return count < limit, limit - count, nil
}

// Increment implements Store.
func (s *SQLiteStore) Increment(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	var day string
	err := s.db.QueryRow(`SELECT date FROM usage WHERE user_key = ?`, key).Scan(&day)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.Exec(`INSERT INTO usage (user_key, count, date, tier) VALUES (?, 1, ?, 'free')`, key, today)
	case err != nil:
		return fmt.Errorf("quota: read record: %w", err)
	case day != today:
		_, err = s.db.Exec(`UPDATE usage SET count = 1, date = ? WHERE user_key = ?`, today, key)
	default:
		_, err = s.db.Exec(`UPDATE usage SET count = count + 1 WHERE user_key = ?`, key)
	}
	if err != nil {
		return fmt.Errorf("quota: increment: %w", err)
	}
	return nil
}

// Usage implements Store.
func (s *SQLiteStore) Usage(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	var day string
	err := s.db.QueryRow(`SELECT count, date FROM usage WHERE user_key = ?`, key).Scan(&count, &day)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quota: read record: %w", err)
	}
	if day != s.today() {
		return 0, nil
	}
	return count, nil
}

var _ Store = (*SQLiteStore)(nil)
