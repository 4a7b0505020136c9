package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"logoserver/internal/domain"
)

// SQLiteStore persists accounts in a SQLite file, for single-node deployments
// that do not run Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary initializes) the users database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("account: open sqlite: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			email TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			plan TEXT DEFAULT 'free',
			created TEXT NOT NULL,
			daily_limit INTEGER DEFAULT 10,
			subscription_id TEXT
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("account: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create implements Store.
func (s *SQLiteStore) Create(ctx context.Context, email, password string) (*domain.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (email, password, plan, created, daily_limit, subscription_id)
		VALUES (?, ?, 'free', ?, ?, NULL)`,
		email, hash, now.Format(time.RFC3339), domain.UserPlanFree.DailyLimit())
	if err != nil {
		var existing string
		if scanErr := s.db.QueryRowContext(ctx, `SELECT email FROM users WHERE email = ?`, email).Scan(&existing); scanErr == nil {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("account: create user: %w", err)
	}
	return &domain.User{
		Email:        email,
		PasswordHash: hash,
		Plan:         domain.UserPlanFree,
		DailyLimit:   domain.UserPlanFree.DailyLimit(),
		CreatedAt:    now,
	}, nil
}

// Verify implements Store.
func (s *SQLiteStore) Verify(ctx context.Context, email, password string) (bool, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT password FROM users WHERE email = ?`, email).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("account: verify user: %w", err)
	}
	return checkPassword(hash, password), nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	var plan, created string
	var subscription sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT email, password, plan, created, daily_limit, subscription_id
		FROM users WHERE email = ?`, email).
		Scan(&user.Email, &user.PasswordHash, &plan, &created, &user.DailyLimit, &subscription)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account: get user: %w", err)
	}
	user.Plan = domain.UserPlan(plan)
	user.SubscriptionID = subscription.String
	if ts, err := time.Parse(time.RFC3339, created); err == nil {
		user.CreatedAt = ts
	}
	return &user, nil
}

// UpdatePlan implements Store.
func (s *SQLiteStore) UpdatePlan(ctx context.Context, email string, plan domain.UserPlan, subscriptionID string) error {
	if !plan.Valid() {
		return domain.ErrUnsupportedPlan
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET plan = ?, daily_limit = ?, subscription_id = ? WHERE email = ?`,
		string(plan), plan.DailyLimit(), subscriptionID, email)
	if err != nil {
		return fmt.Errorf("account: update plan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("account: update plan: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
