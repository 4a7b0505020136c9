package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"logoserver/internal/domain"
	"logoserver/internal/infra"
	"logoserver/internal/sqlinline"
)

// PostgresStore persists accounts in Postgres through the shared SQL runner.
type PostgresStore struct {
	sql infra.SQLExecutor
}

// NewPostgresStore wraps an executor (normally *infra.SQLRunner).
func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql}
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, email, password string) (*domain.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	tag, err := s.sql.Exec(ctx, sqlinline.QInsertUser, email, hash, domain.UserPlanFree.DailyLimit())
	if err != nil {
		return nil, fmt.Errorf("account: create user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrEmailTaken
	}
	return &domain.User{
		Email:        email,
		PasswordHash: hash,
		Plan:         domain.UserPlanFree,
		DailyLimit:   domain.UserPlanFree.DailyLimit(),
		CreatedAt:    time.Now(),
	}, nil
}

// Verify implements Store.
func (s *PostgresStore) Verify(ctx context.Context, email, password string) (bool, error) {
	user, err := s.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return checkPassword(user.PasswordHash, password), nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, email string) (*domain.User, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectUserByEmail, email)
	var user domain.User
	var plan string
	err := row.Scan(&user.Email, &user.PasswordHash, &plan, &user.DailyLimit, &user.SubscriptionID, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account: get user: %w", err)
	}
	user.Plan = domain.UserPlan(plan)
	return &user, nil
}

// UpdatePlan implements Store.
func (s *PostgresStore) UpdatePlan(ctx context.Context, email string, plan domain.UserPlan, subscriptionID string) error {
	if !plan.Valid() {
		return domain.ErrUnsupportedPlan
	}
	tag, err := s.sql.Exec(ctx, sqlinline.QUpdateUserPlan, email, string(plan), plan.DailyLimit(), subscriptionID)
	if err != nil {
		return fmt.Errorf("account: update plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
