package account

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"logoserver/internal/domain"
)

// Store is the persistent account collaborator. The generation pipeline
// consumes it only as a lookup of plan tier and daily limit; the auth and
// billing handlers use the full surface.
type Store interface {
	Create(ctx context.Context, email, password string) (*domain.User, error)
	Verify(ctx context.Context, email, password string) (bool, error)
	Get(ctx context.Context, email string) (*domain.User, error)
	UpdatePlan(ctx context.Context, email string, plan domain.UserPlan, subscriptionID string) error
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// MemoryStore keeps accounts in process memory. Default backend for
// development and tests.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

// NewMemoryStore constructs an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*domain.User)}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, email, password string) (*domain.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[email]; exists {
		return nil, domain.ErrEmailTaken
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Plan:         domain.UserPlanFree,
		DailyLimit:   domain.UserPlanFree.DailyLimit(),
		CreatedAt:    time.Now(),
	}
	s.users[email] = user
	copied := *user
	return &copied, nil
}

// Verify implements Store.
func (s *MemoryStore) Verify(_ context.Context, email, password string) (bool, error) {
	s.mu.Lock()
	user, ok := s.users[email]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return checkPassword(user.PasswordHash, password), nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// UpdatePlan implements Store.
func (s *MemoryStore) UpdatePlan(_ context.Context, email string, plan domain.UserPlan, subscriptionID string) error {
	if !plan.Valid() {
		return domain.ErrUnsupportedPlan
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return domain.ErrNotFound
	}
	user.Plan = plan
	user.DailyLimit = plan.DailyLimit()
	user.SubscriptionID = subscriptionID
	return nil
}

var _ Store = (*MemoryStore)(nil)
