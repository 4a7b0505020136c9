package account

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"logoserver/internal/domain"
)

// storeContract exercises the behavior every Store backend must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	user, err := s.Create(ctx, "a@b.com", "secret123")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.Plan != domain.UserPlanFree {
		t.Errorf("new account plan = %q, want free", user.Plan)
	}
	if user.DailyLimit != 10 {
		t.Errorf("new account daily limit = %d, want 10", user.DailyLimit)
	}
	if user.PasswordHash == "secret123" {
		t.Error("password stored in plaintext")
	}

	if _, err := s.Create(ctx, "a@b.com", "other"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("duplicate Create err = %v, want ErrEmailTaken", err)
	}

	ok, err := s.Verify(ctx, "a@b.com", "secret123")
	if err != nil || !ok {
		t.Fatalf("Verify correct password = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = s.Verify(ctx, "a@b.com", "wrong")
	if err != nil || ok {
		t.Fatalf("Verify wrong password = (%v, %v), want (false, nil)", ok, err)
	}
	ok, err = s.Verify(ctx, "missing@b.com", "secret123")
	if err != nil || ok {
		t.Fatalf("Verify unknown account = (%v, %v), want (false, nil)", ok, err)
	}

	if _, err := s.Get(ctx, "missing@b.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get unknown err = %v, want ErrNotFound", err)
	}

	if err := s.UpdatePlan(ctx, "a@b.com", domain.UserPlanPro, "sub-1"); err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}
	user, err = s.Get(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if user.Plan != domain.UserPlanPro {
		t.Errorf("plan after upgrade = %q, want pro", user.Plan)
	}
	if user.DailyLimit != domain.UnlimitedQuota {
		t.Errorf("daily limit after upgrade = %d, want %d", user.DailyLimit, domain.UnlimitedQuota)
	}
	if user.SubscriptionID != "sub-1" {
		t.Errorf("subscription id = %q, want sub-1", user.SubscriptionID)
	}

	if err := s.UpdatePlan(ctx, "missing@b.com", domain.UserPlanPro, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdatePlan unknown err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestSQLiteStoreContract(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	storeContract(t, s)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if _, err := s.Create(ctx, "a@b.com", "secret123"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	user, _ := s.Get(ctx, "a@b.com")
	user.Plan = domain.UserPlanPro

	fresh, _ := s.Get(ctx, "a@b.com")
	if fresh.Plan != domain.UserPlanFree {
		t.Fatal("mutating a returned user leaked into the store")
	}
}

func TestMemoryStoreRejectsInvalidPlan(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if _, err := s.Create(ctx, "a@b.com", "secret123"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.UpdatePlan(ctx, "a@b.com", domain.UserPlan("platinum"), ""); !errors.Is(err, domain.ErrUnsupportedPlan) {
		t.Fatalf("UpdatePlan err = %v, want ErrUnsupportedPlan", err)
	}
}
