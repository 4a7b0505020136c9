package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"logoserver/internal/dispatch"
	"logoserver/internal/domain"
	provider "logoserver/internal/providers/image"
	"logoserver/internal/quota"
)

type stubGenerator struct {
	calls   int64
	payload []byte
	err     error
}

func (g *stubGenerator) Generate(context.Context, string, int) ([]byte, error) {
	atomic.AddInt64(&g.calls, 1)
	if g.err != nil {
		return nil, g.err
	}
	return g.payload, nil
}

type stubAccounts struct {
	users map[string]*domain.User
}

func (s *stubAccounts) Get(_ context.Context, email string) (*domain.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

type serviceFixture struct {
	svc    *Service
	fast   *stubGenerator
	slow   *stubGenerator
	quotas *quota.MemoryStore
}

func newServiceFixture(t *testing.T, users map[string]*domain.User) *serviceFixture {
	t.Helper()
	fast := &stubGenerator{payload: []byte("fast-image")}
	slow := &stubGenerator{payload: []byte("slow-image")}

	reg := provider.NewRegistry()
	reg.Register("pollinations", fast)
	reg.RegisterSlow("stable-horde", slow)

	d := dispatch.New(2, zerolog.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.Shutdown(ctx)
	})

	quotas := quota.NewMemoryStore()
	svc := NewService(Options{
		Dispatcher:   d,
		Providers:    reg,
		Quotas:       quotas,
		Accounts:     &stubAccounts{users: users},
		Logger:       zerolog.Nop(),
		AwaitTimeout: 5 * time.Second,
	})
	return &serviceFixture{svc: svc, fast: fast, slow: slow, quotas: quotas}
}

func TestGenerateBatchSuccess(t *testing.T) {
	f := newServiceFixture(t, nil)
	ident := quota.ResolveIdentity("", "203.0.113.1")

	result, err := f.svc.Generate(context.Background(), Request{
		CompanyName: "Acme",
		Style:       "minimal",
		ColorScheme: "professional",
		Count:       3,
		Model:       "pollinations",
		Background:  "white",
	}, ident)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.Logos) != 3 {
		t.Fatalf("logos = %d, want 3", len(result.Logos))
	}
	for i, logo := range result.Logos {
		if !strings.HasPrefix(logo.URL, "data:image/jpeg;base64,") {
			t.Errorf("logo %d URL %q is not a data URI", i, logo.URL)
		}
		if logo.Provider != "pollinations" {
			t.Errorf("logo %d provider = %q", i, logo.Provider)
		}
		if !strings.HasSuffix(logo.Model, " (FREE)") {
			t.Errorf("logo %d model %q missing (FREE) suffix", i, logo.Model)
		}
		if strings.Contains(logo.Model, "Auto-Fallback") {
			t.Errorf("logo %d model %q claims fallback, none happened", i, logo.Model)
		}
	}
	if !strings.Contains(result.Message, "Generated 3 free AI logos") {
		t.Errorf("message = %q", result.Message)
	}
	if got := atomic.LoadInt64(&f.slow.calls); got != 0 {
		t.Errorf("slow provider called %d times, want 0", got)
	}
}

func TestGenerateFallsBackOncePerUnit(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.fast.err = &provider.ProviderError{Provider: "x", Kind: provider.KindRateLimited, Message: "busy"}
	ident := quota.ResolveIdentity("", "203.0.113.1")

	result, err := f.svc.Generate(context.Background(), Request{
		CompanyName: "Acme",
		Count:       2,
		Model:       "pollinations",
	}, ident)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.Logos) != 2 {
		t.Fatalf("logos = %d, want 2", len(result.Logos))
	}
	for i, logo := range result.Logos {
		if !strings.Contains(logo.Model, "(Auto-Fallback)") {
			t.Errorf("logo %d model %q missing fallback marker", i, logo.Model)
		}
	}
	if got := atomic.LoadInt64(&f.fast.calls); got != 2 {
		t.Errorf("fast calls = %d, want 2", got)
	}
	if got := atomic.LoadInt64(&f.slow.calls); got != 2 {
		t.Errorf("slow calls = %d, want 2", got)
	}
}

func TestGenerateSlowPathNeverFallsBack(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.slow.err = &provider.ProviderError{Provider: "x", Kind: provider.KindTimeout, Message: "timed out"}
	ident := quota.ResolveIdentity("", "203.0.113.1")

	_, err := f.svc.Generate(context.Background(), Request{
		CompanyName: "Acme",
		Count:       1,
		Model:       "stable-horde",
	}, ident)

	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("err = %v, want *BatchError", err)
	}
	// Exactly one attempt: the slow path is terminal.
	if got := atomic.LoadInt64(&f.slow.calls); got != 1 {
		t.Errorf("slow calls = %d, want 1", got)
	}
	if got := atomic.LoadInt64(&f.fast.calls); got != 0 {
		t.Errorf("fast calls = %d, want 0", got)
	}
}

func TestGenerateTotalFailure(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.fast.err = errors.New("fast down")
	f.slow.err = errors.New("slow down")
	ident := quota.ResolveIdentity("", "203.0.113.1")

	_, err := f.svc.Generate(context.Background(), Request{
		CompanyName: "Acme",
		Count:       3,
		Model:       "pollinations",
	}, ident)

	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("err = %v, want *BatchError", err)
	}
	if len(batchErr.Details) != 3 {
		t.Fatalf("details = %d, want 3", len(batchErr.Details))
	}
	for i, detail := range batchErr.Details {
		want := fmt.Sprintf("Error generating logo %d:", i+1)
		if !strings.HasPrefix(detail, want) {
			t.Errorf("detail %d = %q, want %q prefix", i, detail, want)
		}
	}
}

func TestGeneratePartialFailureStillSucceeds(t *testing.T) {
	f := newServiceFixture(t, nil)
	// Fast fails on every second call; fallback fails too, so alternating
	// units fail outright.
	var n int64
	flaky := &flakyGenerator{payload: []byte("img"), failEvery: 2, calls: &n}
	reg := provider.NewRegistry()
	reg.Register("pollinations", flaky)
	f.svc.providers = reg

	ident := quota.ResolveIdentity("", "203.0.113.1")
	// Anonymous allows 3; batch of 3 with some failures must still return
	// the successes.
	result, err := f.svc.Generate(context.Background(), Request{
		CompanyName: "Acme",
		Count:       3,
		Model:       "pollinations",
	}, ident)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.Logos) == 0 {
		t.Fatal("no logos despite partial success")
	}
	if len(result.Logos)+len(result.Errors) != 3 {
		t.Fatalf("logos+errors = %d+%d, want 3 total", len(result.Logos), len(result.Errors))
	}
}

type flakyGenerator struct {
	payload   []byte
	failEvery int64
	calls     *int64
}

func (g *flakyGenerator) Generate(context.Context, string, int) ([]byte, error) {
	n := atomic.AddInt64(g.calls, 1)
	if n%g.failEvery == 0 {
		return nil, errors.New("flaky failure")
	}
	return g.payload, nil
}

func TestGenerateAnonymousQuotaDenied(t *testing.T) {
	f := newServiceFixture(t, nil)
	ident := quota.ResolveIdentity("", "203.0.113.1")
	for i := 0; i < 3; i++ {
		_ = f.quotas.Increment(ident.Key)
	}

	_, err := f.svc.Generate(context.Background(), Request{CompanyName: "Acme", Count: 1, Model: "pollinations"}, ident)

	var quotaErr *QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("err = %v, want *QuotaError", err)
	}
	if !quotaErr.NeedSignup {
		t.Error("anonymous denial should prompt signup")
	}
	if !strings.Contains(quotaErr.Message, "Sign up") {
		t.Errorf("message = %q", quotaErr.Message)
	}
	if got := atomic.LoadInt64(&f.fast.calls); got != 0 {
		t.Errorf("provider called %d times after denial, want 0", got)
	}
}

func TestGenerateAuthedQuotaDenied(t *testing.T) {
	users := map[string]*domain.User{
		"a@b.com": {Email: "a@b.com", Plan: domain.UserPlanFree, DailyLimit: 10},
	}
	f := newServiceFixture(t, users)
	ident := quota.ResolveIdentity("a@b.com", "203.0.113.1")
	for i := 0; i < 10; i++ {
		_ = f.quotas.Increment(ident.Key)
	}

	_, err := f.svc.Generate(context.Background(), Request{CompanyName: "Acme", Count: 1, Model: "pollinations"}, ident)

	var quotaErr *QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("err = %v, want *QuotaError", err)
	}
	if quotaErr.NeedSignup {
		t.Error("authenticated denial should not prompt signup")
	}
	if !strings.Contains(quotaErr.Message, "Upgrade") {
		t.Errorf("message = %q", quotaErr.Message)
	}
}

func TestGenerateUnlimitedPlanSkipsQuota(t *testing.T) {
	users := map[string]*domain.User{
		"pro@b.com": {Email: "pro@b.com", Plan: domain.UserPlanPro, DailyLimit: domain.UnlimitedQuota},
	}
	f := newServiceFixture(t, users)
	ident := quota.ResolveIdentity("pro@b.com", "203.0.113.1")
	for i := 0; i < 500; i++ {
		_ = f.quotas.Increment(ident.Key)
	}

	result, err := f.svc.Generate(context.Background(), Request{CompanyName: "Acme", Count: 2, Model: "pollinations"}, ident)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.Logos) != 2 {
		t.Fatalf("logos = %d, want 2", len(result.Logos))
	}
}

func TestGenerateChargesQuotaBeforeAttempt(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.fast.err = errors.New("fast down")
	f.slow.err = errors.New("slow down")
	ident := quota.ResolveIdentity("", "203.0.113.1")

	_, _ = f.svc.Generate(context.Background(), Request{CompanyName: "Acme", Count: 2, Model: "pollinations"}, ident)

	used, err := f.quotas.Usage(ident.Key)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if used != 2 {
		t.Fatalf("usage after failed batch = %d, want 2", used)
	}
}

func TestGenerateUnknownModelRoutesToSlow(t *testing.T) {
	f := newServiceFixture(t, nil)
	ident := quota.ResolveIdentity("", "203.0.113.1")

	result, err := f.svc.Generate(context.Background(), Request{CompanyName: "Acme", Count: 1, Model: "dall-e"}, ident)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := atomic.LoadInt64(&f.slow.calls); got != 1 {
		t.Errorf("slow calls = %d, want 1", got)
	}
	if result.Logos[0].Provider != "stable-horde" {
		t.Errorf("provider = %q, want stable-horde", result.Logos[0].Provider)
	}
}

func TestTierFor(t *testing.T) {
	users := map[string]*domain.User{
		"basic@b.com": {Email: "basic@b.com", Plan: domain.UserPlanBasic, DailyLimit: 50},
	}
	f := newServiceFixture(t, users)

	tier, limit := f.svc.TierFor(context.Background(), quota.ResolveIdentity("", "203.0.113.1"))
	if tier != quota.TierAnonymous || limit != 3 {
		t.Errorf("anonymous = (%s, %d), want (anonymous, 3)", tier, limit)
	}

	tier, limit = f.svc.TierFor(context.Background(), quota.ResolveIdentity("basic@b.com", ""))
	if tier != quota.TierBasic || limit != 50 {
		t.Errorf("basic = (%s, %d), want (basic, 50)", tier, limit)
	}

	// A token for an account the store no longer knows falls back to free.
	tier, limit = f.svc.TierFor(context.Background(), quota.ResolveIdentity("gone@b.com", ""))
	if tier != quota.TierFree || limit != 10 {
		t.Errorf("missing account = (%s, %d), want (free, 10)", tier, limit)
	}
}
