package generation

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"logoserver/internal/bus"
	"logoserver/internal/dispatch"
	"logoserver/internal/domain"
	"logoserver/internal/infra"
	"logoserver/internal/prompt"
	provider "logoserver/internal/providers/image"
	"logoserver/internal/quota"
	"logoserver/internal/sqlinline"
)

// Request is one batch generation request. It exists only for the duration of
// a single HTTP call.
type Request struct {
	CompanyName string
	Industry    string
	Style       string
	ColorScheme string
	Count       int
	Model       string
	Background  string
}

// Logo is one successfully generated unit. URL is a self-contained base64
// data URI so no follow-up fetch is required.
type Logo struct {
	URL         string    `json:"url"`
	Prompt      string    `json:"prompt"`
	Style       string    `json:"style"`
	ColorScheme string    `json:"color_scheme"`
	CompanyName string    `json:"company_name"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	Timestamp   time.Time `json:"timestamp"`
}

// Result aggregates a batch: ordered successes plus per-unit failure messages.
type Result struct {
	Logos   []Logo
	Errors  []string
	Message string
}

// QuotaError signals a denied batch before any generation was attempted.
type QuotaError struct {
	NeedSignup bool
	Message    string
}

func (e *QuotaError) Error() string { return e.Message }

// BatchError signals that every unit of a batch failed.
type BatchError struct {
	Message string
	Details []string
}

func (e *BatchError) Error() string { return e.Message }

// AccountStore is the slice of the account collaborator the orchestrator
// needs: a lookup of plan tier and daily limit.
type AccountStore interface {
	Get(ctx context.Context, email string) (*domain.User, error)
}

// Options collects the collaborators injected into the Service.
type Options struct {
	Dispatcher   *dispatch.Dispatcher
	Providers    *provider.Registry
	Quotas       quota.Store
	Accounts     AccountStore
	Events       bus.Publisher
	SQL          infra.SQLExecutor // optional usage-event sink
	Logger       zerolog.Logger
	AwaitTimeout time.Duration
}

// Service is the per-request control flow: quota admission, prompt
// composition, dispatch, provider fallback and aggregation.
type Service struct {
	dispatcher   *dispatch.Dispatcher
	providers    *provider.Registry
	quotas       quota.Store
	accounts     AccountStore
	events       bus.Publisher
	sql          infra.SQLExecutor
	logger       zerolog.Logger
	awaitTimeout time.Duration
}

// NewService wires the orchestrator.
func NewService(opts Options) *Service {
	events := opts.Events
	if events == nil {
		events = bus.Noop{}
	}
	timeout := opts.AwaitTimeout
	if timeout <= 0 {
		timeout = dispatch.DefaultAwaitTimeout
	}
	return &Service{
		dispatcher:   opts.Dispatcher,
		providers:    opts.Providers,
		quotas:       opts.Quotas,
		accounts:     opts.Accounts,
		events:       events,
		sql:          opts.SQL,
		logger:       opts.Logger,
		awaitTimeout: timeout,
	}
}

// TierFor resolves the caller's quota tier and daily limit. Anonymous callers
// get the trial tier; user identities without a stored account fall back to
// the free tier.
func (s *Service) TierFor(ctx context.Context, ident quota.Identity) (quota.Tier, int) {
	if ident.Anonymous() {
		return quota.TierAnonymous, quota.TierAnonymous.DailyLimit()
	}
	user, err := s.accounts.Get(ctx, ident.Email)
	if err != nil {
		return quota.TierFree, quota.TierFree.DailyLimit()
	}
	return quota.Tier(user.Plan), user.DailyLimit
}

// Generate runs one batch. It returns a *QuotaError when the caller is over
// their daily limit, a *BatchError when every unit failed, and a Result with
// ordered successes (plus any per-unit failure messages) otherwise.
func (s *Service) Generate(ctx context.Context, req Request, ident quota.Identity) (*Result, error) {
	tier, limit := s.TierFor(ctx, ident)
	if limit != domain.UnlimitedQuota {
		allowed, _, err := s.quotas.Check(ident.Key, tier)
		if err != nil {
			return nil, fmt.Errorf("quota check: %w", err)
		}
		if !allowed {
			return nil, s.quotaDenied(ident)
		}
	}

	if _, ok := s.providers.Get(req.Model); !ok {
		// Unknown model ids route to the reliable slow path.
		slowID, _, slowOK := s.providers.Slow()
		if !slowOK {
			return nil, fmt.Errorf("no provider available for model %q", req.Model)
		}
		req.Model = slowID
	}

	start := time.Now()
	units := s.submitAll(ctx, req, ident)
	result := s.collect(req, units)
	s.publish(ident, req, result, time.Since(start))

	if len(result.Logos) == 0 {
		return nil, &BatchError{Message: s.totalFailureMessage(req.Model), Details: result.Errors}
	}
	result.Message = fmt.Sprintf("Generated %d free AI logos using %s", len(result.Logos), s.displayName(req.Model))
	return result, nil
}

// unit tracks one submitted batch member until its result is collected.
type unit struct {
	jobID        string
	prompt       prompt.Prompt
	submitErr    error
	usedFallback *bool
}

func (s *Service) submitAll(ctx context.Context, req Request, ident quota.Identity) []unit {
	entry, _ := s.providers.Get(req.Model)

	// Provider calls must outlive the request context: a timed-out await
	// abandons the job rather than cancelling the in-flight call.
	jobCtx := context.WithoutCancel(ctx)

	units := make([]unit, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		// Charge quota before the attempt so concurrent requests cannot
		// jointly exceed the limit. A failed generation still consumes
		// quota; deliberate anti-abuse policy.
		if err := s.quotas.Increment(ident.Key); err != nil {
			s.logger.Error().Err(err).Str("identity", ident.Key).Msg("quota increment failed")
		}

		p := prompt.Compose(prompt.Input{
			Company:     req.CompanyName,
			Style:       req.Style,
			Industry:    req.Industry,
			ColorScheme: req.ColorScheme,
			Variation:   i,
			Background:  req.Background,
		})

		fellBack := new(bool)
		work := s.buildWork(jobCtx, entry, p, fellBack)
		jobID, err := s.dispatcher.Submit(work)
		units = append(units, unit{jobID: jobID, prompt: p, submitErr: err, usedFallback: fellBack})
	}
	return units
}

// buildWork binds one provider call, with at most one fast-to-slow fallback.
func (s *Service) buildWork(ctx context.Context, entry provider.Entry, p prompt.Prompt, fellBack *bool) dispatch.Work {
	return func() ([]byte, error) {
		data, err := entry.Generator.Generate(ctx, p.Text, p.Seed)
		if err == nil {
			return data, nil
		}
		if !entry.Fast {
			return nil, err
		}
		slowID, slowGen, ok := s.providers.Slow()
		if !ok {
			return nil, err
		}
		s.logger.Warn().Err(err).Str("fallback", slowID).Msg("fast provider failed, falling back")
		data, fbErr := slowGen.Generate(ctx, p.Text, p.Seed)
		if fbErr != nil {
			return nil, fbErr
		}
		*fellBack = true
		return data, nil
	}
}

func (s *Service) collect(req Request, units []unit) *Result {
	result := &Result{}
	for i, u := range units {
		if u.submitErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Error generating logo %d: %v", i+1, u.submitErr))
			continue
		}
		payload, err := s.dispatcher.Await(u.jobID, s.awaitTimeout)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Error generating logo %d: %v", i+1, err))
			continue
		}
		modelName := s.displayName(req.Model)
		if *u.usedFallback {
			modelName = s.fallbackName() + " (Auto-Fallback)"
		}
		result.Logos = append(result.Logos, Logo{
			URL:         dataURI(payload),
			Prompt:      u.prompt.Text,
			Style:       req.Style,
			ColorScheme: req.ColorScheme,
			CompanyName: req.CompanyName,
			Provider:    req.Model,
			Model:       modelName + " (FREE)",
			Timestamp:   time.Now(),
		})
	}
	return result
}

func (s *Service) quotaDenied(ident quota.Identity) *QuotaError {
	if ident.Anonymous() {
		return &QuotaError{
			NeedSignup: true,
			Message:    "You have used your 3 free trial images! Sign up for FREE to get 10 images daily!",
		}
	}
	return &QuotaError{
		Message: "You have reached your daily limit. Upgrade to generate more!",
	}
}

func (s *Service) totalFailureMessage(model string) string {
	entry, ok := s.providers.Get(model)
	switch {
	case ok && entry.Fast:
		return fmt.Sprintf("%s is currently experiencing high demand. Please switch to %s for instant results!",
			s.displayName(model), s.fallbackName())
	case ok:
		return "Generation failed. Please try again or adjust your prompt."
	default:
		return "Failed to generate images. Please try again with a different model."
	}
}

func (s *Service) displayName(model string) string {
	if info, ok := domain.ModelByID(model); ok {
		return info.Name
	}
	return model
}

func (s *Service) fallbackName() string {
	slowID, _, ok := s.providers.Slow()
	if !ok {
		return "another model"
	}
	return s.displayName(slowID)
}

func (s *Service) publish(ident quota.Identity, req Request, result *Result, elapsed time.Duration) {
	ev := bus.GenerationEvent{
		IdentityKey: ident.Key,
		Provider:    req.Model,
		Country:     ident.Country,
		Requested:   req.Count,
		Succeeded:   len(result.Logos),
		Failed:      len(result.Errors),
		ElapsedMS:   elapsed.Milliseconds(),
		CompletedAt: time.Now(),
	}
	if err := s.events.GenerationCompleted(ev); err != nil {
		s.logger.Warn().Err(err).Msg("usage event publish failed")
	}
	if s.sql != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.sql.Exec(ctx, sqlinline.QInsertUsageEvent,
			ev.IdentityKey, ev.Provider, ev.Country, ev.Requested, ev.Succeeded, ev.Failed, ev.ElapsedMS); err != nil {
			s.logger.Warn().Err(err).Msg("usage event insert failed")
		}
	}
}

func dataURI(payload []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload)
}
