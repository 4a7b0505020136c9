package quota

import (
	"sync"
	"time"
)

// Tier names a daily quota class. Anonymous callers get a trial allowance;
// signed-up accounts map their billing plan onto one of the paid tiers.
type Tier string

const (
	TierAnonymous  Tier = "anonymous"
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierInfluencer Tier = "influencer"
)

// Unlimited marks a tier with no daily cap.
const Unlimited = -1

// DailyLimit returns how many generations per day the tier allows.
func (t Tier) DailyLimit() int {
	switch t {
	case TierAnonymous:
		return 3
	case TierBasic:
		return 50
	case TierPro, TierInfluencer:
		return Unlimited
	default:
		return 10
	}
}

// Identity names a caller for quota purposes. Authenticated and anonymous
// traffic from the same address are tracked under separate keys.
type Identity struct {
	Key     string
	Email   string
	IP      string
	Country string
}

// Anonymous reports whether the identity is IP-based.
func (id Identity) Anonymous() bool {
	return id.Email == ""
}

// ResolveIdentity builds the identity key for a caller. An authenticated
// account keys on its email, everyone else on the source address.
func ResolveIdentity(email, ip string) Identity {
	if email != "" {
		return Identity{Key: "user:" + email, Email: email, IP: ip}
	}
	return Identity{Key: "ip:" + ip, IP: ip}
}

// Store tracks per-identity consumption per calendar day.
type Store interface {
	// Check reports whether the identity may generate and how many
	// generations remain today. Unlimited tiers always return (true, -1).
	Check(key string, tier Tier) (bool, int, error)
	// Increment charges one generation to the identity's counter for today,
	// creating or resetting the record as needed.
	Increment(key string) error
	// Usage returns today's consumed count for the identity.
	Usage(key string) (int, error)
}

type record struct {
	count int
	day   string
	tier  Tier
}

// MemoryStore is an in-process Store guarded by a single mutex. Records are
// created lazily and reset whenever they are first touched on a new day.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*record
	now     func() time.Time
}

// NewMemoryStore constructs an empty in-memory quota store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*record),
		now:     time.Now,
	}
}

func (s *MemoryStore) today() string {
	return s.now().Format("2006-01-02")
}

// Check implements Store.
func (s *MemoryStore) Check(key string, tier Tier) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	rec, ok := s.records[key]
	if !ok || rec.day != today {
		rec = &record{day: today}
		s.records[key] = rec
	}
	rec.tier = tier

	limit := tier.DailyLimit()
	if limit == Unlimited {
		return true, Unlimited, nil
	}
	return rec.count < limit, limit - rec.count, nil
}

// Increment implements Store.
func (s *MemoryStore) Increment(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	rec, ok := s.records[key]
	if !ok || rec.day != today {
		s.records[key] = &record{count: 1, day: today, tier: TierFree}
		return nil
	}
	rec.count++
	return nil
}

// Usage implements Store.
func (s *MemoryStore) Usage(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || rec.day != s.today() {
		return 0, nil
	}
	return rec.count, nil
}

var _ Store = (*MemoryStore)(nil)
