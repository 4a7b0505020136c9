package image

import "net/http"

// Entry binds a provider id to its generator and routing attributes. Fast
// entries are eligible for the single fallback to the slow provider; the slow
// provider itself never falls back.
type Entry struct {
	Generator Generator
	Fast      bool
}

// Registry maps caller-facing model ids to generators.
type Registry struct {
	entries map[string]Entry
	slowID  string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds a fast-path provider.
func (r *Registry) Register(id string, gen Generator) {
	r.entries[id] = Entry{Generator: gen, Fast: true}
}

// RegisterSlow adds the slow submit-poll-fetch provider, which doubles as the
// fallback target for fast-path failures.
func (r *Registry) RegisterSlow(id string, gen Generator) {
	r.entries[id] = Entry{Generator: gen}
	r.slowID = id
}

// Get looks up a provider entry by id.
func (r *Registry) Get(id string) (Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Slow returns the fallback provider. The second return is false when no slow
// provider was registered.
func (r *Registry) Slow() (string, Generator, bool) {
	e, ok := r.entries[r.slowID]
	return r.slowID, e.Generator, ok
}

// NewDefaultRegistry wires the production provider set. With synthetic set,
// every id resolves to the placeholder generator so the full pipeline runs
// without outbound traffic.
func NewDefaultRegistry(client *http.Client, synthetic bool) *Registry {
	r := NewRegistry()
	if synthetic {
		gen := NewSynthetic()
		for _, id := range []string{"pollinations", "turbo", "miragic"} {
			r.Register(id, gen)
		}
		r.RegisterSlow("stable-horde", gen)
		return r
	}

	r.Register("pollinations", NewPollinations(PollinationsOptions{HTTPClient: client}))
	r.Register("turbo", NewPollinations(PollinationsOptions{
		HTTPClient:  client,
		DisplayName: "Numidia Turbo",
	}))
	r.Register("miragic", NewPollinations(PollinationsOptions{
		HTTPClient:    client,
		DisplayName:   "Numidia Detail",
		EnhanceSuffix: "highly detailed, professional, award-winning",
	}))
	r.RegisterSlow("stable-horde", NewStableHorde(StableHordeOptions{HTTPClient: client}))
	return r
}
