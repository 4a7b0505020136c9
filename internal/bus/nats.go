package bus

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectGenerationCompleted carries one event per finished generation batch.
const SubjectGenerationCompleted = "logo.generation.completed"

// GenerationEvent describes the outcome of one batch for downstream
// consumers (analytics, abuse monitoring).
type GenerationEvent struct {
	IdentityKey string    `json:"identity_key"`
	Provider    string    `json:"provider"`
	Country     string    `json:"country,omitempty"`
	Requested   int       `json:"requested"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	ElapsedMS   int64     `json:"elapsed_ms"`
	CompletedAt time.Time `json:"completed_at"`
}

// Publisher is the contract the orchestrator publishes through.
type Publisher interface {
	GenerationCompleted(ev GenerationEvent) error
}

// Client publishes events over NATS.
type Client struct{ nc *nats.Conn }

// Connect dials the NATS server with unlimited reconnects.
func Connect(url string) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Client{nc: nc}, nil
}

// Close drains the connection.
func (c *Client) Close() {
	if c.nc != nil {
		_ = c.nc.Drain()
	}
}

// GenerationCompleted implements Publisher.
func (c *Client) GenerationCompleted(ev GenerationEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.nc.Publish(SubjectGenerationCompleted, b)
}

// Noop discards events; used when no NATS URL is configured.
type Noop struct{}

// GenerationCompleted implements Publisher.
func (Noop) GenerationCompleted(GenerationEvent) error { return nil }

var (
	_ Publisher = (*Client)(nil)
	_ Publisher = Noop{}
)
