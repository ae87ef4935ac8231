package registry

import (
	"sync"
	"time"

	"sundial-hq/meridian/pkg/upstream"
)

// Provider is one upstream target within an endpoint: an immutable
// identity (name, client, configuration) plus the mutable liveness state
// shared between the dispatcher and the recovery prober.
type Provider struct {
	name   string
	client *upstream.Client

	// mu guards the three mutable fields below.
	mu           sync.RWMutex
	dead         bool
	lastUsedAt   time.Time
	lastFailedAt time.Time
}

// newProvider creates a live provider backed by a fresh upstream client.
func newProvider(cfg upstream.Config) *Provider {
	return &Provider{
		name:   cfg.Name,
		client: upstream.NewClient(cfg),
	}
}

// Name returns the provider's configured name. Names are unique within
// an endpoint and used for logging and status only.
func (p *Provider) Name() string {
	return p.name
}

// Client returns the upstream client for this provider.
func (p *Provider) Client() *upstream.Client {
	return p.client
}

// ModelOverride returns the forced model for this provider, empty if
// none is configured.
func (p *Provider) ModelOverride() string {
	return p.client.Config().Model
}

// IsDead reports whether the provider is currently marked dead.
func (p *Provider) IsDead() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dead
}

// MarkUsed stamps the last-used time. The dispatcher calls this before
// every attempt, regardless of outcome.
func (p *Provider) MarkUsed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastUsedAt = time.Now()
}

// MarkDead flags the provider dead and stamps the last-failed time.
func (p *Provider) MarkDead() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dead = true
	p.lastFailedAt = time.Now()
}

// Revive flags the provider live again and clears the last-failed time.
// Called by the recovery prober after a successful probe.
func (p *Provider) Revive() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dead = false
	p.lastFailedAt = time.Time{}
}

// Status is a point-in-time snapshot of one provider's state, as exposed
// on the status surface. Nil timestamps mean "never".
type Status struct {
	Name         string     `json:"name"`
	Dead         bool       `json:"dead"`
	LastUsedAt   *time.Time `json:"last_used_at"`
	LastFailedAt *time.Time `json:"last_failed_at"`
}

// Snapshot returns the provider's current state.
func (p *Provider) Snapshot() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Status{
		Name: p.name,
		Dead: p.dead,
	}
	if !p.lastUsedAt.IsZero() {
		t := p.lastUsedAt
		s.LastUsedAt = &t
	}
	if !p.lastFailedAt.IsZero() {
		t := p.lastFailedAt
		s.LastFailedAt = &t
	}
	return s
}

// Close releases the provider's upstream client resources.
func (p *Provider) Close() error {
	return p.client.Close()
}
