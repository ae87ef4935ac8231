package registry

import "sundial-hq/meridian/pkg/upstream"

// Mode selects how an endpoint orders its providers for a request.
type Mode string

const (
	// ModeOrdered attempts providers in configured order: the first live
	// provider is always tried first, the rest are failover.
	ModeOrdered Mode = "ordered"

	// ModeRandom attempts providers in a fresh uniform random
	// permutation per request.
	ModeRandom Mode = "random"
)

// Endpoint is one routable virtual API surface backed by an ordered list
// of providers. Identity and membership are immutable after startup.
type Endpoint struct {
	route     string
	mode      Mode
	apiKey    string
	providers []*Provider
}

// EndpointSpec describes one endpoint to build. Provider order is
// significant: it is the attempt order for ordered mode and the base
// order for random mode's shuffle.
type EndpointSpec struct {
	// Route is the unique path prefix, e.g. "/v1".
	Route string

	// Mode is the selection mode; empty defaults to ordered.
	Mode Mode

	// APIKey is an optional endpoint-level credential accepted as an
	// alternative to the master credential.
	APIKey string

	// Providers are the upstream targets, in configured order.
	Providers []upstream.Config
}

// newEndpoint builds an endpoint and its providers from a spec.
func newEndpoint(spec EndpointSpec) *Endpoint {
	mode := spec.Mode
	if mode == "" {
		mode = ModeOrdered
	}

	providers := make([]*Provider, 0, len(spec.Providers))
	for _, cfg := range spec.Providers {
		providers = append(providers, newProvider(cfg))
	}

	return &Endpoint{
		route:     spec.Route,
		mode:      mode,
		apiKey:    spec.APIKey,
		providers: providers,
	}
}

// Route returns the endpoint's path prefix.
func (e *Endpoint) Route() string {
	return e.route
}

// Mode returns the endpoint's selection mode.
func (e *Endpoint) Mode() Mode {
	return e.mode
}

// APIKey returns the endpoint-level credential, empty if none.
func (e *Endpoint) APIKey() string {
	return e.apiKey
}

// Providers returns the endpoint's providers in configured order.
// The returned slice is a copy; the Provider pointers are shared.
func (e *Endpoint) Providers() []*Provider {
	out := make([]*Provider, len(e.providers))
	copy(out, e.providers)
	return out
}

// EndpointStatus is a point-in-time snapshot of one endpoint for the
// status surface.
type EndpointStatus struct {
	Route     string   `json:"route"`
	Mode      Mode     `json:"mode"`
	Providers []Status `json:"providers"`
}

// Snapshot returns the endpoint's current provider states in configured
// order.
func (e *Endpoint) Snapshot() EndpointStatus {
	providers := make([]Status, 0, len(e.providers))
	for _, p := range e.providers {
		providers = append(providers, p.Snapshot())
	}
	return EndpointStatus{
		Route:     e.route,
		Mode:      e.mode,
		Providers: providers,
	}
}
