package registry

import (
	"fmt"
	"log/slog"
)

// Registry maps routes to endpoints. It is built once at startup and
// read-only thereafter, so lookups need no locking.
type Registry struct {
	byRoute   map[string]*Endpoint
	endpoints []*Endpoint
}

// New builds a registry from endpoint specs. Duplicate routes are
// rejected; per-endpoint validation (non-empty provider lists, unique
// provider names) is the config layer's responsibility.
func New(specs []EndpointSpec) (*Registry, error) {
	r := &Registry{
		byRoute: make(map[string]*Endpoint, len(specs)),
	}

	for _, spec := range specs {
		if _, exists := r.byRoute[spec.Route]; exists {
			return nil, fmt.Errorf("duplicate endpoint route %q", spec.Route)
		}

		ep := newEndpoint(spec)
		r.byRoute[spec.Route] = ep
		r.endpoints = append(r.endpoints, ep)

		slog.Info("endpoint registered",
			"route", ep.Route(),
			"mode", ep.Mode(),
			"providers", len(ep.providers),
		)
	}

	return r, nil
}

// Lookup returns the endpoint for a route, or nil if none is registered.
func (r *Registry) Lookup(route string) *Endpoint {
	return r.byRoute[route]
}

// Endpoints returns all endpoints in configuration order.
func (r *Registry) Endpoints() []*Endpoint {
	out := make([]*Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// Snapshot returns the status of every endpoint and provider at a point
// in time.
func (r *Registry) Snapshot() []EndpointStatus {
	out := make([]EndpointStatus, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		out = append(out, ep.Snapshot())
	}
	return out
}

// Close releases every provider's upstream resources.
func (r *Registry) Close() error {
	var firstErr error
	for _, ep := range r.endpoints {
		for _, p := range ep.providers {
			if err := p.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
