package logging

import "context"

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// EndpointKey is the context key for virtual endpoint routes.
	EndpointKey contextKey = "endpoint"

	// ProviderKey is the context key for provider names.
	ProviderKey contextKey = "provider"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithEndpoint adds a virtual endpoint route to the context.
func WithEndpoint(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, EndpointKey, route)
}

// GetEndpoint retrieves the virtual endpoint route from the context.
func GetEndpoint(ctx context.Context) string {
	if route, ok := ctx.Value(EndpointKey).(string); ok {
		return route
	}
	return ""
}

// WithProvider adds a provider name to the context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ProviderKey, provider)
}

// GetProvider retrieves the provider name from the context.
func GetProvider(ctx context.Context) string {
	if provider, ok := ctx.Value(ProviderKey).(string); ok {
		return provider
	}
	return ""
}

// ContextAttrs extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func ContextAttrs(ctx context.Context) []any {
	var fields []any

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if route := GetEndpoint(ctx); route != "" {
		fields = append(fields, "endpoint", route)
	}
	if provider := GetProvider(ctx); provider != "" {
		fields = append(fields, "provider", provider)
	}

	return fields
}
