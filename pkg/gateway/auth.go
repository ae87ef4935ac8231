package gateway

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// bearerToken extracts the credential from an Authorization: Bearer
// header. It returns "" when the header is absent or malformed.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

// keysEqual compares credentials in constant time.
func keysEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// AuthMiddleware gates a handler behind a bearer credential. Requests
// carrying the endpoint key or the master key pass; everything else
// gets a 401 envelope. An endpoint with no key of its own still
// requires the master key; only when neither credential is configured
// is the endpoint open.
func AuthMiddleware(endpointKey, masterKey string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if endpointKey == "" && masterKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				WriteError(w, NewAuthenticationError("missing API key"))
				return
			}
			if endpointKey != "" && keysEqual(token, endpointKey) {
				next.ServeHTTP(w, r)
				return
			}
			if masterKey != "" && keysEqual(token, masterKey) {
				next.ServeHTTP(w, r)
				return
			}

			WriteError(w, NewAuthenticationError("invalid API key"))
		})
	}
}

// MasterKeyMiddleware gates the status surface behind the master key.
// When no master key is configured the surface is open.
func MasterKeyMiddleware(masterKey string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if masterKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			if keysEqual(bearerToken(r), masterKey) {
				next.ServeHTTP(w, r)
				return
			}

			WriteError(w, NewAuthenticationError("invalid API key"))
		})
	}
}
