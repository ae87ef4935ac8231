package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func get(h http.Handler, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		endpointKey string
		masterKey   string
		bearer      string
		wantCode    int
	}{
		{"open when no keys configured", "", "", "", http.StatusOK},
		{"keyless endpoint still requires master key", "", "master", "", http.StatusUnauthorized},
		{"keyless endpoint accepts master key", "", "master", "master", http.StatusOK},
		{"missing key", "secret", "", "", http.StatusUnauthorized},
		{"wrong key", "secret", "", "nope", http.StatusUnauthorized},
		{"endpoint key accepted", "secret", "", "secret", http.StatusOK},
		{"master key accepted", "secret", "master", "master", http.StatusOK},
		{"master key not configured", "secret", "", "master", http.StatusUnauthorized},
		{"empty bearer rejected", "secret", "master", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AuthMiddleware(tt.endpointKey, tt.masterKey)(okHandler())
			rec := get(h, tt.bearer)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	h := AuthMiddleware("secret", "")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic c2VjcmV0")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMasterKeyMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		masterKey string
		bearer    string
		wantCode  int
	}{
		{"no master key configured", "", "", http.StatusOK},
		{"correct key", "master", "master", http.StatusOK},
		{"wrong key", "master", "nope", http.StatusUnauthorized},
		{"missing key", "master", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := MasterKeyMiddleware(tt.masterKey)(okHandler())
			rec := get(h, tt.bearer)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}
