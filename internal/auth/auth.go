// Package auth implements bearer-token authentication for the API.
//
// Tokens are static and injected at construction from configuration.
// There is no token issuance endpoint and no shared mutable token
// registry; rotating tokens means restarting with a new config.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// TokenAuthenticator validates requests against a fixed set of API tokens.
type TokenAuthenticator struct {
	tokens map[string]struct{}
}

// NewTokenAuthenticator builds an authenticator from the accepted tokens.
// Empty tokens are ignored.
func NewTokenAuthenticator(tokens []string) *TokenAuthenticator {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return &TokenAuthenticator{tokens: set}
}

// Enabled reports whether any tokens are configured. With no tokens the
// middleware passes every request through, which is the local-dev mode.
func (ta *TokenAuthenticator) Enabled() bool {
	return len(ta.tokens) > 0
}

// Authenticate checks the Authorization header for a valid bearer token.
func (ta *TokenAuthenticator) Authenticate(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	presented := strings.TrimSpace(header[len(prefix):])
	for t := range ta.tokens {
		if subtle.ConstantTimeCompare([]byte(t), []byte(presented)) == 1 {
			return true
		}
	}
	return false
}

// Middleware rejects unauthenticated requests with 401. When no tokens
// are configured the middleware is a no-op.
func (ta *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ta.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		if !ta.Authenticate(r) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
