package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func protected(ta *TokenAuthenticator) http.Handler {
	return ta.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	ta := NewTokenAuthenticator([]string{"secret-one", "secret-two"})

	req := httptest.NewRequest("GET", "/experiments", nil)
	req.Header.Set("Authorization", "Bearer secret-two")
	rec := httptest.NewRecorder()
	protected(ta).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMiddlewareRejectsBadToken(t *testing.T) {
	ta := NewTokenAuthenticator([]string{"secret-one"})

	cases := []struct {
		name   string
		header string
	}{
		{"wrong token", "Bearer nope"},
		{"missing header", ""},
		{"not bearer", "Basic c2VjcmV0LW9uZQ=="},
		{"empty bearer", "Bearer "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/experiments", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			protected(ta).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("WWW-Authenticate = %q, want Bearer", got)
			}
		})
	}
}

func TestMiddlewareDisabledWithoutTokens(t *testing.T) {
	ta := NewTokenAuthenticator(nil)
	if ta.Enabled() {
		t.Fatal("expected auth disabled with no tokens")
	}

	req := httptest.NewRequest("GET", "/experiments", nil)
	rec := httptest.NewRecorder()
	protected(ta).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 without configured tokens", rec.Code)
	}
}
