package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

// Middleware rejects requests without a valid bearer token and attaches the
// decoded Principal to the request. Handlers read it back with FromRequest
// at the top of the handler and pass it down explicitly.
func Middleware(issuer *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			p, err := issuer.Parse(raw)
			if err != nil {
				http.Error(w, `{"error":"invalid bearer token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), contextKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromRequest returns the Principal attached by Middleware.
// The boolean is false for requests that did not pass through it.
func FromRequest(r *http.Request) (Principal, bool) {
	p, ok := r.Context().Value(contextKey{}).(Principal)

	return p, ok
}
