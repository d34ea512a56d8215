package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/regulator/sigma"
	"github.com/MrEthical07/regulator/store"
	"github.com/MrEthical07/regulator/token"
)

// VersionSource reports the current version of a rule set. A missing rule set
// is reported as store.ErrNotFound.
type VersionSource interface {
	Version(ctx context.Context, name string) (int64, error)
}

type selectorContextKey struct{}

// SelectorFromContext returns the selector stored by a guard.
func SelectorFromContext[S sigma.Sigma[S]](ctx context.Context) (S, bool) {
	s, ok := ctx.Value(selectorContextKey{}).(S)
	return s, ok
}

// WithSelector returns ctx carrying s.
func WithSelector[S sigma.Sigma[S]](ctx context.Context, s S) context.Context {
	return context.WithValue(ctx, selectorContextKey{}, s)
}

// RequireSelector verifies the bearer token without consulting any store.
func RequireSelector[S sigma.Sigma[S]](m *token.Manager, ruleSet string) func(http.Handler) http.Handler {
	return Guard[S](m, ruleSet, nil)
}

// RequireCurrent verifies the bearer token and requires it to match the current version.
func RequireCurrent[S sigma.Sigma[S]](m *token.Manager, ruleSet string, versions VersionSource) func(http.Handler) http.Handler {
	return Guard[S](m, ruleSet, versions)
}

// Guard answers 401 for missing or invalid tokens and for rule sets that no
// longer exist, and 503 when versions cannot be read.
func Guard[S sigma.Sigma[S]](m *token.Manager, ruleSet string, versions VersionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			tok, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			var version int64
			if versions != nil {
				v, err := versions.Version(r.Context(), ruleSet)
				if errors.Is(err, store.ErrNotFound) {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				if err != nil {
					http.Error(w, "unavailable", http.StatusServiceUnavailable)
					return
				}
				version = v
			}

			selector, err := token.Verify[S](m, tok, ruleSet, version)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSelector(r.Context(), selector)))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	tok := value[len(bearer):]
	if tok == "" {
		return "", false
	}

	return tok, true
}
