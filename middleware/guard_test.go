package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/regulator/sigma"
	"github.com/MrEthical07/regulator/store"
	"github.com/MrEthical07/regulator/token"
)

type fixedVersion struct {
	v   int64
	err error
}

func (f fixedVersion) Version(context.Context, string) (int64, error) {
	return f.v, f.err
}

func newManager(t *testing.T) *token.Manager {
	t.Helper()
	m, err := token.NewManager(token.Config{
		TTL:           time.Minute,
		SigningMethod: token.MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func serve(t *testing.T, h func(http.Handler) http.Handler, authorization string) (*httptest.ResponseRecorder, sigma.Mask8, bool) {
	t.Helper()
	var (
		got sigma.Mask8
		ok  bool
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = SelectorFromContext[sigma.Mask8](r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/regulate", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h(next).ServeHTTP(rec, req)
	return rec, got, ok
}

func TestRequireSelectorInjectsSelector(t *testing.T) {
	m := newManager(t)
	tok, err := token.IssueSelector(m, "flags", sigma.Mask8(0b101), 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec, got, ok := serve(t, RequireSelector[sigma.Mask8](m, "flags"), "Bearer "+tok)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if !ok || got != 0b101 {
		t.Fatalf("selector = %08b ok=%v", got, ok)
	}
}

func TestGuardRejects(t *testing.T) {
	m := newManager(t)
	tok, err := token.IssueSelector(m, "flags", sigma.Mask8(1), 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name   string
		guard  func(http.Handler) http.Handler
		header string
		want   int
	}{
		{"missing header", RequireSelector[sigma.Mask8](m, "flags"), "", http.StatusUnauthorized},
		{"not bearer", RequireSelector[sigma.Mask8](m, "flags"), "Basic abc", http.StatusUnauthorized},
		{"empty bearer", RequireSelector[sigma.Mask8](m, "flags"), "Bearer ", http.StatusUnauthorized},
		{"garbage", RequireSelector[sigma.Mask8](m, "flags"), "Bearer x.y.z", http.StatusUnauthorized},
		{"other rule set", RequireSelector[sigma.Mask8](m, "other"), "Bearer " + tok, http.StatusUnauthorized},
		{"width mismatch", RequireSelector[sigma.Mask8](m, "flags"), "Bearer " + mustIssue(t, m, sigma.Mask16(1)), http.StatusUnauthorized},
		{"nil manager", RequireSelector[sigma.Mask8](nil, "flags"), "Bearer " + tok, http.StatusUnauthorized},
		{"stale version", RequireCurrent[sigma.Mask8](m, "flags", fixedVersion{v: 2}), "Bearer " + tok, http.StatusUnauthorized},
		{"store down", RequireCurrent[sigma.Mask8](m, "flags", fixedVersion{err: errors.New("down")}), "Bearer " + tok, http.StatusServiceUnavailable},
		{"rule set deleted", RequireCurrent[sigma.Mask8](m, "flags", fixedVersion{err: store.ErrNotFound}), "Bearer " + tok, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _, ok := serve(t, tc.guard, tc.header)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if ok {
				t.Fatal("handler should not run")
			}
		})
	}
}

func TestRequireCurrentAcceptsCurrentVersion(t *testing.T) {
	m := newManager(t)
	tok, err := token.IssueSelector(m, "flags", sigma.Mask8(2), 3)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec, got, ok := serve(t, RequireCurrent[sigma.Mask8](m, "flags", fixedVersion{v: 3}), "Bearer "+tok)
	if rec.Code != http.StatusNoContent || !ok || got != 2 {
		t.Fatalf("status=%d selector=%d ok=%v", rec.Code, got, ok)
	}
}

func mustIssue(t *testing.T, m *token.Manager, s sigma.Mask16) string {
	t.Helper()
	tok, err := token.IssueSelector(m, "flags", s, 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}
