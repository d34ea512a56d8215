package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/regulator/sigma"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func newEdManager(t *testing.T) (*Manager, ed25519.PrivateKey) {
	t.Helper()
	pub, priv := newEdKeys(t)
	m, err := NewManager(Config{
		TTL:           time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "regulator",
		Audience:      "api",
		Leeway:        30 * time.Second,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, priv
}

func TestSelectorRoundTrip(t *testing.T) {
	m, _ := newEdManager(t)

	tok, err := IssueSelector(m, "flags", sigma.Mask16(0x0105), 3)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.RuleSet != "flags" || claims.Version != 3 {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	got, err := Selector[sigma.Mask16](claims)
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	if got != sigma.Mask16(0x0105) {
		t.Fatalf("selector = %#x, want 0x0105", uint16(got))
	}
}

func TestSelectorWidthMismatch(t *testing.T) {
	m, _ := newEdManager(t)
	tok, err := IssueSelector(m, "flags", sigma.Mask8(1), 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Selector[sigma.Mask64](claims); !errors.Is(err, sigma.ErrMaskWidthMismatch) {
		t.Fatalf("expected width mismatch, got %v", err)
	}
}

func TestVerifyRuleSetAndVersion(t *testing.T) {
	m, _ := newEdManager(t)
	wide := sigma.Mask128{0b11, 1}

	tok, err := IssueSelector(m, "flags", wide, 2)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := Verify[sigma.Mask128](m, tok, "flags", 2)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != wide {
		t.Fatalf("selector = %v, want %v", got, wide)
	}

	if _, err := Verify[sigma.Mask128](m, tok, "flags", 0); err != nil {
		t.Fatalf("verify without version: %v", err)
	}
	if _, err := Verify[sigma.Mask128](m, tok, "other", 2); !errors.Is(err, ErrRuleSetMismatch) {
		t.Fatalf("expected rule set mismatch, got %v", err)
	}
	if _, err := Verify[sigma.Mask128](m, tok, "flags", 3); !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected stale version, got %v", err)
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	m, _ := newEdManager(t)

	claims := SelectorClaims{RuleSet: "flags", RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "regulator",
		Audience:  gjwt.ClaimStrings{"api"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tok, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(tok); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestParseIssuerAudienceAndLeeway(t *testing.T) {
	m, priv := newEdManager(t)

	sign := func(issuer, audience string, exp time.Duration) string {
		t.Helper()
		claims := SelectorClaims{RuleSet: "flags", RegisteredClaims: gjwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  gjwt.ClaimStrings{audience},
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(exp)),
			IssuedAt:  gjwt.NewNumericDate(time.Now().Add(-3 * time.Minute)),
		}}
		s, err := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims).SignedString(priv)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	if _, err := m.Parse(sign("other", "api", time.Minute)); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}
	if _, err := m.Parse(sign("regulator", "other-api", time.Minute)); err == nil {
		t.Fatal("expected wrong audience to fail")
	}
	if _, err := m.Parse(sign("regulator", "api", -15*time.Second)); err != nil {
		t.Fatalf("expected token within leeway to pass: %v", err)
	}
	if _, err := m.Parse(sign("regulator", "api", -2*time.Minute)); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseKeyRotation(t *testing.T) {
	pub1, priv1 := newEdKeys(t)
	pub2, priv2 := newEdKeys(t)

	issuer, err := NewManager(Config{
		TTL:           time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv2,
		PublicKey:     pub2,
		KeyID:         "k2",
		VerifyKeys:    map[string][]byte{"k1": pub1, "k2": pub2},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	tok, err := issuer.Issue("flags", []byte{1}, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Parse(tok); err != nil {
		t.Fatalf("parse with rotated key: %v", err)
	}

	old, err := NewManager(Config{
		TTL:           time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv1,
		PublicKey:     pub1,
		KeyID:         "k1",
		VerifyKeys:    map[string][]byte{"k1": pub1},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := old.Parse(tok); !errors.Is(err, ErrUnknownKeyID) {
		t.Fatalf("expected unknown kid, got %v", err)
	}
}

func TestHS256(t *testing.T) {
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	tok, err := IssueSelector(m, "flags", sigma.Mask32(7), 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := Verify[sigma.Mask32](m, tok, "flags", 1)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != 7 {
		t.Fatalf("selector = %d, want 7", got)
	}
}

func TestNewManagerValidation(t *testing.T) {
	pub, _ := newEdKeys(t)
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero ttl", Config{SigningMethod: MethodHS256, PrivateKey: []byte("k")}},
		{"leeway", Config{TTL: time.Minute, Leeway: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("k")}},
		{"hs256 no key", Config{TTL: time.Minute, SigningMethod: MethodHS256}},
		{"ed25519 no public", Config{TTL: time.Minute, SigningMethod: MethodEd25519}},
		{"ed25519 bad public", Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: []byte("short")}},
		{"kid missing", Config{TTL: time.Minute, SigningMethod: MethodEd25519, KeyID: "k9", VerifyKeys: map[string][]byte{"k1": pub}}},
		{"unknown method", Config{TTL: time.Minute, SigningMethod: "rs256"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
