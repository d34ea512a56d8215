package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/regulator/sigma"
)

// SigningMethod selects the JWT algorithm.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

var (
	ErrInvalidConfig   = errors.New("invalid token configuration")
	ErrUnknownKeyID    = errors.New("unknown kid")
	ErrMissingKeyID    = errors.New("missing kid")
	ErrRuleSetMismatch = errors.New("token issued for a different rule set")
	ErrStaleVersion    = errors.New("token issued for an older rule set version")
)

// Config configures a [Manager].
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
}

// Manager issues and verifies selector tokens. It is immutable after NewManager.
type Manager struct {
	config Config
}

// SelectorClaims binds an encoded selector to a rule set name and version.
type SelectorClaims struct {
	RuleSet string `json:"rs"`
	Mask    []byte `json:"mask"`
	Version int64  `json:"v,omitempty"`
	jwt.RegisteredClaims
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", ErrInvalidConfig)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, fmt.Errorf("%w: leeway out of range", ErrInvalidConfig)
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, fmt.Errorf("%w: hs256 requires a key", ErrInvalidConfig)
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.VerifyKeys) == 0 && len(cfg.PublicKey) == 0 {
			return nil, fmt.Errorf("%w: ed25519 requires a public key or verify key set", ErrInvalidConfig)
		}
		for kid, key := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, fmt.Errorf("%w: verify key map contains empty kid", ErrInvalidConfig)
			}
			if _, err := parseEdPublicKey(key); err != nil {
				return nil, fmt.Errorf("verify key %q: %w", kid, err)
			}
		}
	default:
		return nil, fmt.Errorf("%w: unsupported signing method %q", ErrInvalidConfig, cfg.SigningMethod)
	}
	if cfg.KeyID != "" && len(cfg.VerifyKeys) > 0 {
		if _, ok := cfg.VerifyKeys[cfg.KeyID]; !ok {
			return nil, fmt.Errorf("%w: KeyID is not present in VerifyKeys", ErrInvalidConfig)
		}
	}

	return &Manager{config: cfg}, nil
}

// Issue signs a token for an already encoded selector. See [IssueSelector] for the typed
// form.
func (m *Manager) Issue(ruleSet string, mask []byte, version int64) (string, error) {
	now := time.Now()
	claims := SelectorClaims{
		RuleSet: ruleSet,
		Mask:    mask,
		Version: version,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	tok := jwt.NewWithClaims(m.method(), claims)
	if m.config.KeyID != "" {
		tok.Header["kid"] = m.config.KeyID
	}

	key, err := m.signKey()
	if err != nil {
		return "", err
	}
	return tok.SignedString(key)
}

// Parse verifies signature, algorithm, kid, expiry, issuer, and audience.
func (m *Manager) Parse(tokenStr string) (*SelectorClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithIssuedAt(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &SelectorClaims{}, m.keyFunc)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*SelectorClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (m *Manager) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)

	if len(m.config.VerifyKeys) > 0 {
		if kid == "" {
			return nil, ErrMissingKeyID
		}
		key, ok := m.config.VerifyKeys[kid]
		if !ok {
			return nil, ErrUnknownKeyID
		}
		return m.verifyKeyFromBytes(key)
	}

	if m.config.KeyID != "" {
		if kid == "" {
			return nil, ErrMissingKeyID
		}
		if kid != m.config.KeyID {
			return nil, ErrUnknownKeyID
		}
	}
	return m.verifyKeyFromBytes(m.verifyKeyBytes())
}

// IssueSelector encodes selector with the sigma codec and signs it.
func IssueSelector[S sigma.Sigma[S]](m *Manager, ruleSet string, selector S, version int64) (string, error) {
	mask, err := sigma.EncodeMask(selector)
	if err != nil {
		return "", err
	}
	return m.Issue(ruleSet, mask, version)
}

// Selector decodes the claim mask into S, rejecting a width mismatch.
func Selector[S sigma.Sigma[S]](claims *SelectorClaims) (S, error) {
	return sigma.Decode[S](claims.Mask)
}

// Verify parses tokenStr and checks it was issued for ruleSet at version or later.
// A version of 0 skips the version check.
func Verify[S sigma.Sigma[S]](m *Manager, tokenStr, ruleSet string, version int64) (S, error) {
	var zero S
	claims, err := m.Parse(tokenStr)
	if err != nil {
		return zero, err
	}
	if claims.RuleSet != ruleSet {
		return zero, fmt.Errorf("%w: %q", ErrRuleSetMismatch, claims.RuleSet)
	}
	if version != 0 && claims.Version < version {
		return zero, fmt.Errorf("%w: %d < %d", ErrStaleVersion, claims.Version, version)
	}
	return Selector[S](claims)
}

func (m *Manager) method() jwt.SigningMethod {
	if m.config.SigningMethod == MethodHS256 {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func (m *Manager) signKey() (any, error) {
	if m.config.SigningMethod == MethodHS256 {
		return m.config.PrivateKey, nil
	}
	return parseEdPrivateKey(m.config.PrivateKey)
}

func (m *Manager) verifyKeyBytes() []byte {
	if m.config.SigningMethod == MethodHS256 {
		return m.config.PrivateKey
	}
	return m.config.PublicKey
}

func (m *Manager) verifyKeyFromBytes(key []byte) (any, error) {
	if m.config.SigningMethod == MethodHS256 {
		return key, nil
	}
	return parseEdPublicKey(key)
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ed25519 private key", ErrInvalidConfig)
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: invalid ed25519 private key type", ErrInvalidConfig)
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ed25519 public key", ErrInvalidConfig)
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: invalid ed25519 public key type", ErrInvalidConfig)
	}
	return edKey, nil
}
