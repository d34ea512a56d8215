// Package token carries regulator selectors in signed JWTs so that a service can hand a
// caller a selector and verify it later against the rule set version it was issued for.
package token
