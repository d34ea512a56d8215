// Package store persists rule sets so that regulators can be rebuilt from a shared source.
//
// Two backends implement [Store]: [RedisStore], which keeps the YAML body under
// "<prefix>:ruleset:<name>" next to a version counter and a name index, and
// [SQLiteStore], which keeps one row per rule set. Both bump the version on every Save.
package store
