// Package middleware verifies selector tokens on incoming HTTP requests and places the
// decoded selector in the request context.
//
//   - [RequireSelector] checks signature, expiry, and rule set name only.
//   - [RequireCurrent] additionally rejects tokens issued for an older rule set version,
//     reading the current version from a [VersionSource] such as a store.Store.
//
// Handlers retrieve the selector with [SelectorFromContext] and pass it to
// Regulator.WithSelector.
package middleware
