// Package pkguid provides helpers for generating unique identifiers.
//
// The codebase uses these interfaces to avoid hard-coding a specific UID
// strategy. This package covers ambient string IDs (UUIDs for correlation
// IDs and identity tokens); the fleet-wide numeric ID schemes live in
// internal/idgen because they depend on the machine lease coordinator.
package pkguid
