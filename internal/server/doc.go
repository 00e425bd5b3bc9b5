// Package server implements the power-tools HTTP API surface.
//
// Owns:
//   - HTTP routing, handlers, and request/response contracts
//   - Authentication (bearer identity tokens) and authorization policies
//   - API-level invariants and behavior
//
// Does not own:
//   - Storage internals (store.Store implementations)
//   - Token signing (shared.TokenService), payment provider, event transport
//
// Invariants:
//   - JSON responses go through writeJSON; failures through fail
//   - Admin endpoints are wrapped with RequireAuth then RequireAdmin
//   - Self-scoped reads are wrapped with Guard(IsSelf(...)); admin role
//     does not bypass the check
//   - Profile upsert never writes role; order creation never writes
//     paid or transactionId
package server
