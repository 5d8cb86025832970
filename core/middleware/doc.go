// Package middleware contains HTTP middleware for the ops server.
//
// It provides cross-cutting concerns that sit between the request and the handler.
//
// # Components
//
//   - Auth: Implements API key validation to protect endpoints. Paths can be
//     exempted so liveness probes stay reachable without credentials.
//   - RayID: Generates a unique Request ID (RayID) for every incoming request,
//     injecting it into the context and response headers for tracing.
//
// These middleware components are registered globally in daemon mode before
// the feature routes are loaded.
package middleware
