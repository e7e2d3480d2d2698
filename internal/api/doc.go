// Package api exposes the solve engine over HTTP.
//
// Endpoints:
//
//	GET /health                liveness probe
//	GET /ready                 readiness probe (fragment service connectivity)
//	GET /api/v1/puzzle/solve   run a solve session, return text and stats
//
// Every request gets a correlation ID (X-Request-Id, generated when the
// client supplies none) that is threaded through the solve session's
// logging. The handler is a thin wrapper; all coordination logic lives in
// the solver package.
package api
