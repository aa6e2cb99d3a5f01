// Package httpserver provides the admin HTTP endpoint of minikv-server.
//
// Routes:
//
//   - GET /health: liveness
//   - GET /ready: 200 while the RESP server accepts connections, 503 otherwise
//   - GET /version: build information
//   - GET <metrics path>: Prometheus exposition, optionally behind a Bearer token
//
// Every request passes through RequestID, Recover and AccessLog.
package httpserver
