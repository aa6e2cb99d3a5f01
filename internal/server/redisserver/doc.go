// Package redisserver provides the RESP server for minikv.
//
// This package implements the RESP2 request framing and reply encoding
// (resp.go), the per-connection read/dispatch loop (server.go) and the
// command table (command.go). The codec uses only the standard library.
//
// Supported commands:
//   - SET key value
//   - GET key
//   - DEL key
//   - INCR key
//
// Command names are exact and case-sensitive. A malformed frame gets one
// "-ERR Protocol error" reply and the connection is closed; every other
// error leaves the connection open.
package redisserver
