// Package main provides the entry point for minikv-server.
//
// minikv-server is a single-node in-memory key-value server speaking the
// RESP request protocol (SET, GET, DEL, INCR).
//
// Usage:
//
//	minikv-server [flags]
//	minikv-server --config /etc/minikv/server.yaml --port 6380
//
// Configuration priority: flags > MINIKV_* environment > file > defaults.
// Changing log.level in the config file takes effect without a restart.
package main
