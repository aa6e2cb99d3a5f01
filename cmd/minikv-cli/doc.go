// Package main provides the entry point for minikv-cli.
//
// Usage:
//
//	minikv-cli                      # interactive mode
//	minikv-cli set greeting hello
//	minikv-cli -o json incr visits
//	minikv-cli bench -n 100000 -c 50 -P 16
package main
