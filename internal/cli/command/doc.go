// Package command defines the minikv-cli commands on urfave/cli/v2.
//
//   - root.go: App, global flags, config resolution, interactive mode
//   - kv.go: set, get, del, incr
//   - bench.go: SET/GET/INCR throughput benchmark
package command
