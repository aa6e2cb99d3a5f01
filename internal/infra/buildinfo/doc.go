// Package buildinfo exposes build information for minikv.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/minikv/internal/infra/buildinfo.Version=v0.1.0"
//
// When they are not set, Get falls back to the module and VCS data the Go
// toolchain embeds in the binary.
package buildinfo
