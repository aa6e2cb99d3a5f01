// Package localserver provides the local admin socket of minikv-server.
//
// It listens on a Unix domain socket and accepts one text command per
// connection:
//
//   - status: JSON snapshot (version, address, uptime, keys, connections)
//   - reload: re-read the config file and apply log.level
//   - shutdown: start a graceful shutdown
//
// Access is controlled by file system permissions; the socket is created
// with mode 0600.
package localserver
