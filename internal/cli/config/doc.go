// Package config provides minikv-cli configuration.
//
// The file lives at ~/.minikv/cli.yaml and is optional. Values are
// resolved with the shared confloader: flags > MINIKV_CLI_* environment
// variables > file > defaults.
package config
