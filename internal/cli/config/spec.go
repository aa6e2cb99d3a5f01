package config

import "time"

// CLIConfig is the configuration for minikv-cli.
type CLIConfig struct {
	// Server is the default server address (host:port).
	Server string `koanf:"server" yaml:"server"`

	// Timeout bounds dialing and each request.
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`

	// Output is the default output format: table, json, yaml.
	Output string `koanf:"output" yaml:"output"`

	// TLS enables TLS to the server.
	TLS bool `koanf:"tls" yaml:"tls"`

	// CACert is a PEM bundle of trusted roots. Empty uses the system pool.
	CACert string `koanf:"ca_cert" yaml:"ca_cert,omitempty"`

	// Insecure skips server certificate verification.
	Insecure bool `koanf:"insecure" yaml:"insecure,omitempty"`

	// AdminSocket is the server's local admin socket for "minikv-cli admin".
	AdminSocket string `koanf:"admin_socket" yaml:"admin_socket,omitempty"`

	// HistoryFile is where the interactive mode keeps its history.
	// Empty disables persistence.
	HistoryFile string `koanf:"history_file" yaml:"history_file"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:      "127.0.0.1:6379",
		Timeout:     5 * time.Second,
		Output:      "table",
		HistoryFile: DefaultHistoryPath(),
	}
}
