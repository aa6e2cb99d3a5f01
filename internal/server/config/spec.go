package config

import "time"

// ServerConfig is the root configuration for minikv-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis RedisConfig `koanf:"redis"`
	Local LocalConfig `koanf:"local"`
}

// RedisConfig configures the RESP server.
type RedisConfig struct {
	Addr string `koanf:"addr"`

	// MaxBulkLen is the largest accepted argument in bytes.
	MaxBulkLen int `koanf:"max_bulk_len"`

	// MaxArrayLen is the largest accepted argument count.
	MaxArrayLen int `koanf:"max_array_len"`

	// ReadBuffer is the initial per-connection read buffer size in bytes.
	ReadBuffer int `koanf:"read_buffer"`

	// IdleTimeout closes silent connections. 0 disables it.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// WriteTimeout bounds each reply write. 0 disables it.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// RateLimit is the per-connection command limit per second. 0 disables it.
	RateLimit int `koanf:"rate_limit"`

	TLS TLSConfig `koanf:"tls"`
}

// TLSConfig enables TLS on the RESP listener. The key pair is reloaded
// when the files change.
type TLSConfig struct {
	Enabled  bool   `koanf:"enabled"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
}

// LocalConfig configures the local admin socket.
type LocalConfig struct {
	// Socket is the Unix socket path. Empty disables the admin socket.
	Socket string `koanf:"socket"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	Path    string `koanf:"path"`

	// AuthToken, when set, is required as a Bearer token on scrapes.
	AuthToken string `koanf:"auth_token"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
