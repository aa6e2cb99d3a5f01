package config

import "time"

// Default configuration values.
const (
	DefaultRedisAddr    = "127.0.0.1:6379"
	DefaultMaxBulkLen   = 512 * 1024 * 1024
	DefaultMaxArrayLen  = 1024
	DefaultReadBuffer   = 16 * 1024
	DefaultIdleTimeout  = time.Duration(0)
	DefaultWriteTimeout = time.Duration(0)

	DefaultMetricsAddr = "127.0.0.1:9121"
	DefaultMetricsPath = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:         DefaultRedisAddr,
				MaxBulkLen:   DefaultMaxBulkLen,
				MaxArrayLen:  DefaultMaxArrayLen,
				ReadBuffer:   DefaultReadBuffer,
				IdleTimeout:  DefaultIdleTimeout,
				WriteTimeout: DefaultWriteTimeout,
			},
		},
		Metrics: MetricsSection{
			Enabled: false,
			Addr:    DefaultMetricsAddr,
			Path:    DefaultMetricsPath,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
