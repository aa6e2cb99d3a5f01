package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/yndnr/minikv/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyRedis(&cfg.Server.Redis); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyRedis(cfg *RedisConfig) error {
	if err := verifyAddr("server.redis.addr", cfg.Addr); err != nil {
		return err
	}
	if cfg.MaxBulkLen <= 0 {
		return errors.New("server.redis.max_bulk_len must be positive")
	}
	if cfg.MaxArrayLen <= 0 {
		return errors.New("server.redis.max_array_len must be positive")
	}
	if cfg.ReadBuffer <= 0 {
		return errors.New("server.redis.read_buffer must be positive")
	}
	if cfg.IdleTimeout < 0 {
		return errors.New("server.redis.idle_timeout must not be negative")
	}
	if cfg.WriteTimeout < 0 {
		return errors.New("server.redis.write_timeout must not be negative")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.redis.rate_limit must not be negative")
	}
	if cfg.TLS.Enabled && (cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "") {
		return errors.New("server.redis.tls requires cert_file and key_file")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	if err := verifyAddr("metrics.addr", cfg.Addr); err != nil {
		return err
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/': %q", cfg.Path)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	if !logger.ValidFormat(cfg.Format) {
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	return nil
}

// verifyAddr checks that addr is host:port with a port in 0-65535.
func verifyAddr(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", field)
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("%s: invalid port %q", field, port)
	}
	return nil
}

// WithPort returns addr with its port replaced by port.
func WithPort(addr string, port int) (string, error) {
	if port < 0 || port > 65535 {
		return "", fmt.Errorf("invalid port %d", port)
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}
