package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/minikv/internal/cli/connection"
	"github.com/yndnr/minikv/internal/infra/tlsroots"
	"github.com/yndnr/minikv/internal/infra/tlsroots/tlstest"
	"github.com/yndnr/minikv/internal/server/localserver"
	"github.com/yndnr/minikv/internal/telemetry/logger"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	file := writeFile(t, `
server:
  redis:
    addr: "0.0.0.0:7000"
    rate_limit: 100
log:
  level: warn
`)

	tests := []struct {
		name     string
		opts     options
		env      map[string]string
		wantAddr string
		wantLvl  string
		wantErr  bool
	}{
		{
			name:     "defaults",
			opts:     options{port: -1},
			wantAddr: "127.0.0.1:6379",
			wantLvl:  "info",
		},
		{
			name:     "file",
			opts:     options{configFile: file, port: -1},
			wantAddr: "0.0.0.0:7000",
			wantLvl:  "warn",
		},
		{
			name:     "env over file",
			opts:     options{configFile: file, port: -1},
			env:      map[string]string{"MINIKV_LOG_LEVEL": "debug"},
			wantAddr: "0.0.0.0:7000",
			wantLvl:  "debug",
		},
		{
			name: "flag over env",
			opts: options{
				configFile: file,
				port:       -1,
				overrides:  map[string]any{"server.redis.addr": "127.0.0.1:7100"},
			},
			env:      map[string]string{"MINIKV_SERVER_REDIS_ADDR": "127.0.0.1:7200"},
			wantAddr: "127.0.0.1:7100",
			wantLvl:  "warn",
		},
		{
			name:     "port replaces port only",
			opts:     options{configFile: file, port: 6380},
			wantAddr: "0.0.0.0:6380",
			wantLvl:  "warn",
		},
		{
			name:    "invalid value",
			opts:    options{port: -1, overrides: map[string]any{"log.level": "loud"}},
			wantErr: true,
		},
		{
			name:    "missing file",
			opts:    options{configFile: filepath.Join(t.TempDir(), "nope.yaml"), port: -1},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := loadConfig(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if cfg.Server.Redis.Addr != tt.wantAddr {
				t.Errorf("addr = %q, want %q", cfg.Server.Redis.Addr, tt.wantAddr)
			}
			if cfg.Log.Level != tt.wantLvl {
				t.Errorf("log level = %q, want %q", cfg.Log.Level, tt.wantLvl)
			}
		})
	}
}

func TestRedisConfig(t *testing.T) {
	file := writeFile(t, "server:\n  redis:\n    max_bulk_len: 4096\n    idle_timeout: 30s\n    rate_limit: 10\n")
	cfg, err := loadConfig(options{configFile: file, port: -1})
	if err != nil {
		t.Fatal(err)
	}

	rc := redisConfig(cfg)
	if rc.MaxBulkLen != 4096 || rc.IdleTimeout != 30*time.Second || rc.RateLimit != 10 {
		t.Errorf("redisConfig() = %+v", rc)
	}
	if rc.Address != "127.0.0.1:6379" {
		t.Errorf("Address = %q", rc.Address)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	file := writeFile(t, "log:\n  level: error\n")
	opts := options{
		configFile: file,
		port:       -1,
		overrides: map[string]any{
			"server.redis.addr": "127.0.0.1:0",
			"metrics.enabled":   true,
			"metrics.addr":      "127.0.0.1:0",
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, opts) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run() did not stop after context cancel")
	}
}

func TestReloadLogLevel(t *testing.T) {
	file := writeFile(t, "log:\n  level: info\n")
	opts := options{configFile: file, port: -1}
	logger.SetLevel("info")
	t.Cleanup(func() { logger.SetLevel("info") })

	if err := os.WriteFile(file, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	reloadLogLevel(opts, logger.Slog())
	if got := logger.GetLevel(); got != "debug" {
		t.Errorf("level = %q, want debug", got)
	}

	// Invalid files leave the level alone.
	if err := os.WriteFile(file, []byte("log:\n  level: loud\n"), 0644); err != nil {
		t.Fatal(err)
	}
	reloadLogLevel(opts, logger.Slog())
	if got := logger.GetLevel(); got != "debug" {
		t.Errorf("level = %q, want debug after rejected reload", got)
	}
}

func TestApp_InvalidPort(t *testing.T) {
	app := newApp()
	if err := app.Run([]string{"minikv-server", "--port", "70000"}); err == nil {
		t.Error("Run() should reject an out-of-range port")
	}
}

func TestApp_TLSCertWithoutKey(t *testing.T) {
	app := newApp()
	err := app.Run([]string{"minikv-server", "--addr", "127.0.0.1:0", "--tls-cert", "server.crt"})
	if err == nil {
		t.Fatal("Run() should reject --tls-cert without --tls-key")
	}
}

func TestRun_TLSAndAdminSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "mkv")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	certFile, keyFile := tlstest.WriteSelfSigned(t, dir, "minikv-test")
	socket := filepath.Join(dir, "admin.sock")

	opts := options{
		port: -1,
		overrides: map[string]any{
			"server.redis.addr":          "127.0.0.1:0",
			"server.redis.tls.enabled":   true,
			"server.redis.tls.cert_file": certFile,
			"server.redis.tls.key_file":  keyFile,
			"server.local.socket":        socket,
			"log.level":                  "error",
		},
	}

	errCh := make(chan error, 1)
	go func() { errCh <- run(context.Background(), opts) }()

	ctx := context.Background()
	var reply string
	deadline := time.Now().Add(3 * time.Second)
	for {
		reply, err = connection.Admin(ctx, socket, "status", time.Second)
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("admin status: %v", err)
	}
	var st localserver.Status
	if err := json.Unmarshal([]byte(reply), &st); err != nil {
		t.Fatalf("status = %q: %v", reply, err)
	}

	tlsCfg, err := tlsroots.ClientConfig(certFile, "", false)
	if err != nil {
		t.Fatal(err)
	}
	c, err := connection.Dial(ctx, st.Addr, connection.WithTLS(tlsCfg))
	if err != nil {
		t.Fatalf("TLS dial %s: %v", st.Addr, err)
	}
	if _, err := c.Incr(ctx, []byte("n")); err != nil {
		t.Errorf("INCR over TLS: %v", err)
	}
	c.Close()

	if _, err := connection.Admin(ctx, socket, "shutdown", time.Second); err != nil {
		t.Fatalf("admin shutdown: %v", err)
	}
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run() did not stop after admin shutdown")
	}
}

func TestRun_BadCertificate(t *testing.T) {
	opts := options{
		port: -1,
		overrides: map[string]any{
			"server.redis.addr":          "127.0.0.1:0",
			"server.redis.tls.enabled":   true,
			"server.redis.tls.cert_file": "/nonexistent/server.crt",
			"server.redis.tls.key_file":  "/nonexistent/server.key",
			"log.level":                  "error",
		},
	}
	if err := run(context.Background(), opts); err == nil {
		t.Error("run() should fail with unreadable certificates")
	}
}
