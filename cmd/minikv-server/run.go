package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/yndnr/minikv/internal/infra/buildinfo"
	"github.com/yndnr/minikv/internal/infra/confloader"
	"github.com/yndnr/minikv/internal/infra/shutdown"
	"github.com/yndnr/minikv/internal/infra/tlsroots"
	"github.com/yndnr/minikv/internal/server/config"
	"github.com/yndnr/minikv/internal/server/httpserver"
	"github.com/yndnr/minikv/internal/server/localserver"
	"github.com/yndnr/minikv/internal/server/redisserver"
	"github.com/yndnr/minikv/internal/storage"
	"github.com/yndnr/minikv/internal/telemetry/logger"
	"github.com/yndnr/minikv/internal/telemetry/metric"
)

const shutdownTimeout = 10 * time.Second

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogger := log.Slog()

	log.Info("starting minikv-server",
		"version", buildinfo.Get().Version,
		"config", opts.configFile,
		"settings", config.Sanitize(cfg))

	engine := storage.New()

	var metrics *metric.Registry
	if cfg.Metrics.Enabled {
		metrics = metric.NewRegistry()
		if err := metrics.Register(metric.NewKeysCollector(engine)); err != nil {
			return fmt.Errorf("register keys collector: %w", err)
		}
	}

	sh := shutdown.NewHandler(shutdownTimeout, slogger)
	// abort unwinds whatever was started before a startup failure.
	abort := func(err error) error {
		sh.Trigger()
		_ = sh.Wait(context.Background())
		return err
	}

	rcfg := redisConfig(cfg)
	if tc := cfg.Server.Redis.TLS; tc.Enabled {
		reloader, err := tlsroots.NewReloader(tc.CertFile, tc.KeyFile, tlsroots.WithLogger(slogger))
		if err != nil {
			return err
		}
		if err := reloader.Start(); err != nil {
			log.Warn("certificate hot reload disabled", "error", err)
		}
		sh.OnShutdown("tls reloader", func(context.Context) error { return reloader.Stop() })
		rcfg.TLSConfig = reloader.ServerConfig()
	}

	srv := redisserver.New(rcfg, engine, metrics, slogger)
	if err := srv.Start(ctx); err != nil {
		return abort(err)
	}
	sh.OnShutdown("redis server", srv.Shutdown)

	if metrics != nil {
		hs := httpserver.New(cfg.Metrics.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Metrics:     metrics.Handler(),
			MetricsPath: cfg.Metrics.Path,
			AuthToken:   cfg.Metrics.AuthToken,
			Ready:       srv.Running,
			Logger:      slogger,
		}), slogger)
		if err := hs.Start(); err != nil {
			return abort(err)
		}
		sh.OnShutdown("http server", hs.Shutdown)
	}

	if path := cfg.Server.Local.Socket; path != "" {
		started := time.Now()
		ls := localserver.New(path, &localserver.Handler{
			Status: func() localserver.Status {
				return localserver.Status{
					Version:     buildinfo.Get().Version,
					Addr:        srv.Addr().String(),
					Uptime:      time.Since(started).Round(time.Second).String(),
					Keys:        engine.Len(),
					Connections: srv.ActiveConns(),
				}
			},
			Reload:   func() error { return reloadLogLevel(opts, slogger) },
			Shutdown: sh.Trigger,
		}, slogger)
		if err := ls.Start(); err != nil {
			return abort(err)
		}
		sh.OnShutdown("admin socket", ls.Shutdown)
	}

	if opts.configFile != "" {
		w, err := watchConfig(opts, slogger)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			sh.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
		}
	}

	log.Info("server started", "addr", srv.Addr().String())
	if err := sh.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

// loadConfig resolves the configuration: flags > env > file > defaults.
func loadConfig(opts options) (*config.ServerConfig, error) {
	cfg := config.Default()

	loaderOpts := []confloader.Option{confloader.WithOverrides(opts.overrides)}
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, confloader.WithConfigFile(opts.configFile))
	}
	if err := confloader.NewLoader(loaderOpts...).Load(cfg); err != nil {
		return nil, err
	}

	if opts.port >= 0 {
		addr, err := config.WithPort(cfg.Server.Redis.Addr, opts.port)
		if err != nil {
			return nil, fmt.Errorf("apply --port: %w", err)
		}
		cfg.Server.Redis.Addr = addr
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func redisConfig(cfg *config.ServerConfig) *redisserver.Config {
	r := cfg.Server.Redis
	return &redisserver.Config{
		Address:        r.Addr,
		MaxArrayLen:    r.MaxArrayLen,
		MaxBulkLen:     r.MaxBulkLen,
		ReadBufferSize: r.ReadBuffer,
		IdleTimeout:    r.IdleTimeout,
		WriteTimeout:   r.WriteTimeout,
		RateLimit:      r.RateLimit,
	}
}

// watchConfig reapplies log.level whenever the config file changes.
// Other settings need a restart.
func watchConfig(opts options, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(opts.configFile, func(string) {
		_ = reloadLogLevel(opts, log)
	}, confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	w.Start()
	return w, nil
}

// reloadLogLevel re-reads the configuration and applies log.level.
// A rejected configuration leaves the running level alone.
func reloadLogLevel(opts options, log *slog.Logger) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		log.Warn("config reload rejected", "error", err)
		return err
	}
	if cfg.Log.Level == logger.GetLevel() {
		return nil
	}
	logger.SetLevel(cfg.Log.Level)
	log.Info("log level changed", "level", cfg.Log.Level)
	return nil
}
