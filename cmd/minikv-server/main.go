package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/infra/buildinfo"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "minikv-server",
		Usage:   "in-memory key-value server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration `FILE` (YAML)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "override the port of server.redis.addr",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address `HOST:PORT` (server.redis.addr)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "json or text",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on `HOST:PORT` (enables metrics)",
			},
			&cli.StringFlag{
				Name:  "tls-cert",
				Usage: "serve RESP over TLS with certificate `FILE` (needs --tls-key)",
			},
			&cli.StringFlag{
				Name:  "tls-key",
				Usage: "private key `FILE` for --tls-cert",
			},
			&cli.StringFlag{
				Name:  "admin-socket",
				Usage: "local admin socket `PATH` (server.local.socket)",
			},
		},
		Action: func(c *cli.Context) error {
			opts, err := optionsFromFlags(c)
			if err != nil {
				return err
			}
			return run(c.Context, opts)
		},
	}
}

// options are the command-line inputs of run.
type options struct {
	configFile string
	overrides  map[string]any
	port       int // -1 when unset
}

func optionsFromFlags(c *cli.Context) (options, error) {
	opts := options{
		configFile: c.String("config"),
		overrides:  map[string]any{},
		port:       -1,
	}

	if c.IsSet("addr") {
		opts.overrides["server.redis.addr"] = c.String("addr")
	}
	if c.IsSet("log-level") {
		opts.overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("log-format") {
		opts.overrides["log.format"] = c.String("log-format")
	}
	if c.IsSet("metrics-addr") {
		opts.overrides["metrics.addr"] = c.String("metrics-addr")
		opts.overrides["metrics.enabled"] = true
	}
	if c.IsSet("tls-cert") || c.IsSet("tls-key") {
		opts.overrides["server.redis.tls.enabled"] = true
		opts.overrides["server.redis.tls.cert_file"] = c.String("tls-cert")
		opts.overrides["server.redis.tls.key_file"] = c.String("tls-key")
	}
	if c.IsSet("admin-socket") {
		opts.overrides["server.local.socket"] = c.String("admin-socket")
	}
	if c.IsSet("port") {
		opts.port = c.Int("port")
		if opts.port < 0 || opts.port > 65535 {
			return opts, fmt.Errorf("invalid --port %d", opts.port)
		}
	}
	return opts, nil
}
