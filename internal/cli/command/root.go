package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/cli/config"
	"github.com/yndnr/minikv/internal/cli/connection"
	"github.com/yndnr/minikv/internal/cli/output"
	"github.com/yndnr/minikv/internal/cli/repl"
	"github.com/yndnr/minikv/internal/infra/buildinfo"
	"github.com/yndnr/minikv/internal/infra/tlsroots"
)

const metaConfig = "config"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "minikv-cli",
		Usage:   "minikv command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			SetCommand(),
			GetCommand(),
			DelCommand(),
			IncrCommand(),
			BenchCommand(),
			AdminCommand(),
		},
		Before: loadConfig,
		Action: interactive,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server address `HOST:PORT`",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "dial and request timeout",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "show extra columns",
		},
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "connect over TLS",
		},
		&cli.StringFlag{
			Name:  "cacert",
			Usage: "trusted CA bundle `FILE` for --tls",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "skip server certificate verification",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config `FILE`",
			Value:   config.DefaultConfigPath(),
		},
	}
}

// loadConfig resolves the CLI config (flags > env > file > defaults) and
// stores it in the app metadata.
func loadConfig(c *cli.Context) error {
	overrides := map[string]any{}
	if c.IsSet("server") {
		overrides["server"] = c.String("server")
	}
	if c.IsSet("timeout") {
		overrides["timeout"] = c.Duration("timeout")
	}
	if c.IsSet("output") {
		overrides["output"] = c.String("output")
	}
	if c.IsSet("tls") {
		overrides["tls"] = c.Bool("tls")
	}
	if c.IsSet("cacert") {
		overrides["ca_cert"] = c.String("cacert")
	}
	if c.IsSet("insecure") {
		overrides["insecure"] = c.Bool("insecure")
	}

	cfg, err := config.Load(c.String("config"), overrides)
	if err != nil {
		return fmt.Errorf("load cli config: %w", err)
	}
	if _, err := output.ParseFormat(cfg.Output); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[metaConfig] = cfg
	return nil
}

// Config returns the resolved CLI config.
func Config(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// Dial connects to the configured server.
func Dial(c *cli.Context) (*connection.Client, error) {
	cfg := Config(c)
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(c.Context, cfg.Timeout+time.Second)
	defer cancel()
	return connection.Dial(ctx, cfg.Server, opts...)
}

// clientOptions maps the CLI config onto connection options.
func clientOptions(cfg *config.CLIConfig) ([]connection.Option, error) {
	opts := []connection.Option{connection.WithTimeout(cfg.Timeout)}
	if cfg.TLS {
		tlsCfg, err := tlsroots.ClientConfig(cfg.CACert, "", cfg.Insecure)
		if err != nil {
			return nil, fmt.Errorf("tls: %w", err)
		}
		opts = append(opts, connection.WithTLS(tlsCfg))
	}
	return opts, nil
}

// formatter returns the formatter for the resolved output format.
func formatter(c *cli.Context) output.Formatter {
	f, _ := output.ParseFormat(Config(c).Output)
	return output.NewFormatter(f, c.Bool("wide"))
}

func interactive(c *cli.Context) error {
	if c.Args().Present() {
		return fmt.Errorf("unknown command %q, see --help", c.Args().First())
	}

	client, err := Dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	cfg := Config(c)
	r := repl.New(client,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithPrompt(client.Addr()),
		repl.WithHistory(repl.NewHistory(cfg.HistoryFile, repl.DefaultHistorySize)),
	)
	return r.Run(c.Context)
}
