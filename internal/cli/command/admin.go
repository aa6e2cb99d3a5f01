package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/cli/connection"
	"github.com/yndnr/minikv/internal/server/localserver"
)

// AdminCommand returns the admin command group, which talks to the
// server's local admin socket instead of the RESP port.
func AdminCommand() *cli.Command {
	socketFlag := &cli.StringFlag{
		Name:  "socket",
		Usage: "admin socket `PATH` (default: admin_socket from the CLI config)",
	}
	return &cli.Command{
		Name:  "admin",
		Usage: "Local server administration",
		Flags: []cli.Flag{socketFlag},
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show server status",
				Action: adminStatus,
			},
			{
				Name:   "reload",
				Usage:  "Re-read the server config file",
				Action: adminSimple("reload"),
			},
			{
				Name:   "shutdown",
				Usage:  "Shut the server down gracefully",
				Action: adminSimple("shutdown"),
			},
		},
	}
}

func adminSocket(c *cli.Context) (string, error) {
	if s := c.String("socket"); s != "" {
		return s, nil
	}
	if s := Config(c).AdminSocket; s != "" {
		return s, nil
	}
	return "", cli.Exit("admin socket not set: use --socket or admin_socket in the CLI config", 2)
}

func adminCall(c *cli.Context, command string) (string, error) {
	socket, err := adminSocket(c)
	if err != nil {
		return "", err
	}
	reply, err := connection.Admin(c.Context, socket, command, Config(c).Timeout)
	var se *connection.ServerError
	if errors.As(err, &se) {
		return "", cli.Exit("(error) "+se.Message, 1)
	}
	return reply, err
}

func adminStatus(c *cli.Context) error {
	reply, err := adminCall(c, "status")
	if err != nil {
		return err
	}
	var st localserver.Status
	if err := json.Unmarshal([]byte(reply), &st); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	return formatter(c).Format(c.App.Writer, st)
}

func adminSimple(command string) cli.ActionFunc {
	return func(c *cli.Context) error {
		reply, err := adminCall(c, command)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.App.Writer, strings.TrimSpace(reply))
		return err
	}
}
