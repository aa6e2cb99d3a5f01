package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/cli/output"
	"github.com/yndnr/minikv/internal/server/redisserver"
)

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set the string value of a key",
		ArgsUsage: "KEY VALUE",
		Action:    kvAction("SET", 2),
	}
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "KEY",
		Action:    kvAction("GET", 1),
	}
}

// DelCommand returns the del command.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Delete a key",
		ArgsUsage: "KEY",
		Action:    kvAction("DEL", 1),
	}
}

// IncrCommand returns the incr command.
func IncrCommand() *cli.Command {
	return &cli.Command{
		Name:      "incr",
		Usage:     "Increment the integer value of a key by one",
		ArgsUsage: "KEY",
		Action:    kvAction("INCR", 1),
	}
}

// replyView is the json/yaml shape of a reply.
type replyView struct {
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

func newReplyView(r redisserver.Reply) replyView {
	switch r.Kind {
	case redisserver.ReplySimple:
		return replyView{Type: "simple", Value: string(r.Str)}
	case redisserver.ReplyError:
		return replyView{Type: "error", Value: string(r.Str)}
	case redisserver.ReplyInteger:
		return replyView{Type: "integer", Value: r.Int}
	case redisserver.ReplyBulk:
		return replyView{Type: "bulk", Value: string(r.Str)}
	default:
		return replyView{Type: "null"}
	}
}

// kvAction sends name with exactly argc arguments and prints the reply.
// An error reply exits with status 1.
func kvAction(name string, argc int) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() != argc {
			return cli.Exit("wrong number of arguments for '"+c.Command.Name+"', usage: "+c.Command.Name+" "+c.Command.ArgsUsage, 2)
		}

		args := make([][]byte, 0, argc+1)
		args = append(args, []byte(name))
		for _, a := range c.Args().Slice() {
			args = append(args, []byte(a))
		}

		client, err := Dial(c)
		if err != nil {
			return err
		}
		defer client.Close()

		reply, err := client.Do(c.Context, args...)
		if err != nil {
			return err
		}

		if f := formatter(c); isTable(f) {
			if reply.Kind == redisserver.ReplyError {
				return cli.Exit(reply.String(), 1)
			}
			_, err = c.App.Writer.Write([]byte(reply.String() + "\n"))
		} else {
			err = f.Format(c.App.Writer, newReplyView(reply))
		}
		if err == nil && reply.Kind == redisserver.ReplyError {
			return cli.Exit("", 1)
		}
		return err
	}
}

func isTable(f output.Formatter) bool {
	_, ok := f.(*output.TableFormatter)
	return ok
}
