package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yndnr/minikv/internal/server/redisserver"
)

// Executor sends one command to the server.
type Executor interface {
	Do(ctx context.Context, args ...[]byte) (redisserver.Reply, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	exec      Executor
	prompt    string
	input     io.Reader
	output    io.Writer
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// WithPrompt sets the prompt, usually the server address.
func WithPrompt(prompt string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// New creates a new REPL instance.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		exec:      exec,
		prompt:    "minikv",
		input:     os.Stdin,
		output:    os.Stdout,
		completer: NewCompleter(),
		history:   NewHistory("", DefaultHistorySize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the REPL loop. It returns nil on exit, quit or end of input,
// and the error when the connection to the server fails.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: save history: %v\n", err)
		}
	}()

	reader := bufio.NewReader(r.input)
	for {
		fmt.Fprintf(r.output, "%s> ", r.prompt)

		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		switch strings.ToLower(line) {
		case "exit", "quit":
			return nil
		case "help":
			r.printHelp()
			continue
		}

		if execErr := r.execute(ctx, line); execErr != nil {
			return execErr
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// execute runs one line. Only connection failures are returned.
func (r *REPL) execute(ctx context.Context, line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		fmt.Fprintf(r.output, "(error) %v\n", err)
		return nil
	}

	reply, err := r.exec.Do(ctx, args...)
	if err != nil {
		return fmt.Errorf("connection lost: %w", err)
	}
	fmt.Fprintln(r.output, reply.String())

	if reply.Kind == redisserver.ReplyError && strings.HasPrefix(string(reply.Str), "ERR unknown command") {
		if s := r.completer.Suggest(string(args[0])); s != "" {
			fmt.Fprintf(r.output, "hint: commands are case-sensitive, try %s\n", s)
		}
	}
	return nil
}

func (r *REPL) printHelp() {
	for _, c := range Commands {
		usage := c.Name
		if c.Args != "" {
			usage += " " + c.Args
		}
		fmt.Fprintf(r.output, "  %-16s %s\n", usage, c.Usage)
	}
}
