package repl

import (
	"sort"
	"strings"
)

// CommandInfo describes a server command for help and suggestions.
type CommandInfo struct {
	Name  string
	Args  string
	Usage string
}

// Commands lists what the server understands, plus local REPL commands.
var Commands = []CommandInfo{
	{Name: "SET", Args: "key value", Usage: "Set the string value of a key"},
	{Name: "GET", Args: "key", Usage: "Get the value of a key"},
	{Name: "DEL", Args: "key", Usage: "Delete a key"},
	{Name: "INCR", Args: "key", Usage: "Increment the integer value of a key by one"},
	{Name: "help", Usage: "Show this help"},
	{Name: "exit", Usage: "Leave interactive mode (also quit)"},
}

// Completer provides command completion and suggestions.
type Completer struct {
	commands []string
}

// NewCompleter creates a new Completer.
func NewCompleter() *Completer {
	names := make([]string, 0, len(Commands)+1)
	for _, c := range Commands {
		names = append(names, c.Name)
	}
	names = append(names, "quit")
	sort.Strings(names)
	return &Completer{commands: names}
}

// Complete returns the commands starting with prefix. Matching ignores case
// so "in" completes to INCR.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if len(cmd) >= len(prefix) && strings.EqualFold(cmd[:len(prefix)], prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Suggest returns the command name that equals name ignoring case, or "".
// Server command names are case-sensitive, so "set" is rejected there.
func (c *Completer) Suggest(name string) string {
	for _, cmd := range c.commands {
		if cmd != name && strings.EqualFold(cmd, name) {
			return cmd
		}
	}
	return ""
}
