package localserver

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Status is the reply to the status command.
type Status struct {
	Version     string `json:"version"`
	Addr        string `json:"addr"`
	Uptime      string `json:"uptime"`
	Keys        int    `json:"keys"`
	Connections int    `json:"connections"`
}

// Handler executes admin commands. Nil funcs make their command fail.
type Handler struct {
	Status   func() Status
	Reload   func() error
	Shutdown func()
}

// Commands lists the accepted admin commands.
var Commands = []string{"status", "reload", "shutdown", "help"}

// Execute runs cmd and writes the reply to w. Replies other than status and
// help are a single "OK" or "ERR <message>" line.
func (h *Handler) Execute(w io.Writer, cmd string, args []string) error {
	name := strings.ToLower(cmd)
	if !slices.Contains(Commands, name) {
		return replyErr(w, fmt.Sprintf("unknown command '%s'", cmd))
	}
	if len(args) > 0 {
		return replyErr(w, fmt.Sprintf("%s takes no arguments", name))
	}
	switch name {
	case "status":
		return h.handleStatus(w)
	case "reload":
		return h.handleReload(w)
	case "shutdown":
		return h.handleShutdown(w)
	default:
		_, err := fmt.Fprintln(w, strings.Join(Commands, " "))
		return err
	}
}

func (h *Handler) handleStatus(w io.Writer) error {
	if h.Status == nil {
		return replyErr(w, "status unavailable")
	}
	return json.NewEncoder(w).Encode(h.Status())
}

func (h *Handler) handleReload(w io.Writer) error {
	if h.Reload == nil {
		return replyErr(w, "reload unavailable")
	}
	if err := h.Reload(); err != nil {
		return replyErr(w, err.Error())
	}
	return replyOK(w)
}

func (h *Handler) handleShutdown(w io.Writer) error {
	if h.Shutdown == nil {
		return replyErr(w, "shutdown unavailable")
	}
	if err := replyOK(w); err != nil {
		return err
	}
	h.Shutdown()
	return nil
}

func replyOK(w io.Writer) error {
	_, err := io.WriteString(w, "OK\n")
	return err
}

func replyErr(w io.Writer, msg string) error {
	_, err := fmt.Fprintf(w, "ERR %s\n", msg)
	return err
}
