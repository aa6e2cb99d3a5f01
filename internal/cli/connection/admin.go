package connection

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Admin sends one command to a local admin socket and returns the reply.
// An "ERR" reply is returned as a *ServerError.
func Admin(ctx context.Context, socket, command string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", socket, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	if _, err := io.WriteString(conn, command+"\n"); err != nil {
		return "", err
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		return "", err
	}

	reply := string(data)
	if msg, ok := strings.CutPrefix(reply, "ERR "); ok {
		return "", &ServerError{Message: strings.TrimSpace(msg)}
	}
	return reply, nil
}
