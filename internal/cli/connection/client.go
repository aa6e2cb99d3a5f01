package connection

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/yndnr/minikv/internal/server/redisserver"
)

// DefaultTimeout bounds dialing and each request when no timeout is given.
const DefaultTimeout = 5 * time.Second

// ServerError is an error reply returned by the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// ErrUnexpectedReply is returned when a reply has the wrong type for the
// command that produced it.
var ErrUnexpectedReply = errors.New("connection: unexpected reply type")

// Client is a RESP client bound to one server connection.
// It is safe for concurrent use; requests are serialized.
type Client struct {
	addr    string
	timeout time.Duration
	tls     *tls.Config

	mu   sync.Mutex
	conn net.Conn
	buf  []byte
	out  []byte
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the dial and per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTLS dials with TLS using cfg.
func WithTLS(cfg *tls.Config) Option {
	return func(c *Client) {
		c.tls = cfg
	}
}

// Dial connects to a minikv server.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	c := &Client{
		addr:    addr,
		timeout: DefaultTimeout,
		buf:     make([]byte, 0, 4096),
	}
	for _, opt := range opts {
		opt(c)
	}

	var (
		conn net.Conn
		err  error
	)
	d := &net.Dialer{Timeout: c.timeout}
	if c.tls != nil {
		td := tls.Dialer{NetDialer: d, Config: c.tls}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c.conn = conn
	return c, nil
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Do sends one command and returns its reply. Error replies are returned as
// a Reply of kind ReplyError, not as a Go error.
func (c *Client) Do(ctx context.Context, args ...[]byte) (redisserver.Reply, error) {
	replies, err := c.Pipeline(ctx, [][][]byte{args})
	if err != nil {
		return redisserver.Reply{}, err
	}
	return replies[0], nil
}

// DoStrings is Do with string arguments.
func (c *Client) DoStrings(ctx context.Context, args ...string) (redisserver.Reply, error) {
	b := make([][]byte, len(args))
	for i, a := range args {
		b[i] = []byte(a)
	}
	return c.Do(ctx, b...)
}

// Pipeline writes all commands in one batch and reads one reply per command.
func (c *Client) Pipeline(ctx context.Context, cmds [][][]byte) ([]redisserver.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, net.ErrClosed
	}
	if err := c.conn.SetDeadline(c.deadline(ctx)); err != nil {
		return nil, err
	}

	c.out = c.out[:0]
	for _, args := range cmds {
		c.out = redisserver.AppendCommand(c.out, args...)
	}
	if _, err := c.conn.Write(c.out); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	replies := make([]redisserver.Reply, 0, len(cmds))
	for len(replies) < len(cmds) {
		r, err := c.readReply()
		if err != nil {
			return nil, err
		}
		replies = append(replies, r)
	}
	return replies, nil
}

func (c *Client) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(d) {
		return dl
	}
	return d
}

// readReply decodes one reply, reading from the socket until it is complete.
func (c *Client) readReply() (redisserver.Reply, error) {
	for {
		r, n, err := redisserver.DecodeReply(c.buf)
		if err == nil {
			// Detach from the read buffer before it is compacted.
			r.Str = append([]byte(nil), r.Str...)
			rest := copy(c.buf, c.buf[n:])
			c.buf = c.buf[:rest]
			return r, nil
		}
		if !errors.Is(err, redisserver.ErrNeedMoreData) {
			return redisserver.Reply{}, fmt.Errorf("read reply: %w", err)
		}

		if cap(c.buf)-len(c.buf) < 1024 {
			grown := make([]byte, len(c.buf), 2*cap(c.buf)+1024)
			copy(grown, c.buf)
			c.buf = grown
		}
		n, err = c.conn.Read(c.buf[len(c.buf):cap(c.buf)])
		c.buf = c.buf[:len(c.buf)+n]
		if err != nil && n == 0 {
			return redisserver.Reply{}, fmt.Errorf("read: %w", err)
		}
	}
}

// ============================================================
// Typed helpers
// ============================================================

// Set stores value under key.
func (c *Client) Set(ctx context.Context, key, value []byte) error {
	r, err := c.Do(ctx, []byte("SET"), key, value)
	if err != nil {
		return err
	}
	if err := replyError(r); err != nil {
		return err
	}
	if r.Kind != redisserver.ReplySimple {
		return ErrUnexpectedReply
	}
	return nil
}

// Get returns the value of key. ok is false when the key does not exist.
func (c *Client) Get(ctx context.Context, key []byte) (value []byte, ok bool, err error) {
	r, err := c.Do(ctx, []byte("GET"), key)
	if err != nil {
		return nil, false, err
	}
	if err := replyError(r); err != nil {
		return nil, false, err
	}
	switch r.Kind {
	case redisserver.ReplyNull:
		return nil, false, nil
	case redisserver.ReplyBulk:
		return r.Str, true, nil
	default:
		return nil, false, ErrUnexpectedReply
	}
}

// Del deletes key and returns the number of keys removed.
func (c *Client) Del(ctx context.Context, key []byte) (int64, error) {
	return c.integer(ctx, []byte("DEL"), key)
}

// Incr increments the integer stored at key and returns the new value.
func (c *Client) Incr(ctx context.Context, key []byte) (int64, error) {
	return c.integer(ctx, []byte("INCR"), key)
}

func (c *Client) integer(ctx context.Context, args ...[]byte) (int64, error) {
	r, err := c.Do(ctx, args...)
	if err != nil {
		return 0, err
	}
	if err := replyError(r); err != nil {
		return 0, err
	}
	if r.Kind != redisserver.ReplyInteger {
		return 0, fmt.Errorf("%w: %s", ErrUnexpectedReply, strconv.Quote(r.String()))
	}
	return r.Int, nil
}

func replyError(r redisserver.Reply) error {
	if r.Kind == redisserver.ReplyError {
		return &ServerError{Message: string(r.Str)}
	}
	return nil
}
