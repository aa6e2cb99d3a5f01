package redisserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/minikv/internal/storage"
	"github.com/yndnr/minikv/internal/telemetry/metric"
	"github.com/yndnr/minikv/pkg/cmap"
)

// Config holds the RESP server configuration.
type Config struct {
	// Address is the TCP listen address.
	Address string
	// MaxArrayLen limits the number of arguments in one request.
	MaxArrayLen int
	// MaxBulkLen limits the size of one argument.
	MaxBulkLen int
	// ReadBufferSize is the initial per-connection read buffer size.
	// The buffer grows as needed to hold one complete frame.
	ReadBufferSize int
	// IdleTimeout closes connections that send nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration
	// WriteTimeout bounds each reply flush. Zero disables it.
	WriteTimeout time.Duration
	// RateLimit is the maximum number of commands per second per connection.
	// Set to 0 to disable rate limiting.
	RateLimit int
	// TLSConfig, when set, makes Start serve RESP over TLS.
	TLSConfig *tls.Config
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:        "127.0.0.1:6379",
		MaxArrayLen:    DefaultMaxArrayLen,
		MaxBulkLen:     DefaultMaxBulkLen,
		ReadBufferSize: 16 * 1024,
		IdleTimeout:    0,
		WriteTimeout:   0,
		RateLimit:      0,
	}
}

// Server represents the RESP server.
type Server struct {
	cfg     *Config
	engine  *storage.Engine
	handler *CommandHandler
	decoder Decoder
	metrics *metric.Registry
	logger  *slog.Logger

	mu      sync.Mutex
	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup
	conns   *cmap.Map[*Conn]
}

// Conn represents a single client connection.
type Conn struct {
	id      string
	netConn net.Conn
	limiter *rate.Limiter

	// in holds received bytes not yet decoded; out holds pending replies.
	in  []byte
	out []byte

	closed atomic.Bool
}

func newConn(c net.Conn, bufSize int, rateLimit int) *Conn {
	conn := &Conn{
		id:      ulid.Make().String(),
		netConn: c,
		in:      make([]byte, 0, bufSize),
	}
	if rateLimit > 0 {
		conn.limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	}
	return conn
}

// ID returns the connection ID.
func (c *Conn) ID() string {
	return c.id
}

// Close closes the underlying socket. It is safe to call more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// New creates a new RESP server. metrics and logger may be nil.
func New(cfg *Config, engine *storage.Engine, metrics *metric.Registry, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		cfg:     cfg,
		engine:  engine,
		handler: NewCommandHandler(engine, metrics),
		decoder: Decoder{
			MaxArrayLen: cfg.MaxArrayLen,
			MaxBulkLen:  cfg.MaxBulkLen,
			MaxLineLen:  DefaultMaxLineLen,
		},
		metrics: metrics,
		logger:  logger,
		conns:   cmap.New[*Conn](),
	}
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("redisserver: listen %s: %w", s.cfg.Address, err)
	}
	if s.cfg.TLSConfig != nil {
		ln = tls.NewListener(ln, s.cfg.TLSConfig)
	}
	s.logger.Info("starting redis server", "address", ln.Addr().String(), "tls", s.cfg.TLSConfig != nil)

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Serve(ctx, ln); err != nil {
			s.logger.Error("redis server error", "error", err)
		}
	}()
	return nil
}

// Serve accepts connections on ln until it is closed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	return s.acceptLoop(ctx, ln)
}

// Addr returns the listen address, or nil before the server is listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool {
	return s.running.Load()
}

// ActiveConns returns the number of open client connections.
func (s *Server) ActiveConns() int {
	return s.conns.Count()
}

// Shutdown closes the listener and all client connections, then waits for
// connection workers to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error

	s.mu.Lock()
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	s.mu.Unlock()

	s.conns.Range(func(_ string, c *Conn) bool {
		_ = c.Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Warn("accept error", "error", err)
				continue
			}
			return err
		}

		conn := newConn(c, s.readBufferSize(), s.cfg.RateLimit)
		s.conns.Set(conn.id, conn)
		if !s.running.Load() {
			// Shutdown raced with Accept and may have missed this conn.
			s.conns.Delete(conn.id)
			_ = conn.Close()
			return nil
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) readBufferSize() int {
	if s.cfg.ReadBufferSize > 0 {
		return s.cfg.ReadBufferSize
	}
	return DefaultConfig().ReadBufferSize
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	log := s.logger.With("conn_id", c.id, "remote", c.RemoteAddr().String())

	s.metrics.ConnOpened()
	log.Debug("connection accepted")

	defer func() {
		if r := recover(); r != nil {
			log.Error("connection worker panic", "panic", r, "stack", string(debug.Stack()))
		}
		s.conns.Delete(c.id)
		_ = c.Close()
		s.metrics.ConnClosed()
		log.Debug("connection closed")
	}()

	minRead := s.readBufferSize()
	_ = ctx // cancellation is driven by Shutdown closing the socket

	for {
		if s.cfg.IdleTimeout > 0 {
			if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				return
			}
		}

		c.in = ensureSpace(c.in, minRead)
		n, readErr := c.netConn.Read(c.in[len(c.in):cap(c.in)])
		c.in = c.in[:len(c.in)+n]

		if n > 0 {
			if closeConn := s.process(c, log); closeConn {
				return
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, net.ErrClosed) {
				return
			}
			var netErr net.Error
			if errors.As(readErr, &netErr) && netErr.Timeout() {
				log.Debug("connection idle timeout")
				return
			}
			log.Debug("connection read error", "error", readErr)
			return
		}
	}
}

// process decodes and executes every complete frame in c.in and writes the
// replies. Pending replies are flushed whenever they pass flushThreshold, so
// a pipelined burst never buffers more than one large reply at a time. It
// reports whether the connection must be closed.
func (s *Server) process(c *Conn, log *slog.Logger) bool {
	consumed := 0
	protoErr := error(nil)

	for {
		args, n, err := s.decoder.Decode(c.in[consumed:])
		if errors.Is(err, ErrNeedMoreData) {
			break
		}
		if err != nil {
			protoErr = err
			break
		}
		consumed += n
		if len(args) == 0 {
			continue
		}
		if log.Enabled(context.Background(), slog.LevelDebug) {
			logCommand(log, args)
		}
		c.out = s.handler.Handle(c, c.out, args)
		if len(c.out) >= flushThreshold {
			if err := s.flush(c); err != nil {
				log.Debug("connection write error", "error", err)
				return true
			}
		}
	}

	if protoErr != nil {
		s.metrics.IncProtocolErrors()
		if errors.Is(protoErr, ErrLimitExceeded) {
			log.Warn("protocol limit exceeded", "error", protoErr)
		} else {
			log.Debug("protocol error", "error", protoErr)
		}
		c.out = AppendReply(c.out, Error("Protocol error: "+protocolDetail(protoErr)))
		_ = s.flush(c)
		return true
	}

	// Keep the undecoded tail at the front of the buffer.
	remaining := copy(c.in, c.in[consumed:])
	c.in = c.in[:remaining]
	if cap(c.in) > shrinkThreshold && remaining < cap(c.in)/4 {
		c.in = append(make([]byte, 0, s.readBufferSize()+remaining), c.in...)
	}

	if err := s.flush(c); err != nil {
		log.Debug("connection write error", "error", err)
		return true
	}
	if cap(c.out) > shrinkThreshold {
		c.out = nil
	}
	return false
}

// logCommand logs a request at debug level. The logger replaces the value
// attribute with its size.
func logCommand(log *slog.Logger, args [][]byte) {
	attrs := []any{"cmd", strings.ToUpper(string(args[0]))}
	if len(args) > 1 {
		attrs = append(attrs, "key", string(args[1]))
	}
	if len(args) > 2 {
		attrs = append(attrs, "value", args[2])
	}
	log.Debug("command", attrs...)
}

const (
	// flushThreshold is the amount of pending reply data that is written out
	// before the next pipelined frame is executed.
	flushThreshold = 64 << 10

	// shrinkThreshold is the buffer capacity above which an almost empty
	// read buffer, or a flushed reply buffer, is released after a large frame.
	shrinkThreshold = 1 << 20
)

func (s *Server) flush(c *Conn) error {
	if len(c.out) == 0 {
		return nil
	}
	if s.cfg.WriteTimeout > 0 {
		if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	_, err := c.netConn.Write(c.out)
	c.out = c.out[:0]
	return err
}

// ensureSpace returns buf with at least n bytes of spare capacity.
func ensureSpace(buf []byte, n int) []byte {
	if cap(buf)-len(buf) >= n {
		return buf
	}
	size := 2 * cap(buf)
	if size < len(buf)+n {
		size = len(buf) + n
	}
	grown := make([]byte, len(buf), size)
	copy(grown, buf)
	return grown
}

// protocolDetail strips the package prefix from a decoder error.
func protocolDetail(err error) string {
	msg := err.Error()
	msg = strings.TrimPrefix(msg, ErrProtocol.Error()+": ")
	return strings.TrimPrefix(msg, ErrLimitExceeded.Error()+": ")
}
