package localserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// commandTimeout bounds reading the command and writing the reply.
	commandTimeout = 10 * time.Second

	maxCommandLen = 1024
)

// Server represents the local admin server.
type Server struct {
	path    string
	handler *Handler
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup
}

// New creates a new local server. logger may be nil.
func New(socketPath string, handler *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		path:    socketPath,
		handler: handler,
		logger:  logger,
	}
}

// Start listens on the socket and serves in the background. A stale
// socket file left by a previous process is removed first.
func (s *Server) Start() error {
	if err := removeStale(s.path); err != nil {
		return err
	}
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("localserver: listen %s: %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("localserver: chmod %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.running.Store(true)

	s.logger.Info("admin socket listening", "path", s.path)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ln); err != nil {
			s.logger.Error("admin socket error", "error", err)
		}
	}()
	return nil
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

func (s *Server) acceptLoop(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// Shutdown closes the listener, which also unlinks the socket file, and
// waits for in-flight commands or ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var closeErr error
	s.mu.Lock()
	if s.listener != nil {
		closeErr = s.listener.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(commandTimeout))

	line, err := bufio.NewReader(io.LimitReader(conn, maxCommandLen)).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		s.logger.Debug("admin command read error", "error", err)
		return
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		_ = replyErr(conn, "empty command")
		return
	}

	s.logger.Info("admin command", "command", fields[0])
	if err := s.handler.Execute(conn, fields[0], fields[1:]); err != nil {
		s.logger.Debug("admin reply write error", "error", err)
	}
}

// removeStale deletes path if it is a socket. Anything else at path is an
// error so a misconfigured path never clobbers a regular file.
func removeStale(path string) error {
	fi, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("localserver: stat %s: %w", path, err)
	}
	if fi.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("localserver: %s exists and is not a socket", path)
	}
	return os.Remove(path)
}
