package localserver

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// socketPath returns a short path; Unix socket paths are limited to about
// 100 bytes and t.TempDir can exceed that.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "mkv")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "admin.sock")
}

func startTestServer(t *testing.T, h *Handler) *Server {
	t.Helper()
	s := New(socketPath(t), h, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func call(t *testing.T, path, line string) string {
	t.Helper()
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := io.WriteString(conn, line); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.(*net.UnixConn).CloseWrite()
	out, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(out)
}

func TestServer_Commands(t *testing.T) {
	s := startTestServer(t, &Handler{
		Status: func() Status { return Status{Version: "dev", Keys: 7} },
		Reload: func() error { return nil },
	})

	tests := []struct {
		name string
		line string
		want string
	}{
		{"status", "status\n", `"keys":7`},
		{"reload", "reload\n", "OK\n"},
		{"no newline", "reload", "OK\n"},
		{"crlf", "reload\r\n", "OK\n"},
		{"empty", "\n", "ERR empty command\n"},
		{"unknown", "flushall\n", "ERR unknown command 'flushall'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, s.Path(), tt.line)
			if !strings.Contains(got, tt.want) {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServer_SocketPermissions(t *testing.T) {
	s := startTestServer(t, &Handler{})

	fi, err := os.Stat(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0o600 {
		t.Errorf("socket mode = %o, want 600", perm)
	}
}

func TestServer_Shutdown(t *testing.T) {
	var once sync.Once
	triggered := make(chan struct{})
	s := startTestServer(t, &Handler{Shutdown: func() { once.Do(func() { close(triggered) }) }})

	if got := call(t, s.Path(), "shutdown\n"); got != "OK\n" {
		t.Errorf("reply = %q", got)
	}
	select {
	case <-triggered:
	case <-time.After(time.Second):
		t.Fatal("shutdown callback not called")
	}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("socket file still present: %v", err)
	}
	if _, err := net.Dial("unix", s.Path()); err == nil {
		t.Error("still accepting after Shutdown")
	}
}

func TestServer_RemovesStaleSocket(t *testing.T) {
	path := socketPath(t)

	// A listener whose file is left behind, as after a crash.
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	ln.Close()

	s := New(path, &Handler{Reload: func() error { return nil }}, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() with stale socket error = %v", err)
	}
	defer s.Shutdown(context.Background())

	if got := call(t, path, "reload\n"); got != "OK\n" {
		t.Errorf("reply = %q", got)
	}
}

func TestServer_RefusesRegularFile(t *testing.T) {
	path := socketPath(t)
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(path, &Handler{}, nil)
	if err := s.Start(); err == nil {
		_ = s.Shutdown(context.Background())
		t.Fatal("Start() should refuse to replace a regular file")
	}
	if data, _ := os.ReadFile(path); string(data) != "data" {
		t.Error("regular file was modified")
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	s := New(socketPath(t), &Handler{}, nil)
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
