package tlsroots

import (
	"crypto/x509"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yndnr/minikv/internal/infra/tlsroots/tlstest"
)

func TestLoadPool(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := tlstest.WriteSelfSigned(t, dir, "minikv-test")

	garbage := filepath.Join(dir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not pem"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		caFile  string
		wantErr error
	}{
		{"system roots", "", nil},
		{"ca bundle", certFile, nil},
		{"key only", keyFile, ErrNoCertsFound},
		{"not pem", garbage, ErrNoCertsFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := LoadPool(tt.caFile)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("LoadPool() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && pool == nil {
				t.Error("LoadPool() returned nil pool")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadPool(filepath.Join(dir, "nope.pem")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestAppendPEM_InvalidCertificate(t *testing.T) {
	data := []byte("-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n")
	err := AppendPEM(x509.NewCertPool(), data)
	if !errors.Is(err, ErrInvalidPEM) {
		t.Errorf("AppendPEM() error = %v, want ErrInvalidPEM", err)
	}
}

func TestClientConfig(t *testing.T) {
	certFile, _ := tlstest.WriteSelfSigned(t, t.TempDir(), "minikv-test")

	cfg, err := ClientConfig(certFile, "localhost", false)
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	if cfg.RootCAs == nil {
		t.Error("RootCAs not set")
	}
	if cfg.ServerName != "localhost" {
		t.Errorf("ServerName = %q", cfg.ServerName)
	}
	if cfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify should be false")
	}

	if _, err := ClientConfig("/nonexistent/ca.pem", "", false); err == nil {
		t.Error("expected error for missing CA file")
	}
}
