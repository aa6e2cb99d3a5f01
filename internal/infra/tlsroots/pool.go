package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoCertsFound is returned when a PEM bundle holds no certificates.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

	// ErrInvalidPEM is returned when a bundle cannot be decoded.
	ErrInvalidPEM = errors.New("tlsroots: invalid PEM data")
)

// LoadPool returns the system roots when caFile is empty, otherwise a pool
// holding only the certificates in caFile.
func LoadPool(caFile string) (*x509.CertPool, error) {
	if caFile == "" {
		pool, err := x509.SystemCertPool()
		if err != nil {
			return x509.NewCertPool(), nil
		}
		return pool, nil
	}

	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: read ca file %s: %w", caFile, err)
	}
	pool := x509.NewCertPool()
	if err := AppendPEM(pool, data); err != nil {
		return nil, fmt.Errorf("%w (%s)", err, caFile)
	}
	return pool, nil
}

// AppendPEM adds every CERTIFICATE block of data to pool. Other block
// types are skipped.
func AppendPEM(pool *x509.CertPool, data []byte) error {
	added := 0
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPEM, err)
		}
		pool.AddCert(cert)
		added++
	}
	if added == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// ClientConfig builds the client TLS configuration used by minikv-cli.
// serverName overrides the name checked against the server certificate.
func ClientConfig(caFile, serverName string, insecureSkipVerify bool) (*tls.Config, error) {
	pool, err := LoadPool(caFile)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		RootCAs:            pool,
		ServerName:         serverName,
		InsecureSkipVerify: insecureSkipVerify, //nolint:gosec // opt-in via --insecure
	}, nil
}
