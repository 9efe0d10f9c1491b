package client

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
)

// LoadCAPool reads a PEM CA certificate, such as the one written by
// tools/certgen, into a certificate pool.
func LoadCAPool(caPath string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	return caPool, nil
}

// NewTLSHTTPClient returns an HTTP client whose only trusted root is the
// CA at caPath.
func NewTLSHTTPClient(caPath string) (*http.Client, error) {
	caPool, err := LoadCAPool(caPath)
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		RootCAs:    caPool,
		MinVersion: tls.VersionTLS12,
	}
	return &http.Client{Transport: transport, Timeout: defaultTimeout}, nil
}
