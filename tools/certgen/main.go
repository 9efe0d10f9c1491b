// Package main generates a development Certificate Authority (CA) and a
// server certificate for HTTPS, writing them under the "certs" directory.
// An existing CA in that directory is reused.
//
// Start the server with -tls-cert certs/server.crt -tls-key certs/server.key
// and point the CLI at certs/ca.crt with --ca.
package main

import (
	"crypto"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/PodStudio/internal/certgen"
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma separated server host names and IPs")
	flag.Parse()

	if err := run(*dir, strings.Split(*hosts, ",")); err != nil {
		fmt.Fprintf(os.Stderr, "certgen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Certificates generated into ./%s\n", *dir)
}

// run writes server.crt and server.key into dir, signed by the CA in
// ca.crt and ca.key. The CA is created on the first run and reused after.
func run(dir string, hosts []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	caCert, caKey, err := loadOrCreateCA(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	if err != nil {
		return err
	}

	serverPEM, serverKeyPEM, err := certgen.GenerateServerCertificate(hosts, caCert, caKey, 365*24*time.Hour)
	if err != nil {
		return err
	}
	return writeCertAndKey(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"), serverPEM, serverKeyPEM)
}

// loadOrCreateCA returns the CA stored at certPath and keyPath, creating
// both files when neither exists. A lone cert or key is an error.
func loadOrCreateCA(certPath, keyPath string) (*x509.Certificate, crypto.Signer, error) {
	certExists, err := exists(certPath)
	if err != nil {
		return nil, nil, err
	}
	keyExists, err := exists(keyPath)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case certExists && keyExists:
		return certgen.LoadCACredentials(certPath, keyPath)
	case certExists || keyExists:
		return nil, nil, fmt.Errorf("found only one of %s and %s", certPath, keyPath)
	}

	caPEM, caKeyPEM, err := certgen.GenerateCA("PodStudio Dev CA", 10*365*24*time.Hour)
	if err != nil {
		return nil, nil, err
	}
	if err := writeCertAndKey(certPath, keyPath, caPEM, caKeyPEM); err != nil {
		return nil, nil, err
	}
	return certgen.ParseCA(caPEM, caKeyPEM)
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// writeCertAndKey writes the PEM certificate world-readable and the key owner-only.
func writeCertAndKey(certPath, keyPath string, certPEM, keyPEM []byte) error {
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", certPath, err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", keyPath, err)
	}
	return nil
}
