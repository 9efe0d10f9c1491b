package main

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"

	"github.com/atinyakov/PodStudio/internal/certgen"
)

func TestRun_WritesUsableFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	if err := run(dir, []string{"localhost", "127.0.0.1"}); err != nil {
		t.Fatalf("run error: %v", err)
	}

	for _, name := range []string{"ca.crt", "ca.key", "server.crt", "server.key"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}

	info, err := os.Stat(filepath.Join(dir, "server.key"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("server.key permissions = %o; want 600", perm)
	}

	verifyServerCert(t, dir)
}

// verifyServerCert checks that server.crt in dir chains to ca.crt in dir.
func verifyServerCert(t *testing.T, dir string) {
	t.Helper()
	pair, err := tls.LoadX509KeyPair(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"))
	if err != nil {
		t.Fatalf("server key pair: %v", err)
	}
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		t.Fatal(err)
	}

	caCert, _, err := certgen.LoadCACredentials(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	if err != nil {
		t.Fatalf("LoadCACredentials: %v", err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(caCert)
	if _, err := leaf.Verify(x509.VerifyOptions{DNSName: "127.0.0.1", Roots: pool}); err != nil {
		t.Errorf("server certificate does not verify for 127.0.0.1: %v", err)
	}
}

func TestRun_ReusesExistingCA(t *testing.T) {
	dir := t.TempDir()
	if err := run(dir, []string{"127.0.0.1"}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	caBefore, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	if err != nil {
		t.Fatal(err)
	}
	serverBefore, err := os.ReadFile(filepath.Join(dir, "server.crt"))
	if err != nil {
		t.Fatal(err)
	}

	if err := run(dir, []string{"127.0.0.1"}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	caAfter, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	if err != nil {
		t.Fatal(err)
	}
	serverAfter, err := os.ReadFile(filepath.Join(dir, "server.crt"))
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(caBefore, caAfter) {
		t.Error("ca.crt was regenerated")
	}
	if bytes.Equal(serverBefore, serverAfter) {
		t.Error("server.crt was not reissued")
	}
	verifyServerCert(t, dir)
}

func TestRun_LoneCAFileIsError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ca.crt"), []byte("keep me"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run(dir, []string{"127.0.0.1"}); err == nil {
		t.Error("expected error with ca.crt but no ca.key")
	}
	data, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "keep me" {
		t.Error("ca.crt was overwritten")
	}
}

func TestRun_NoHosts(t *testing.T) {
	if err := run(t.TempDir(), nil); err == nil {
		t.Error("expected error without hosts")
	}
}
