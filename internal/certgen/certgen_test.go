package certgen

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func parseCertPEM(t *testing.T, certPEM []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatalf("invalid certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert
}

func TestGenerateCA(t *testing.T) {
	certPEM, keyPEM, err := GenerateCA("PodStudio Dev CA", 24*time.Hour)
	if err != nil {
		t.Fatalf("GenerateCA error: %v", err)
	}

	cert := parseCertPEM(t, certPEM)
	if !cert.IsCA || !cert.BasicConstraintsValid {
		t.Error("CA certificate should have IsCA and BasicConstraintsValid set")
	}
	if cert.KeyUsage&x509.KeyUsageCertSign == 0 {
		t.Errorf("CA KeyUsage = %v; want CertSign", cert.KeyUsage)
	}
	if cert.Subject.CommonName != "PodStudio Dev CA" {
		t.Errorf("CommonName = %q", cert.Subject.CommonName)
	}
	if err := cert.CheckSignatureFrom(cert); err != nil {
		t.Errorf("CA is not self-signed: %v", err)
	}

	if _, _, err := ParseCA(certPEM, keyPEM); err != nil {
		t.Errorf("ParseCA of generated CA: %v", err)
	}
}

func TestLoadCACredentials_Success(t *testing.T) {
	certPEM, keyPEM, err := GenerateCA("Test CA", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	certPath := filepath.Join(dir, "ca.crt")
	keyPath := filepath.Join(dir, "ca.key")
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		t.Fatal(err)
	}

	caCert, caKey, err := LoadCACredentials(certPath, keyPath)
	if err != nil {
		t.Fatalf("LoadCACredentials error: %v", err)
	}
	if caCert.Subject.CommonName != "Test CA" || caKey == nil {
		t.Errorf("unexpected credentials: %v %v", caCert.Subject, caKey)
	}
}

func TestLoadCACredentials_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not pem"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, cert, key, want string
	}{
		{"missing cert", filepath.Join(dir, "nope.crt"), garbage, "read ca cert"},
		{"missing key", garbage, filepath.Join(dir, "nope.key"), "read ca key"},
		{"bad cert", garbage, garbage, "invalid CA cert PEM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadCACredentials(tt.cert, tt.key)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v; want containing %q", err, tt.want)
			}
		})
	}
}

func TestParseCA_RejectsLeafCertificate(t *testing.T) {
	caPEM, caKeyPEM, err := GenerateCA("Test CA", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	caCert, caKey, err := ParseCA(caPEM, caKeyPEM)
	if err != nil {
		t.Fatal(err)
	}
	leafPEM, leafKeyPEM, err := GenerateServerCertificate([]string{"localhost"}, caCert, caKey, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := ParseCA(leafPEM, leafKeyPEM); err == nil {
		t.Error("expected a non-CA certificate to be rejected")
	}
}

func TestGenerateServerCertificate(t *testing.T) {
	caPEM, caKeyPEM, err := GenerateCA("Test CA", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	caCert, caKey, err := ParseCA(caPEM, caKeyPEM)
	if err != nil {
		t.Fatal(err)
	}

	certPEM, keyPEM, err := GenerateServerCertificate([]string{"localhost", "127.0.0.1", " api.local "}, caCert, caKey, 48*time.Hour)
	if err != nil {
		t.Fatalf("GenerateServerCertificate error: %v", err)
	}

	cert := parseCertPEM(t, certPEM)
	if cert.Subject.CommonName != "localhost" {
		t.Errorf("CommonName = %q; want localhost", cert.Subject.CommonName)
	}
	if len(cert.DNSNames) != 2 || cert.DNSNames[1] != "api.local" {
		t.Errorf("DNSNames = %v", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 || cert.IPAddresses[0].String() != "127.0.0.1" {
		t.Errorf("IPAddresses = %v", cert.IPAddresses)
	}

	pool := x509.NewCertPool()
	pool.AddCert(caCert)
	if _, err := cert.Verify(x509.VerifyOptions{DNSName: "localhost", Roots: pool}); err != nil {
		t.Errorf("server certificate does not verify against the CA: %v", err)
	}

	if _, err := tls.X509KeyPair(certPEM, keyPEM); err != nil {
		t.Errorf("certificate and key do not form a pair: %v", err)
	}

	if _, _, err := GenerateServerCertificate(nil, caCert, caKey, time.Hour); err == nil {
		t.Error("expected error for empty host list")
	}
}
