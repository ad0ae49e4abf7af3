package transport

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

func newHostKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	key, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

var deviceAddr = &net.TCPAddr{IP: net.ParseIP("10.1.1.2"), Port: 830}

const deviceHostname = "10.1.1.2:830"

func TestHostKeyPolicy_Validate(t *testing.T) {
	for _, p := range []HostKeyPolicy{HostKeyInsecureAccept, HostKeyAcceptNew, HostKeyStrict} {
		if err := p.Validate(); err != nil {
			t.Errorf("Validate(%q) = %v", p, err)
		}
	}
	if err := HostKeyPolicy("yes").Validate(); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestHostKeyCallback_InsecureAccept(t *testing.T) {
	cb, err := HostKeyCallback(HostKeyInsecureAccept, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := cb(deviceHostname, deviceAddr, newHostKey(t)); err != nil {
		t.Errorf("insecure-accept rejected a key: %v", err)
	}
}

func TestHostKeyCallback_RequiresFile(t *testing.T) {
	for _, p := range []HostKeyPolicy{HostKeyAcceptNew, HostKeyStrict} {
		if _, err := HostKeyCallback(p, ""); err == nil {
			t.Errorf("%s without known hosts file: expected error", p)
		}
	}
}

func TestHostKeyCallback_AcceptNewRecordsKey(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ssh", "known_hosts")
	cb, err := HostKeyCallback(HostKeyAcceptNew, file)
	if err != nil {
		t.Fatal(err)
	}
	key := newHostKey(t)

	// unknown host is recorded
	if err := cb(deviceHostname, deviceAddr, key); err != nil {
		t.Fatalf("first dial rejected: %v", err)
	}
	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "[10.1.1.2]:830 ssh-ed25519 ") {
		t.Errorf("unexpected known hosts content %q", b)
	}

	// same key is accepted again
	if err := cb(deviceHostname, deviceAddr, key); err != nil {
		t.Errorf("second dial rejected: %v", err)
	}

	// a changed key is refused
	err = cb(deviceHostname, deviceAddr, newHostKey(t))
	var keyErr *knownhosts.KeyError
	if !errors.As(err, &keyErr) || len(keyErr.Want) == 0 {
		t.Errorf("changed key: expected key mismatch, got %v", err)
	}

	// strict trusts the recorded key
	strict, err := HostKeyCallback(HostKeyStrict, file)
	if err != nil {
		t.Fatal(err)
	}
	if err := strict(deviceHostname, deviceAddr, key); err != nil {
		t.Errorf("strict rejected recorded key: %v", err)
	}
}

func TestHostKeyCallback_StrictRejectsUnknown(t *testing.T) {
	file := filepath.Join(t.TempDir(), "known_hosts")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	cb, err := HostKeyCallback(HostKeyStrict, file)
	if err != nil {
		t.Fatal(err)
	}
	err = cb(deviceHostname, deviceAddr, newHostKey(t))
	var keyErr *knownhosts.KeyError
	if !errors.As(err, &keyErr) {
		t.Fatalf("expected *knownhosts.KeyError, got %v", err)
	}
	if len(keyErr.Want) != 0 {
		t.Errorf("expected unknown host, got mismatch")
	}
}
