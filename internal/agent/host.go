package agent

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/crypto/ssh"
)

// EnsureKeyPair creates an ed25519 keypair at privPath and privPath+".pub"
// unless the private key already exists, and returns the public key in
// authorized_keys format. The private key never leaves the host.
func EnsureKeyPair(privPath string) (string, error) {
	pubPath := privPath + ".pub"
	if _, err := os.Stat(privPath); err == nil {
		pub, err := os.ReadFile(pubPath)
		if err != nil {
			return "", fmt.Errorf("failed to read public key: %w", err)
		}
		return strings.TrimSpace(string(pub)), nil
	}

	if err := os.MkdirAll(filepath.Dir(privPath), 0o700); err != nil {
		return "", err
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "keyregistry-agent")
	if err != nil {
		return "", fmt.Errorf("failed to encode private key: %w", err)
	}
	if err := os.WriteFile(privPath, pem.EncodeToMemory(block), 0o600); err != nil {
		return "", err
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", err
	}
	authorized := ssh.MarshalAuthorizedKey(sshPub)
	if err := os.WriteFile(pubPath, authorized, 0o644); err != nil {
		return "", err
	}
	return strings.TrimSpace(string(authorized)), nil
}

// DetectOS returns the PRETTY_NAME of /etc/os-release, or GOOS.
func DetectOS() string {
	if data, err := os.ReadFile("/etc/os-release"); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if v, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
				return strings.Trim(v, `"`)
			}
		}
	}
	return runtime.GOOS
}

// LocalIP returns the first non-loopback IPv4 address, falling back to
// the loopback address.
func LocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return "127.0.0.1"
}
