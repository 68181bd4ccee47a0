// Package testutil provides shared test helpers used across integration
// and unit test packages.
package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// ClientKey is a throwaway ed25519 key pair for ssh tests.
type ClientKey struct {
	Signer        ssh.Signer
	AuthorizedKey string
	IdentityFile  string
}

// NewClientKey generates a key pair and writes the private half to an
// OpenSSH identity file under a test temp dir.
func NewClientKey(t *testing.T) ClientKey {
	t.Helper()
	_, private, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(private)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(private, "remote-apt-dater-test")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return ClientKey{
		Signer:        signer,
		AuthorizedKey: strings.TrimSpace(string(ssh.MarshalAuthorizedKey(signer.PublicKey()))),
		IdentityFile:  path,
	}
}

// DryRunOutput renders apt-get style "Inst" lines for the given
// package/version pairs.
func DryRunOutput(pairs ...string) string {
	var b strings.Builder
	b.WriteString("Reading package lists...\n")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString("Inst " + pairs[i] + " [" + pairs[i+1] + "] (" + pairs[i+1] + "+1 Ubuntu:22.04/jammy-updates [amd64])\n")
	}
	return b.String()
}
