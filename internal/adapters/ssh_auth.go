package adapters

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/skeema/knownhosts"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// authSource collects key-based auth methods for one poll cycle. The
// agent connection is reopened per cycle so an agent unlocked between
// cycles is picked up.
type authSource struct {
	methods []ssh.AuthMethod
	closers []func() error
}

func newAuthSource(agentSocket string, identityFiles []string) (*authSource, error) {
	source := &authSource{}

	socket := strings.TrimSpace(agentSocket)
	if socket == "" {
		socket = os.Getenv("SSH_AUTH_SOCK")
	}
	if socket != "" {
		conn, err := net.Dial("unix", expandHome(socket))
		if err != nil {
			log.Debug().Str("socket", socket).Err(err).Msg("ssh agent unavailable")
		} else {
			client := agent.NewClient(conn)
			source.methods = append(source.methods, ssh.PublicKeysCallback(client.Signers))
			source.closers = append(source.closers, conn.Close)
		}
	}

	var signers []ssh.Signer
	for _, path := range identityFiles {
		signer, err := loadIdentity(path)
		if err != nil {
			log.Debug().Str("identity", path).Err(err).Msg("skipping identity file")
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		source.methods = append(source.methods, ssh.PublicKeys(signers...))
	}

	if len(source.methods) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeUnauthenticated).
			WithMsg("no ssh agent or identity file available")
	}
	return source, nil
}

func (s *authSource) Methods() []ssh.AuthMethod {
	return s.methods
}

func (s *authSource) Close() {
	for _, closeFn := range s.closers {
		_ = closeFn()
	}
}

func loadIdentity(path string) (ssh.Signer, error) {
	content, err := os.ReadFile(expandHome(path))
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(content)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("key is encrypted, load it into the agent instead: %w", err)
		}
		return nil, err
	}
	return signer, nil
}

// hostKeyStore verifies host keys against known_hosts and trusts keys of
// unknown hosts for the rest of the process lifetime. A key that
// contradicts known_hosts or an earlier trusted key is rejected.
type hostKeyStore struct {
	mu             sync.Mutex
	knownHostsFile string
	trusted        map[string]ssh.PublicKey
}

func newHostKeyStore(knownHostsFile string) *hostKeyStore {
	path := strings.TrimSpace(knownHostsFile)
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".ssh", "known_hosts")
		}
	}
	return &hostKeyStore{
		knownHostsFile: expandHome(path),
		trusted:        map[string]ssh.PublicKey{},
	}
}

// load reads known_hosts afresh so entries added while the indicator runs
// are honoured. A missing or unreadable file yields nil.
func (s *hostKeyStore) load() *knownhosts.HostKeyDB {
	if s.knownHostsFile == "" {
		return nil
	}
	db, err := knownhosts.NewDB(s.knownHostsFile)
	switch {
	case err == nil:
		return db
	case errors.Is(err, fs.ErrNotExist):
	default:
		log.Warn().Str("path", s.knownHostsFile).Err(err).Msg("failed to read known_hosts")
	}
	return nil
}

// Algorithms lists the host key algorithms to offer for address, limited
// to the key types already on record for it. Nil leaves the choice to
// x/crypto, which is what unknown hosts get.
func (s *hostKeyStore) Algorithms(address string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trusted, ok := s.trusted[address]; ok {
		return algorithmsForKeyType(trusted.Type())
	}
	if db := s.load(); db != nil {
		if algorithms := db.HostKeyAlgorithms(address); len(algorithms) > 0 {
			return algorithms
		}
	}
	return nil
}

func (s *hostKeyStore) Callback(hostname string, remote net.Addr, key ssh.PublicKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trusted, ok := s.trusted[hostname]; ok {
		if bytes.Equal(trusted.Marshal(), key.Marshal()) {
			return nil
		}
		return fmt.Errorf("host key for %s changed since it was first seen", hostname)
	}

	if db := s.load(); db != nil {
		err := db.HostKeyCallback()(hostname, remote, key)
		if err == nil {
			return nil
		}
		if !knownhosts.IsHostUnknown(err) {
			return err
		}
	}

	log.Info().
		Str("host", hostname).
		Str("fingerprint", ssh.FingerprintSHA256(key)).
		Msg("trusting unknown host key")
	s.trusted[hostname] = key
	return nil
}

// algorithmsForKeyType maps a public key type to the signature algorithms
// that can present it during the handshake.
func algorithmsForKeyType(keyType string) []string {
	if keyType == ssh.KeyAlgoRSA {
		return []string{ssh.KeyAlgoRSASHA512, ssh.KeyAlgoRSASHA256, ssh.KeyAlgoRSA}
	}
	return []string{keyType}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
