package adapters

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"

	"remote-apt-dater/internal/core"
	"remote-apt-dater/internal/ports"
	"remote-apt-dater/internal/shared"
	"remote-apt-dater/internal/types"
)

// DefaultRemoteCommand refreshes the package index and simulates a full
// upgrade, printing one "Inst " line per pending package.
const DefaultRemoteCommand = "sudo apt-get update -q -y && " +
	"sudo apt-get -q -y --ignore-hold --allow-change-held-packages -s dist-upgrade"

const defaultConnectTimeout = 15 * time.Second

type SSHCheckAdapter struct {
	Command        string
	AgentSocket    string
	IdentityFiles  []string
	ConnectTimeout time.Duration
	hostKeys       *hostKeyStore
	dialer         func(ctx context.Context, network string, address string) (net.Conn, error)
}

func NewSSHCheckAdapter(cfg types.Config) *SSHCheckAdapter {
	command := strings.TrimSpace(cfg.RemoteCommand)
	if command == "" {
		command = DefaultRemoteCommand
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	dialer := &net.Dialer{Timeout: timeout}
	return &SSHCheckAdapter{
		Command:        command,
		AgentSocket:    cfg.AgentSocket,
		IdentityFiles:  cfg.IdentityFiles,
		ConnectTimeout: timeout,
		hostKeys:       newHostKeyStore(cfg.KnownHostsFile),
		dialer:         dialer.DialContext,
	}
}

// Check runs the remote command on each host in order and merges the
// parsed updates. The first failing host aborts the cycle.
func (a *SSHCheckAdapter) Check(ctx context.Context, hosts []types.HostTarget) (types.UpdateSet, error) {
	if len(hosts) == 0 {
		return types.UpdateSet{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("no ssh hosts configured")
	}
	auth, err := newAuthSource(a.AgentSocket, a.IdentityFiles)
	if err != nil {
		return types.UpdateSet{}, &types.ConnectionError{Target: hosts[0], Err: err}
	}
	defer auth.Close()

	combined := types.UpdateSet{}
	for _, host := range hosts {
		if err := ctx.Err(); err != nil {
			return types.UpdateSet{}, err
		}
		started := time.Now()
		stdout, err := a.checkHost(ctx, host, auth.Methods())
		if err != nil {
			return types.UpdateSet{}, err
		}
		updates := core.ParseDryRunOutput(stdout)
		log.Debug().
			Str("host", host.String()).
			Int("updates", updates.Len()).
			Dur("duration", time.Since(started)).
			Msg("host checked")
		log.Trace().
			Str("host", host.String()).
			Str("stdout", stdout).
			Msg("response from remote host")
		combined.Merge(updates)
	}
	return combined, nil
}

func (a *SSHCheckAdapter) checkHost(ctx context.Context, host types.HostTarget, auth []ssh.AuthMethod) (string, error) {
	client, err := a.connect(ctx, host, auth)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &types.ConnectionError{
			Target: host,
			Err: errbuilder.New().
				WithCode(errbuilder.CodeUnavailable).
				WithMsg("ssh connection failed").
				WithCause(err),
		}
	}
	defer client.Close()
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	session, err := client.NewSession()
	if err != nil {
		return "", &types.ConnectionError{
			Target: host,
			Err: errbuilder.New().
				WithCode(errbuilder.CodeUnavailable).
				WithMsg("ssh session failed").
				WithCause(err),
		}
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if err := session.Run(a.Command); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("remote command failed on " + host.String()).
				WithCause(shared.CommandError(stderr.Bytes(), err))
		}
		return "", &types.ConnectionError{
			Target: host,
			Err: errbuilder.New().
				WithCode(errbuilder.CodeUnavailable).
				WithMsg("ssh session interrupted").
				WithCause(err),
		}
	}
	return stdout.String(), nil
}

func (a *SSHCheckAdapter) connect(ctx context.Context, host types.HostTarget, auth []ssh.AuthMethod) (*ssh.Client, error) {
	address := host.Address()
	conn, err := a.dialer(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	config := &ssh.ClientConfig{
		User:              host.User,
		Auth:              auth,
		HostKeyCallback:   a.hostKeys.Callback,
		HostKeyAlgorithms: a.hostKeys.Algorithms(address),
		Timeout:           a.ConnectTimeout,
	}
	_ = conn.SetDeadline(time.Now().Add(a.ConnectTimeout))
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	stop()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	return ssh.NewClient(clientConn, chans, reqs), nil
}

var _ ports.RemoteCheckPort = (*SSHCheckAdapter)(nil)
