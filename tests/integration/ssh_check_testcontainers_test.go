//go:build integration

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"remote-apt-dater/internal/adapters"
	"remote-apt-dater/internal/app"
	"remote-apt-dater/internal/types"
	"remote-apt-dater/tests/testutil"
)

const sshUser = "ops"

func TestSSHCheckAgainstOpenSSHContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration in short mode")
	}
	t.Setenv("SSH_AUTH_SOCK", "")

	ctx := t.Context()
	key := testutil.NewClientKey(t)
	host, cleanup := startOpenSSHServer(ctx, t, key.AuthorizedKey)
	t.Cleanup(cleanup)

	output := testutil.DryRunOutput("bash", "5.1-6ubuntu1", "libc6", "2.35-0ubuntu3.6")
	cfg := types.Config{
		Hosts:          []types.HostTarget{host},
		IdentityFiles:  []string{key.IdentityFile},
		KnownHostsFile: filepath.Join(t.TempDir(), "known_hosts"),
		ConnectTimeout: 10 * time.Second,
		RemoteCommand:  fmt.Sprintf("printf '%%b' %s", strconv.Quote(output)),
		UpdateInterval: time.Hour,
	}

	service := app.NewService(cfg)
	snapshot, err := service.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.PollerStatusIdle, snapshot.Status)
	assert.Equal(t, 2, snapshot.Result.Updates.Len())
	assert.True(t, snapshot.Result.Updates.Contains(types.PendingUpdate{Package: "libc6", Version: "2.35-0ubuntu3.6"}))

	cfg.RemoteCommand = "exit 100"
	_, err = adapters.NewSSHCheckAdapter(cfg).Check(ctx, cfg.Hosts)
	require.Error(t, err)
	var connErr *types.ConnectionError
	assert.NotErrorAs(t, err, &connErr)
}

func TestSSHCheckLocksOnUnauthorizedKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration in short mode")
	}
	t.Setenv("SSH_AUTH_SOCK", "")

	ctx := t.Context()
	authorized := testutil.NewClientKey(t)
	stranger := testutil.NewClientKey(t)
	host, cleanup := startOpenSSHServer(ctx, t, authorized.AuthorizedKey)
	t.Cleanup(cleanup)

	service := app.NewService(types.Config{
		Hosts:          []types.HostTarget{host},
		IdentityFiles:  []string{stranger.IdentityFile},
		KnownHostsFile: filepath.Join(t.TempDir(), "known_hosts"),
		ConnectTimeout: 10 * time.Second,
		RemoteCommand:  "true",
		UpdateInterval: time.Hour,
	})
	snapshot, err := service.Check(ctx)
	require.Error(t, err)
	assert.Equal(t, types.PollerStatusLocked, snapshot.Status)
	assert.True(t, snapshot.Locked)
}

func startOpenSSHServer(ctx context.Context, t *testing.T, authorizedKey string) (types.HostTarget, func()) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "lscr.io/linuxserver/openssh-server:latest",
		ExposedPorts: []string{"2222/tcp"},
		Env: map[string]string{
			"PUBLIC_KEY":      authorizedKey,
			"USER_NAME":       sshUser,
			"PASSWORD_ACCESS": "false",
			"PUID":            "1000",
			"PGID":            "1000",
		},
		WaitingFor: wait.ForListeningPort("2222/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	hostname, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "2222/tcp")
	require.NoError(t, err)

	target := types.HostTarget{User: sshUser, Host: hostname, Port: port.Int()}
	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return target, cleanup
}
