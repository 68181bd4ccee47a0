package adapters

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remote-apt-dater/internal/types"
)

const sampleINI = `[ssh]
ssh_hostname = build01.example.org
ssh_user = deploy
identity_files = ~/.ssh/id_ed25519, /etc/remote-apt-dater/key

[update]
update_interval = 900
upgrade_command = x-terminal-emulator -e "apt-dater -r"
unlock_agent_command = ssh-add
ssh_agent_socket = /run/user/1000/keyring/ssh
`

func writeTempFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigFileAdapterLoadsINI(t *testing.T) {
	adapter := NewConfigFileAdapter(viper.New(), "RAD_TEST")
	require.NoError(t, adapter.ReadFile(writeTempFile(t, "config.ini", sampleINI)))

	cfg, err := adapter.Load()
	require.NoError(t, err)
	assert.Equal(t, []types.HostTarget{{User: "deploy", Host: "build01.example.org", Port: 22}}, cfg.Hosts)
	assert.Equal(t, []string{"~/.ssh/id_ed25519", "/etc/remote-apt-dater/key"}, cfg.IdentityFiles)
	assert.Equal(t, 900*time.Second, cfg.UpdateInterval)
	assert.Equal(t, 15*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 2*time.Second, cfg.StartupDelay)
	assert.Equal(t, time.Second, cfg.RecheckDelay)
	assert.Equal(t, `x-terminal-emulator -e "apt-dater -r"`, cfg.UpgradeCommand)
	assert.Equal(t, "ssh-add", cfg.UnlockCommand)
	assert.Equal(t, "/run/user/1000/keyring/ssh", cfg.AgentSocket)
	assert.Equal(t, DefaultRemoteCommand, cfg.RemoteCommand)
	assert.True(t, cfg.NotifyEnabled)
}

func TestConfigFileAdapterEnvironmentOverrides(t *testing.T) {
	t.Setenv("RAD_TEST_SSH_SSH_HOSTS", "ops@alpha:2222, beta")
	t.Setenv("RAD_TEST_UPDATE_UPDATE_INTERVAL", "60")
	t.Setenv("RAD_TEST_NOTIFY_ENABLED", "false")

	adapter := NewConfigFileAdapter(viper.New(), "RAD_TEST")
	require.NoError(t, adapter.ReadFile(writeTempFile(t, "config.ini", sampleINI)))

	cfg, err := adapter.Load()
	require.NoError(t, err)
	assert.Equal(t, []types.HostTarget{
		{User: "ops", Host: "alpha", Port: 2222},
		{User: "deploy", Host: "beta", Port: 22},
	}, cfg.Hosts)
	assert.Equal(t, time.Minute, cfg.UpdateInterval)
	assert.False(t, cfg.NotifyEnabled)
}

func TestConfigFileAdapterReadsYAML(t *testing.T) {
	adapter := NewConfigFileAdapter(viper.New(), "RAD_TEST")
	path := writeTempFile(t, "config.yaml", "ssh:\n  ssh_hosts: ops@alpha\nupdate:\n  update_interval: 120\n")
	require.NoError(t, adapter.ReadFile(path))

	cfg, err := adapter.Load()
	require.NoError(t, err)
	assert.Equal(t, "alpha", cfg.Hosts[0].Host)
	assert.Equal(t, 2*time.Minute, cfg.UpdateInterval)
}

func TestConfigFileAdapterValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing hosts",
			content: "[update]\nupdate_interval = 60\n",
		},
		{
			name:    "zero interval",
			content: "[ssh]\nssh_hosts = ops@alpha\n[update]\nupdate_interval = 0\n",
		},
		{
			name:    "host without user",
			content: "[ssh]\nssh_hosts = alpha\n",
		},
		{
			name:    "bad port",
			content: "[ssh]\nssh_hosts = ops@alpha:99999\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewConfigFileAdapter(viper.New(), "RAD_TEST")
			require.NoError(t, adapter.ReadFile(writeTempFile(t, "config.ini", tt.content)))
			_, err := adapter.Load()
			require.Error(t, err)
			assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
		})
	}
}

func TestConfigFileAdapterMissingFile(t *testing.T) {
	adapter := NewConfigFileAdapter(viper.New(), "RAD_TEST")
	err := adapter.ReadFile(filepath.Join(t.TempDir(), "absent.ini"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestConfigFileAdapterDiscover(t *testing.T) {
	empty := t.TempDir()
	withConfig := filepath.Dir(writeTempFile(t, DefaultConfigName, sampleINI))

	adapter := NewConfigFileAdapter(viper.New(), "RAD_TEST")
	assert.Equal(t, filepath.Join(withConfig, DefaultConfigName), adapter.Discover([]string{"", empty, withConfig}))
	assert.Empty(t, adapter.Discover([]string{empty}))
}
