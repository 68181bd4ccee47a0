package adapters

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"remote-apt-dater/internal/core"
	"remote-apt-dater/internal/ports"
	"remote-apt-dater/internal/types"
	"remote-apt-dater/internal/validate"
)

// Configuration keys, grouped the way config.ini groups them.
const (
	KeySSHHosts          = "ssh.ssh_hosts"
	KeySSHHostname       = "ssh.ssh_hostname"
	KeySSHUser           = "ssh.ssh_user"
	KeyIdentityFiles     = "ssh.identity_files"
	KeyKnownHostsFile    = "ssh.known_hosts_file"
	KeyConnectTimeout    = "ssh.connect_timeout"
	KeyUpdateInterval    = "update.update_interval"
	KeyUpgradeCommand    = "update.upgrade_command"
	KeyUnlockCommand     = "update.unlock_agent_command"
	KeyAgentSocket       = "update.ssh_agent_socket"
	KeyRemoteCommand     = "update.remote_command"
	KeyStartupDelay      = "update.startup_delay"
	KeyRecheckDelay      = "update.recheck_delay"
	KeyNotifyEnabled     = "notify.enabled"
	DefaultConfigName    = "config.ini"
	defaultUpdateSeconds = 3600
)

// ConfigFileAdapter reads config.ini (or any format viper understands)
// into a validated types.Config. Environment variables under the given
// prefix override file values.
type ConfigFileAdapter struct {
	v *viper.Viper
}

func NewConfigFileAdapter(v *viper.Viper, envPrefix string) *ConfigFileAdapter {
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyConnectTimeout, 15)
	v.SetDefault(KeyUpdateInterval, defaultUpdateSeconds)
	v.SetDefault(KeyRemoteCommand, DefaultRemoteCommand)
	v.SetDefault(KeyStartupDelay, 2)
	v.SetDefault(KeyRecheckDelay, 1)
	v.SetDefault(KeyNotifyEnabled, true)
	return &ConfigFileAdapter{v: v}
}

// ReadFile merges a configuration file into the settings. INI files are
// parsed directly; other extensions go through viper's own decoders.
func (a *ConfigFileAdapter) ReadFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".ini" || ext == "" || ext == ".conf" {
		return a.readINI(path)
	}
	a.v.SetConfigFile(path)
	if err := a.v.MergeInConfig(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to read config file").
			WithCause(err)
	}
	return nil
}

// Discover returns the first config.ini found in dirs, or "" when none
// exists.
func (a *ConfigFileAdapter) Discover(dirs []string) string {
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		candidate := filepath.Join(expandHome(dir), DefaultConfigName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func (a *ConfigFileAdapter) readINI(path string) error {
	file, err := ini.Load(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to read config file").
			WithCause(err)
	}
	settings := map[string]any{}
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		values := map[string]any{}
		for _, key := range section.Keys() {
			values[strings.ToLower(key.Name())] = key.Value()
		}
		settings[strings.ToLower(section.Name())] = values
	}
	if err := a.v.MergeConfigMap(settings); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to merge config file").
			WithCause(err)
	}
	return nil
}

func (a *ConfigFileAdapter) Load() (types.Config, error) {
	hosts, err := a.hosts()
	if err != nil {
		return types.Config{}, err
	}
	cfg := types.Config{
		Hosts:          hosts,
		IdentityFiles:  splitList(a.v.GetString(KeyIdentityFiles)),
		KnownHostsFile: strings.TrimSpace(a.v.GetString(KeyKnownHostsFile)),
		ConnectTimeout: seconds(a.v.GetInt(KeyConnectTimeout)),
		AgentSocket:    strings.TrimSpace(a.v.GetString(KeyAgentSocket)),
		RemoteCommand:  strings.TrimSpace(a.v.GetString(KeyRemoteCommand)),
		UpdateInterval: seconds(a.v.GetInt(KeyUpdateInterval)),
		StartupDelay:   seconds(a.v.GetInt(KeyStartupDelay)),
		RecheckDelay:   seconds(a.v.GetInt(KeyRecheckDelay)),
		UpgradeCommand: strings.TrimSpace(a.v.GetString(KeyUpgradeCommand)),
		UnlockCommand:  strings.TrimSpace(a.v.GetString(KeyUnlockCommand)),
		NotifyEnabled:  a.v.GetBool(KeyNotifyEnabled),
	}
	if err := validate.Struct(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// hosts accepts either the ssh_hosts list or the single-host
// ssh_hostname/ssh_user pair.
func (a *ConfigFileAdapter) hosts() ([]types.HostTarget, error) {
	user := a.v.GetString(KeySSHUser)
	value := a.v.GetString(KeySSHHosts)
	if strings.TrimSpace(value) == "" {
		value = a.v.GetString(KeySSHHostname)
	}
	if strings.TrimSpace(value) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("ssh.ssh_hosts or ssh.ssh_hostname is required")
	}
	return core.ParseHostTargets(value, user)
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

var _ ports.ConfigPort = (*ConfigFileAdapter)(nil)
