package types

import "time"

// Config is the resolved runtime configuration. The key tags name the
// configuration file entry each field is read from.
type Config struct {
	Hosts          []HostTarget  `key:"ssh.ssh_hosts" validate:"required,min=1,dive"`
	IdentityFiles  []string      `key:"ssh.identity_files"`
	KnownHostsFile string        `key:"ssh.known_hosts_file"`
	ConnectTimeout time.Duration `key:"ssh.connect_timeout" validate:"gt=0"`
	AgentSocket    string        `key:"update.ssh_agent_socket"`
	RemoteCommand  string        `key:"update.remote_command" validate:"required"`
	UpdateInterval time.Duration `key:"update.update_interval" validate:"gte=1s"`
	StartupDelay   time.Duration `key:"update.startup_delay" validate:"gte=0"`
	RecheckDelay   time.Duration `key:"update.recheck_delay" validate:"gte=0"`
	UpgradeCommand string        `key:"update.upgrade_command"`
	UnlockCommand  string        `key:"update.unlock_agent_command"`
	NotifyEnabled  bool          `key:"notify.enabled"`
}
