package types

type PollerStatus string

const (
	PollerStatusIdle     PollerStatus = "idle"
	PollerStatusChecking PollerStatus = "checking"
	PollerStatusLocked   PollerStatus = "locked"
)

type ActionName string

const (
	ActionCheck   ActionName = "check"
	ActionUpgrade ActionName = "upgrade"
	ActionUnlock  ActionName = "unlock"
	ActionQuit    ActionName = "quit"
)

type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatJSON OutputFormat = "json"
)
