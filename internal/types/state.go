package types

import "time"

// CheckResult is the outcome of one poll cycle. A failed cycle carries
// Error and the last successful update set.
type CheckResult struct {
	Updates   UpdateSet
	CheckedAt time.Time
	Error     error
}

// Snapshot is a consistent copy of the poller state.
type Snapshot struct {
	Status        PollerStatus
	Locked        bool
	Result        CheckResult
	LastAttemptAt time.Time
	CycleID       string
}

type MenuState struct {
	Updates       []PendingUpdate
	LastCheckedAt *time.Time
	Locked        bool
	Actions       []ActionName
}

type Notification struct {
	Title       string
	Body        string
	ActionLabel string
}

type ProcessResult struct {
	Exit    int
	Stdout  []string
	Stderr  []string
	Runtime time.Duration
}
