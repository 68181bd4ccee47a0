package app

import (
	"context"
	"errors"
	"sync"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"remote-apt-dater/internal/core"
	"remote-apt-dater/internal/ports"
	"remote-apt-dater/internal/scheduler"
	"remote-apt-dater/internal/types"
)

// Poller owns the check state machine. RunCheck is the only way a cycle
// starts, whether from the ticker or a manual trigger, and at most one
// cycle runs at a time.
type Poller struct {
	remote    ports.RemoteCheckPort
	presenter ports.PresenterPort
	hosts     []types.HostTarget
	clock     func() time.Time

	mu          sync.RWMutex
	status      types.PollerStatus
	locked      bool
	result      types.CheckResult
	lastAttempt time.Time
	cycleID     string

	// presentMu serializes presenter calls and guards the fields below.
	// When both are held, mu is taken first.
	presentMu    sync.Mutex
	notification ports.NotificationHandle
	onActivate   func()
}

func NewPoller(remote ports.RemoteCheckPort, presenter ports.PresenterPort, hosts []types.HostTarget, clock func() time.Time) *Poller {
	return &Poller{
		remote:    remote,
		presenter: presenter,
		hosts:     hosts,
		clock:     clock,
		status:    types.PollerStatusIdle,
	}
}

// OnNotificationActivated sets the callback attached to "upgrades
// available" notifications.
func (p *Poller) OnNotificationActivated(fn func()) {
	p.presentMu.Lock()
	defer p.presentMu.Unlock()
	p.onActivate = fn
}

// Run schedules the first check after startupDelay and then one every
// interval until ctx is done. On return all scheduled work has finished,
// the live notification is dismissed and the presenter is closed.
func (p *Poller) Run(ctx context.Context, sched *scheduler.Scheduler, startupDelay time.Duration, interval time.Duration) error {
	sched.After(startupDelay, func() { p.RunCheck(ctx) })
	sched.Every(ctx, interval, func() { p.RunCheck(ctx) })

	sched.Stop()
	sched.Wait()
	return p.Shutdown()
}

// RunCheck performs one poll cycle. It returns false without doing
// anything when another cycle is still in flight.
func (p *Poller) RunCheck(ctx context.Context) bool {
	p.mu.Lock()
	if p.status == types.PollerStatusChecking {
		p.mu.Unlock()
		log.Debug().Msg("check already in progress, skipping")
		return false
	}
	previous := p.status
	cycleID := ulid.Make().String()
	assert.NotEmpty(ctx, cycleID, "cycle id must be set")
	p.status = types.PollerStatusChecking
	p.cycleID = cycleID
	p.mu.Unlock()

	logger := log.With().Str("cycle", cycleID).Logger()
	logger.Info().Int("hosts", len(p.hosts)).Msg("checking for updates")
	p.presentChecking()

	started := p.now()
	updates, err := p.remote.Check(ctx, p.hosts)
	finished := p.now()

	if err != nil && ctx.Err() != nil {
		p.mu.Lock()
		p.status = previous
		p.mu.Unlock()
		logger.Info().Msg("check interrupted by shutdown")
		return true
	}

	p.mu.Lock()
	p.lastAttempt = finished
	if err != nil {
		p.result = types.CheckResult{
			Updates:   p.result.Updates,
			CheckedAt: p.result.CheckedAt,
			Error:     err,
		}
		p.status = types.PollerStatusLocked
		p.locked = true
	} else {
		p.result = types.CheckResult{Updates: updates, CheckedAt: finished}
		p.status = types.PollerStatusIdle
		p.locked = false
	}
	snapshot := p.snapshotLocked()
	// A cycle started after this unlock draws its Checking state only
	// once this result is on screen.
	p.presentMu.Lock()
	defer p.presentMu.Unlock()
	p.mu.Unlock()

	if err != nil {
		event := logger.Warn().Err(err)
		var connErr *types.ConnectionError
		if errors.As(err, &connErr) {
			event = event.Str("host", connErr.Target.String())
		}
		event.Msg("can't connect, marking agent locked")
	} else {
		logger.Info().
			Int("updates", updates.Len()).
			Dur("duration", finished.Sub(started)).
			Msg("check done")
	}

	p.presentLocked(snapshot)
	return true
}

// Snapshot returns a consistent copy of the current state.
func (p *Poller) Snapshot() types.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

// Shutdown dismisses the live notification and releases the presenter.
func (p *Poller) Shutdown() error {
	p.presentMu.Lock()
	defer p.presentMu.Unlock()
	p.dismissNotificationLocked()
	return p.presenter.Close()
}

func (p *Poller) snapshotLocked() types.Snapshot {
	result := p.result
	result.Updates = p.result.Updates.Clone()
	return types.Snapshot{
		Status:        p.status,
		Locked:        p.locked,
		Result:        result,
		LastAttemptAt: p.lastAttempt,
		CycleID:       p.cycleID,
	}
}

func (p *Poller) presentChecking() {
	p.presentMu.Lock()
	defer p.presentMu.Unlock()
	p.presenter.SetStatusIcon(types.PollerStatusChecking)
	p.presenter.SetBadgeCount(0)
}

// presentLocked draws a finished cycle. The badge always matches the
// updates listed in the menu, which a failed cycle keeps from the last
// success. Only a successful cycle with updates leaves a notification up.
func (p *Poller) presentLocked(snapshot types.Snapshot) {
	count := snapshot.Result.Updates.Len()
	p.presenter.SetStatusIcon(snapshot.Status)
	p.dismissNotificationLocked()
	p.presenter.SetBadgeCount(count)
	if snapshot.Status == types.PollerStatusIdle && count > 0 {
		p.notifyLocked(count)
	}
	p.presenter.RenderMenu(core.BuildMenuState(snapshot))
}

func (p *Poller) notifyLocked(count int) {
	notification := core.UpdatesNotification(count)
	handle, err := p.presenter.ShowNotification(notification.Title, notification.Body, p.onActivate)
	if err != nil {
		log.Warn().Err(err).Msg("failed to show notification")
		return
	}
	p.notification = handle
}

func (p *Poller) dismissNotificationLocked() {
	if p.notification == nil {
		return
	}
	if err := p.notification.Close(); err != nil {
		log.Debug().Err(err).Msg("failed to close notification")
	}
	p.notification = nil
}

func (p *Poller) now() time.Time {
	return timeNow(p.clock)
}

func timeNow(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}
