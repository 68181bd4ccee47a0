package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"remote-apt-dater/internal/adapters"
	"remote-apt-dater/internal/ports"
	"remote-apt-dater/internal/scheduler"
	"remote-apt-dater/internal/types"
)

type Service struct {
	Config    types.Config
	Remote    ports.RemoteCheckPort
	Runner    ports.ProcessRunnerPort
	Presenter ports.PresenterPort
	Clock     func() time.Time
}

func NewService(cfg types.Config) Service {
	return Service{
		Config:    cfg,
		Remote:    adapters.NewSSHCheckAdapter(cfg),
		Runner:    adapters.NewProcessRunnerAdapter(),
		Presenter: adapters.NewLogPresenterAdapter(nil),
		Clock:     time.Now,
	}
}

// Check runs a single poll cycle and returns the resulting state. The
// returned error is the cycle error, if any.
func (s Service) Check(ctx context.Context) (types.Snapshot, error) {
	poller := NewPoller(s.Remote, s.Presenter, s.Config.Hosts, s.Clock)
	poller.RunCheck(ctx)
	snapshot := poller.Snapshot()
	return snapshot, snapshot.Result.Error
}

// Upgrade runs the upgrade command once without a follow-up check.
func (s Service) Upgrade(ctx context.Context) error {
	return NewDispatcher(s.Runner, s.Config, nil, nil).RunUpgrade(ctx)
}

// Unlock runs the agent unlock command once without a follow-up check.
func (s Service) Unlock(ctx context.Context) error {
	return NewDispatcher(s.Runner, s.Config, nil, nil).UnlockAgent(ctx)
}

// Indicator wires the poller, dispatcher and action table for the long
// running tray process.
type Indicator struct {
	Poller     *Poller
	Dispatcher *Dispatcher
	Actions    ActionTable

	scheduler    *scheduler.Scheduler
	startupDelay time.Duration
	interval     time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewIndicator builds an indicator bound to ctx. Cancelling ctx or
// invoking the quit action stops Run.
func (s Service) NewIndicator(ctx context.Context) *Indicator {
	ctx, cancel := context.WithCancel(ctx)
	sched := scheduler.New()
	poller := NewPoller(s.Remote, s.Presenter, s.Config.Hosts, s.Clock)

	ind := &Indicator{
		Poller:       poller,
		scheduler:    sched,
		startupDelay: s.Config.StartupDelay,
		interval:     s.Config.UpdateInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
	ind.Dispatcher = NewDispatcher(s.Runner, s.Config, sched, func() { poller.RunCheck(ctx) })
	ind.Actions = ActionTable{
		types.ActionCheck: func(ctx context.Context) {
			sched.Go(func() { poller.RunCheck(ctx) })
		},
		// Upgrade and unlock commands are detached: quitting neither
		// waits for them nor kills them. Their re-check is dropped once
		// the scheduler has stopped.
		types.ActionUpgrade: func(ctx context.Context) {
			go func() { _ = ind.Dispatcher.RunUpgrade(context.WithoutCancel(ctx)) }()
		},
		types.ActionUnlock: func(ctx context.Context) {
			go func() { _ = ind.Dispatcher.UnlockAgent(context.WithoutCancel(ctx)) }()
		},
		types.ActionQuit: func(context.Context) {
			cancel()
		},
	}
	poller.OnNotificationActivated(func() {
		ind.Actions.Invoke(ctx, types.ActionUpgrade)
	})
	return ind
}

// Invoke runs a menu action by name in the indicator's context.
func (i *Indicator) Invoke(name types.ActionName) bool {
	return i.Actions.Invoke(i.ctx, name)
}

// Run blocks until the indicator context is cancelled and all scheduled
// work has drained.
func (i *Indicator) Run() error {
	defer i.cancel()
	log.Info().
		Int("hosts", len(i.Poller.hosts)).
		Dur("interval", i.interval).
		Msg("startup complete")
	err := i.Poller.Run(i.ctx, i.scheduler, i.startupDelay, i.interval)
	log.Info().Msg("shutdown complete")
	return err
}

// Stop cancels the indicator context.
func (i *Indicator) Stop() {
	i.cancel()
}
