package app

import (
	"context"
	"fmt"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"remote-apt-dater/internal/ports"
	"remote-apt-dater/internal/scheduler"
	"remote-apt-dater/internal/shared"
	"remote-apt-dater/internal/types"
)

// Dispatcher runs the local upgrade and unlock commands. After either
// command exits, whatever its status, one re-check is scheduled.
type Dispatcher struct {
	runner         ports.ProcessRunnerPort
	scheduler      *scheduler.Scheduler
	recheck        func()
	upgradeCommand string
	unlockCommand  string
	agentSocket    string
	recheckDelay   time.Duration
}

// NewDispatcher builds a dispatcher. With a nil scheduler or recheck no
// follow-up check is scheduled, which is what one-shot CLI use wants.
func NewDispatcher(runner ports.ProcessRunnerPort, cfg types.Config, sched *scheduler.Scheduler, recheck func()) *Dispatcher {
	return &Dispatcher{
		runner:         runner,
		scheduler:      sched,
		recheck:        recheck,
		upgradeCommand: cfg.UpgradeCommand,
		unlockCommand:  cfg.UnlockCommand,
		agentSocket:    cfg.AgentSocket,
		recheckDelay:   cfg.RecheckDelay,
	}
}

func (d *Dispatcher) RunUpgrade(ctx context.Context) error {
	return d.run(ctx, types.ActionUpgrade, d.upgradeCommand)
}

func (d *Dispatcher) UnlockAgent(ctx context.Context) error {
	return d.run(ctx, types.ActionUnlock, d.unlockCommand)
}

func (d *Dispatcher) run(ctx context.Context, action types.ActionName, command string) error {
	assert.NotEmpty(ctx, string(action), "action name must be set")
	defer d.scheduleRecheck()

	argv, err := shared.SplitCommandLine(command)
	if err != nil {
		log.Error().Str("action", string(action)).Err(err).Msg("cannot run action")
		return err
	}

	log.Info().Str("action", string(action)).Strs("command", argv).Msg("running action command")
	result, err := d.runner.Run(ctx, argv, shared.AgentEnv(d.agentSocket))
	if err != nil {
		log.Warn().Str("action", string(action)).Err(err).Msg("action command failed to run")
		return err
	}
	if result.Exit != 0 {
		log.Warn().
			Str("action", string(action)).
			Int("exit", result.Exit).
			Strs("stderr", tail(result.Stderr, 5)).
			Msg("action command exited with failure")
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("%s command exited with status %d", action, result.Exit))
	}
	log.Info().
		Str("action", string(action)).
		Dur("runtime", result.Runtime).
		Msg("action command finished")
	return nil
}

func (d *Dispatcher) scheduleRecheck() {
	if d.scheduler == nil || d.recheck == nil {
		return
	}
	d.scheduler.After(d.recheckDelay, d.recheck)
}

func tail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
