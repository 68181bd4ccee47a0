package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remote-apt-dater/internal/types"
)

func indicatorService(remote *fakeRemote, runner *fakeRunner, presenter *fakePresenter) Service {
	return Service{
		Config: types.Config{
			Hosts: []types.HostTarget{
				{User: "ops", Host: "alpha"},
				{User: "ops", Host: "beta", Port: 2222},
			},
			UpdateInterval: 20 * time.Millisecond,
			StartupDelay:   0,
			RecheckDelay:   time.Millisecond,
			UpgradeCommand: "apt-dater-launcher --all",
			UnlockCommand:  "ssh-add",
		},
		Remote:    remote,
		Runner:    runner,
		Presenter: presenter,
		Clock:     fixedClock,
	}
}

func TestIndicatorPollsAllHosts(t *testing.T) {
	remote := &fakeRemote{check: func(context.Context, int) (types.UpdateSet, error) {
		return types.NewUpdateSet(
			types.PendingUpdate{Package: "openssl", Version: "3.0.2-0ubuntu1.15"},
			types.PendingUpdate{Package: "tzdata", Version: "2024a-0ubuntu0.22.04"},
		), nil
	}}
	presenter := &fakePresenter{}
	indicator := indicatorService(remote, &fakeRunner{}, presenter).NewIndicator(t.Context())

	done := make(chan error, 1)
	go func() { done <- indicator.Run() }()

	require.Eventually(t, func() bool { return remote.Calls() >= 2 }, 2*time.Second, 5*time.Millisecond)
	indicator.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("indicator did not stop")
	}

	remote.mu.Lock()
	assert.Len(t, remote.hosts[0], 2)
	remote.mu.Unlock()

	snapshot := indicator.Poller.Snapshot()
	assert.Equal(t, types.PollerStatusIdle, snapshot.Status)
	assert.Equal(t, 2, snapshot.Result.Updates.Len())
	assert.True(t, presenter.Closed())
	assert.Equal(t, 0, presenter.LiveNotifications())
}

func TestIndicatorNotificationActivationRunsUpgrade(t *testing.T) {
	remote := &fakeRemote{check: func(context.Context, int) (types.UpdateSet, error) {
		return types.NewUpdateSet(types.PendingUpdate{Package: "sudo", Version: "1.9.9-1ubuntu2.4"}), nil
	}}
	runner := &fakeRunner{}
	presenter := &fakePresenter{}
	service := indicatorService(remote, runner, presenter)
	service.Config.UpdateInterval = time.Hour
	indicator := service.NewIndicator(t.Context())

	done := make(chan error, 1)
	go func() { done <- indicator.Run() }()

	require.Eventually(t, func() bool { return presenter.Activate() != nil }, 2*time.Second, 5*time.Millisecond)
	presenter.Activate()()

	require.Eventually(t, func() bool { return len(runner.Runs()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"apt-dater-launcher", "--all"}, runner.Runs()[0])
	require.Eventually(t, func() bool { return remote.Calls() == 2 }, 2*time.Second, 5*time.Millisecond)

	require.True(t, indicator.Invoke(types.ActionQuit))
	require.NoError(t, <-done)
}

func TestIndicatorQuitLeavesUpgradeRunning(t *testing.T) {
	runner := &fakeRunner{started: make(chan context.Context, 1), block: make(chan struct{})}
	service := indicatorService(&fakeRemote{}, runner, &fakePresenter{})
	service.Config.UpdateInterval = time.Hour
	service.Config.StartupDelay = time.Hour
	indicator := service.NewIndicator(t.Context())

	done := make(chan error, 1)
	go func() { done <- indicator.Run() }()

	require.True(t, indicator.Invoke(types.ActionUpgrade))
	var runCtx context.Context
	select {
	case runCtx = <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("upgrade did not start")
	}

	require.True(t, indicator.Invoke(types.ActionQuit))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("indicator waited for the upgrade command")
	}
	assert.NoError(t, runCtx.Err())

	close(runner.block)
	require.Eventually(t, func() bool { return len(runner.Runs()) == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestIndicatorManualCheckAndUnknownAction(t *testing.T) {
	remote := &fakeRemote{}
	service := indicatorService(remote, &fakeRunner{}, &fakePresenter{})
	service.Config.UpdateInterval = time.Hour
	service.Config.StartupDelay = time.Hour
	indicator := service.NewIndicator(t.Context())

	done := make(chan error, 1)
	go func() { done <- indicator.Run() }()

	assert.False(t, indicator.Invoke(types.ActionName("reboot")))
	require.True(t, indicator.Invoke(types.ActionCheck))
	require.Eventually(t, func() bool { return remote.Calls() == 1 }, 2*time.Second, 5*time.Millisecond)

	indicator.Stop()
	require.NoError(t, <-done)
	assert.Equal(t, 1, remote.Calls())
}

func TestServiceCheckReturnsCycleError(t *testing.T) {
	remote := &fakeRemote{check: func(context.Context, int) (types.UpdateSet, error) {
		return types.UpdateSet{}, &types.ConnectionError{Target: types.HostTarget{User: "ops", Host: "alpha"}, Err: context.DeadlineExceeded}
	}}
	service := indicatorService(remote, &fakeRunner{}, &fakePresenter{})

	snapshot, err := service.Check(t.Context())
	require.Error(t, err)
	assert.Equal(t, types.PollerStatusLocked, snapshot.Status)
	assert.True(t, snapshot.Locked)
}

func TestServiceUpgradeRunsOnce(t *testing.T) {
	runner := &fakeRunner{}
	service := indicatorService(&fakeRemote{}, runner, &fakePresenter{})

	require.NoError(t, service.Upgrade(t.Context()))
	require.NoError(t, service.Unlock(t.Context()))
	assert.Equal(t, [][]string{{"apt-dater-launcher", "--all"}, {"ssh-add"}}, runner.Runs())
}
