package app

import (
	"context"
	"sync"

	"remote-apt-dater/internal/ports"
	"remote-apt-dater/internal/types"
)

type fakeRemote struct {
	mu    sync.Mutex
	calls int
	hosts [][]types.HostTarget
	check func(ctx context.Context, call int) (types.UpdateSet, error)
}

func (f *fakeRemote) Check(ctx context.Context, hosts []types.HostTarget) (types.UpdateSet, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.hosts = append(f.hosts, hosts)
	f.mu.Unlock()
	if f.check == nil {
		return types.UpdateSet{}, nil
	}
	return f.check(ctx, call)
}

func (f *fakeRemote) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeHandle struct {
	mu     sync.Mutex
	title  string
	body   string
	closed bool
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *fakeHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

type fakePresenter struct {
	mu            sync.Mutex
	icons         []types.PollerStatus
	badges        []int
	menus         []types.MenuState
	notifications []*fakeHandle
	activate      func()
	closed        bool

	// iconHook runs after an icon is recorded, outside the lock.
	iconHook func(types.PollerStatus)
}

func (p *fakePresenter) RenderMenu(menu types.MenuState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.menus = append(p.menus, menu)
}

func (p *fakePresenter) SetStatusIcon(status types.PollerStatus) {
	p.mu.Lock()
	p.icons = append(p.icons, status)
	hook := p.iconHook
	p.mu.Unlock()
	if hook != nil {
		hook(status)
	}
}

func (p *fakePresenter) Icons() []types.PollerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.PollerStatus(nil), p.icons...)
}

func (p *fakePresenter) SetBadgeCount(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.badges = append(p.badges, count)
}

func (p *fakePresenter) ShowNotification(title string, body string, onActivate func()) (ports.NotificationHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	handle := &fakeHandle{title: title, body: body}
	p.notifications = append(p.notifications, handle)
	p.activate = onActivate
	return handle, nil
}

func (p *fakePresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePresenter) LastMenu() types.MenuState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.menus) == 0 {
		return types.MenuState{}
	}
	return p.menus[len(p.menus)-1]
}

func (p *fakePresenter) LiveNotifications() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	live := 0
	for _, handle := range p.notifications {
		if !handle.Closed() {
			live++
		}
	}
	return live
}

func (p *fakePresenter) Notifications() []*fakeHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*fakeHandle(nil), p.notifications...)
}

func (p *fakePresenter) Activate() func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activate
}

func (p *fakePresenter) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakeRunner struct {
	mu   sync.Mutex
	runs [][]string
	envs [][]string
	exit int
	err  error

	// started receives the context of each run; block holds a run open
	// until it is closed.
	started chan context.Context
	block   chan struct{}
}

func (r *fakeRunner) Run(ctx context.Context, argv []string, extraEnv []string) (types.ProcessResult, error) {
	if r.started != nil {
		r.started <- ctx
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, argv)
	r.envs = append(r.envs, extraEnv)
	if r.err != nil {
		return types.ProcessResult{}, r.err
	}
	return types.ProcessResult{Exit: r.exit, Stderr: []string{"boom"}}, nil
}

func (r *fakeRunner) Runs() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.runs...)
}
