package adapters

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"remote-apt-dater/internal/ports"
	"remote-apt-dater/internal/types"
)

// Status icon file names shipped with the tray assets.
const (
	IconIdle     = "sleeping.svg"
	IconChecking = "updating.svg"
	IconLocked   = "locked.svg"
)

// LogPresenterAdapter is a headless presenter: it records the last
// rendered state, logs every change and forwards notifications to an
// optional notifier.
type LogPresenterAdapter struct {
	notifier ports.NotifierPort

	mu     sync.Mutex
	menu   types.MenuState
	status types.PollerStatus
	badge  int
}

func NewLogPresenterAdapter(notifier ports.NotifierPort) *LogPresenterAdapter {
	return &LogPresenterAdapter{notifier: notifier, status: types.PollerStatusIdle}
}

func (a *LogPresenterAdapter) RenderMenu(menu types.MenuState) {
	a.mu.Lock()
	a.menu = menu
	a.mu.Unlock()

	event := log.Info().
		Int("updates", len(menu.Updates)).
		Bool("locked", menu.Locked).
		Interface("actions", menu.Actions)
	if menu.LastCheckedAt != nil {
		event = event.Str("last_checked", menu.LastCheckedAt.Local().Format(time.RFC1123))
	}
	event.Msg(menuHeadline(menu))
	for _, update := range menu.Updates {
		log.Debug().
			Str("package", update.Package).
			Str("version", update.Version).
			Msg("pending update")
	}
}

func (a *LogPresenterAdapter) SetStatusIcon(status types.PollerStatus) {
	a.mu.Lock()
	a.status = status
	a.mu.Unlock()
	log.Debug().Str("status", string(status)).Str("icon", IconForStatus(status)).Msg("status icon")
}

func (a *LogPresenterAdapter) SetBadgeCount(count int) {
	a.mu.Lock()
	a.badge = count
	a.mu.Unlock()
	log.Debug().Int("count", count).Msg("badge")
}

func (a *LogPresenterAdapter) ShowNotification(title string, body string, onActivate func()) (ports.NotificationHandle, error) {
	log.Info().Str("title", title).Str("body", body).Msg("notification")
	if a.notifier == nil {
		return noopHandle{}, nil
	}
	return a.notifier.Notify(types.Notification{
		Title:       title,
		Body:        body,
		ActionLabel: "Launch updates",
	}, onActivate)
}

func (a *LogPresenterAdapter) Close() error {
	if a.notifier == nil {
		return nil
	}
	return a.notifier.Close()
}

// State returns what was last rendered.
func (a *LogPresenterAdapter) State() (types.MenuState, types.PollerStatus, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.menu, a.status, a.badge
}

func IconForStatus(status types.PollerStatus) string {
	switch status {
	case types.PollerStatusChecking:
		return IconChecking
	case types.PollerStatusLocked:
		return IconLocked
	default:
		return IconIdle
	}
}

func menuHeadline(menu types.MenuState) string {
	switch {
	case menu.Locked:
		return "check failed, ssh agent may be locked"
	case len(menu.Updates) == 0:
		return "up to date"
	case len(menu.Updates) == 1:
		return "1 update pending"
	default:
		return "updates pending"
	}
}

type noopHandle struct{}

func (noopHandle) Close() error { return nil }

var _ ports.PresenterPort = (*LogPresenterAdapter)(nil)
