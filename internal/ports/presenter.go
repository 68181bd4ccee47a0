package ports

import "remote-apt-dater/internal/types"

type NotificationHandle interface {
	Close() error
}

// PresenterPort is everything the core tells the tray layer. Calls are
// serialized by the caller.
type PresenterPort interface {
	RenderMenu(menu types.MenuState)
	SetStatusIcon(status types.PollerStatus)
	SetBadgeCount(count int)
	ShowNotification(title string, body string, onActivate func()) (NotificationHandle, error)
	Close() error
}

// NotifierPort delivers desktop notifications. onActivate may be nil.
type NotifierPort interface {
	Notify(notification types.Notification, onActivate func()) (NotificationHandle, error)
	Close() error
}
