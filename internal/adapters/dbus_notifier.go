package adapters

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"

	"remote-apt-dater/internal/ports"
	"remote-apt-dater/internal/types"
)

const (
	NotificationsInterface = "org.freedesktop.Notifications"
	NotificationsPath      = "/org/freedesktop/Notifications"

	notificationActionKey = "default"
)

// DesktopNotifierAdapter sends notifications through the freedesktop
// notification service on the session bus and dispatches action
// callbacks from ActionInvoked signals.
type DesktopNotifierAdapter struct {
	conn    *dbus.Conn
	appName string
	icon    string
	signals chan *dbus.Signal

	mu        sync.Mutex
	callbacks map[uint32]func()
	closed    bool
}

// NewDesktopNotifierAdapter connects to the session bus and subscribes to
// notification signals.
func NewDesktopNotifierAdapter(appName string, icon string) (*DesktopNotifierAdapter, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	a := newDesktopNotifier(conn, appName, icon)
	if err := a.subscribe(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return a, nil
}

func newDesktopNotifier(conn *dbus.Conn, appName string, icon string) *DesktopNotifierAdapter {
	return &DesktopNotifierAdapter{
		conn:      conn,
		appName:   appName,
		icon:      icon,
		signals:   make(chan *dbus.Signal, 16),
		callbacks: map[uint32]func(){},
	}
}

func (a *DesktopNotifierAdapter) Notify(notification types.Notification, onActivate func()) (ports.NotificationHandle, error) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("notify: notifier is closed")
	}

	actions := []string{}
	if onActivate != nil {
		label := notification.ActionLabel
		if label == "" {
			label = "Open"
		}
		actions = append(actions, notificationActionKey, label)
	}

	call := a.conn.Object(NotificationsInterface, NotificationsPath).Call(
		NotificationsInterface+".Notify", 0,
		a.appName,
		uint32(0),
		a.icon,
		notification.Title,
		notification.Body,
		actions,
		map[string]dbus.Variant{},
		int32(-1),
	)
	if call.Err != nil {
		return nil, fmt.Errorf("notify: %w", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}

	if onActivate != nil {
		a.mu.Lock()
		a.callbacks[id] = onActivate
		a.mu.Unlock()
	}
	return desktopNotification{adapter: a, id: id}, nil
}

// Close unsubscribes from signals and releases the bus connection.
func (a *DesktopNotifierAdapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.callbacks = map[uint32]func(){}
	a.mu.Unlock()

	_ = a.conn.RemoveMatchSignal(
		dbus.WithMatchInterface(NotificationsInterface),
		dbus.WithMatchMember("ActionInvoked"),
	)
	_ = a.conn.RemoveMatchSignal(
		dbus.WithMatchInterface(NotificationsInterface),
		dbus.WithMatchMember("NotificationClosed"),
	)
	a.conn.RemoveSignal(a.signals)
	close(a.signals)
	return a.conn.Close()
}

func (a *DesktopNotifierAdapter) subscribe() error {
	if err := a.conn.AddMatchSignal(
		dbus.WithMatchInterface(NotificationsInterface),
		dbus.WithMatchMember("ActionInvoked"),
	); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	if err := a.conn.AddMatchSignal(
		dbus.WithMatchInterface(NotificationsInterface),
		dbus.WithMatchMember("NotificationClosed"),
	); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	a.conn.Signal(a.signals)

	go func() {
		for signal := range a.signals {
			a.handleSignal(signal)
		}
	}()
	return nil
}

func (a *DesktopNotifierAdapter) handleSignal(signal *dbus.Signal) {
	if len(signal.Body) == 0 {
		return
	}
	id, ok := signal.Body[0].(uint32)
	if !ok {
		return
	}
	switch signal.Name {
	case NotificationsInterface + ".ActionInvoked":
		a.mu.Lock()
		callback := a.callbacks[id]
		a.mu.Unlock()
		if callback != nil {
			log.Debug().Uint32("id", id).Msg("notification activated")
			go callback()
		}
	case NotificationsInterface + ".NotificationClosed":
		a.forget(id)
	}
}

func (a *DesktopNotifierAdapter) forget(id uint32) {
	a.mu.Lock()
	delete(a.callbacks, id)
	a.mu.Unlock()
}

type desktopNotification struct {
	adapter *DesktopNotifierAdapter
	id      uint32
}

func (n desktopNotification) Close() error {
	n.adapter.forget(n.id)
	call := n.adapter.conn.Object(NotificationsInterface, NotificationsPath).Call(
		NotificationsInterface+".CloseNotification", 0, n.id,
	)
	return call.Err
}

var _ ports.NotifierPort = (*DesktopNotifierAdapter)(nil)
