package core

import (
	"fmt"

	"remote-apt-dater/internal/types"
)

// BuildMenuState derives what the tray menu shows from a poller
// snapshot. Upgrade is offered only with pending updates and unlock only
// while the agent is considered locked.
func BuildMenuState(snapshot types.Snapshot) types.MenuState {
	menu := types.MenuState{
		Updates: SortUpdates(snapshot.Result.Updates),
		Locked:  snapshot.Locked,
	}
	if !snapshot.Result.CheckedAt.IsZero() {
		checkedAt := snapshot.Result.CheckedAt
		menu.LastCheckedAt = &checkedAt
	}
	if len(menu.Updates) > 0 {
		menu.Actions = append(menu.Actions, types.ActionUpgrade)
	}
	menu.Actions = append(menu.Actions, types.ActionCheck)
	if snapshot.Locked {
		menu.Actions = append(menu.Actions, types.ActionUnlock)
	}
	menu.Actions = append(menu.Actions, types.ActionQuit)
	return menu
}

func UpdatesNotification(count int) types.Notification {
	return types.Notification{
		Title:       "Upgrades available",
		Body:        fmt.Sprintf("%d upgrades ready to install", count),
		ActionLabel: "Launch updates",
	}
}
