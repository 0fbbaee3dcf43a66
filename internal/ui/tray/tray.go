package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
)

const menuTitle = "Pomodoro"

// App is the part of desktop.App the tray needs.
type App interface {
	SetSystemTrayMenu(menu *fyne.Menu)
	SetSystemTrayIcon(icon fyne.Resource)
}

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow        func()
	OnToggle      func()
	OnStop        func()
	OnBreakNow    func()
	OnStatistics  func()
	OnPreferences func()
	OnToggleSound func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app        App
	callbacks  Callbacks
	statusItem *fyne.MenuItem
	toggleItem *fyne.MenuItem
	stopItem   *fyne.MenuItem
	breakItem  *fyne.MenuItem
	soundItem  *fyne.MenuItem
}

// New creates a tray manager with the provided callbacks and installs its menu.
func New(app App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Status: ready", nil)
	manager.statusItem.Disabled = true
	manager.toggleItem = fyne.NewMenuItem("Start", invoke(&manager.callbacks.OnToggle))
	manager.stopItem = fyne.NewMenuItem("Stop", invoke(&manager.callbacks.OnStop))
	manager.stopItem.Disabled = true
	manager.breakItem = fyne.NewMenuItem("Take a break now", invoke(&manager.callbacks.OnBreakNow))
	manager.soundItem = fyne.NewMenuItem("Sound: on", invoke(&manager.callbacks.OnToggleSound))

	manager.refreshMenu()
	return manager
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	manager.statusItem.Label = fmt.Sprintf("Status: %s", status)
	manager.refreshMenu()
}

// SetAction relabels the start/pause/resume item.
func (manager *Manager) SetAction(label string) {
	manager.toggleItem.Label = label
	manager.refreshMenu()
}

// SetRunning enables the stop item while a countdown is active.
func (manager *Manager) SetRunning(running bool) {
	manager.stopItem.Disabled = !running
	manager.refreshMenu()
}

// SetSound shows whether sound notifications are on.
func (manager *Manager) SetSound(enabled bool) {
	if enabled {
		manager.soundItem.Label = "Sound: on"
	} else {
		manager.soundItem.Label = "Sound: off"
	}
	manager.refreshMenu()
}

// SetIcon swaps the tray icon.
func (manager *Manager) SetIcon(icon fyne.Resource) {
	if manager.app != nil {
		manager.app.SetSystemTrayIcon(icon)
	}
}

func (manager *Manager) menu() *fyne.Menu {
	return fyne.NewMenu(menuTitle,
		manager.statusItem,
		fyne.NewMenuItem("Show timer", invoke(&manager.callbacks.OnShow)),
		fyne.NewMenuItemSeparator(),
		manager.toggleItem,
		manager.stopItem,
		manager.breakItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Statistics", invoke(&manager.callbacks.OnStatistics)),
		fyne.NewMenuItem("Settings", invoke(&manager.callbacks.OnPreferences)),
		manager.soundItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", invoke(&manager.callbacks.OnQuit)),
	)
}

func (manager *Manager) refreshMenu() {
	if manager.app != nil {
		manager.app.SetSystemTrayMenu(manager.menu())
	}
}

func invoke(callback *func()) func() {
	return func() {
		if *callback != nil {
			(*callback)()
		}
	}
}
