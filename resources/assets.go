package resources

import (
	"embed"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"

	"pomodoro/internal/core/timer"
)

const iconDir = "icons/"

const (
	IconWork  = "tomato.svg"
	IconBreak = "tomato_break.svg"
	IconIdle  = "tomato_idle.svg"
)

//go:embed icons/*.svg
var iconFS embed.FS

var iconCache sync.Map

// Icon returns a Fyne resource for the given icon file.
func Icon(fileName string) (fyne.Resource, error) {
	path := iconDir + fileName
	if cached, ok := iconCache.Load(path); ok {
		return cached.(fyne.Resource), nil
	}

	data, err := iconFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load icon %s: %w", path, err)
	}

	resource := fyne.NewStaticResource(fileName, data)
	iconCache.Store(path, resource)
	return resource, nil
}

// MustIcon returns a Fyne resource or panics on error.
func MustIcon(fileName string) fyne.Resource {
	resource, err := Icon(fileName)
	if err != nil {
		panic(err)
	}
	return resource
}

// PhaseIcon picks the tray and window icon for phase.
func PhaseIcon(phase timer.Phase) fyne.Resource {
	switch phase {
	case timer.PhaseWork:
		return MustIcon(IconWork)
	case timer.PhaseBreak, timer.PhaseLongBreak:
		return MustIcon(IconBreak)
	default:
		return MustIcon(IconIdle)
	}
}
