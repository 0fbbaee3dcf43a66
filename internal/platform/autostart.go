package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var (
	ErrEmptyAppName  = errors.New("app name is empty")
	ErrEmptyExecPath = errors.New("exec path is empty")
)

// Service defines OS-specific helpers needed by the application.
type Service interface {
	GetConfigDir() (string, error)
	AppConfigDir(appName string) (string, error)
	EnableAutostart(appName, execPath string) error
	DisableAutostart(appName string) error
}

type platformService struct {
	fs            afero.Fs
	userConfigDir func() (string, error)
	userHomeDir   func() (string, error)
}

// NewService returns a platform-specific implementation writing through fs.
func NewService(fs afero.Fs) Service {
	return &platformService{
		fs:            fs,
		userConfigDir: os.UserConfigDir,
		userHomeDir:   os.UserHomeDir,
	}
}

// GetConfigDir returns the OS-standard configuration directory.
func (service *platformService) GetConfigDir() (string, error) {
	configDir, err := service.userConfigDir()
	if err == nil && configDir != "" {
		return configDir, nil
	}

	homeDir, homeErr := service.userHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("get config dir: %w", err)
		}
		return "", fmt.Errorf("get config dir: %w", homeErr)
	}

	return fallbackConfigDir(homeDir), nil
}

// AppConfigDir returns the directory holding appName's settings and statistics.
func (service *platformService) AppConfigDir(appName string) (string, error) {
	if strings.TrimSpace(appName) == "" {
		return "", ErrEmptyAppName
	}
	configDir, err := service.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// Autostart binds launch-at-login to one application and its executable.
type Autostart struct {
	service    Service
	appName    string
	executable func() (string, error)
}

func NewAutostart(service Service, appName string) *Autostart {
	return &Autostart{service: service, appName: appName, executable: os.Executable}
}

// Apply enables or disables launching appName at login.
func (autostart *Autostart) Apply(enabled bool) error {
	if !enabled {
		return autostart.service.DisableAutostart(autostart.appName)
	}
	execPath, err := autostart.executable()
	if err != nil {
		return fmt.Errorf("enable autostart: resolve executable: %w", err)
	}
	return autostart.service.EnableAutostart(autostart.appName, execPath)
}

func slug(appName string) string {
	name := strings.TrimSpace(appName)
	if name == "" {
		name = "pomodoro"
	}
	name = strings.ToLower(name)
	return strings.ReplaceAll(name, " ", "-")
}
