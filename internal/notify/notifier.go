package notify

import (
	"errors"

	"fyne.io/fyne/v2"
	"github.com/sirupsen/logrus"
)

var ErrNoApp = errors.New("no fyne app to notify through")

// LogNotifier writes notifications to the log. Used when no desktop is available.
type LogNotifier struct {
	log logrus.FieldLogger
}

func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: logger}
}

func (notifier *LogNotifier) Notify(title, message string) error {
	notifier.log.WithField("title", title).Info(message)
	return nil
}

// DesktopNotifier sends system notifications through a fyne app.
type DesktopNotifier struct {
	app fyne.App
	log logrus.FieldLogger
}

func NewDesktopNotifier(app fyne.App, logger logrus.FieldLogger) *DesktopNotifier {
	return &DesktopNotifier{app: app, log: logger}
}

func (notifier *DesktopNotifier) Notify(title, message string) error {
	if notifier.app == nil {
		return ErrNoApp
	}
	notifier.log.WithField("title", title).Debug("sending desktop notification")
	notifier.app.SendNotification(fyne.NewNotification(title, message))
	return nil
}
