package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender uses notify-send
type LinuxNotificationSender struct{}

func (LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name=dankrank", title, message).Run()
}

// MacOSNotificationSender uses osascript
type MacOSNotificationSender struct{}

func (MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %s with title %s`, appleScriptString(message), appleScriptString(title))
	return exec.Command("osascript", "-e", script).Run()
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// Notifier prints run notifications and forwards them to the desktop when
// a sender is available
type Notifier struct {
	printer *Printer
	sender  NotificationSender
}

// NewNotifier picks a sender for the current platform. Platforms without
// one only print.
func NewNotifier(p *Printer) *Notifier {
	var sender NotificationSender
	switch runtime.GOOS {
	case "linux":
		sender = LinuxNotificationSender{}
	case "darwin":
		sender = MacOSNotificationSender{}
	}
	return NewNotifierWithSender(p, sender)
}

// NewNotifierWithSender creates a notifier with an explicit sender, which
// may be nil
func NewNotifierWithSender(p *Printer, sender NotificationSender) *Notifier {
	return &Notifier{printer: p, sender: sender}
}

// Success announces a finished run
func (n *Notifier) Success(title, message string) {
	n.printer.Success(title + ": " + message)
	n.send(title, message)
}

// Failure announces a failed run
func (n *Notifier) Failure(title, message string) {
	n.printer.Error(title+": "+message, nil)
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender == nil {
		return
	}
	// desktop delivery is best effort
	_ = n.sender.Send(title, message)
}
