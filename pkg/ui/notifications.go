package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// AppName is shown as the source of desktop notifications
const AppName = "Stack Exchange Backup"

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	cmd := exec.Command("notify-send", "--app-name", AppName, title, message)
	return cmd.Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("%s").Show($toast)
	`, title, message, AppName)

	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	return cmd.Run()
}

// platformSender picks the sender for the running OS, or nil
func platformSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return &LinuxNotificationSender{}
	case "darwin":
		return &MacOSNotificationSender{}
	case "windows":
		return &WindowsNotificationSender{}
	default:
		return nil
	}
}

// Notifier prints events on the console and, when enabled, raises a
// desktop notification for them
type Notifier struct {
	console *Console
	sender  NotificationSender
}

// NewNotifier creates a Notifier. Desktop notifications are only sent when
// desktop is true and the platform supports them.
func NewNotifier(console *Console, desktop bool) *Notifier {
	n := &Notifier{console: console}
	if n.console == nil {
		n.console = defaultConsole
	}
	if desktop {
		n.sender = platformSender()
	}
	return n
}

// NewNotifierWithSender creates a Notifier using sender for desktop
// notifications
func NewNotifierWithSender(console *Console, sender NotificationSender) *Notifier {
	n := NewNotifier(console, false)
	n.sender = sender
	return n
}

// SendNotification prints the event and sends a desktop notification
func (n *Notifier) SendNotification(title, message string) {
	n.console.Printf("\n%s: %s\n", n.console.paint(Cyan, title), n.console.paint(Yellow, message))
	n.send(title, message)
}

// SendError prints the error and sends a desktop notification
func (n *Notifier) SendError(title, message string) {
	n.console.Printf("\n%s: %s\n", n.console.paint(Red, title), n.console.paint(Red, message))
	n.send(title, message)
}

// SendSuccess prints the success and sends a desktop notification
func (n *Notifier) SendSuccess(title, message string) {
	n.console.Printf("\n%s: %s\n", n.console.paint(Green, title), n.console.paint(Green, message))
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender != nil {
		// not critical
		_ = n.sender.Send(title, message)
	}
}
