package ui

import (
	se "github.com/9ao9ai9ar/stack-exchange-backup/pkg/stackexchange"
)

// NoticePrinter shows the client's throttling notices. Rate limiter notices
// are frequent and only shown when verbose; quota waits also go to the
// notifier because they suspend the run for a day.
type NoticePrinter struct {
	console  *Console
	notifier *Notifier
	verbose  bool
}

// NewNoticePrinter creates a printer. notifier may be nil.
func NewNoticePrinter(console *Console, notifier *Notifier, verbose bool) *NoticePrinter {
	if console == nil {
		console = defaultConsole
	}
	return &NoticePrinter{console: console, notifier: notifier, verbose: verbose}
}

// Notify is passed to stackexchange.WithNotifier
func (p *NoticePrinter) Notify(n se.Notice) {
	switch n.Kind {
	case se.NoticeRateLimit:
		if p.verbose {
			p.console.Printf("%s\n", p.console.paint(Dim, n.Message))
		}
	case se.NoticeQuota:
		if p.notifier != nil {
			p.notifier.SendNotification("Daily quota exhausted", n.Message)
			return
		}
		p.console.Warning(n.Message)
	default:
		p.console.Warning(n.Message)
	}
}
