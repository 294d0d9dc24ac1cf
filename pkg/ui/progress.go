package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/backup"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// ProfileURL is the network profile of an account
func ProfileURL(accountID int64) string {
	return fmt.Sprintf("https://stackexchange.com/users/%d/", accountID)
}

// SiteProgress reports a backup run site by site on a Console
type SiteProgress struct {
	console *Console
	verbose bool

	mu        sync.Mutex
	startTime time.Time
	sites     int
	written   map[string]int
	skipped   map[string]int
}

// NewSiteProgress creates a reporter. Verbose adds a progress bar and the
// per-site counts after every pass.
func NewSiteProgress(console *Console, verbose bool) *SiteProgress {
	if console == nil {
		console = defaultConsole
	}
	return &SiteProgress{
		console:   console,
		verbose:   verbose,
		startTime: time.Now(),
		written:   make(map[string]int),
		skipped:   make(map[string]int),
	}
}

// SitesFound prints the number of sites the account is active on
func (p *SiteProgress) SitesFound(accountID int64, users []backup.NetworkUserSlim) {
	p.mu.Lock()
	p.sites = len(users)
	p.mu.Unlock()
	p.console.Printf("Found %d Stack Exchange sites associated with %s\n", len(users), ProfileURL(accountID))
}

// PassStarted prints the site about to be backed up. The line is finished
// by PassFinished.
func (p *SiteProgress) PassStarted(kind string, index, total int, site string) {
	p.console.Printf("Downloading and writing %s from site %d/%d (%s)...", kind, index, total, site)
}

// PassFinished completes the line started by PassStarted
func (p *SiteProgress) PassFinished(kind string, index, total int, site string, written, skipped int) {
	p.mu.Lock()
	p.written[kind] += written
	p.skipped[kind] += skipped
	p.mu.Unlock()

	p.console.Printf("Done.\n")
	if p.verbose {
		p.console.Printf("  %s %s %d written, %d already backed up\n",
			p.console.paint(Dim, Bar(index, total, 20)), site, written, skipped)
	}
}

// Written returns the number of files written for kind so far
func (p *SiteProgress) Written(kind string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written[kind]
}

// Skipped returns the number of files already present for kind so far
func (p *SiteProgress) Skipped(kind string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.skipped[kind]
}

// Elapsed returns the time since the reporter was created
func (p *SiteProgress) Elapsed() time.Duration {
	return time.Since(p.startTime)
}

// Summary prints the totals of the run
func (p *SiteProgress) Summary() {
	p.mu.Lock()
	questions, answers := p.written[backup.KindQuestions], p.written[backup.KindAnswers]
	skipped := p.skipped[backup.KindQuestions] + p.skipped[backup.KindAnswers]
	p.mu.Unlock()

	p.console.Success(fmt.Sprintf("Backed up %d questions and %d answered questions in %s (%d already present)",
		questions, answers, p.Elapsed().Round(time.Second), skipped))
}

// Bar draws a progress bar of width cells for done out of total
func Bar(done, total, width int) string {
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat(ProgressBar, filled),
		strings.Repeat(ProgressEmpty, width-filled),
		done, total)
}
