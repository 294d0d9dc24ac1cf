package backup

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingReporter) add(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) SitesFound(accountID int64, users []NetworkUserSlim) {
	r.add("found %d for %d", len(users), accountID)
}

func (r *recordingReporter) PassStarted(kind string, index, total int, site string) {
	r.add("start %s %d/%d %s", kind, index, total, site)
}

func (r *recordingReporter) PassFinished(kind string, index, total int, site string, written, skipped int) {
	r.add("done %s %d/%d %s %d %d", kind, index, total, site, written, skipped)
}

func TestRunnerBacksUpEverySite(t *testing.T) {
	f := newFixture(t)
	reporter := &recordingReporter{}

	totals, err := NewRunner(f.backup, reporter).Run(context.Background(), accountID)
	require.NoError(t, err)

	assert.Equal(t, 4, totals.Sites)
	assert.Equal(t, 2, totals.Questions.Written)
	assert.Equal(t, 2, totals.Answers.Written)

	require.Len(t, reporter.events, 1+4*2*2)
	assert.Equal(t, "found 4 for 42", reporter.events[0])
	assert.Equal(t, "start questions 1/4 stackoverflow.com", reporter.events[1])
	assert.Equal(t, "done questions 1/4 stackoverflow.com 2 0", reporter.events[2])
	assert.Equal(t, "start answers 1/4 stackoverflow.com", reporter.events[3])
	assert.Equal(t, "done answers 1/4 stackoverflow.com 2 0", reporter.events[4])
	assert.Equal(t, "done answers 4/4 meta.stackoverflow.com 0 0", reporter.events[16])
	assert.True(t, f.log.HasMessage("backup pass finished"))
}

func TestRunnerIsIdempotent(t *testing.T) {
	f := newFixture(t)
	runner := NewRunner(f.backup, nil)

	_, err := runner.Run(context.Background(), accountID)
	require.NoError(t, err)

	totals, err := runner.Run(context.Background(), accountID)
	require.NoError(t, err)
	assert.Zero(t, totals.Questions.Written)
	assert.Zero(t, totals.Answers.Written)
	assert.Equal(t, 2, totals.Questions.Skipped)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(f.backup, nil).Run(ctx, accountID)
	assert.ErrorIs(t, err, context.Canceled)
}
