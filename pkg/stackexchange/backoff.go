package stackexchange

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/logger"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/retry"
)

// NoticeKind names the reason the client is blocking
type NoticeKind string

const (
	NoticeRateLimit NoticeKind = "rate_limit"
	NoticeBackoff   NoticeKind = "backoff"
	NoticeQuota     NoticeKind = "quota"
)

// Notice is handed to the client's notifier before every blocking wait
type Notice struct {
	Kind     NoticeKind
	Endpoint string
	Wait     time.Duration
	Message  string
}

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// BackoffTracker remembers, per method, the deadline the server asked us to
// wait for. A deadline is consumed once a Check for the same method has
// waited it out.
type BackoffTracker struct {
	mu        sync.Mutex
	deadlines map[string]time.Time

	logger logger.Logger
	now    func() time.Time
	sleep  SleepFunc

	// OnWait, if set, is called before every backoff sleep
	OnWait func(Notice)
}

// NewBackoffTracker creates an empty tracker using the wall clock
func NewBackoffTracker(log logger.Logger) *BackoffTracker {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &BackoffTracker{
		deadlines: make(map[string]time.Time),
		logger:    log,
		now:       time.Now,
		sleep:     retry.Wait,
	}
}

// Record stores the advisory from a response. A later advisory for the same
// method replaces the earlier one.
func (b *BackoffTracker) Record(endpoint string, seconds int) {
	if seconds <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deadlines[endpoint] = b.now().Add(time.Duration(seconds) * time.Second)
}

// Pending returns the stored deadline for endpoint, if any
func (b *BackoffTracker) Pending(endpoint string) (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.deadlines[endpoint]
	return d, ok
}

// Check sleeps until the deadline for endpoint has passed, for the
// remaining whole seconds plus one, and then removes it. The deadline stays
// in place during the sleep so concurrent callers of the same method wait
// for it too. Expired deadlines are removed without waiting.
func (b *BackoffTracker) Check(ctx context.Context, endpoint string) error {
	b.mu.Lock()
	deadline, ok := b.deadlines[endpoint]
	remaining := deadline.Sub(b.now())
	if ok && remaining <= 0 {
		delete(b.deadlines, endpoint)
	}
	b.mu.Unlock()

	if !ok || remaining <= 0 {
		return nil
	}

	wait := time.Duration(math.Round(remaining.Seconds())+1) * time.Second
	logger.LogThrottle(b.logger, string(NoticeBackoff), endpoint, wait)
	if b.OnWait != nil {
		b.OnWait(Notice{
			Kind:     NoticeBackoff,
			Endpoint: endpoint,
			Wait:     wait,
			Message: fmt.Sprintf("We've made too many requests to the Stack Exchange API, "+
				"so we will need to wait for %d seconds. Please be patient...", int(wait.Seconds())),
		})
	}
	if err := b.sleep(ctx, wait); err != nil {
		return err
	}

	b.mu.Lock()
	if current, ok := b.deadlines[endpoint]; ok && current.Equal(deadline) {
		delete(b.deadlines, endpoint)
	}
	b.mu.Unlock()
	return nil
}
