package stackexchange

import (
	"context"
	"sync"
	"time"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/logger"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/retry"
)

// QuotaWait is how long the client pauses once the daily quota is spent
const QuotaWait = 24 * time.Hour

// QuotaGuard suspends the client once the daily quota is exhausted.
// Running out of quota is not an error; calls resume after Wait.
//
// The suspension is client wide: the caller that saw the exhausted quota
// sleeps in Check, and every other request on the client waits out the same
// deadline in Hold before it is dispatched.
type QuotaGuard struct {
	Wait time.Duration

	mu    sync.Mutex
	until time.Time

	logger logger.Logger
	now    func() time.Time
	sleep  SleepFunc

	// OnWait, if set, is called before the quota sleep
	OnWait func(Notice)
}

// NewQuotaGuard creates a guard that waits QuotaWait
func NewQuotaGuard(log logger.Logger) *QuotaGuard {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &QuotaGuard{
		Wait:   QuotaWait,
		logger: log,
		now:    time.Now,
		sleep:  retry.Wait,
	}
}

// Check suspends the client and sleeps for q.Wait when remaining is present
// and not positive
func (q *QuotaGuard) Check(ctx context.Context, remaining *int) error {
	if remaining == nil || *remaining > 0 {
		return nil
	}

	deadline := q.now().Add(q.Wait)
	q.mu.Lock()
	if deadline.After(q.until) {
		q.until = deadline
	}
	q.mu.Unlock()

	logger.LogThrottle(q.logger, string(NoticeQuota), "", q.Wait)
	if q.OnWait != nil {
		q.OnWait(Notice{
			Kind: NoticeQuota,
			Wait: q.Wait,
			Message: "We've reached the daily quota of the Stack Exchange API. " +
				"The program will resume automatically in 24 hours, " +
				"or you can press Ctrl+C to abort the pending operation.",
		})
	}
	if err := q.sleep(ctx, q.Wait); err != nil {
		return err
	}

	q.mu.Lock()
	if q.until.Equal(deadline) {
		q.until = time.Time{}
	}
	q.mu.Unlock()
	return nil
}

// Hold blocks while the client is suspended
func (q *QuotaGuard) Hold(ctx context.Context) error {
	until, ok := q.Suspended()
	if !ok {
		return nil
	}
	wait := until.Sub(q.now())
	q.logger.DebugWithFields("request held until the daily quota resets", map[string]interface{}{
		"wait": wait,
	})
	return q.sleep(ctx, wait)
}

// Suspended returns the end of the current suspension, if one is in force
func (q *QuotaGuard) Suspended() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.until.IsZero() || !q.until.After(q.now()) {
		return time.Time{}, false
	}
	return q.until, true
}
