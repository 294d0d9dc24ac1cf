package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/logger"
)

const (
	// DefaultRequestsPerSecond is the server-side per-IP hard cap
	DefaultRequestsPerSecond = 30
	// DefaultCapacity bounds the number of requests in flight. The exact
	// server algorithm is undocumented, so one slot is the safe choice.
	DefaultCapacity = 1
)

// Limiter gates outbound requests
type Limiter interface {
	// Acquire blocks until a request slot is available or ctx is done
	Acquire(ctx context.Context) error
	// TryAcquire takes a slot if one is immediately available
	TryAcquire() bool
	// Close stops background refilling
	Close()
}

// SlotLimiter is a bounded queue of request slots refilled by a single ticker
// goroutine, one slot every 1/rps, never holding more than capacity slots.
type SlotLimiter struct {
	rps      int
	interval time.Duration
	slots    chan struct{}
	done     chan struct{}
	once     sync.Once
	logger   logger.Logger
	notice   *rate.Sometimes

	// OnWait, if set, is called every time Acquire has to sleep
	OnWait func(time.Duration)
}

// MaxRefillRate is the highest rate the refill ticker can express
const MaxRefillRate = int(time.Second / time.Millisecond)

// NewSlotLimiter creates a limiter and starts its refill ticker. Non-positive
// arguments fall back to DefaultRequestsPerSecond and DefaultCapacity; rates
// above MaxRefillRate are capped.
func NewSlotLimiter(rps, capacity int, log logger.Logger) *SlotLimiter {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	if rps > MaxRefillRate {
		rps = MaxRefillRate
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = logger.GetLogger()
	}

	l := &SlotLimiter{
		rps:      rps,
		interval: time.Second / time.Duration(rps),
		slots:    make(chan struct{}, capacity),
		done:     make(chan struct{}),
		logger:   log,
		notice:   &rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
	for i := 0; i < capacity; i++ {
		l.slots <- struct{}{}
	}

	go l.refill()
	return l
}

func (l *SlotLimiter) refill() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case l.slots <- struct{}{}:
			default:
				// full
			}
		case <-l.done:
			return
		}
	}
}

// TryAcquire takes a slot if one is immediately available
func (l *SlotLimiter) TryAcquire() bool {
	select {
	case <-l.slots:
		return true
	default:
		return false
	}
}

// Acquire takes a slot, polling every 1/rps while none is available
func (l *SlotLimiter) Acquire(ctx context.Context) error {
	for {
		if l.TryAcquire() {
			return nil
		}

		l.logger.DebugWithFields("rate limiting has kicked in", map[string]interface{}{
			"requests_per_second": l.rps,
		})
		l.notice.Do(func() {
			logger.LogThrottle(l.logger, "rate_limit", "", l.interval)
		})
		if l.OnWait != nil {
			l.OnWait(l.interval)
		}

		timer := time.NewTimer(l.interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Close stops the refill ticker. It is safe to call more than once.
func (l *SlotLimiter) Close() {
	l.once.Do(func() { close(l.done) })
}

// RequestsPerSecond returns the configured refill rate
func (l *SlotLimiter) RequestsPerSecond() int {
	return l.rps
}

// Available returns the number of slots currently queued
func (l *SlotLimiter) Available() int {
	return len(l.slots)
}
