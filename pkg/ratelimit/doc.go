// Package ratelimit provides the process-wide request gate for the API client.
//
// The server drops requests from an IP that exceeds 30 per second across all
// methods, so the gate is global rather than per endpoint. SlotLimiter keeps a
// bounded channel of request slots; a single ticker goroutine adds one slot
// every 1/rps and never lets the queue grow past its capacity. Callers take a
// slot with Acquire, which polls at the refill interval while the queue is
// empty and returns early if the context is cancelled.
//
//	limiter := ratelimit.NewSlotLimiter(20, 1, log)
//	defer limiter.Close()
//
//	if err := limiter.Acquire(ctx); err != nil {
//	    return err
//	}
//	// dispatch one request
package ratelimit
