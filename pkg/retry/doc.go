// Package retry re-runs operations that failed before the server produced a
// response.
//
// The API client is fail-fast: HTTP errors, malformed bodies and data
// integrity violations are never retried. Only *errors.NetworkError values
// (dial failures, connection resets, timeouts) qualify under DefaultRetryIf.
// Each attempt is expected to pass through the caller's full request
// pipeline again, so retries still respect backoff advisories and the
// request-rate gate.
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//	    return send(ctx)
//	}, &retry.Config{MaxAttempts: 3, Backoff: retry.DefaultExponentialBackoff()})
package retry
