// Package httputil downloads source files with retry.
//
// # Retry
//
// [Retry] re-runs a function while it fails with a [RetryableError],
// doubling the delay between attempts:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return httputil.Retryable(doSomethingFlaky())
//	})
//
// # Client
//
// [Client.GetBytes] fetches a whole file. Transient failures (network
// errors, 5xx, 429) are retried; a 404 fails immediately with the
// FILE_NOT_FOUND code from pkg/errors. Requests report to the HTTP hooks in
// pkg/observability.
//
// Caching of downloaded bytes lives one level up, in pkg/source, which
// keys them through pkg/cache.
package httputil
