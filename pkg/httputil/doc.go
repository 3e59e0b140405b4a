// Package httputil provides the HTTP plumbing used to fetch remote part
// images.
//
// # Overview
//
//   - [Client]: GET with default headers, status mapping and retries
//   - [Retry]: automatic retry with exponential backoff
//
// # Retry
//
// Only errors wrapped in [RetryableError] are retried. [Client] wraps
// transport failures and 5xx responses; 4xx responses fail immediately:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    data, err = fetch()
//	    return err
//	})
//
// # Configuration
//
// Defaults suit interactive use:
//
//   - Request timeout: 30 seconds
//   - Attempts: 3
//   - Base backoff: 1 second, doubling
//   - Maximum body size: 32 MiB
//
// Caching of fetched bytes lives one level up, in the source package, so that
// the CLI file cache and the server Redis cache share the same keys.
package httputil
