// Package fetch is the HTTP client every remote call goes through.
//
// Requests are JSON in and JSON out. HTTP 429 responses and transport
// failures are retried on a fixed delay schedule with random jitter; any other
// non-2xx status fails immediately with a *FetchError. All clients share one
// pooled keep-alive transport unless configured otherwise, and an optional
// rate limiter paces attempts. Sleeps and limiter waits honour context
// cancellation.
package fetch
