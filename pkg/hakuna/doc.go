// Package hakuna is an HTTP client for the Hakuna time-tracking REST API.
//
// The client is stateless with respect to domain data: it holds the token,
// the base URL and an *http.Client, and performs exactly one round trip per
// call. It never retries and never throttles locally; both are the caller's
// concern (see pkg/coordinator).
//
// # Errors
//
// Every failure is returned as an *APIError whose Kind is one of the
// sentinels below, so callers classify with errors.Is:
//
//	ErrAuth         401/403, token invalid or expired
//	ErrRateLimited  429, with RetryAfter parsed from the header
//	ErrTransient    5xx, network failure, timeout, undecodable body
//	ErrConflict     start while a timer already runs
//	ErrNotRunning   stop/cancel without a running timer
//	ErrRequest      any other 4xx
//
// # Capture
//
// Each exchange is reported to Config.ProtocolLogger as a log.ExchangeEvent
// carrying the X-Request-Id and the cycle ID found in the request context.
package hakuna
