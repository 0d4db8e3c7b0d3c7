// Package apiclient implements the two transports used to read entities
// from the remote API: a cursor-paginated GraphQL endpoint and a
// page-numbered report data endpoint.
//
// Both transports share one retry executor with deterministic exponential
// backoff over a fixed set of transient statuses (429, 500, 502, 503,
// 504). Within one fetch, pages are requested strictly sequentially, with
// a fixed inter-page delay, because each request depends on the previous
// response's cursor or page count.
//
// Any terminal fault (non-2xx after retries, malformed envelope, GraphQL
// error list, pagination circuit breaker) surfaces as a *FetchError that
// identifies the entity and the page or cursor where the fetch stopped.
// Partial data is never returned: an aborted fetch aborts the run.
package apiclient
