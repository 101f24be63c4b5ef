// Package httpfeed implements a VendorSource that reads normalised JSON
// listings from an HTTP endpoint.
//
// The endpoint is a URL template; "{query}" is replaced by the escaped
// search query. Responses map onto the pipeline's error taxonomy:
// 429 is a rate limit (honouring Retry-After), 5xx and network failures
// are transient, and any other non-2xx status is a permanent rejection.
package httpfeed
