// Package registry provides a client for the asset registry API (Blockstream AMP)
// that keeps the compliance and ownership bookkeeping of managed assets.
//
// The registry is the authority for assignments, lost outputs and the blinding
// factors it knows about, and it is the destination of every confirmation report.
// The client never caches registry state: each method performs a live request.
//
// # Authentication
//
// Clients authenticate with a token obtained by exchanging a username and password
// at user/obtain_token. Every subsequent request carries "Authorization: token <t>".
// Factory performs the exchange for each base URL it is asked for.
//
// # Base URLs
//
// Action files carry the API location as a template with a "{}" placeholder
// (https://amp.blockstream.com/api/{}); plain prefixes are accepted as well.
//
// # Errors
//
// Any non-200 response is returned as *StatusError with the endpoint, status and body,
// so callers can decide whether a failure happened before or after a broadcast.
//
// # Testing
//
// MockRegistry is a testify mock of interfaces.Registry. MockServer is an in-memory
// registry served over HTTP that tracks distributions and blinders like the real
// service does.
package registry
