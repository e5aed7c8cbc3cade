// Package middleware provides the HTTP middleware chain: access
// logging, Prometheus request metrics, and gzip compression for
// text responses. Media payloads are never compressed.
package middleware
