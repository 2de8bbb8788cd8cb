// Package server assembles otango from its configuration and runs it.
//
// New opens the store, builds the auth and dictionary services on a shared
// blocking pool, and mounts the HTTP API. Run listens either on a TCP address
// (optionally with TLS from server.tls_cert and server.tls_key) or on a
// tailnet through tsnet, and blocks until the context is cancelled or the
// HTTP server fails. Shutdown drains in-flight requests, then closes the
// tailnet node and the store.
package server
