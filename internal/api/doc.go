// Package api exposes otango over HTTP.
//
// # Routes
//
//	GET  /                 redirect to server.root_redirect, else 404
//	GET  /health           liveness
//	POST /auth/register    Signed[Certificate]            -> 201 Identity
//	POST /auth/challenge   Signed[string]                 -> 200 "<nonce>"
//	POST /auth/me          Signed[Envelope[any]]          -> 200 Identity
//	GET  /word/{word}      JSON, or HTML when Accept asks for text/html
//	POST /word/{word}      Signed[Envelope[Word]], Admin  -> 204
//	GET  /kanji/{kanji}
//	POST /kanji/{kanji}    Signed[Envelope[Kanji]], Admin -> 204
//
// # Errors
//
// Every failure is classified with auth.KindOf and mapped through a single
// table to a status code and body. Authentication failures share one generic
// 401 body so a caller cannot tell an unknown user from a bad signature.
// Storage failures return 500 with no detail.
//
// # Middleware
//
// Each request gets an X-Request-ID (a UUID, or the caller's value when it
// is a valid UUID), is logged with its status and duration, recovers from
// panics, and is checked against the configured CORS origins.
package api
