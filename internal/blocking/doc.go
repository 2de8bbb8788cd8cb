// Package blocking bounds how many synchronous storage calls run at once.
//
// The auth and dictionary services share one Pool sized by auth.workers.
// A caller whose context ends while waiting for a slot gets an error and no
// work is done. Once a slot is held, the work runs to completion on a
// context detached from the caller's cancellation, so a challenge is never
// left half consumed by a client that disconnects mid-request.
package blocking
