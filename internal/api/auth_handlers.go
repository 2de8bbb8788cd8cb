// ABOUTME: HTTP handlers for registration, challenge issue and identity lookup
// ABOUTME: Bodies are signed JSON documents verified by the auth service

package api

import (
	"encoding/json"
	"net/http"

	"github.com/otango/otango/internal/auth"
)

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	signed, err := decodeBody[auth.Signed[auth.Certificate]](a, w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	identity, err := a.auth.Register(r.Context(), signed)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	identity.PublicKey = ""
	writeJSON(w, http.StatusCreated, identity)
}

func (a *API) handleChallenge(w http.ResponseWriter, r *http.Request) {
	signed, err := decodeBody[auth.Signed[string]](a, w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	nonce, err := a.auth.IssueChallenge(r.Context(), signed)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonce)
}

// handleMe authenticates any envelope at privilege None and returns the
// caller's identity.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	signed, err := decodeBody[auth.Signed[auth.Envelope[json.RawMessage]]](a, w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	authed, err := auth.Authenticate(r.Context(), a.auth, signed, auth.None)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	identity, err := a.auth.Identity(r.Context(), authed.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	identity.PublicKey = ""
	writeJSON(w, http.StatusOK, identity)
}
