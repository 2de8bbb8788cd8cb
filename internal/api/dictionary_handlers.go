// ABOUTME: HTTP handlers for reading and editing dictionary entries
// ABOUTME: Reads are public; writes require an Admin-signed envelope

package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/otango/otango/internal/auth"
	"github.com/otango/otango/internal/dictionary"
)

func (a *API) handleGetWord(w http.ResponseWriter, r *http.Request) {
	key, err := pathParam(r, "word")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	word, err := a.dictionary.Word(r.Context(), key)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if !wantsHTML(r) {
		writeJSON(w, http.StatusOK, word)
		return
	}

	var buf bytes.Buffer
	if err := dictionary.RenderWord(&buf, word); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (a *API) handlePutWord(w http.ResponseWriter, r *http.Request) {
	key, err := pathParam(r, "word")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	signed, err := decodeBody[auth.Signed[auth.Envelope[dictionary.Word]]](a, w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	authed, err := auth.Authenticate(r.Context(), a.auth, signed, auth.Admin)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	word := authed.Data
	if err := word.Validate(key); err != nil {
		a.writeError(w, r, err)
		return
	}

	ctx := auth.WithPrincipal(r.Context(), &authed.Principal)
	if err := a.dictionary.PutWord(ctx, &word); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleGetKanji(w http.ResponseWriter, r *http.Request) {
	key, err := pathParam(r, "kanji")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	kanji, err := a.dictionary.Kanji(r.Context(), key)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kanji)
}

func (a *API) handlePutKanji(w http.ResponseWriter, r *http.Request) {
	key, err := pathParam(r, "kanji")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	signed, err := decodeBody[auth.Signed[auth.Envelope[dictionary.Kanji]]](a, w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	authed, err := auth.Authenticate(r.Context(), a.auth, signed, auth.Admin)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	kanji := authed.Data
	if err := kanji.Validate(key); err != nil {
		a.writeError(w, r, err)
		return
	}

	ctx := auth.WithPrincipal(r.Context(), &authed.Principal)
	if err := a.dictionary.PutKanji(ctx, &kanji); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// wantsHTML reports whether the Accept header prefers text/html.
func wantsHTML(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(strings.TrimSpace(mediaType), "text/html") {
			return true
		}
	}
	return false
}
