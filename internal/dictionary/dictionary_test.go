package dictionary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otango/otango/internal/auth"
	"github.com/otango/otango/internal/blocking"
	"github.com/otango/otango/internal/store"
)

func newTestService(t *testing.T, st store.DictionaryStore) *Service {
	t.Helper()
	svc := NewService(st, blocking.New(2), slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func sampleWord() *Word {
	return &Word{
		Word: "単語",
		Readings: []Reading{{
			Full:        "たんご",
			Accent:      "0",
			Definitions: []Definition{{Definition: "a **word**; vocabulary"}},
		}},
		Tags: []Tag{{Tag: "noun"}},
	}
}

func TestService_WordRoundTrip(t *testing.T) {
	st := store.NewMockStore()
	svc := newTestService(t, st)
	ctx := auth.WithPrincipal(context.Background(), &auth.Principal{Name: "alice", Privilege: auth.Admin})

	require.NoError(t, svc.PutWord(ctx, sampleWord()))

	got, err := svc.Word(context.Background(), "単語")
	require.NoError(t, err)
	assert.Equal(t, sampleWord(), got)

	entry, err := st.GetWord(context.Background(), "単語")
	require.NoError(t, err)
	assert.Equal(t, "alice", entry.UpdatedBy)
}

func TestService_KanjiSQLite(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "dict.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := newTestService(t, st)
	ctx := context.Background()

	_, err = svc.Kanji(ctx, "語")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.PutKanji(ctx, &Kanji{Kanji: "語", Mnemonic: "words said five mouths"}))
	require.NoError(t, svc.PutKanji(ctx, &Kanji{Kanji: "語", Mnemonic: "updated"}))

	got, err := svc.Kanji(ctx, "語")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Mnemonic)
}

func TestValidate(t *testing.T) {
	w := sampleWord()
	assert.NoError(t, w.Validate("単語"))
	assert.ErrorIs(t, w.Validate("別"), auth.ErrInvalidRequest)
	assert.ErrorIs(t, (&Word{}).Validate(""), auth.ErrInvalidRequest)

	bad := sampleWord()
	bad.Readings[0].Full = ""
	assert.ErrorIs(t, bad.Validate("単語"), auth.ErrInvalidRequest)

	assert.NoError(t, (&Kanji{Kanji: "語"}).Validate("語"))
	assert.ErrorIs(t, (&Kanji{Kanji: "単語"}).Validate("単語"), auth.ErrInvalidRequest)
	assert.ErrorIs(t, (&Kanji{Kanji: "語"}).Validate("話"), auth.ErrInvalidRequest)
}

type brokenStore struct{ store.DictionaryStore }

func (brokenStore) GetWord(context.Context, string) (*store.Entry, error) {
	return nil, errors.New("disk on fire")
}

func TestService_StorageError(t *testing.T) {
	svc := newTestService(t, brokenStore{})
	_, err := svc.Word(context.Background(), "x")
	assert.ErrorIs(t, err, auth.ErrStorage)
	assert.Equal(t, auth.KindStorage, auth.KindOf(err))
}

func TestRenderWord(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, RenderWord(&sb, sampleWord()))

	html := sb.String()
	assert.Contains(t, html, "<h1>単語</h1>")
	assert.Contains(t, html, "<strong>word</strong>")
	assert.Contains(t, html, "<li>noun</li>")
	assert.Contains(t, html, `<span class="accent">[0]</span>`)
}

func TestRenderWord_EscapesInput(t *testing.T) {
	w := &Word{
		Word: "<script>alert(1)</script>",
		Readings: []Reading{{
			Full:        "x",
			Definitions: []Definition{{Definition: "<img src=x onerror=alert(1)>"}},
		}},
	}

	var sb strings.Builder
	require.NoError(t, RenderWord(&sb, w))

	html := sb.String()
	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<img")
}

func TestService_NormalizesKeys(t *testing.T) {
	svc := newTestService(t, store.NewMockStore())
	ctx := context.Background()

	composed := "\u304c"
	decomposed := "\u304b\u3099"
	require.NotEqual(t, composed, decomposed)

	require.NoError(t, svc.PutWord(ctx, &Word{Word: decomposed, Readings: []Reading{{Full: composed}}}))

	got, err := svc.Word(ctx, composed)
	require.NoError(t, err)
	assert.Equal(t, composed, got.Word, "stored in NFC form")

	w := &Word{Word: composed}
	assert.NoError(t, w.Validate(decomposed), "path and payload compare after normalization")

	k := &Kanji{Kanji: decomposed}
	assert.NoError(t, k.Validate(composed), "a combining sequence normalizes to one character")
}
