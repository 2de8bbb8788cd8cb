// ABOUTME: Dictionary entry types and the service that reads and writes them
// ABOUTME: Entries persist as JSON documents; edits record the authenticated editor

package dictionary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/otango/otango/internal/auth"
	"github.com/otango/otango/internal/blocking"
	"github.com/otango/otango/internal/store"
)

// ErrNotFound is returned when no entry exists for the key.
var ErrNotFound = errors.New("entry not found")

// Word is a dictionary headword with its readings and tags.
type Word struct {
	Word     string    `json:"word"`
	Readings []Reading `json:"readings"`
	Tags     []Tag     `json:"tags"`
}

// Reading is one pronunciation of a word.
type Reading struct {
	Full        string       `json:"full"`
	Accent      string       `json:"accent"`
	Definitions []Definition `json:"definitions"`
}

// Definition is a Markdown gloss.
type Definition struct {
	Definition string `json:"definition"`
}

// Tag labels a word.
type Tag struct {
	Tag string `json:"tag"`
}

// Kanji is a single character with a mnemonic.
type Kanji struct {
	Kanji    string `json:"kanji"`
	Mnemonic string `json:"mnemonic"`
}

// NormalizeKey returns the NFC form of a headword. Kana with voicing marks
// can arrive precomposed or combining; both map to the same entry.
func NormalizeKey(s string) string {
	return norm.NFC.String(s)
}

// Validate checks that the word is usable under key.
func (w *Word) Validate(key string) error {
	if w.Word == "" {
		return fmt.Errorf("%w: word is required", auth.ErrInvalidRequest)
	}
	if NormalizeKey(w.Word) != NormalizeKey(key) {
		return fmt.Errorf("%w: word %q does not match path %q", auth.ErrInvalidRequest, w.Word, key)
	}
	for i, r := range w.Readings {
		if r.Full == "" {
			return fmt.Errorf("%w: reading %d has no text", auth.ErrInvalidRequest, i)
		}
	}
	for i, t := range w.Tags {
		if t.Tag == "" {
			return fmt.Errorf("%w: tag %d is empty", auth.ErrInvalidRequest, i)
		}
	}
	return nil
}

// Validate checks that the kanji is a single character matching key.
func (k *Kanji) Validate(key string) error {
	if utf8.RuneCountInString(NormalizeKey(k.Kanji)) != 1 {
		return fmt.Errorf("%w: kanji must be a single character", auth.ErrInvalidRequest)
	}
	if NormalizeKey(k.Kanji) != NormalizeKey(key) {
		return fmt.Errorf("%w: kanji %q does not match path %q", auth.ErrInvalidRequest, k.Kanji, key)
	}
	return nil
}

// Service reads and writes dictionary entries.
type Service struct {
	store  store.DictionaryStore
	pool   *blocking.Pool
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a Service. A nil pool creates a default one.
func NewService(st store.DictionaryStore, pool *blocking.Pool, logger *slog.Logger) *Service {
	if pool == nil {
		pool = blocking.New(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		pool:   pool,
		logger: logger.With("component", "dictionary"),
		now:    time.Now,
	}
}

// Word returns the entry for word.
func (s *Service) Word(ctx context.Context, word string) (*Word, error) {
	var w Word
	if err := s.get(ctx, s.store.GetWord, NormalizeKey(word), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// PutWord inserts or replaces a word.
func (s *Service) PutWord(ctx context.Context, w *Word) error {
	w.Word = NormalizeKey(w.Word)
	if err := w.Validate(w.Word); err != nil {
		return err
	}
	return s.put(ctx, s.store.PutWord, w.Word, w)
}

// Kanji returns the entry for kanji.
func (s *Service) Kanji(ctx context.Context, kanji string) (*Kanji, error) {
	var k Kanji
	if err := s.get(ctx, s.store.GetKanji, NormalizeKey(kanji), &k); err != nil {
		return nil, err
	}
	return &k, nil
}

// PutKanji inserts or replaces a kanji.
func (s *Service) PutKanji(ctx context.Context, k *Kanji) error {
	k.Kanji = NormalizeKey(k.Kanji)
	if err := k.Validate(k.Kanji); err != nil {
		return err
	}
	return s.put(ctx, s.store.PutKanji, k.Kanji, k)
}

func (s *Service) get(ctx context.Context, load func(context.Context, string) (*store.Entry, error), key string, into any) error {
	entry, err := blocking.Run(ctx, s.pool, func(ctx context.Context) (*store.Entry, error) {
		return load(ctx, key)
	})
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("%w: loading %q: %w", auth.ErrStorage, key, err)
	}
	if err := json.Unmarshal(entry.Body, into); err != nil {
		return fmt.Errorf("%w: decoding %q: %w", auth.ErrStorage, key, err)
	}
	return nil
}

func (s *Service) put(ctx context.Context, save func(context.Context, *store.Entry) error, key string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}

	entry := &store.Entry{
		Key:       key,
		Body:      body,
		UpdatedAt: s.now().UTC(),
	}
	if p := auth.PrincipalFromContext(ctx); p != nil {
		entry.UpdatedBy = p.Name
	}

	err = s.pool.Do(ctx, func(ctx context.Context) error {
		return save(ctx, entry)
	})
	if err != nil {
		return fmt.Errorf("%w: saving %q: %w", auth.ErrStorage, key, err)
	}

	s.logger.Info("entry updated", "key", key, "by", entry.UpdatedBy)
	return nil
}
