// ABOUTME: Dictionary persistence for the SQL store
// ABOUTME: Words and kanji are stored as JSON documents keyed by their headword

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetWord retrieves a word document.
// Returns ErrNotFound if the word doesn't exist.
func (s *SQLStore) GetWord(ctx context.Context, word string) (*Entry, error) {
	return s.getEntry(ctx, `SELECT word, body, updated_at, updated_by FROM words WHERE word = ?`, word)
}

// PutWord inserts or replaces a word document.
func (s *SQLStore) PutWord(ctx context.Context, entry *Entry) error {
	return s.putEntry(ctx, s.dialect.upsertWord, entry)
}

// GetKanji retrieves a kanji document.
// Returns ErrNotFound if the kanji doesn't exist.
func (s *SQLStore) GetKanji(ctx context.Context, kanji string) (*Entry, error) {
	return s.getEntry(ctx, `SELECT kanji, body, updated_at, updated_by FROM kanji WHERE kanji = ?`, kanji)
}

// PutKanji inserts or replaces a kanji document.
func (s *SQLStore) PutKanji(ctx context.Context, entry *Entry) error {
	return s.putEntry(ctx, s.dialect.upsertKanji, entry)
}

func (s *SQLStore) getEntry(ctx context.Context, query, key string) (*Entry, error) {
	var entry Entry
	var body, updatedAtStr string
	var updatedBy sql.NullString

	err := s.queryRow(ctx, query, key).Scan(&entry.Key, &body, &updatedAtStr, &updatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying entry: %w", err)
	}

	entry.Body = []byte(body)
	entry.UpdatedBy = updatedBy.String
	entry.UpdatedAt, err = parseTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &entry, nil
}

func (s *SQLStore) putEntry(ctx context.Context, query string, entry *Entry) error {
	var updatedBy sql.NullString
	if entry.UpdatedBy != "" {
		updatedBy = sql.NullString{String: entry.UpdatedBy, Valid: true}
	}

	if _, err := s.exec(ctx, query, entry.Key, string(entry.Body), formatTime(entry.UpdatedAt), updatedBy); err != nil {
		return fmt.Errorf("upserting entry: %w", err)
	}

	s.logger.Debug("stored dictionary entry", "key", entry.Key, "by", entry.UpdatedBy)
	return nil
}
