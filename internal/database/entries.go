package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MaxTitleLength is the upper bound on entry titles, matching the schema
// CHECK constraint.
const MaxTitleLength = 127

// Entry is one journal post
type Entry struct {
	ID      int64     `db:"id"`
	Title   string    `db:"title"`
	Text    string    `db:"text"`
	Created time.Time `db:"created"`
}

// WriteEntry inserts a new entry with the creation time assigned by the
// store. The write lands on the request transaction; commit is deferred to
// teardown.
func (s *Scope) WriteEntry(ctx context.Context, title, text string) error {
	if title == "" || text == "" {
		return fmt.Errorf("%w: title and text are required", ErrInvalidInput)
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, MaxTitleLength)
	}

	tx, err := s.tx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (title, text, created)
		VALUES (?, ?, ?)
	`, title, text, time.Now().UTC())
	if err != nil {
		return storagef("write entry", err)
	}
	return nil
}

// AllEntries returns every entry, newest first. An empty store yields an
// empty slice, not an error.
func (s *Scope) AllEntries(ctx context.Context) ([]Entry, error) {
	tx, err := s.tx(ctx)
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	err = tx.SelectContext(ctx, &entries, `
		SELECT id, title, text, created
		FROM entries
		ORDER BY created DESC, id DESC
	`)
	if err != nil {
		return nil, storagef("list entries", err)
	}
	return entries, nil
}

// Entry returns the entry with the given id, or ErrNotFound.
func (s *Scope) Entry(ctx context.Context, id int64) (*Entry, error) {
	tx, err := s.tx(ctx)
	if err != nil {
		return nil, err
	}

	var entry Entry
	err = tx.GetContext(ctx, &entry, `
		SELECT id, title, text, created
		FROM entries
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: entry %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, storagef("get entry", err)
	}
	return &entry, nil
}

// UpdateEntry overwrites title and text on the entry with the given id.
// The created timestamp is never touched. An unmatched id surfaces
// ErrNotFound rather than silently succeeding.
func (s *Scope) UpdateEntry(ctx context.Context, title, text string, id int64) error {
	if title == "" || text == "" || id <= 0 {
		return fmt.Errorf("%w: title, text and id are required", ErrInvalidInput)
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, MaxTitleLength)
	}

	tx, err := s.tx(ctx)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE entries
		SET title = ?, text = ?
		WHERE id = ?
	`, title, text, id)
	if err != nil {
		return storagef("update entry", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storagef("update entry", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: entry %d", ErrNotFound, id)
	}
	return nil
}
