// Package notes defines the note entity and its relational store.
package notes

import (
	"context"
	"errors"
	"strings"
	"time"
)

//go:generate mockgen -destination=mocks/mock_notes.go -package=mocks github.com/damianoneill/notesvc/pkg/domain/notes Store

// ListLimit caps the number of notes returned by a listing.
const ListLimit = 50

// ErrEmptyBody is returned when a note is created without text.
var ErrEmptyBody = errors.New("body required")

// Note is a single persisted note.
type Note struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateBody rejects bodies that are empty or only whitespace.
func ValidateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	return nil
}

// Store persists notes.
type Store interface {
	// Migrate creates the notes table if it does not exist.
	Migrate(ctx context.Context) error

	// Create inserts a note and returns the stored row.
	Create(ctx context.Context, body string) (Note, error)

	// List returns at most limit notes, newest first.
	List(ctx context.Context, limit int) ([]Note, error)

	// Now returns the database server's current time.
	Now(ctx context.Context) (time.Time, error)
}
