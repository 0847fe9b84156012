package controller

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/aoideee/bookshelf/internal/data"
)

// ErrSessionClosed is returned when Save is called on a session that is no
// longer editing.
var ErrSessionClosed = errors.New("edit session is closed")

// SessionState is the state of an EditSession.
type SessionState int

const (
	Idle SessionState = iota
	Editing
)

func (s SessionState) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

// EditSession holds in-flight edits to one book. The fields are a private
// copy; the store sees them only when Save succeeds.
type EditSession struct {
	c  *Controller
	id uuid.UUID

	Title       string
	Author      string
	Description string

	state SessionState
}

// BeginEdit opens an edit session on the book with the given id, seeded
// with its current values.
func (c *Controller) BeginEdit(ctx context.Context, id uuid.UUID) (*EditSession, error) {
	book, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &EditSession{
		c:           c,
		id:          id,
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		state:       Editing,
	}, nil
}

// ID returns the id of the book being edited.
func (s *EditSession) ID() uuid.UUID { return s.id }

// State returns the current session state.
func (s *EditSession) State() SessionState { return s.state }

// Save commits the session. A validation failure keeps the session open
// with its fields untouched so the user can correct them; any other
// outcome closes it.
func (s *EditSession) Save(ctx context.Context) (*data.Book, error) {
	if s.state != Editing {
		return nil, ErrSessionClosed
	}

	book, err := s.c.EditBook(ctx, s.id, s.Title, s.Author, s.Description)
	if errors.Is(err, data.ErrValidation) {
		return nil, err
	}

	s.state = Idle
	return book, err
}

// Cancel discards the in-flight edits.
func (s *EditSession) Cancel() {
	s.state = Idle
}
