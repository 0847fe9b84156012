package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/bookshelf/internal/data"
)

func TestEditSession_ValidationKeepsEditing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _, _ := newTestController(t)

	book, err := c.AddBook(ctx, "Dune", "Herbert", "")
	require.NoError(t, err)

	s, err := c.BeginEdit(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, Editing, s.State())
	assert.Equal(t, "Dune", s.Title)

	s.Title = "Du"
	_, err = s.Save(ctx)
	require.ErrorIs(t, err, data.ErrValidation)
	assert.Equal(t, Editing, s.State())
	assert.Equal(t, "Du", s.Title, "in-progress edit is left untouched")

	stored, err := c.Book(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", stored.Title)

	s.Title = "Dune Messiah"
	saved, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, "Dune Messiah", saved.Title)

	_, err = s.Save(ctx)
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestEditSession_Cancel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _, _ := newTestController(t)

	book, err := c.AddBook(ctx, "Dune", "Herbert", "")
	require.NoError(t, err)

	s, err := c.BeginEdit(ctx, book.ID)
	require.NoError(t, err)
	s.Author = "Someone Else"
	s.Cancel()
	assert.Equal(t, Idle, s.State())

	stored, err := c.Book(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Herbert", stored.Author)
}

func TestEditSession_DeletedBookCloses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _, _ := newTestController(t)

	book, err := c.AddBook(ctx, "Dune", "Herbert", "")
	require.NoError(t, err)

	s, err := c.BeginEdit(ctx, book.ID)
	require.NoError(t, err)
	require.NoError(t, c.DeleteBook(ctx, book.ID))

	_, err = s.Save(ctx)
	require.ErrorIs(t, err, data.ErrRecordNotFound)
	assert.Equal(t, Idle, s.State())

	_, err = c.BeginEdit(ctx, book.ID)
	require.ErrorIs(t, err, data.ErrRecordNotFound)
}
