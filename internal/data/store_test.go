package data

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore opens a SQLite-backed store in a fresh temp directory and
// returns it together with its DSN so tests can reopen it.
func openTestStore(t *testing.T) (*BookModel, string) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "books.db")
	m, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, dsn
}

func reopen(t *testing.T, dsn string) *BookModel {
	t.Helper()

	m, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestCreate_TrimsAndAppends(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := openTestStore(t)

	id, err := m.Create(ctx, "  Dune  ", " Herbert ", "\n")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	books := m.List(ctx)
	require.Len(t, books, 1)
	assert.Equal(t, id, books[0].ID)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "Herbert", books[0].Author)
	assert.Equal(t, "", books[0].Description)
	assert.False(t, books[0].CreatedAt.IsZero())
	assert.Equal(t, 1, m.Pending())
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := openTestStore(t)

	tests := []struct {
		name   string
		title  string
		author string
		fields []string
	}{
		{"short title", "ab", "Herbert", []string{"title"}},
		{"short author after trim", "Dune", "  He  ", []string{"author"}},
		{"both empty", "", "   ", []string{"title", "author"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(ctx, tt.title, tt.author, "")
			require.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			for _, f := range tt.fields {
				assert.Contains(t, ve.Errors, f)
			}
			assert.Len(t, ve.Errors, len(tt.fields))
		})
	}

	assert.Empty(t, m.List(ctx))
	assert.Zero(t, m.Pending())
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := openTestStore(t)

	first, err := m.Create(ctx, "Dune", "Herbert", "")
	require.NoError(t, err)
	second, err := m.Create(ctx, "1984", "Orwell", "")
	require.NoError(t, err)

	require.NoError(t, m.Update(ctx, first, " Dune Messiah ", "Frank Herbert", " sequel "))

	books := m.List(ctx)
	require.Len(t, books, 2)
	assert.Equal(t, first, books[0].ID, "update keeps position")
	assert.Equal(t, "Dune Messiah", books[0].Title)
	assert.Equal(t, "Frank Herbert", books[0].Author)
	assert.Equal(t, "sequel", books[0].Description)
	assert.Equal(t, second, books[1].ID)

	err = m.Update(ctx, first, "Du", "Herbert", "")
	require.ErrorIs(t, err, ErrValidation)

	got, err := m.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Title, "failed update leaves record untouched")

	err = m.Update(ctx, uuid.New(), "Dune", "Herbert", "")
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDelete_TwiceIsNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := openTestStore(t)

	keep, err := m.Create(ctx, "Dune", "Herbert", "")
	require.NoError(t, err)
	gone, err := m.Create(ctx, "1984", "Orwell", "")
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, gone))

	books := m.List(ctx)
	require.Len(t, books, 1)
	assert.Equal(t, keep, books[0].ID)

	require.ErrorIs(t, m.Delete(ctx, gone), ErrRecordNotFound)
	_, err = m.Get(ctx, gone)
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestList_ReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := openTestStore(t)

	_, err := m.Create(ctx, "Dune", "Herbert", "")
	require.NoError(t, err)

	books := m.List(ctx)
	books[0].Title = "changed"

	assert.Equal(t, "Dune", m.List(ctx)[0].Title)
}

func TestFlush_ReopenYieldsSameState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, dsn := openTestStore(t)

	a, err := m.Create(ctx, "Dune", "Herbert", "spice")
	require.NoError(t, err)
	b, err := m.Create(ctx, "1984", "Orwell", "")
	require.NoError(t, err)
	c, err := m.Create(ctx, "Solaris", "Lem", "")
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, b))
	require.NoError(t, m.Update(ctx, a, "Dune", "Frank Herbert", "spice"))
	require.NoError(t, m.Flush(ctx))
	assert.Zero(t, m.Pending())

	want := m.List(ctx)
	require.NoError(t, m.Close())

	reopened := reopen(t, dsn)
	got := reopened.List(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0].ID)
	assert.Equal(t, c, got[1].ID)
	for i := range want {
		assert.Equal(t, want[i].Title, got[i].Title)
		assert.Equal(t, want[i].Author, got[i].Author)
		assert.Equal(t, want[i].Description, got[i].Description)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
		assert.True(t, want[i].UpdatedAt.Equal(got[i].UpdatedAt))
	}

	// New records keep appending after the reloaded ones.
	d, err := reopened.Create(ctx, "Neuromancer", "Gibson", "")
	require.NoError(t, err)
	require.NoError(t, reopened.Flush(ctx))
	require.NoError(t, reopened.Close())

	again := reopen(t, dsn).List(ctx)
	require.Len(t, again, 3)
	assert.Equal(t, d, again[2].ID)
}

func TestFlush_UnflushedChangesAreLost(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, dsn := openTestStore(t)

	_, err := m.Create(ctx, "Dune", "Herbert", "")
	require.NoError(t, err)
	require.NoError(t, m.Close())

	assert.Empty(t, reopen(t, dsn).List(ctx))
}

func TestFlush_CreateThenDeleteBeforeFlush(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, dsn := openTestStore(t)

	id, err := m.Create(ctx, "Dune", "Herbert", "")
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, id))
	require.NoError(t, m.Flush(ctx))
	require.NoError(t, m.Close())

	assert.Empty(t, reopen(t, dsn).List(ctx))
}

func TestFlush_FailureKeepsPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := openTestStore(t)

	_, err := m.Create(ctx, "Dune", "Herbert", "")
	require.NoError(t, err)
	require.NoError(t, m.db.Close())

	err = m.Flush(ctx)
	require.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 1, m.Pending())
	assert.Len(t, m.List(ctx), 1, "in-memory state survives a failed flush")
}

func TestFlush_NothingPending(t *testing.T) {
	t.Parallel()
	m, _ := openTestStore(t)

	require.NoError(t, m.db.Close())
	assert.NoError(t, m.Flush(context.Background()), "empty flush does not touch the database")
}

func TestSubscribe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := openTestStore(t)

	var got []Change
	m.Subscribe(func(c Change) { got = append(got, c) })

	id, err := m.Create(ctx, "Dune", "Herbert", "")
	require.NoError(t, err)
	require.NoError(t, m.Update(ctx, id, "Dune", "Frank Herbert", ""))
	require.NoError(t, m.Delete(ctx, id))
	_, err = m.Create(ctx, "x", "y", "")
	require.Error(t, err)

	assert.Equal(t, []Change{
		{Op: ChangeCreated, ID: id},
		{Op: ChangeUpdated, ID: id},
		{Op: ChangeDeleted, ID: id},
	}, got)
}
