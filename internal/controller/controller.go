// Package controller mediates between a presentation surface and the book
// store. It owns the transient add form, edit sessions, the search
// predicate and the flush-on-change policy.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/aoideee/bookshelf/internal/data"
)

type bookStore interface {
	Create(ctx context.Context, title, author, description string) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, title, author, description string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*data.Book, error)
	List(ctx context.Context) []*data.Book
	Flush(ctx context.Context) error
	Subscribe(fn func(data.Change))
}

// Form holds the in-flight, unsaved fields of the add form.
type Form struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// Notice is a dismissible, non-fatal message for the user.
type Notice struct {
	ID        int            `json:"id"`
	Message   data.MessageID `json:"message_id"`
	Detail    string         `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Controller serializes user actions against the store.
type Controller struct {
	store bookStore
	log   *slog.Logger

	mu    sync.Mutex
	draft Form

	// own is set while the controller mutates the store itself, so the
	// change observer only flushes changes made by someone else. It assumes
	// a single writer: a change by another writer that lands while own is
	// set is not flushed by the observer, only by the controller's own
	// flush that follows.
	own atomic.Bool

	noticesMu  sync.Mutex
	notices    []Notice
	nextNotice int
}

// New creates a Controller and subscribes it to changes of store.
func New(log *slog.Logger, store bookStore) *Controller {
	c := &Controller{
		store:      store,
		log:        log.With("component", "controller"),
		nextNotice: 1,
	}
	store.Subscribe(c.onChange)
	return c
}

// onChange flushes every change the controller did not trigger itself.
func (c *Controller) onChange(ch data.Change) {
	if c.own.Load() {
		return
	}
	c.log.Debug("external change observed", slog.String("op", string(ch.Op)), slog.String("book_id", ch.ID.String()))
	_ = c.flush(context.Background())
}

// AddBook validates and creates a book, clears the add form and flushes.
// A failed flush does not fail the add; it is logged and kept as a Notice.
func (c *Controller) AddBook(ctx context.Context, rawTitle, rawAuthor, rawDescription string) (*data.Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields, err := data.NormalizeAndValidate(rawTitle, rawAuthor, rawDescription)
	if err != nil {
		return nil, err
	}

	c.own.Store(true)
	id, err := c.store.Create(ctx, fields.Title, fields.Author, fields.Description)
	c.own.Store(false)
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	c.draft = Form{}
	_ = c.flush(ctx)

	c.log.InfoContext(ctx, "book added", slog.String("book_id", id.String()))
	return c.store.Get(ctx, id)
}

// EditBook validates and overwrites the fields of an existing book, then
// flushes. On validation failure nothing is touched.
func (c *Controller) EditBook(ctx context.Context, id uuid.UUID, rawTitle, rawAuthor, rawDescription string) (*data.Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields, err := data.NormalizeAndValidate(rawTitle, rawAuthor, rawDescription)
	if err != nil {
		return nil, err
	}

	c.own.Store(true)
	err = c.store.Update(ctx, id, fields.Title, fields.Author, fields.Description)
	c.own.Store(false)
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	_ = c.flush(ctx)

	c.log.InfoContext(ctx, "book edited", slog.String("book_id", id.String()))
	return c.store.Get(ctx, id)
}

// DeleteBook removes a book and flushes. An unknown or already deleted id
// yields data.ErrRecordNotFound.
func (c *Controller) DeleteBook(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.own.Store(true)
	err := c.store.Delete(ctx, id)
	c.own.Store(false)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	_ = c.flush(ctx)

	c.log.InfoContext(ctx, "book deleted", slog.String("book_id", id.String()))
	return nil
}

// Book returns a single book by id.
func (c *Controller) Book(ctx context.Context, id uuid.UUID) (*data.Book, error) {
	return c.store.Get(ctx, id)
}

// Search returns the books whose title or author contains query, ignoring
// case. The query is matched as given; a blank or whitespace-only query
// returns the whole list. Order is the store's order.
func (c *Controller) Search(ctx context.Context, query string) []*data.Book {
	books := c.store.List(ctx)

	if strings.TrimSpace(query) == "" {
		return books
	}

	fold := cases.Fold()
	needle := fold.String(query)

	matched := make([]*data.Book, 0, len(books))
	for _, b := range books {
		if strings.Contains(fold.String(b.Title), needle) || strings.Contains(fold.String(b.Author), needle) {
			matched = append(matched, b)
		}
	}
	return matched
}

// Background is the hook for the application leaving the foreground. It
// flushes unconditionally and returns the flush error, if any.
func (c *Controller) Background(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flush(ctx)
}

// flush commits pending changes. Failures are logged and recorded as a
// save-failed notice.
func (c *Controller) flush(ctx context.Context) error {
	err := c.store.Flush(ctx)
	if err == nil {
		return nil
	}

	c.log.ErrorContext(ctx, "save failed", slog.String("error", err.Error()))

	c.addNotice(data.MsgSaveFailed, err.Error())
	return err
}

// Draft returns the current add form.
func (c *Controller) Draft() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft replaces the add form with f.
func (c *Controller) SetDraft(f Form) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = f
}

// SubmitDraft adds a book from the add form. The form is cleared only when
// the book was added.
func (c *Controller) SubmitDraft(ctx context.Context) (*data.Book, error) {
	f := c.Draft()
	return c.AddBook(ctx, f.Title, f.Author, f.Description)
}
