package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// ChangeOp names the kind of mutation reported to observers.
type ChangeOp string

const (
	ChangeCreated ChangeOp = "created"
	ChangeUpdated ChangeOp = "updated"
	ChangeDeleted ChangeOp = "deleted"
)

// Change describes a single mutation of the collection.
type Change struct {
	Op ChangeOp
	ID uuid.UUID
}

var bookColumns = []string{"book_id", "seq", "title", "author", "description", "created_at", "updated_at"}

// BookModel is the record store for books. Mutations apply to an in-memory
// collection immediately and become durable on Flush.
type BookModel struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	now     func() time.Time

	mu        sync.RWMutex
	order     []uuid.UUID
	byID      map[uuid.UUID]*Book
	pending   map[uuid.UUID]struct{}
	nextSeq   int64
	observers []func(Change)
}

// Open connects to the database behind driver and dsn and loads every
// persisted book in insertion order.
func Open(ctx context.Context, driver, dsn string) (*BookModel, error) {
	ph, err := placeholder(driver)
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}

	m := &BookModel{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(ph),
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		byID:    make(map[uuid.UUID]*Book),
		pending: make(map[uuid.UUID]struct{}),
		nextSeq: 1,
	}

	if err := m.load(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// load reads all rows ordered by seq into the in-memory collection.
func (m *BookModel) load(ctx context.Context) error {
	query, args, err := m.builder.Select(bookColumns...).From("books").OrderBy("seq ASC").ToSql()
	if err != nil {
		return err
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load books: %w", err)
	}
	// Always close the result set when we are done to free the connection.
	defer rows.Close()

	for rows.Next() {
		var (
			book                 Book
			rawID                string
			createdAt, updatedAt int64
		)
		err := rows.Scan(&rawID, &book.seq, &book.Title, &book.Author, &book.Description, &createdAt, &updatedAt)
		if err != nil {
			return fmt.Errorf("scan book: %w", err)
		}
		if book.ID, err = uuid.Parse(rawID); err != nil {
			return fmt.Errorf("scan book: invalid id %q: %w", rawID, err)
		}
		book.CreatedAt = time.UnixMicro(createdAt).UTC()
		book.UpdatedAt = time.UnixMicro(updatedAt).UTC()

		m.order = append(m.order, book.ID)
		m.byID[book.ID] = &book
		m.nextSeq = max(m.nextSeq, book.seq+1)
	}

	return rows.Err()
}

// Subscribe registers fn to be called after every create, update and delete.
// Observers run synchronously on the mutating goroutine, outside the lock.
func (m *BookModel) Subscribe(fn func(Change)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *BookModel) notify(c Change) {
	m.mu.RLock()
	observers := slices.Clone(m.observers)
	m.mu.RUnlock()

	for _, fn := range observers {
		fn(c)
	}
}

// Create validates the fields, appends a new book and returns its id.
func (m *BookModel) Create(ctx context.Context, title, author, description string) (uuid.UUID, error) {
	book, err := NormalizeAndValidate(title, author, description)
	if err != nil {
		return uuid.Nil, err
	}

	m.mu.Lock()
	book.ID = uuid.New()
	book.CreatedAt = m.now()
	book.UpdatedAt = book.CreatedAt
	book.seq = m.nextSeq
	m.nextSeq++

	m.order = append(m.order, book.ID)
	m.byID[book.ID] = book
	m.pending[book.ID] = struct{}{}
	m.mu.Unlock()

	m.notify(Change{Op: ChangeCreated, ID: book.ID})
	return book.ID, nil
}

// Update overwrites the fields of the book identified by id. The book keeps
// its position in the collection.
func (m *BookModel) Update(ctx context.Context, id uuid.UUID, title, author, description string) error {
	fields, err := NormalizeAndValidate(title, author, description)
	if err != nil {
		return err
	}

	m.mu.Lock()
	book, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("book %s: %w", id, ErrRecordNotFound)
	}
	book.Title = fields.Title
	book.Author = fields.Author
	book.Description = fields.Description
	book.UpdatedAt = m.now()
	m.pending[id] = struct{}{}
	m.mu.Unlock()

	m.notify(Change{Op: ChangeUpdated, ID: id})
	return nil
}

// Delete removes the book outright. Deleting an id twice is an error.
func (m *BookModel) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	if _, ok := m.byID[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("book %s: %w", id, ErrRecordNotFound)
	}
	delete(m.byID, id)
	m.order = slices.DeleteFunc(m.order, func(v uuid.UUID) bool { return v == id })
	m.pending[id] = struct{}{}
	m.mu.Unlock()

	m.notify(Change{Op: ChangeDeleted, ID: id})
	return nil
}

// Get returns a copy of the book identified by id.
func (m *BookModel) Get(ctx context.Context, id uuid.UUID) (*Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("book %s: %w", id, ErrRecordNotFound)
	}
	return book.clone(), nil
}

// List returns copies of all books in insertion order.
func (m *BookModel) List(ctx context.Context) []*Book {
	m.mu.RLock()
	defer m.mu.RUnlock()

	books := make([]*Book, 0, len(m.order))
	for _, id := range m.order {
		books = append(books, m.byID[id].clone())
	}
	return books
}

// Pending returns the number of mutations waiting for a flush.
func (m *BookModel) Pending() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pending)
}

// Flush commits every pending mutation in a single transaction. On failure
// the pending set is kept so the next flush retries it.
func (m *BookModel) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) == 0 {
		return nil
	}

	if err := m.commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	clear(m.pending)
	return nil
}

func (m *BookModel) commit(ctx context.Context) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
			}
		}
	}()

	for id := range m.pending {
		var stmt sq.Sqlizer
		if book, ok := m.byID[id]; ok {
			stmt = m.upsert(book)
		} else {
			stmt = m.builder.Delete("books").Where(sq.Eq{"book_id": id.String()})
		}

		query, args, err := stmt.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("write book %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (m *BookModel) upsert(book *Book) sq.InsertBuilder {
	return m.builder.Insert("books").
		Columns(bookColumns...).
		Values(
			book.ID.String(),
			book.seq,
			book.Title,
			book.Author,
			book.Description,
			book.CreatedAt.UnixMicro(),
			book.UpdatedAt.UnixMicro(),
		).
		Suffix(`ON CONFLICT (book_id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			description = excluded.description,
			updated_at = excluded.updated_at`)
}

// Close releases the underlying database handle. Unflushed mutations are lost.
func (m *BookModel) Close() error {
	return m.db.Close()
}
