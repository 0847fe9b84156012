// Package data provides the data model and the record store for the
// personal book list.
package data

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aoideee/bookshelf/internal/validator"
)

// MinLength is the minimum number of characters a title or author must
// have after trimming.
const MinLength = 3

// Book represents a single book record held by the store.
// It maps directly to a row in the "books" table.
type Book struct {
	ID          uuid.UUID `json:"book_id"`               // Assigned at creation, never reassigned
	Title       string    `json:"title"`                 // Trimmed, at least MinLength characters
	Author      string    `json:"author"`                // Trimmed, at least MinLength characters
	Description string    `json:"description,omitempty"` // Optional, trimmed
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	seq int64 // insertion position, persisted so order survives a reopen
}

// CreateBookInput holds the fields a client supplies when adding a book.
// The validate tags bound the raw input; the length rule on the trimmed
// values is applied by ValidateBook.
type CreateBookInput struct {
	Title       string `json:"title"       validate:"max=512"`
	Author      string `json:"author"      validate:"max=512"`
	Description string `json:"description" validate:"max=4096"`
}

// UpdateBookInput holds the fields a client may supply when editing a book.
// Every field is a pointer so we can distinguish between "not provided" (nil)
// and "intentionally set to empty". Nil fields keep their current value.
type UpdateBookInput struct {
	Title       *string `json:"title"       validate:"omitempty,max=512"`
	Author      *string `json:"author"      validate:"omitempty,max=512"`
	Description *string `json:"description" validate:"omitempty,max=4096"`
}

// Apply merges the provided fields over book and returns the raw values
// to hand to the controller.
func (in UpdateBookInput) Apply(book *Book) (title, author, description string) {
	title, author, description = book.Title, book.Author, book.Description
	if in.Title != nil {
		title = *in.Title
	}
	if in.Author != nil {
		author = *in.Author
	}
	if in.Description != nil {
		description = *in.Description
	}
	return title, author, description
}

// Normalize trims leading and trailing whitespace from all three fields.
func Normalize(title, author, description string) (string, string, string) {
	return validator.Trim(title), validator.Trim(author), validator.Trim(description)
}

// ValidateBook checks the minimum length rule on an already normalized book.
func ValidateBook(v *validator.Validator, book *Book) {
	msg := fmt.Sprintf("must be at least %d characters long", MinLength)
	v.Check(validator.MinChars(book.Title, MinLength), "title", msg)
	v.Check(validator.MinChars(book.Author, MinLength), "author", msg)
}

// NormalizeAndValidate trims raw field values and applies the length rule,
// returning a *ValidationError when it fails.
func NormalizeAndValidate(title, author, description string) (*Book, error) {
	title, author, description = Normalize(title, author, description)
	book := &Book{Title: title, Author: author, Description: description}

	v := validator.New()
	ValidateBook(v, book)
	if !v.Valid() {
		return nil, &ValidationError{Errors: v.Errors}
	}
	return book, nil
}

func (b *Book) clone() *Book {
	c := *b
	return &c
}
