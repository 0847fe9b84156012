package data

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrRecordNotFound is returned when an id does not match a live record.
	ErrRecordNotFound = errors.New("record not found")
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence is wrapped by durable storage failures on flush.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError carries the field-level failures collected by a
// validator.Validator.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Errors[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// MessageID identifies a message the presentation layer localizes.
// The core signals which one applies and never renders text itself.
type MessageID string

const (
	MsgErrorTitle  MessageID = "error-title"
	MsgValidation  MessageID = "error-message"
	MsgOK          MessageID = "ok"
	MsgSave        MessageID = "save"
	MsgNotFound    MessageID = "not-found"
	MsgSaveFailed  MessageID = "save-failed"
	MsgServerError MessageID = "server-error"
	MsgAddBook     MessageID = "add-book"
	MsgEditBook    MessageID = "edit-book"
	MsgBookList    MessageID = "book-list"
	MsgDeleted     MessageID = "deleted"
)

// MessageFor maps an error to the message that should be shown for it.
func MessageFor(err error) MessageID {
	switch {
	case errors.Is(err, ErrValidation):
		return MsgValidation
	case errors.Is(err, ErrRecordNotFound):
		return MsgNotFound
	case errors.Is(err, ErrPersistence):
		return MsgSaveFailed
	default:
		return MsgServerError
	}
}
