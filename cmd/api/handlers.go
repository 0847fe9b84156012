// cmd/api/handlers.go
// This file contains all HTTP request handlers for the books resource.
// Each handler is a method on *applicationDependencies so it has access
// to the logger and the book list controller.
package main

import (
	"net/http"

	"github.com/aoideee/bookshelf/internal/data"
	"github.com/aoideee/bookshelf/internal/validator"
)

// healthcheckHandler handles GET /v1/healthcheck.
func (app *applicationDependencies) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	env := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment": app.config.Server.Environment,
			"version":     appVersion,
			"store":       app.config.Store.Driver,
		},
	}
	err := app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// createBookHandler handles POST /v1/books.
// It reads a JSON body with the raw title, author and description, adds the
// book through the controller (which trims, validates and saves), and
// responds with the created book and a 201 Created status.
func (app *applicationDependencies) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var input data.CreateBookInput

	// readJSON enforces a 1MB limit, rejects unknown fields, and ensures a single value.
	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if errs := app.checkInput(input); errs != nil {
		app.failedValidationResponse(w, r, errs)
		return
	}

	book, err := app.books.AddBook(r.Context(), input.Title, input.Author, input.Description)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/v1/books/"+book.ID.String())

	err = app.writeJSON(w, http.StatusCreated, envelope{"book": book}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBookHandler handles GET /v1/books/:id.
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	book, err := app.books.Book(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBooksHandler handles GET /v1/books.
// The optional q parameter filters by title or author; sort, page and
// page_size shape the result without changing the stored order.
func (app *applicationDependencies) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	v := validator.New()

	query := app.readString(qs, "q", "")
	filters := data.Filters{
		Page:         app.readInt(qs, "page", 1, v),
		PageSize:     app.readInt(qs, "page_size", 0, v),
		Sort:         app.readString(qs, "sort", ""),
		SortSafeList: data.SortSafeList,
	}

	data.ValidateFilters(v, filters)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	books, metadata := filters.Apply(app.books.Search(r.Context(), query))

	err := app.writeJSON(w, http.StatusOK, envelope{"books": books, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateBookHandler handles PATCH /v1/books/:id.
// It reads a partial JSON body (UpdateBookInput), merges the provided
// fields over the current book and edits it through the controller, which
// re-validates the whole record. Responds 404 if the book does not exist.
func (app *applicationDependencies) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	var input data.UpdateBookInput
	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if errs := app.checkInput(input); errs != nil {
		app.failedValidationResponse(w, r, errs)
		return
	}

	current, err := app.books.Book(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	title, author, description := input.Apply(current)
	book, err := app.books.EditBook(r.Context(), id, title, author, description)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteBookHandler handles DELETE /v1/books/:id.
// Deleting an id that is unknown or already deleted responds 404.
func (app *applicationDependencies) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.books.DeleteBook(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	p := app.i18n.Printer(r.Header.Get("Accept-Language"))
	err = app.writeJSON(w, http.StatusOK, envelope{"message_id": data.MsgDeleted, "message": p.Text(data.MsgDeleted)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// saveBooksHandler handles POST /v1/books/save.
// It is the UI's "going to background" hook: everything pending is flushed.
// A failed save is reported as 503 so the client can retry later.
func (app *applicationDependencies) saveBooksHandler(w http.ResponseWriter, r *http.Request) {
	err := app.books.Background(r.Context())
	if err != nil {
		app.logError(r, err)
		app.errorResponse(w, r, http.StatusServiceUnavailable, data.MessageFor(err), "changes could not be saved")
		return
	}

	p := app.i18n.Printer(r.Header.Get("Accept-Language"))
	err = app.writeJSON(w, http.StatusOK, envelope{"message_id": data.MsgSave, "message": p.Text(data.MsgSave)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listNoticesHandler handles GET /v1/notices.
func (app *applicationDependencies) listNoticesHandler(w http.ResponseWriter, r *http.Request) {
	p := app.i18n.Printer(r.Header.Get("Accept-Language"))

	type notice struct {
		ID        int            `json:"id"`
		MessageID data.MessageID `json:"message_id"`
		Message   string         `json:"message"`
		Detail    string         `json:"detail,omitempty"`
	}

	notices := []notice{}
	for _, n := range app.books.Notices() {
		notices = append(notices, notice{ID: n.ID, MessageID: n.Message, Message: p.Text(n.Message), Detail: n.Detail})
	}

	err := app.writeJSON(w, http.StatusOK, envelope{"notices": notices}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// dismissNoticeHandler handles DELETE /v1/notices/:id.
func (app *applicationDependencies) dismissNoticeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIntParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	if err := app.books.Dismiss(id); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
