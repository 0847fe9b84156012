// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// routes registers all HTTP endpoints and returns the configured router wrapped
// in the middleware chain.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → logRequest → rateLimit → router
//
// Current endpoints:
//
//	GET    /v1/healthcheck   – liveness and build info
//	POST   /v1/books         – add a book
//	GET    /v1/books         – list books, optionally searched, sorted, paginated
//	GET    /v1/books/:id     – retrieve a single book by ID
//	PATCH  /v1/books/:id     – edit an existing book
//	DELETE /v1/books/:id     – delete a book by ID
//	POST   /v1/books/save    – flush pending changes (background hook)
//	GET    /v1/notices       – list undismissed notices
//	DELETE /v1/notices/:id   – dismiss a notice
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

	// Book routes
	router.HandlerFunc(http.MethodPost,   "/v1/books",      app.createBookHandler)
	router.HandlerFunc(http.MethodGet,    "/v1/books",      app.listBooksHandler)
	router.HandlerFunc(http.MethodGet,    "/v1/books/:id",  app.showBookHandler)
	router.HandlerFunc(http.MethodPatch,  "/v1/books/:id",  app.updateBookHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/books/:id",  app.deleteBookHandler)
	router.HandlerFunc(http.MethodPost,   "/v1/books/save", app.saveBooksHandler)

	// Notice routes
	router.HandlerFunc(http.MethodGet,    "/v1/notices",     app.listNoticesHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/notices/:id", app.dismissNoticeHandler)

	// recoverPanic is outermost so it catches panics from every inner layer.
	return app.recoverPanic(app.logRequest(app.rateLimit(router)))
}
