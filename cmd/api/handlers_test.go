package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/bookshelf/internal/config"
	"github.com/aoideee/bookshelf/internal/data"
)

type bookJSON struct {
	ID          string `json:"book_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

func newTestApp(t *testing.T) (*applicationDependencies, http.Handler) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 4000, Environment: "development"},
		Store:  config.StoreConfig{Driver: data.DriverSQLite, DSN: filepath.Join(t.TempDir(), "books.db")},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app, err := newApplication(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { app.models.Books.Close() })

	return app, app.routes()
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env map[string]json.RawMessage
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func createBook(t *testing.T, h http.Handler, title, author string) bookJSON {
	t.Helper()
	body := `{"title":` + quote(title) + `,"author":` + quote(author) + `}`
	rr, env := do(t, h, http.MethodPost, "/v1/books", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[bookJSON](t, env["book"])
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	rr, env := do(t, h, http.MethodGet, "/v1/healthcheck", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "available", decode[string](t, env["status"]))
}

func TestCreateBook(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	rr, env := do(t, h, http.MethodPost, "/v1/books", `{"title":"  Dune  ","author":" Herbert ","description":""}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	book := decode[bookJSON](t, env["book"])
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "Herbert", book.Author)
	assert.Equal(t, "/v1/books/"+book.ID, rr.Header().Get("Location"))
}

func TestCreateBook_Errors(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"short title", `{"title":"Du","author":"Herbert"}`, http.StatusUnprocessableEntity},
		{"blank author", `{"title":"Dune","author":"   "}`, http.StatusUnprocessableEntity},
		{"too long", `{"title":"` + strings.Repeat("a", 513) + `","author":"Herbert"}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"title":"Dune","author":"Herbert","isbn":"123"}`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"two values", `{"title":"Dune","author":"Herbert"}{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, _ := do(t, h, http.MethodPost, "/v1/books", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}

	rr, env := do(t, h, http.MethodGet, "/v1/books", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]bookJSON](t, env["books"]))
}

func TestCreateBook_LocalizedValidation(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	rr, env := do(t, h, http.MethodPost, "/v1/books", `{"title":"Du","author":"Herbert"}`, "Accept-Language", "ru-RU,ru;q=0.9")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	assert.Equal(t, "error-message", decode[string](t, env["message_id"]))
	assert.Equal(t, "Ошибка", decode[string](t, env["title"]))
	assert.Equal(t, "Название и автор должны содержать минимум 3 символа", decode[string](t, env["message"]))

	fields := decode[map[string]string](t, env["error"])
	assert.Contains(t, fields, "title")
	assert.NotContains(t, fields, "author")
}

func TestShowBook(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	created := createBook(t, h, "Dune", "Herbert")

	rr, env := do(t, h, http.MethodGet, "/v1/books/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created, decode[bookJSON](t, env["book"]))

	rr, _ = do(t, h, http.MethodGet, "/v1/books/00000000-0000-0000-0000-000000000001", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = do(t, h, http.MethodGet, "/v1/books/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListBooks_SearchSortPaginate(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	createBook(t, h, "Dune", "Herbert")
	createBook(t, h, "1984", "Orwell")
	createBook(t, h, "Animal Farm", "Orwell")

	rr, env := do(t, h, http.MethodGet, "/v1/books?q=dun", "")
	require.Equal(t, http.StatusOK, rr.Code)
	books := decode[[]bookJSON](t, env["books"])
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	_, env = do(t, h, http.MethodGet, "/v1/books", "")
	books = decode[[]bookJSON](t, env["books"])
	require.Len(t, books, 3)
	assert.Equal(t, []string{"Dune", "1984", "Animal Farm"}, []string{books[0].Title, books[1].Title, books[2].Title}, "insertion order by default")

	_, env = do(t, h, http.MethodGet, "/v1/books?q=ORWELL&sort=-title&page=1&page_size=1", "")
	books = decode[[]bookJSON](t, env["books"])
	require.Len(t, books, 1)
	assert.Equal(t, "Animal Farm", books[0].Title)
	meta := decode[data.Metadata](t, env["metadata"])
	assert.Equal(t, 2, meta.TotalRecords)
	assert.Equal(t, 2, meta.LastPage)

	rr, _ = do(t, h, http.MethodGet, "/v1/books?sort=isbn&page=abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestUpdateBook(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	created := createBook(t, h, "Dune", "Herbert")

	rr, env := do(t, h, http.MethodPatch, "/v1/books/"+created.ID, `{"description":"  spice  "}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	book := decode[bookJSON](t, env["book"])
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "spice", book.Description)

	rr, _ = do(t, h, http.MethodPatch, "/v1/books/"+created.ID, `{"author":"He"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	_, env = do(t, h, http.MethodGet, "/v1/books/"+created.ID, "")
	assert.Equal(t, "Herbert", decode[bookJSON](t, env["book"]).Author)

	rr, _ = do(t, h, http.MethodPatch, "/v1/books/00000000-0000-0000-0000-000000000001", `{"title":"Dune"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteBook_Twice(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	created := createBook(t, h, "Dune", "Herbert")

	rr, env := do(t, h, http.MethodDelete, "/v1/books/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "deleted", decode[string](t, env["message_id"]))

	rr, env = do(t, h, http.MethodDelete, "/v1/books/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not-found", decode[string](t, env["message_id"]))
}

func TestSaveAndNotices(t *testing.T) {
	t.Parallel()
	app, h := newTestApp(t)

	createBook(t, h, "Dune", "Herbert")

	rr, env := do(t, h, http.MethodPost, "/v1/books/save", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "save", decode[string](t, env["message_id"]))

	_, env = do(t, h, http.MethodGet, "/v1/notices", "")
	assert.Empty(t, decode[[]map[string]any](t, env["notices"]))

	// Break the database so the next save fails and leaves a notice.
	require.NoError(t, app.models.Books.Close())
	createBook(t, h, "1984", "Orwell")

	rr, env = do(t, h, http.MethodGet, "/v1/notices", "")
	require.Equal(t, http.StatusOK, rr.Code)
	notices := decode[[]struct {
		ID        int    `json:"id"`
		MessageID string `json:"message_id"`
	}](t, env["notices"])
	require.Len(t, notices, 1)
	assert.Equal(t, "save-failed", notices[0].MessageID)

	rr, env = do(t, h, http.MethodPost, "/v1/books/save", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "save-failed", decode[string](t, env["message_id"]))

	rr, _ = do(t, h, http.MethodDelete, "/v1/notices/1", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr, _ = do(t, h, http.MethodDelete, "/v1/notices/1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	rr, _ := do(t, h, http.MethodPut, "/v1/books", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	app, _ := newTestApp(t)

	app.config.Limiter = config.LimiterConfig{Enabled: true, RPS: 0.001, Burst: 2}
	h := app.routes()

	for i := range 2 {
		rr, _ := do(t, h, http.MethodGet, "/v1/healthcheck", "")
		require.Equal(t, http.StatusOK, rr.Code, "request %d", i+1)
	}

	rr, env := do(t, h, http.MethodGet, "/v1/healthcheck", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "rate limit exceeded", decode[string](t, env["error"]))
}
