package stub_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vmarchetti/library-console/internal/model"
	"github.com/vmarchetti/library-console/internal/stub"
)

func newServer(t *testing.T) (*stub.Repository, *httptest.Server) {
	t.Helper()
	repo := stub.NewRepository()
	srv := httptest.NewServer(stub.New(repo, zap.NewExample()).NewRouter())
	t.Cleanup(srv.Close)
	return repo, srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestHealth(t *testing.T) {
	t.Parallel()
	_, srv := newServer(t)
	resp, body := do(t, srv, http.MethodGet, "/manage/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK", string(body))
}

func TestEmptyListsReturnNoContent(t *testing.T) {
	t.Parallel()
	_, srv := newServer(t)
	for _, path := range []string{"/api/books", "/api/users", "/api/loans"} {
		resp, body := do(t, srv, http.MethodGet, path, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode, path)
		require.Empty(t, body, path)
	}
}

func TestBookCRUD(t *testing.T) {
	t.Parallel()
	_, srv := newServer(t)

	resp, raw := do(t, srv, http.MethodPost, "/api/books", map[string]any{
		"title": "Dune", "author": "Herbert", "isbn": "9780441013593", "available": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created model.Book
	require.NoError(t, json.Unmarshal(raw, &created))
	require.NotEmpty(t, created.ID)

	resp, raw = do(t, srv, http.MethodGet, "/api/books", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []model.Book
	require.NoError(t, json.Unmarshal(raw, &listed))
	require.Equal(t, []model.Book{created}, listed)

	resp, raw = do(t, srv, http.MethodPut, "/api/books/"+created.ID, map[string]any{
		"title": "Dune Messiah", "author": "Herbert", "isbn": "9780441013593", "available": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated model.Book
	require.NoError(t, json.Unmarshal(raw, &updated))
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "Dune Messiah", updated.Title)

	resp, _ = do(t, srv, http.MethodDelete, "/api/books/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodDelete, "/api/books/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateBookRejectsMissingFields(t *testing.T) {
	t.Parallel()
	_, srv := newServer(t)
	resp, _ := do(t, srv, http.MethodPost, "/api/books", map[string]any{"title": "Dune"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoanLifecycle(t *testing.T) {
	t.Parallel()
	repo, srv := newServer(t)
	user := repo.CreateUser(model.User{Name: "Ana", Email: "a@b.com"})
	book := repo.CreateBook(model.Book{Title: "Dune", Author: "Herbert", ISBN: "9780441013593", Available: true})

	resp, raw := do(t, srv, http.MethodPost, "/api/loans", map[string]any{
		"user_id": user.ID, "book_id": book.ID, "loaned_at": "2024-01-10T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var loan model.Loan
	require.NoError(t, json.Unmarshal(raw, &loan))
	require.Equal(t, time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), loan.LoanedAt)
	require.False(t, repo.ListBooks()[0].Available, "the loaned book goes unavailable")

	// the same book cannot be loaned twice
	resp, raw = do(t, srv, http.MethodPost, "/api/loans", map[string]any{
		"user_id": user.ID, "book_id": book.ID,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, string(raw), "book is not available for loan")

	// returning it through an update frees the book
	resp, _ = do(t, srv, http.MethodPut, "/api/loans/"+loan.ID, map[string]any{
		"user_id":     user.ID,
		"book_id":     book.ID,
		"loaned_at":   "2024-01-10T10:00:00Z",
		"returned":    true,
		"returned_at": "2024-02-01T09:30:00Z",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, repo.ListBooks()[0].Available)

	resp, _ = do(t, srv, http.MethodDelete, "/api/loans/"+loan.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, repo.ListLoans())
}

func TestCreateLoanUnknownReferences(t *testing.T) {
	t.Parallel()
	repo, srv := newServer(t)
	user := repo.CreateUser(model.User{Name: "Ana", Email: "a@b.com"})
	book := repo.CreateBook(model.Book{Title: "Dune", Author: "Herbert", ISBN: "9780441013593", Available: true})

	tests := []struct {
		name    string
		userID  string
		bookID  string
		status  int
		wantMsg string
	}{
		{"unknown user", "ghost", book.ID, http.StatusNotFound, "user not found"},
		{"unknown book", user.ID, "ghost", http.StatusNotFound, "book not found"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, raw := do(t, srv, http.MethodPost, "/api/loans", map[string]any{
				"user_id": tt.userID, "book_id": tt.bookID,
			})
			require.Equal(t, tt.status, resp.StatusCode)
			require.Contains(t, string(raw), tt.wantMsg)
		})
	}
}

func TestCreateLoanRejectsBrokenTimestamps(t *testing.T) {
	t.Parallel()
	repo, srv := newServer(t)
	user := repo.CreateUser(model.User{Name: "Ana", Email: "a@b.com"})
	book := repo.CreateBook(model.Book{Title: "Dune", Author: "Herbert", ISBN: "9780441013593", Available: true})

	resp, raw := do(t, srv, http.MethodPost, "/api/loans", map[string]any{
		"user_id": user.ID, "book_id": book.ID, "loaned_at": "yesterday",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(raw), "loaned_at is invalid")
}

func TestDeleteLoanRestoresAvailability(t *testing.T) {
	t.Parallel()
	repo, srv := newServer(t)
	user := repo.CreateUser(model.User{Name: "Ana", Email: "a@b.com"})
	book := repo.CreateBook(model.Book{Title: "Dune", Author: "Herbert", ISBN: "9780441013593", Available: true})

	loan, err := repo.CreateLoan(model.Loan{UserID: user.ID, BookID: book.ID}, time.Now().UTC())
	require.NoError(t, err)
	require.False(t, repo.ListBooks()[0].Available)

	resp, _ := do(t, srv, http.MethodDelete, fmt.Sprintf("/api/loans/%s", loan.ID), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.True(t, repo.ListBooks()[0].Available)
}
