package store_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vmarchetti/library-console/internal/model"
	"github.com/vmarchetti/library-console/internal/store"
	"github.com/vmarchetti/library-console/internal/stub"
)

func newStubServer(t *testing.T) (*stub.Repository, *httptest.Server) {
	t.Helper()
	repo := stub.NewRepository()
	srv := httptest.NewServer(stub.New(repo, zap.NewExample().Named("test")).NewRouter())
	t.Cleanup(srv.Close)
	return repo, srv
}

func TestFetchAllEmptyCollection(t *testing.T) {
	t.Parallel()
	_, srv := newStubServer(t)
	s := store.NewBooks(zap.NewExample(), srv.Client(), srv.URL+"/api")

	require.NoError(t, s.FetchAll(context.Background()))
	require.Equal(t, store.StatusReady, s.Status())
	require.Empty(t, s.Items())
	require.NoError(t, s.Err())
}

func TestFetchAllIdempotent(t *testing.T) {
	t.Parallel()
	repo, srv := newStubServer(t)
	repo.CreateBook(model.Book{Title: "Dune", Author: "Herbert", ISBN: "9780441013593", Available: true})
	repo.CreateBook(model.Book{Title: "Solaris", Author: "Lem", ISBN: "0156027607", Available: true})

	s := store.NewBooks(zap.NewExample(), srv.Client(), srv.URL+"/api")
	require.NoError(t, s.FetchAll(context.Background()))
	first := s.Items()
	require.NoError(t, s.FetchAll(context.Background()))
	require.Equal(t, first, s.Items())
	require.Len(t, first, 2)
}

func TestMutationsNeverTouchTheLocalCollection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo, srv := newStubServer(t)
	s := store.NewBooks(zap.NewExample(), srv.Client(), srv.URL+"/api")

	require.NoError(t, s.FetchAll(ctx))
	require.Empty(t, s.Items())

	draft := model.BookDraft{Title: "Dune", Author: "Herbert", ISBN: "9780441013593"}
	require.NoError(t, s.Create(ctx, draft.CreatePayload()))
	require.Empty(t, s.Items(), "create must not merge locally")
	require.Equal(t, store.StatusReady, s.Status())

	require.NoError(t, s.FetchAll(ctx))
	items := s.Items()
	require.Len(t, items, 1)
	require.Equal(t, "Dune", items[0].Title)
	require.True(t, items[0].Available)

	updated := items[0].Draft()
	updated.Title = "Dune Messiah"
	require.NoError(t, s.Update(ctx, updated.ID, updated.UpdatePayload()))
	require.Equal(t, "Dune", s.Items()[0].Title, "update must not merge locally")

	require.NoError(t, s.FetchAll(ctx))
	require.Equal(t, "Dune Messiah", s.Items()[0].Title)

	require.NoError(t, s.Delete(ctx, updated.ID))
	require.Len(t, s.Items(), 1, "delete must not merge locally")
	require.NoError(t, s.FetchAll(ctx))
	require.Empty(t, s.Items())
	require.Empty(t, repo.ListBooks())
}

func TestFetchFailureRetainsPreviousCollection(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			_ = json.NewEncoder(w).Encode([]model.User{{ID: "u1", Name: "Ana", Email: "a@b.com"}})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"db down"}`))
	}))
	defer srv.Close()

	s := store.NewUsers(zap.NewExample(), srv.Client(), srv.URL)
	ctx := context.Background()

	require.NoError(t, s.FetchAll(ctx))
	require.Len(t, s.Items(), 1)

	err := s.FetchAll(ctx)
	require.Error(t, err)
	require.Equal(t, store.StatusFailed, s.Status())
	require.EqualError(t, s.Err(), "db down")
	require.Len(t, s.Items(), 1, "failed fetch keeps the previous collection")
}

func TestMutationFailureSurfacesRemoteMessage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "error envelope",
			status:  http.StatusConflict,
			body:    `{"error":"book is not available for loan"}`,
			wantMsg: "book is not available for loan",
		},
		{
			name:    "message envelope",
			status:  http.StatusNotFound,
			body:    `{"message":"user not found"}`,
			wantMsg: "user not found",
		},
		{
			name:    "no envelope falls back",
			status:  http.StatusInternalServerError,
			body:    ``,
			wantMsg: "the server could not complete the request",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := store.NewLoans(zap.NewExample(), srv.Client(), srv.URL)
			err := s.Create(context.Background(), model.LoanPayload{UserID: "u1", BookID: "b1"})
			require.EqualError(t, err, tt.wantMsg)
			require.Empty(t, s.Items())
		})
	}
}

// A fetch that resolves after a newer one was issued must not overwrite the
// newer result.
func TestStaleFetchResponseIsDiscarded(t *testing.T) {
	t.Parallel()
	firstArrived := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(firstArrived)
			<-release
			_ = json.NewEncoder(w).Encode([]model.Book{{ID: "stale", Title: "Old"}})
			return
		}
		_ = json.NewEncoder(w).Encode([]model.Book{{ID: "fresh", Title: "New"}})
	}))
	defer srv.Close()

	s := store.NewBooks(zap.NewExample(), srv.Client(), srv.URL)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- s.FetchAll(ctx)
	}()
	<-firstArrived

	require.NoError(t, s.FetchAll(ctx))
	close(release)
	require.NoError(t, <-done)

	items := s.Items()
	require.Len(t, items, 1)
	require.Equal(t, "fresh", items[0].ID)
	require.Equal(t, store.StatusReady, s.Status())
}
