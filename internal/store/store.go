package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vmarchetti/library-console/internal/errs"
	"github.com/vmarchetti/library-console/internal/model"
)

type Status uint8

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Store owns the local cache of one remote resource collection. The cache is
// never patched in place: mutations go to the server and the collection is
// rebuilt by the next FetchAll. Only the store itself writes its collection.
type Store[T any] struct {
	log      *zap.Logger
	client   *http.Client
	baseURL  string
	resource string

	mu     sync.Mutex
	items  []T
	status Status
	err    error
	gen    uint64
}

func New[T any](log *zap.Logger, client *http.Client, baseURL, resource string) *Store[T] {
	if client == nil {
		client = &http.Client{Timeout: time.Minute}
	}
	return &Store[T]{
		log:      log.Named(resource),
		client:   client,
		baseURL:  baseURL,
		resource: resource,
	}
}

func NewBooks(log *zap.Logger, client *http.Client, baseURL string) *Store[model.Book] {
	return New[model.Book](log, client, baseURL, "books")
}

func NewUsers(log *zap.Logger, client *http.Client, baseURL string) *Store[model.User] {
	return New[model.User](log, client, baseURL, "users")
}

func NewLoans(log *zap.Logger, client *http.Client, baseURL string) *Store[model.Loan] {
	return New[model.Loan](log, client, baseURL, "loans")
}

// FetchAll replaces the collection with the server's. Each call supersedes any
// in-flight one: responses are tagged with a generation and a stale response
// is discarded, never stored. The superseded request itself is not cancelled;
// it runs to completion on the client's timeout and is ignored.
func (s *Store[T]) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.status = StatusLoading
	s.mu.Unlock()

	items, err := s.list(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.log.Debug("stale fetch discarded", zap.Uint64("gen", gen), zap.Uint64("current", s.gen))
		return nil
	}
	if err != nil {
		// keep the previous collection for display next to the error
		s.status = StatusFailed
		s.err = err
		return err
	}
	s.items = items
	s.status = StatusReady
	s.err = nil
	return nil
}

// Create sends the record to the server and nothing else: the new record is
// not merged locally, the caller refetches. The server owns defaulted and
// derived fields, so local patching would show stale values.
func (s *Store[T]) Create(ctx context.Context, payload any) error {
	return s.send(ctx, http.MethodPost, "", payload)
}

func (s *Store[T]) Update(ctx context.Context, id string, payload any) error {
	return s.send(ctx, http.MethodPut, id, payload)
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	return s.send(ctx, http.MethodDelete, id, nil)
}

func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store[T]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Store[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store[T]) list(ctx context.Context) ([]T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(""), http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "list "+s.resource)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return []T{}, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read "+s.resource)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errs.DecodeRemote(resp.StatusCode, body)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, errors.Wrap(err, "decode "+s.resource)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (s *Store[T]) send(ctx context.Context, method, id string, payload any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		b := bytes.NewBuffer(nil)
		if err := json.NewEncoder(b).Encode(payload); err != nil {
			return errors.Wrap(err, "encode "+s.resource)
		}
		body = b
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url(id), body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", echo.MIMEApplicationJSONCharsetUTF8)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, s.resource)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body) //nolint:errcheck
		s.log.Warn("mutation failed",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode))
		return errs.DecodeRemote(resp.StatusCode, respBody)
	}
	return nil
}

func (s *Store[T]) url(id string) string {
	if id == "" {
		return fmt.Sprintf("%s/%s", s.baseURL, s.resource)
	}
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.resource, id)
}
