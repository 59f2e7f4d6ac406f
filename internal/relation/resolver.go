package relation

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vmarchetti/library-console/internal/model"
	"github.com/vmarchetti/library-console/internal/store"
)

// Resolver loads the user and book collections a loan form depends on. The
// two fetches run concurrently with no ordering between them; the form only
// becomes usable once both have settled.
type Resolver struct {
	log   *zap.Logger
	users *store.Store[model.User]
	books *store.Store[model.Book]
}

func New(log *zap.Logger, users *store.Store[model.User], books *store.Store[model.Book]) *Resolver {
	return &Resolver{
		log:   log.Named("relation"),
		users: users,
		books: books,
	}
}

func (r *Resolver) Load(ctx context.Context) (model.LoanRefs, error) {
	gg, ctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		return r.users.FetchAll(ctx)
	})
	gg.Go(func() error {
		return r.books.FetchAll(ctx)
	})
	if err := gg.Wait(); err != nil {
		return model.LoanRefs{}, errors.Wrap(err, "load loan references")
	}
	return model.LoanRefs{
		Users: r.users.Items(),
		Books: r.books.Items(),
	}, nil
}
