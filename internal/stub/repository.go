package stub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/vmarchetti/library-console/internal/errs"
	"github.com/vmarchetti/library-console/internal/model"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrBookNotFound    = errors.New("book not found")
	ErrBookUnavailable = errors.New("book is not available for loan")
)

// Repository is the in-memory backing of the stub service. Insertion order is
// preserved so repeated lists are stable.
type Repository struct {
	mu    sync.Mutex
	books []model.Book
	users []model.User
	loans []model.Loan
}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) ListBooks() []model.Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Book, len(r.books))
	copy(out, r.books)
	return out
}

func (r *Repository) CreateBook(b model.Book) model.Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = uuid.NewString()
	r.books = append(r.books, b)
	return b
}

func (r *Repository) UpdateBook(id string, b model.Book) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.books {
		if r.books[i].ID == id {
			b.ID = id
			r.books[i] = b
			return b, nil
		}
	}
	return model.Book{}, errs.ErrNotFound
}

func (r *Repository) DeleteBook(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.books {
		if r.books[i].ID == id {
			r.books = append(r.books[:i], r.books[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (r *Repository) ListUsers() []model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.User, len(r.users))
	copy(out, r.users)
	return out
}

func (r *Repository) CreateUser(u model.User) model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = uuid.NewString()
	r.users = append(r.users, u)
	return u
}

func (r *Repository) UpdateUser(id string, u model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			u.ID = id
			r.users[i] = u
			return u, nil
		}
	}
	return model.User{}, errs.ErrNotFound
}

func (r *Repository) DeleteUser(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (r *Repository) ListLoans() []model.Loan {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Loan, len(r.loans))
	copy(out, r.loans)
	return out
}

// CreateLoan checks both references and takes the book out of circulation,
// the way the real backend derives availability from open loans.
func (r *Repository) CreateLoan(l model.Loan, now time.Time) (model.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasUser(l.UserID) {
		return model.Loan{}, ErrUserNotFound
	}
	book := r.findBook(l.BookID)
	if book == nil {
		return model.Loan{}, ErrBookNotFound
	}
	if !book.Available && !l.Returned {
		return model.Loan{}, ErrBookUnavailable
	}
	l.ID = uuid.NewString()
	if l.LoanedAt.IsZero() {
		l.LoanedAt = now
	}
	if !l.Returned {
		book.Available = false
	}
	r.loans = append(r.loans, l)
	return l, nil
}

func (r *Repository) UpdateLoan(id string, l model.Loan) (model.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.loans {
		if r.loans[i].ID == id {
			l.ID = id
			if book := r.findBook(l.BookID); book != nil {
				book.Available = l.Returned
			}
			r.loans[i] = l
			return l, nil
		}
	}
	return model.Loan{}, errs.ErrNotFound
}

func (r *Repository) DeleteLoan(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.loans {
		if r.loans[i].ID == id {
			if book := r.findBook(r.loans[i].BookID); book != nil && !r.loans[i].Returned {
				book.Available = true
			}
			r.loans = append(r.loans[:i], r.loans[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (r *Repository) hasUser(id string) bool {
	for i := range r.users {
		if r.users[i].ID == id {
			return true
		}
	}
	return false
}

func (r *Repository) findBook(id string) *model.Book {
	for i := range r.books {
		if r.books[i].ID == id {
			return &r.books[i]
		}
	}
	return nil
}
