package view

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vmarchetti/library-console/internal/errs"
	"github.com/vmarchetti/library-console/internal/form"
	"github.com/vmarchetti/library-console/internal/model"
	"github.com/vmarchetti/library-console/internal/relation"
	"github.com/vmarchetti/library-console/internal/store"
	"github.com/vmarchetti/library-console/internal/validate"
)

type Entity uint8

const (
	Books Entity = iota
	Users
	Loans
)

func (e Entity) String() string {
	switch e {
	case Books:
		return "books"
	case Users:
		return "users"
	case Loans:
		return "loans"
	}
	return "unknown"
}

func (e Entity) singular() string {
	switch e {
	case Books:
		return "book"
	case Users:
		return "user"
	case Loans:
		return "loan"
	}
	return "record"
}

// State is the single tagged view state: which entity is active and whether
// its form is open. One list or one form is visible, never more.
type State struct {
	Active   Entity
	FormOpen bool
}

// Controller is the top-level state machine. All transitions keep the rule
// that at most one form controller is non-nil, matching State.FormOpen.
type Controller struct {
	log       *zap.Logger
	books     *store.Store[model.Book]
	users     *store.Store[model.User]
	loans     *store.Store[model.Loan]
	resolver  *relation.Resolver
	notifier  Notifier
	confirmer Confirmer
	now       func() time.Time

	state    State
	bookForm *form.Controller[model.BookDraft]
	userForm *form.Controller[model.UserDraft]
	loanForm *form.Controller[model.LoanDraft]
	loanRefs *model.LoanRefs
}

func New(
	log *zap.Logger,
	books *store.Store[model.Book],
	users *store.Store[model.User],
	loans *store.Store[model.Loan],
	resolver *relation.Resolver,
	notifier Notifier,
	confirmer Confirmer,
) *Controller {
	return &Controller{
		log:       log.Named("view"),
		books:     books,
		users:     users,
		loans:     loans,
		resolver:  resolver,
		notifier:  notifier,
		confirmer: confirmer,
		now:       time.Now,
		state:     State{Active: Books},
	}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Books() []model.Book {
	return c.books.Items()
}

func (c *Controller) Users() []model.User {
	return c.users.Items()
}

func (c *Controller) Loans() []model.Loan {
	return c.loans.Items()
}

func (c *Controller) BookForm() *form.Controller[model.BookDraft] {
	return c.bookForm
}

func (c *Controller) UserForm() *form.Controller[model.UserDraft] {
	return c.userForm
}

func (c *Controller) LoanForm() *form.Controller[model.LoanDraft] {
	return c.loanForm
}

// LoanRefs is nil until the resolver has loaded both reference collections;
// the loan form is not interactive before that.
func (c *Controller) LoanRefs() *model.LoanRefs {
	return c.loanRefs
}

func (c *Controller) ActiveStatus() store.Status {
	switch c.state.Active {
	case Users:
		return c.users.Status()
	case Loans:
		return c.loans.Status()
	default:
		return c.books.Status()
	}
}

func (c *Controller) ActiveErr() error {
	switch c.state.Active {
	case Users:
		return c.users.Err()
	case Loans:
		return c.loans.Err()
	default:
		return c.books.Err()
	}
}

// Select switches the active entity. An open form is closed and its draft
// discarded, then the newly active list is refetched.
func (c *Controller) Select(ctx context.Context, e Entity) {
	c.closeForm()
	c.state.Active = e
	c.refresh(ctx)
}

// Add opens an empty create form for the active entity. For loans the user
// and book collections are resolved first; on failure the form stays
// non-interactive and a general error is surfaced.
func (c *Controller) Add(ctx context.Context) {
	c.closeForm()
	c.state.FormOpen = true
	switch c.state.Active {
	case Books:
		c.bookForm = form.NewCreate(model.NewBookDraft(), validate.Book, c.submitBook)
	case Users:
		c.userForm = form.NewCreate(model.NewUserDraft(), validate.User, c.submitUser)
	case Loans:
		c.loanForm = form.NewCreate(model.NewLoanDraft(c.now()), c.validateLoan, c.submitLoan)
		c.resolveLoanRefs(ctx)
	}
}

// Edit opens the form seeded with a verbatim copy of the listed record.
func (c *Controller) Edit(ctx context.Context, id string) {
	c.closeForm()
	switch c.state.Active {
	case Books:
		for _, b := range c.books.Items() {
			if b.ID == id {
				c.bookForm = form.NewEdit(b.Draft(), validate.Book, c.submitBook)
				c.state.FormOpen = true
				return
			}
		}
	case Users:
		for _, u := range c.users.Items() {
			if u.ID == id {
				c.userForm = form.NewEdit(u.Draft(), validate.User, c.submitUser)
				c.state.FormOpen = true
				return
			}
		}
	case Loans:
		for _, l := range c.loans.Items() {
			if l.ID == id {
				c.loanForm = form.NewEdit(l.Draft(), c.validateLoan, c.submitLoan)
				c.state.FormOpen = true
				c.resolveLoanRefs(ctx)
				return
			}
		}
	}
	c.notifier.Error(fmt.Sprintf("The %s is no longer in the list.", c.state.Active.singular()))
}

// Cancel discards the draft and refetches the active list. The refetch on
// cancel is deliberate: the list may have changed while the form was open.
func (c *Controller) Cancel(ctx context.Context) {
	c.closeForm()
	c.refresh(ctx)
}

// Submit runs the open form. Field errors keep the form open with inline
// messages and nothing is sent; a remote failure is notified and the form
// stays open with the draft intact; success notifies, closes and refetches.
func (c *Controller) Submit(ctx context.Context) {
	if !c.state.FormOpen {
		return
	}
	var (
		err     error
		created bool
	)
	switch c.state.Active {
	case Books:
		created = c.bookForm.Mode() == form.ModeCreate
		err = c.bookForm.Submit(ctx)
	case Users:
		created = c.userForm.Mode() == form.ModeCreate
		err = c.userForm.Submit(ctx)
	case Loans:
		if c.loanRefs == nil {
			c.notifier.Error("User and book options are still loading.")
			return
		}
		created = c.loanForm.Mode() == form.ModeCreate
		err = c.loanForm.Submit(ctx)
	}
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return
		}
		c.notifier.Error(fmt.Sprintf("Could not save the %s: %v", c.state.Active.singular(), err))
		return
	}
	c.notifier.Success(savedMessage(c.state.Active, created))
	c.closeForm()
	c.refresh(ctx)
}

// Delete asks for confirmation first; declining sends nothing. After a
// successful delete the list is refetched, on failure it is left as-is.
func (c *Controller) Delete(ctx context.Context, id string) {
	kind := c.state.Active.singular()
	if !c.confirmer.Confirm(fmt.Sprintf("Delete this %s?", kind)) {
		return
	}
	var err error
	switch c.state.Active {
	case Books:
		err = c.books.Delete(ctx, id)
	case Users:
		err = c.users.Delete(ctx, id)
	case Loans:
		err = c.loans.Delete(ctx, id)
	}
	if err != nil {
		c.notifier.Error(fmt.Sprintf("Could not delete the %s: %v", kind, err))
		return
	}
	c.notifier.Success(fmt.Sprintf("The %s was deleted.", kind))
	c.refresh(ctx)
}

// Refresh refetches the active list, e.g. for an explicit user-driven retry
// after a fetch error.
func (c *Controller) Refresh(ctx context.Context) {
	c.refresh(ctx)
}

func (c *Controller) refresh(ctx context.Context) {
	var err error
	switch c.state.Active {
	case Books:
		err = c.books.FetchAll(ctx)
	case Users:
		err = c.users.FetchAll(ctx)
	case Loans:
		err = c.loans.FetchAll(ctx)
	}
	if err != nil {
		// rendered as a list-level error from the store's state
		c.log.Warn("refresh", zap.Stringer("view", c.state.Active), zap.Error(err))
	}
}

func (c *Controller) closeForm() {
	c.state.FormOpen = false
	c.bookForm = nil
	c.userForm = nil
	c.loanForm = nil
	c.loanRefs = nil
}

func (c *Controller) resolveLoanRefs(ctx context.Context) {
	refs, err := c.resolver.Load(ctx)
	if err != nil {
		c.loanRefs = nil
		c.notifier.Error("Could not load users and books for the loan form.")
		return
	}
	c.loanRefs = &refs
}

func (c *Controller) validateLoan(d model.LoanDraft) validate.Errors {
	if c.loanRefs == nil {
		return validate.Errors{"general": "User and book options are still loading."}
	}
	return validate.Loan(d, *c.loanRefs)
}

func (c *Controller) submitBook(ctx context.Context, d model.BookDraft) error {
	if d.ID == "" {
		return c.books.Create(ctx, d.CreatePayload())
	}
	return c.books.Update(ctx, d.ID, d.UpdatePayload())
}

func (c *Controller) submitUser(ctx context.Context, d model.UserDraft) error {
	if d.ID == "" {
		return c.users.Create(ctx, d.Payload())
	}
	return c.users.Update(ctx, d.ID, d.Payload())
}

func (c *Controller) submitLoan(ctx context.Context, d model.LoanDraft) error {
	payload, err := d.Payload()
	if err != nil {
		return err
	}
	if d.ID == "" {
		return c.loans.Create(ctx, payload)
	}
	return c.loans.Update(ctx, d.ID, payload)
}

func savedMessage(e Entity, created bool) string {
	switch e {
	case Books:
		if created {
			return "Book added."
		}
		return "Book updated."
	case Users:
		if created {
			return "User added."
		}
		return "User updated."
	default:
		if created {
			return "Loan registered."
		}
		return "Loan updated."
	}
}
