package model

import "time"

// DateTimeLocal is the editable timestamp shape used inside loan drafts.
// The wire format is RFC3339; drafts keep the shorter minute-precision form.
const DateTimeLocal = "2006-01-02T15:04"

type Book struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn"`
	Available bool   `json:"available"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Loan struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	BookID     string     `json:"book_id"`
	LoanedAt   time.Time  `json:"loaned_at"`
	Returned   bool       `json:"returned"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// Drafts hold in-progress form state. Field names on the `form` tag are the
// keys used in field-error maps and by the front end.

type BookDraft struct {
	ID        string `form:"id"`
	Title     string `form:"title" validate:"notblank"`
	Author    string `form:"author" validate:"notblank"`
	ISBN      string `form:"isbn" validate:"required,isbncode"`
	Available bool   `form:"available"`
}

type UserDraft struct {
	ID    string `form:"id"`
	Name  string `form:"name" validate:"notblank"`
	Email string `form:"email" validate:"required,email_loose"`
}

type LoanDraft struct {
	ID         string `form:"id"`
	UserID     string `form:"userId" validate:"required"`
	BookID     string `form:"bookId" validate:"required"`
	LoanDate   string `form:"loanDate" validate:"required"`
	ReturnDate string `form:"returnDate"`
	Returned   bool   `form:"returned"`
}

// LoanRefs are the user and book collections a loan form selects from. Both
// must be loaded before a loan draft can be validated or submitted.
type LoanRefs struct {
	Users []User
	Books []Book
}

func (r LoanRefs) HasUser(id string) bool {
	for _, u := range r.Users {
		if u.ID == id {
			return true
		}
	}
	return false
}

func (r LoanRefs) HasBook(id string) bool {
	for _, b := range r.Books {
		if b.ID == id {
			return true
		}
	}
	return false
}

func NewBookDraft() BookDraft {
	return BookDraft{Available: true}
}

func NewUserDraft() UserDraft {
	return UserDraft{}
}

func NewLoanDraft(now time.Time) LoanDraft {
	return LoanDraft{LoanDate: now.UTC().Format(DateTimeLocal)}
}

// Draft copies a persisted record verbatim into an editable draft.

func (b Book) Draft() BookDraft {
	return BookDraft{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		ISBN:      b.ISBN,
		Available: b.Available,
	}
}

func (u User) Draft() UserDraft {
	return UserDraft{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

func (l Loan) Draft() LoanDraft {
	d := LoanDraft{
		ID:       l.ID,
		UserID:   l.UserID,
		BookID:   l.BookID,
		LoanDate: l.LoanedAt.UTC().Format(DateTimeLocal),
		Returned: l.Returned,
	}
	if l.ReturnedAt != nil {
		d.ReturnDate = l.ReturnedAt.UTC().Format(DateTimeLocal)
	}
	return d
}
