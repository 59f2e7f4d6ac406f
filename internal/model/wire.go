package model

import (
	"time"

	"github.com/pkg/errors"
)

// Payload types are the request shapes the remote service expects. Form field
// names differ from the wire (userId -> user_id, loanDate -> loaned_at), so
// every draft maps through exactly one function here and nowhere else.

type BookPayload struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn"`
	Available bool   `json:"available"`
}

type UserPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LoanPayload struct {
	UserID     string  `json:"user_id"`
	BookID     string  `json:"book_id"`
	LoanedAt   string  `json:"loaned_at"`
	Returned   bool    `json:"returned"`
	ReturnedAt *string `json:"returned_at"`
}

// CreatePayload always sends available=true: the flag is only editable on an
// existing record.
func (d BookDraft) CreatePayload() BookPayload {
	return BookPayload{
		Title:     d.Title,
		Author:    d.Author,
		ISBN:      d.ISBN,
		Available: true,
	}
}

func (d BookDraft) UpdatePayload() BookPayload {
	return BookPayload{
		Title:     d.Title,
		Author:    d.Author,
		ISBN:      d.ISBN,
		Available: d.Available,
	}
}

func (d UserDraft) Payload() UserPayload {
	return UserPayload{
		Name:  d.Name,
		Email: d.Email,
	}
}

// Payload normalizes the draft's minute-precision timestamps to RFC3339.
// A validated draft always converts cleanly; the error covers drafts that
// bypassed validation.
func (d LoanDraft) Payload() (LoanPayload, error) {
	loanedAt, err := time.Parse(DateTimeLocal, d.LoanDate)
	if err != nil {
		return LoanPayload{}, errors.Wrap(err, "loan date")
	}
	p := LoanPayload{
		UserID:   d.UserID,
		BookID:   d.BookID,
		LoanedAt: loanedAt.UTC().Format(time.RFC3339),
		Returned: d.Returned,
	}
	if d.ReturnDate != "" {
		returnedAt, err := time.Parse(DateTimeLocal, d.ReturnDate)
		if err != nil {
			return LoanPayload{}, errors.Wrap(err, "return date")
		}
		s := returnedAt.UTC().Format(time.RFC3339)
		p.ReturnedAt = &s
	}
	return p, nil
}
