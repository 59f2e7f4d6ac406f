package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vmarchetti/library-console/internal/model"
)

// Errors maps a form field name to an inline message. An empty map means the
// draft is valid.
type Errors map[string]string

var (
	isbnRe  = regexp.MustCompile(`^\d{10}(\d{3})?$`)
	emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

var v = newValidator()

func newValidator() *validator.Validate {
	vd := validator.New()
	vd.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	must(vd.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))
	must(vd.RegisterValidation("isbncode", func(fl validator.FieldLevel) bool {
		return isbnRe.MatchString(fl.Field().String())
	}))
	must(vd.RegisterValidation("email_loose", func(fl validator.FieldLevel) bool {
		return emailRe.MatchString(fl.Field().String())
	}))
	vd.RegisterStructValidation(loanDates, model.LoanDraft{})
	return vd
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func loanDates(sl validator.StructLevel) {
	d := sl.Current().Interface().(model.LoanDraft)
	var loanedAt time.Time
	if d.LoanDate != "" {
		t, err := time.Parse(model.DateTimeLocal, d.LoanDate)
		if err != nil {
			sl.ReportError(d.LoanDate, "loanDate", "LoanDate", "datetime", "")
			return
		}
		loanedAt = t
	}
	if d.ReturnDate == "" {
		return
	}
	returnedAt, err := time.Parse(model.DateTimeLocal, d.ReturnDate)
	if err != nil {
		sl.ReportError(d.ReturnDate, "returnDate", "ReturnDate", "datetime", "")
		return
	}
	if d.LoanDate != "" && returnedAt.Before(loanedAt) {
		sl.ReportError(d.ReturnDate, "returnDate", "ReturnDate", "notbeforeloan", "")
	}
}

func Book(d model.BookDraft) Errors {
	return run(d)
}

func User(d model.UserDraft) Errors {
	return run(d)
}

// Loan also checks that the draft's references resolve in the loaded user and
// book collections, so a stale selection cannot be submitted.
func Loan(d model.LoanDraft, refs model.LoanRefs) Errors {
	out := run(d)
	if d.UserID != "" && out["userId"] == "" && !refs.HasUser(d.UserID) {
		out["userId"] = "Selected user no longer exists."
	}
	if d.BookID != "" && out["bookId"] == "" && !refs.HasBook(d.BookID) {
		out["bookId"] = "Selected book no longer exists."
	}
	return out
}

func run(s any) Errors {
	out := Errors{}
	err := v.Struct(s)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["general"] = "Invalid form."
		return out
	}
	for _, fe := range verrs {
		if _, ok := out[fe.Field()]; !ok {
			out[fe.Field()] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "title":
		return "Title is required."
	case "author":
		return "Author is required."
	case "isbn":
		if fe.Tag() == "required" {
			return "ISBN is required."
		}
		return "ISBN must be 10 or 13 numeric digits."
	case "name":
		return "Name is required."
	case "email":
		if fe.Tag() == "required" {
			return "Email is required."
		}
		return "Email is invalid."
	case "userId":
		return "User is required."
	case "bookId":
		return "Book is required."
	case "loanDate":
		if fe.Tag() == "datetime" {
			return "Loan date is invalid."
		}
		return "Loan date is required."
	case "returnDate":
		if fe.Tag() == "datetime" {
			return "Return date is invalid."
		}
		return "Return date cannot be before the loan date."
	}
	return "Invalid value."
}
