package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vmarchetti/library-console/internal/model"
	"github.com/vmarchetti/library-console/internal/store"
	"github.com/vmarchetti/library-console/internal/view"
)

// Terminal is a plain line-oriented front end over the view controller. It
// owns no entity state: everything it shows comes from the controller and the
// stores behind it.
type Terminal struct {
	vc  *view.Controller
	in  *bufio.Scanner
	out io.Writer
	log *zap.Logger
}

func New(in io.Reader, out io.Writer, log *zap.Logger) *Terminal {
	return &Terminal{
		in:  bufio.NewScanner(in),
		out: out,
		log: log.Named("ui"),
	}
}

// Bind attaches the controller after construction; the controller needs the
// terminal as notifier and confirmer first.
func (t *Terminal) Bind(vc *view.Controller) {
	t.vc = vc
}

func (t *Terminal) Success(msg string) {
	fmt.Fprintln(t.out, "OK:", msg)
}

func (t *Terminal) Error(msg string) {
	fmt.Fprintln(t.out, "ERROR:", msg)
}

func (t *Terminal) Confirm(prompt string) bool {
	fmt.Fprintf(t.out, "%s [y/N]: ", prompt)
	if !t.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(t.in.Text()))
	return answer == "y" || answer == "yes"
}

func isYes(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v == "y" || v == "yes"
}

func (t *Terminal) Run(ctx context.Context) {
	t.vc.Select(ctx, view.Books)
	for {
		if ctx.Err() != nil {
			return
		}
		t.render()
		fmt.Fprint(t.out, "> ")
		if !t.in.Scan() {
			return
		}
		if !t.dispatch(ctx, strings.Fields(t.in.Text())) {
			return
		}
	}
}

func (t *Terminal) dispatch(ctx context.Context, args []string) bool {
	if len(args) == 0 {
		return true
	}
	switch args[0] {
	case "books":
		t.vc.Select(ctx, view.Books)
	case "users":
		t.vc.Select(ctx, view.Users)
	case "loans":
		t.vc.Select(ctx, view.Loans)
	case "add":
		t.vc.Add(ctx)
	case "edit":
		if id, ok := t.idAt(args); ok {
			t.vc.Edit(ctx, id)
		}
	case "del":
		if id, ok := t.idAt(args); ok {
			t.vc.Delete(ctx, id)
		}
	case "set":
		t.set(args[1:])
	case "submit":
		t.vc.Submit(ctx)
	case "cancel":
		t.vc.Cancel(ctx)
	case "refresh":
		t.vc.Refresh(ctx)
	case "quit", "exit":
		return false
	case "help":
		fmt.Fprintln(t.out, "commands: books users loans add edit <n> del <n> set <field> <value> submit cancel refresh quit")
	default:
		fmt.Fprintln(t.out, "unknown command; try help")
	}
	return true
}

func (t *Terminal) idAt(args []string) (string, bool) {
	if len(args) < 2 {
		fmt.Fprintln(t.out, "usage:", args[0], "<n>")
		return "", false
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		fmt.Fprintln(t.out, "not a list number:", args[1])
		return "", false
	}
	switch t.vc.State().Active {
	case view.Books:
		if items := t.vc.Books(); n <= len(items) {
			return items[n-1].ID, true
		}
	case view.Users:
		if items := t.vc.Users(); n <= len(items) {
			return items[n-1].ID, true
		}
	case view.Loans:
		if items := t.vc.Loans(); n <= len(items) {
			return items[n-1].ID, true
		}
	}
	fmt.Fprintln(t.out, "no such list entry:", n)
	return "", false
}

func (t *Terminal) set(args []string) {
	if !t.vc.State().FormOpen || len(args) < 2 {
		fmt.Fprintln(t.out, "usage: set <field> <value> (with a form open)")
		return
	}
	field, value := args[0], strings.Join(args[1:], " ")
	switch t.vc.State().Active {
	case view.Books:
		t.setBook(field, value)
	case view.Users:
		t.setUser(field, value)
	case view.Loans:
		t.setLoan(field, value)
	}
}

func (t *Terminal) setBook(field, value string) {
	f := t.vc.BookForm()
	switch field {
	case "title":
		f.Change("title", func(d *model.BookDraft) { d.Title = value })
	case "author":
		f.Change("author", func(d *model.BookDraft) { d.Author = value })
	case "isbn":
		f.Change("isbn", func(d *model.BookDraft) { d.ISBN = value })
	case "available":
		f.Change("available", func(d *model.BookDraft) { d.Available = isYes(value) })
	default:
		fmt.Fprintln(t.out, "unknown field:", field)
	}
}

func (t *Terminal) setUser(field, value string) {
	f := t.vc.UserForm()
	switch field {
	case "name":
		f.Change("name", func(d *model.UserDraft) { d.Name = value })
	case "email":
		f.Change("email", func(d *model.UserDraft) { d.Email = value })
	default:
		fmt.Fprintln(t.out, "unknown field:", field)
	}
}

func (t *Terminal) setLoan(field, value string) {
	refs := t.vc.LoanRefs()
	if refs == nil {
		fmt.Fprintln(t.out, "user and book options are still loading")
		return
	}
	f := t.vc.LoanForm()
	switch field {
	case "user":
		if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= len(refs.Users) {
			value = refs.Users[n-1].ID
		}
		id := value
		f.Change("userId", func(d *model.LoanDraft) { d.UserID = id })
	case "book":
		if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= len(refs.Books) {
			value = refs.Books[n-1].ID
		}
		id := value
		f.Change("bookId", func(d *model.LoanDraft) { d.BookID = id })
	case "loandate":
		f.Change("loanDate", func(d *model.LoanDraft) { d.LoanDate = value })
	case "returndate":
		f.Change("returnDate", func(d *model.LoanDraft) { d.ReturnDate = value })
	case "returned":
		f.Change("returned", func(d *model.LoanDraft) { d.Returned = isYes(value) })
	default:
		fmt.Fprintln(t.out, "unknown field:", field)
	}
}

func (t *Terminal) render() {
	st := t.vc.State()
	if st.FormOpen {
		t.renderForm(st)
		return
	}
	t.renderList(st)
}

func (t *Terminal) renderList(st view.State) {
	fmt.Fprintf(t.out, "\n== %s ==\n", st.Active)
	if t.vc.ActiveStatus() == store.StatusFailed {
		fmt.Fprintln(t.out, "! could not load the list:", t.vc.ActiveErr())
	}
	switch st.Active {
	case view.Books:
		for i, b := range t.vc.Books() {
			fmt.Fprintf(t.out, "%3d. %s by %s (ISBN %s, available: %v)\n", i+1, b.Title, b.Author, b.ISBN, b.Available)
		}
	case view.Users:
		for i, u := range t.vc.Users() {
			fmt.Fprintf(t.out, "%3d. %s <%s>\n", i+1, u.Name, u.Email)
		}
	case view.Loans:
		for i, l := range t.vc.Loans() {
			fmt.Fprintf(t.out, "%3d. user=%s book=%s loaned=%s returned=%v\n",
				i+1, l.UserID, l.BookID, l.LoanedAt.Format(model.DateTimeLocal), l.Returned)
		}
	}
}

func (t *Terminal) renderForm(st view.State) {
	fmt.Fprintf(t.out, "\n== %s form ==\n", st.Active)
	switch st.Active {
	case view.Books:
		d := t.vc.BookForm().Draft()
		fmt.Fprintf(t.out, "title: %s\nauthor: %s\nisbn: %s\n", d.Title, d.Author, d.ISBN)
		if d.ID != "" {
			fmt.Fprintf(t.out, "available: %v\n", d.Available)
		}
		t.renderErrors(t.vc.BookForm().Errors())
	case view.Users:
		d := t.vc.UserForm().Draft()
		fmt.Fprintf(t.out, "name: %s\nemail: %s\n", d.Name, d.Email)
		t.renderErrors(t.vc.UserForm().Errors())
	case view.Loans:
		refs := t.vc.LoanRefs()
		if refs == nil {
			fmt.Fprintln(t.out, "loading users and books...")
			return
		}
		d := t.vc.LoanForm().Draft()
		fmt.Fprintf(t.out, "user: %s\nbook: %s\nloandate: %s\nreturndate: %s\nreturned: %v\n",
			d.UserID, d.BookID, d.LoanDate, d.ReturnDate, d.Returned)
		fmt.Fprintln(t.out, "-- users --")
		for i, u := range refs.Users {
			fmt.Fprintf(t.out, "%3d. %s\n", i+1, u.Name)
		}
		fmt.Fprintln(t.out, "-- books --")
		for i, b := range refs.Books {
			fmt.Fprintf(t.out, "%3d. %s\n", i+1, b.Title)
		}
		t.renderErrors(t.vc.LoanForm().Errors())
	}
}

func (t *Terminal) renderErrors(fieldErrs map[string]string) {
	for field, msg := range fieldErrs {
		fmt.Fprintf(t.out, "! %s: %s\n", field, msg)
	}
}
