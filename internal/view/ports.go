package view

//go:generate go run github.com/golang/mock/mockgen -source=ports.go -destination=mocks/mock.go -package=mocks

// Notifier surfaces the outcome of a mutation to the user. Exactly one call
// per attempted mutation, success or failure.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Confirmer gates destructive operations. Declining is a no-op: no request
// is sent.
type Confirmer interface {
	Confirm(prompt string) bool
}
