package form

import (
	"context"

	"github.com/vmarchetti/library-console/internal/errs"
	"github.com/vmarchetti/library-console/internal/validate"
)

type Mode uint8

const (
	ModeCreate Mode = iota + 1
	ModeEdit
)

// Controller holds the draft being created or edited. The draft lives only
// here: it is discarded on cancel or after a successful submit, never written
// back to a store directly.
type Controller[D any] struct {
	draft      D
	fieldErrs  validate.Errors
	mode       Mode
	validateFn func(D) validate.Errors
	submitFn   func(context.Context, D) error
}

func NewCreate[D any](draft D, validateFn func(D) validate.Errors, submitFn func(context.Context, D) error) *Controller[D] {
	return &Controller[D]{
		draft:      draft,
		fieldErrs:  validate.Errors{},
		mode:       ModeCreate,
		validateFn: validateFn,
		submitFn:   submitFn,
	}
}

// NewEdit starts from a copy of an existing record, all fields verbatim.
func NewEdit[D any](source D, validateFn func(D) validate.Errors, submitFn func(context.Context, D) error) *Controller[D] {
	c := NewCreate(source, validateFn, submitFn)
	c.mode = ModeEdit
	return c
}

func (c *Controller[D]) Mode() Mode {
	return c.mode
}

func (c *Controller[D]) Draft() D {
	return c.draft
}

func (c *Controller[D]) Errors() validate.Errors {
	out := validate.Errors{}
	for k, v := range c.fieldErrs {
		out[k] = v
	}
	return out
}

// Change applies one field edit and clears that field's error only; errors on
// other fields stay until their own field changes.
func (c *Controller[D]) Change(field string, mutate func(*D)) {
	delete(c.fieldErrs, field)
	mutate(&c.draft)
}

// Submit validates the draft and hands it to the submit callback. Field
// errors block the submission entirely; nothing is sent on a partial pass.
func (c *Controller[D]) Submit(ctx context.Context) error {
	if fieldErrs := c.validateFn(c.draft); len(fieldErrs) > 0 {
		c.fieldErrs = fieldErrs
		return errs.ErrValidation
	}
	return c.submitFn(ctx, c.draft)
}
