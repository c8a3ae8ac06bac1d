package storage

import (
	"context"
	"errors"
	"time"

	"presupuesto/internal/core"
)

// ErrNotFound is returned (wrapped) when an id does not exist.
var ErrNotFound = errors.New("not found")

// Range bounds a listing by entry date. From is inclusive, To is exclusive;
// a nil bound is open.
type Range struct {
	From *time.Time
	To   *time.Time
}

// Between is the Range [from, to).
func Between(from, to time.Time) Range {
	return Range{From: &from, To: &to}
}

// Contains reports whether t satisfies the range.
func (r Range) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && !t.Before(*r.To) {
		return false
	}
	return true
}

// Ports implemented by every backend. Listings are ordered by date
// descending, then id descending.
type (
	IncomeStore interface {
		ListIncomes(ctx context.Context, r Range) ([]core.Income, error)
		GetIncome(ctx context.Context, id int64) (core.Income, error)
		CreateIncome(ctx context.Context, in core.Income) (core.Income, error)
		UpdateIncome(ctx context.Context, id int64, p core.IncomePatch) (core.Income, error)
		DeleteIncome(ctx context.Context, id int64) error
	}

	ExpenseStore interface {
		ListExpenses(ctx context.Context, r Range) ([]core.Expense, error)
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		UpdateExpense(ctx context.Context, id int64, p core.ExpensePatch) (core.Expense, error)
		DeleteExpense(ctx context.Context, id int64) error
	}

	Store interface {
		IncomeStore
		ExpenseStore
		Ping(ctx context.Context) error
		Close() error
	}
)
