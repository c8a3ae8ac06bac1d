// Package storagetest holds the behaviour every storage.Store must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"presupuesto/internal/core"
	"presupuesto/internal/storage"
)

// Run exercises a fresh, empty store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("IncomeRoundTrip", func(t *testing.T) { testIncomeRoundTrip(t, newStore(t)) })
	t.Run("ExpenseRoundTrip", func(t *testing.T) { testExpenseRoundTrip(t, newStore(t)) })
	t.Run("ListOrderAndRange", func(t *testing.T) { testListOrderAndRange(t, newStore(t)) })
	t.Run("PartialUpdate", func(t *testing.T) { testPartialUpdate(t, newStore(t)) })
	t.Run("InvalidUpdateRejected", func(t *testing.T) { testInvalidUpdate(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("InvalidCreateRejected", func(t *testing.T) { testInvalidCreate(t, newStore(t)) })
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func testIncomeRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	created, err := s.CreateIncome(ctx, core.Income{
		Concept: "Sueldo",
		Amount:  core.Money{Cents: 150050},
		Person:  core.PersonP1,
		Date:    at(2025, 3, 1),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())
	require.False(t, created.UpdatedAt.IsZero())

	list, err := s.ListIncomes(ctx, storage.Range{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)
	require.Equal(t, "Sueldo", list[0].Concept)
	require.Equal(t, core.Money{Cents: 150050}, list[0].Amount)
	require.Equal(t, core.PersonP1, list[0].Person)
	require.True(t, at(2025, 3, 1).Equal(list[0].Date))

	got, err := s.GetIncome(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, list[0].Concept, got.Concept)

	require.NoError(t, s.DeleteIncome(ctx, created.ID))
	list, err = s.ListIncomes(ctx, storage.Range{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func testExpenseRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	created, err := s.CreateExpense(ctx, core.Expense{
		Concept:     "Alquiler",
		Amount:      core.Money{Cents: 50000},
		Category:    core.CategoryMiscPurchases,
		Responsible: core.ResponsibleP2,
		Date:        at(2025, 3, 2),
	})
	require.NoError(t, err)

	got, err := s.GetExpense(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, core.CategoryMiscPurchases, got.Category)
	require.Equal(t, core.ResponsibleP2, got.Responsible)
	require.Equal(t, core.Money{Cents: 50000}, got.Amount)

	require.NoError(t, s.DeleteExpense(ctx, created.ID))
	_, err = s.GetExpense(ctx, created.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testListOrderAndRange(t *testing.T, s storage.Store) {
	ctx := context.Background()
	mk := func(concept string, d time.Time) core.Expense {
		e, err := s.CreateExpense(ctx, core.Expense{
			Concept:     concept,
			Amount:      core.Money{Cents: 100},
			Category:    core.CategoryOther,
			Responsible: core.ResponsibleP1,
			Date:        d,
		})
		require.NoError(t, err)
		return e
	}
	feb := mk("feb", at(2025, 2, 28))
	mar1 := mk("mar1", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	mar15a := mk("mar15a", at(2025, 3, 15))
	mar15b := mk("mar15b", at(2025, 3, 15))
	apr := mk("apr", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))

	all, err := s.ListExpenses(ctx, storage.Range{})
	require.NoError(t, err)
	require.Equal(t, []int64{apr.ID, mar15b.ID, mar15a.ID, mar1.ID, feb.ID}, expenseIDs(all))

	march, err := s.ListExpenses(ctx, storage.Between(
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	))
	require.NoError(t, err)
	require.Equal(t, []int64{mar15b.ID, mar15a.ID, mar1.ID}, expenseIDs(march))

	from := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	since, err := s.ListExpenses(ctx, storage.Range{From: &from})
	require.NoError(t, err)
	require.Equal(t, []int64{apr.ID, mar15b.ID, mar15a.ID}, expenseIDs(since))
}

func expenseIDs(es []core.Expense) []int64 {
	ids := make([]int64, 0, len(es))
	for _, e := range es {
		ids = append(ids, e.ID)
	}
	return ids
}

func testPartialUpdate(t *testing.T, s storage.Store) {
	ctx := context.Background()
	created, err := s.CreateIncome(ctx, core.Income{
		Concept: "Freelance",
		Amount:  core.Money{Cents: 1000},
		Person:  core.PersonExtra,
		Date:    at(2025, 5, 5),
	})
	require.NoError(t, err)

	amt := core.Money{Cents: 2500}
	updated, err := s.UpdateIncome(ctx, created.ID, core.IncomePatch{Amount: &amt})
	require.NoError(t, err)
	require.Equal(t, amt, updated.Amount)
	require.Equal(t, "Freelance", updated.Concept)
	require.Equal(t, core.PersonExtra, updated.Person)
	require.True(t, created.Date.Equal(updated.Date))
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	resp := core.ResponsibleP2
	exp, err := s.CreateExpense(ctx, core.Expense{
		Concept: "Gas", Amount: core.Money{Cents: 10}, Category: core.CategoryServices,
		Responsible: core.ResponsibleP1, Date: at(2025, 5, 6),
	})
	require.NoError(t, err)
	exp2, err := s.UpdateExpense(ctx, exp.ID, core.ExpensePatch{Responsible: &resp})
	require.NoError(t, err)
	require.Equal(t, resp, exp2.Responsible)
	require.Equal(t, core.CategoryServices, exp2.Category)
}

func testInvalidUpdate(t *testing.T, s storage.Store) {
	ctx := context.Background()
	created, err := s.CreateIncome(ctx, core.Income{
		Concept: "Sueldo", Amount: core.Money{Cents: 1000}, Person: core.PersonP2, Date: at(2025, 5, 5),
	})
	require.NoError(t, err)

	bad := core.Person("Nadie")
	_, err = s.UpdateIncome(ctx, created.ID, core.IncomePatch{Person: &bad})
	require.True(t, core.IsValidationError(err))

	got, err := s.GetIncome(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, core.PersonP2, got.Person, "failed update leaves the row untouched")
}

func testNotFound(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.GetIncome(ctx, 999)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, s.DeleteIncome(ctx, 999), storage.ErrNotFound)
	require.ErrorIs(t, s.DeleteExpense(ctx, 999), storage.ErrNotFound)

	concept := "x"
	_, err = s.UpdateIncome(ctx, 999, core.IncomePatch{Concept: &concept})
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.UpdateExpense(ctx, 999, core.ExpensePatch{Concept: &concept})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testInvalidCreate(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.CreateExpense(ctx, core.Expense{
		Concept: "x", Amount: core.Money{Cents: 1}, Category: "Viajes",
		Responsible: core.ResponsibleP1, Date: at(2025, 1, 1),
	})
	require.ErrorIs(t, err, core.ErrInvalidCategory)

	list, err := s.ListExpenses(ctx, storage.Range{})
	require.NoError(t, err)
	require.Empty(t, list)
}
