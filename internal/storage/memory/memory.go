// Package memory is an in-process Store for local demos and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"presupuesto/internal/core"
	"presupuesto/internal/storage"
)

type Store struct {
	mu       sync.Mutex
	nextID   int64
	incomes  map[int64]core.Income
	expenses map[int64]core.Expense
	now      func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		incomes:  make(map[int64]core.Income),
		expenses: make(map[int64]core.Expense),
		now:      time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error                { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// newer orders by date descending, then id descending.
func newer(da, db time.Time, ia, ib int64) bool {
	if !da.Equal(db) {
		return da.After(db)
	}
	return ia > ib
}

func (s *Store) ListIncomes(ctx context.Context, r storage.Range) ([]core.Income, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Income, 0, len(s.incomes))
	for _, in := range s.incomes {
		if r.Contains(in.Date) {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].Date, out[j].Date, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) GetIncome(_ context.Context, id int64) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.incomes[id]
	if !ok {
		return core.Income{}, fmt.Errorf("income %d: %w", id, storage.ErrNotFound)
	}
	return in, nil
}

func (s *Store) CreateIncome(_ context.Context, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	in.ID = s.id()
	in.Date = in.Date.UTC()
	in.CreatedAt, in.UpdatedAt = now, now
	s.incomes[in.ID] = in
	return in, nil
}

func (s *Store) UpdateIncome(_ context.Context, id int64, p core.IncomePatch) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.incomes[id]
	if !ok {
		return core.Income{}, fmt.Errorf("income %d: %w", id, storage.ErrNotFound)
	}
	next := p.Apply(current)
	if err := next.Validate(); err != nil {
		return core.Income{}, err
	}
	next.Date = next.Date.UTC()
	next.UpdatedAt = s.now().UTC()
	s.incomes[id] = next
	return next, nil
}

func (s *Store) DeleteIncome(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incomes[id]; !ok {
		return fmt.Errorf("income %d: %w", id, storage.ErrNotFound)
	}
	delete(s.incomes, id)
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, r storage.Range) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].Date, out[j].Date, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	return e, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	e.ID = s.id()
	e.Date = e.Date.UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, id int64, p core.ExpensePatch) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	next := p.Apply(current)
	if err := next.Validate(); err != nil {
		return core.Expense{}, err
	}
	next.Date = next.Date.UTC()
	next.UpdatedAt = s.now().UTC()
	s.expenses[id] = next
	return next, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}
