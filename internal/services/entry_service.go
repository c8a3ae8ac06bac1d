package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"presupuesto/internal/amqp"
	"presupuesto/internal/core"
	applog "presupuesto/internal/log"
	"presupuesto/internal/storage"
)

// Publisher announces entry changes. amqp.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, ev amqp.EntryEvent) error
}

// EntryService writes entries to the store and publishes a change event
// after each successful write. A failed publish is logged and never fails
// the write.
type EntryService struct {
	store     storage.Store
	publisher Publisher
	logger    *applog.Logger
	now       func() time.Time
}

// NewEntryService wires a store with an optional publisher.
func NewEntryService(store storage.Store, publisher Publisher, logger *applog.Logger) *EntryService {
	if logger == nil {
		logger = applog.Default(applog.ComponentEntries)
	}
	return &EntryService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentEntries),
		now:       time.Now,
	}
}

// Store exposes the underlying store for readiness checks.
func (s *EntryService) Store() storage.Store { return s.store }

func (s *EntryService) ListIncomes(ctx context.Context, r storage.Range) ([]core.Income, error) {
	return s.store.ListIncomes(ctx, r)
}

func (s *EntryService) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	return s.store.GetIncome(ctx, id)
}

// CreateIncome stores in, dated now when no date is given.
func (s *EntryService) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	created, err := s.store.CreateIncome(ctx, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	s.logger.InfoContext(ctx, "Income created", applog.NewFields().
		WithOperation(applog.OpCreate).
		WithEntry(string(amqp.KindIncome), created.ID, created.Amount.Cents).ToSlice()...)
	s.publish(ctx, amqp.EventCreated, amqp.KindIncome, created.ID)
	return created, nil
}

func (s *EntryService) UpdateIncome(ctx context.Context, id int64, p core.IncomePatch) (core.Income, error) {
	updated, err := s.store.UpdateIncome(ctx, id, p)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income %d: %w", id, err)
	}
	s.publish(ctx, amqp.EventUpdated, amqp.KindIncome, id)
	return updated, nil
}

func (s *EntryService) DeleteIncome(ctx context.Context, id int64) error {
	if err := s.store.DeleteIncome(ctx, id); err != nil {
		return fmt.Errorf("delete income %d: %w", id, err)
	}
	s.publish(ctx, amqp.EventDeleted, amqp.KindIncome, id)
	return nil
}

func (s *EntryService) ListExpenses(ctx context.Context, r storage.Range) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, r)
}

func (s *EntryService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// CreateExpense stores e, dated now when no date is given.
func (s *EntryService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Date.IsZero() {
		e.Date = s.now()
	}
	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.logger.InfoContext(ctx, "Expense created", applog.NewFields().
		WithOperation(applog.OpCreate).
		WithEntry(string(amqp.KindExpense), created.ID, created.Amount.Cents).ToSlice()...)
	s.publish(ctx, amqp.EventCreated, amqp.KindExpense, created.ID)
	return created, nil
}

func (s *EntryService) UpdateExpense(ctx context.Context, id int64, p core.ExpensePatch) (core.Expense, error) {
	updated, err := s.store.UpdateExpense(ctx, id, p)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}
	s.publish(ctx, amqp.EventUpdated, amqp.KindExpense, id)
	return updated, nil
}

func (s *EntryService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	s.publish(ctx, amqp.EventDeleted, amqp.KindExpense, id)
	return nil
}

func (s *EntryService) publish(ctx context.Context, typ amqp.EventType, kind amqp.EntryKind, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewEntryEvent(typ, kind, id)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish entry event",
			applog.FieldOperation, applog.OpPublish,
			applog.FieldEventType, typ,
			applog.FieldEntryKind, kind,
			applog.FieldEntryID, id,
			applog.FieldError, err)
	}
}

// Close closes the store and, when it has one, the publisher.
func (s *EntryService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close entry service: %w", errors.Join(errs...))
	}
	return nil
}
