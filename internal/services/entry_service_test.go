package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"presupuesto/internal/amqp"
	"presupuesto/internal/core"
	applog "presupuesto/internal/log"
	"presupuesto/internal/storage"
	"presupuesto/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.EntryEvent
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, ev amqp.EntryEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func newEntryService(pub Publisher) *EntryService {
	svc := NewEntryService(memory.New(), pub, applog.Discard())
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestEntryService_CreatePublishes(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newEntryService(pub)

	in, err := svc.CreateIncome(ctx, core.Income{Concept: "Sueldo", Amount: core.Money{Cents: 50000000}, Person: core.PersonP1})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC), in.Date, "missing date defaults to now")

	ex, err := svc.CreateExpense(ctx, core.Expense{
		Concept:     "Alquiler",
		Amount:      core.Money{Cents: 15000000},
		Category:    core.CategoryHousing,
		Responsible: core.ResponsibleP2,
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ex.Date)

	concept := "Alquiler marzo"
	_, err = svc.UpdateExpense(ctx, ex.ID, core.ExpensePatch{Concept: &concept})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteIncome(ctx, in.ID))

	require.Len(t, pub.events, 4)
	require.Equal(t, amqp.EventCreated, pub.events[0].Type)
	require.Equal(t, amqp.KindIncome, pub.events[0].Kind)
	require.Equal(t, in.ID, pub.events[0].ID)
	require.Equal(t, amqp.KindExpense, pub.events[1].Kind)
	require.Equal(t, amqp.EventUpdated, pub.events[2].Type)
	require.Equal(t, amqp.EventDeleted, pub.events[3].Type)
	require.Equal(t, amqp.KindIncome, pub.events[3].Kind)
}

func TestEntryService_FailedWritesDoNotPublish(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newEntryService(pub)

	_, err := svc.CreateIncome(ctx, core.Income{Concept: "", Amount: core.Money{Cents: 100}, Person: core.PersonP1})
	require.True(t, core.IsValidationError(err))

	err = svc.DeleteExpense(ctx, 999)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.UpdateIncome(ctx, 999, core.IncomePatch{})
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.Empty(t, pub.events)
}

func TestEntryService_PublishFailureKeepsWrite(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newEntryService(pub)

	in, err := svc.CreateIncome(ctx, core.Income{Concept: "Bono", Amount: core.Money{Cents: 100}, Person: core.PersonExtra})
	require.NoError(t, err)

	got, err := svc.GetIncome(ctx, in.ID)
	require.NoError(t, err)
	require.Equal(t, "Bono", got.Concept)
}

func TestEntryService_NilPublisher(t *testing.T) {
	svc := newEntryService(nil)
	_, err := svc.CreateExpense(context.Background(), core.Expense{
		Concept:     "Luz",
		Amount:      core.Money{Cents: 1000},
		Category:    core.CategoryServices,
		Responsible: core.ResponsibleP1,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Close())
}

func TestEntryService_CloseClosesPublisher(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newEntryService(pub)
	require.NoError(t, svc.Close())
	require.True(t, pub.closed)
}
