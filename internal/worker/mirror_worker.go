package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"presupuesto/internal/amqp"
	applog "presupuesto/internal/log"
	"presupuesto/internal/sheets"
	"presupuesto/internal/storage"
)

// MirrorWorker appends one spreadsheet row per entry change event. The row
// holds the entry as it is in the store when the event is handled.
type MirrorWorker struct {
	store  storage.Store
	sheet  sheets.RowAppender
	logger *applog.Logger
	now    func() time.Time
}

func NewMirrorWorker(store storage.Store, sheet sheets.RowAppender, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.Default(applog.ComponentWorker)
	}
	return &MirrorWorker{
		store:  store,
		sheet:  sheet,
		logger: logger.WithComponent(applog.ComponentWorker),
		now:    time.Now,
	}
}

// Prepare writes the sheet header when the sheet supports it.
func (w *MirrorWorker) Prepare(ctx context.Context) error {
	if hw, ok := w.sheet.(sheets.HeaderWriter); ok {
		if err := hw.EnsureHeader(ctx); err != nil {
			return fmt.Errorf("ensure header: %w", err)
		}
	}
	return nil
}

// HandleEvent mirrors ev. An entry deleted before its created or updated
// event is handled is skipped; the delete event records it. Returning an
// error requeues the event.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev amqp.EntryEvent) error {
	row, err := w.rowFor(ctx, ev)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.WarnContext(ctx, "Entry gone before mirroring, skipping",
			applog.FieldEventType, ev.Type,
			applog.FieldEntryKind, ev.Kind,
			applog.FieldEntryID, ev.ID)
		return nil
	}
	if err != nil {
		return err
	}

	ref, err := w.sheet.AppendRow(ctx, row)
	if err != nil {
		return fmt.Errorf("append %s %d to sheet: %w", ev.Kind, ev.ID, err)
	}

	w.logger.InfoContext(ctx, "Mirrored entry event",
		applog.FieldEventType, ev.Type,
		applog.FieldEntryKind, ev.Kind,
		applog.FieldEntryID, ev.ID,
		"sheets_ref", ref)
	return nil
}

func (w *MirrorWorker) rowFor(ctx context.Context, ev amqp.EntryEvent) (sheets.Row, error) {
	row := sheets.Row{
		Recorded: ev.Timestamp,
		Event:    string(ev.Type),
		Kind:     string(ev.Kind),
		ID:       ev.ID,
	}
	if row.Recorded.IsZero() {
		row.Recorded = w.now()
	}
	if ev.Type == amqp.EventDeleted {
		return row, nil
	}

	switch ev.Kind {
	case amqp.KindIncome:
		in, err := w.store.GetIncome(ctx, ev.ID)
		if err != nil {
			return sheets.Row{}, fmt.Errorf("get income %d: %w", ev.ID, err)
		}
		row.Date, row.Concept, row.Amount, row.Owner = in.Date, in.Concept, in.Amount, string(in.Person)
	case amqp.KindExpense:
		e, err := w.store.GetExpense(ctx, ev.ID)
		if err != nil {
			return sheets.Row{}, fmt.Errorf("get expense %d: %w", ev.ID, err)
		}
		row.Date, row.Concept, row.Amount, row.Owner = e.Date, e.Concept, e.Amount, string(e.Responsible)
		row.Category = string(e.Category)
	default:
		return sheets.Row{}, fmt.Errorf("unknown entry kind %q", ev.Kind)
	}
	return row, nil
}
