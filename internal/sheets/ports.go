package sheets

import (
	"context"
	"time"

	"presupuesto/internal/core"
)

// Header is the first row of the mirror sheet.
var Header = []any{"Registrado", "Evento", "Tipo", "ID", "Fecha", "Concepto", "Monto", "Persona", "Categoria"}

// Row is one line of the mirror sheet: the change event plus the entry as
// it was when the event was handled. Deleted entries carry only the id.
type Row struct {
	Recorded time.Time
	Event    string
	Kind     string
	ID       int64
	Date     time.Time
	Concept  string
	Amount   core.Money
	Owner    string // persona for incomes, responsable for expenses
	Category string
}

// Values renders r in Header order. Dates are formatted in loc.
func (r Row) Values(loc *time.Location) []any {
	if loc == nil {
		loc = time.Local
	}
	date, amount := "", any("")
	if !r.Date.IsZero() {
		date = r.Date.In(loc).Format("2006-01-02")
		amount = r.Amount.Float()
	}
	return []any{
		r.Recorded.In(loc).Format("2006-01-02 15:04:05"),
		r.Event,
		r.Kind,
		r.ID,
		date,
		r.Concept,
		amount,
		r.Owner,
		r.Category,
	}
}

// Ports for outbound adapters.
type (
	RowAppender interface {
		AppendRow(ctx context.Context, r Row) (rowRef string, err error)
	}

	HeaderWriter interface {
		EnsureHeader(ctx context.Context) error
	}
)
