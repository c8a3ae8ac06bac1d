package log

// Attribute keys shared by every component.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldEntryKind   = "entry_kind"
	FieldEntryID     = "entry_id"
	FieldAmountCents = "amount_cents"
	FieldEventType   = "event_type"
	FieldBackend     = "backend"
)

// Component names passed to Logger.WithComponent.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentEntries  = "entries"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentSecurity = "security"
	ComponentBackend  = "backend"
	ComponentTemplate = "template"
)

// Operation names for FieldOperation.
const (
	OpCreate  = "create"
	OpExport  = "export"
	OpPublish = "publish"
	OpAppend  = "append"
	OpRender  = "render"
)

// LogFields collects key/value pairs in the order they were added.
type LogFields struct {
	kv []any
}

func NewFields() *LogFields {
	return &LogFields{kv: make([]any, 0, 8)}
}

func (f *LogFields) add(key string, value any) *LogFields {
	f.kv = append(f.kv, key, value)
	return f
}

// WithError is a no-op for a nil error.
func (f *LogFields) WithError(err error) *LogFields {
	if err == nil {
		return f
	}
	return f.add(FieldError, err.Error())
}

func (f *LogFields) WithOperation(op string) *LogFields {
	return f.add(FieldOperation, op)
}

// WithEntry records the kind, id and amount in cents of an income or expense.
func (f *LogFields) WithEntry(kind string, id int64, amountCents int64) *LogFields {
	return f.add(FieldEntryKind, kind).add(FieldEntryID, id).add(FieldAmountCents, amountCents)
}

func (f *LogFields) WithPeriod(year, month int) *LogFields {
	return f.add(FieldYear, year).add(FieldMonth, month)
}

// ToSlice returns the pairs in slog's variadic form.
func (f *LogFields) ToSlice() []any {
	return f.kv
}
