package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUtterance  = "utterance"
	FieldMutation   = "mutation"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldCount      = "count"
	FieldTotal      = "total"
	FieldSession    = "session_total"
	FieldSessionID  = "session_id"
	FieldLockout    = "lockout"
	FieldPhrase     = "phrase"
	FieldVersion    = "version"
	FieldBackend    = "backend"
	FieldEventName  = "event_name"
	FieldSource     = "source"
	FieldDurationMs = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentSession  = "session"
	ComponentListener = "listener"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentBackend  = "backend"
	ComponentExport   = "export"
	ComponentTrace    = "trace"
)

// Operations defines standard operation names
const (
	OpInterpret  = "interpret"
	OpApply      = "apply"
	OpReadTotal  = "read_total"
	OpWriteTotal = "write_total"
	OpRecord     = "record_event"
	OpSync       = "sync"
	OpExport     = "export"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// With adds an arbitrary field
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
	return f
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithMutation adds the mutation kind, category and amount
func (f LogFields) WithMutation(kind, category string, amount int64) LogFields {
	f[FieldMutation] = kind
	if category != "" {
		f[FieldCategory] = category
	}
	if amount != 0 {
		f[FieldAmount] = amount
	}
	return f
}

// WithTotals adds the session and persistent totals
func (f LogFields) WithTotals(session, persistent int64) LogFields {
	f[FieldSession] = session
	f[FieldTotal] = persistent
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
