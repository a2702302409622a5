package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldHouseholdID = "household_id"
	FieldExpenseID   = "expense_id"
	FieldCategoryID  = "category_id"
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldPeriodType  = "period_type"
	FieldPeriodStart = "period_start"
	FieldPeriodEnd   = "period_end"
	FieldModel       = "model"
	FieldEventType   = "event_type"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentExpense   = "expense"
	ComponentDashboard = "dashboard"
	ComponentAnalytics = "analytics"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentNarrative = "narrative"
	ComponentNotify    = "notify"
	ComponentLLM       = "llm"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpRead       = "read"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpList       = "list"
	OpGenerate   = "generate"
	OpInvalidate = "invalidate"
	OpNotify     = "notify"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)
