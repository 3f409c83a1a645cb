package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldCollection = "collection"
	FieldBillID     = "bill_id"
	FieldBillName   = "name"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldDaysUntil  = "days_until"
	FieldUrgency    = "urgency"
	FieldMigrated   = "migrated"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentWorker = "worker"
)
