package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldService   = "service"
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldParseID   = "parse_id"
	FieldJobID     = "job_id"

	// Replay fields
	FieldModuleID   = "module_id"
	FieldModuleType = "module_type"
	FieldEventType  = "event_type"
	FieldEventIndex = "event_index"
	FieldBuild      = "build"
	FieldDispatched = "dispatched"
	FieldSkipped    = "skipped"
	FieldFaults     = "faults"

	// Config fields
	FieldPath    = "path"
	FieldVersion = "version"
)
