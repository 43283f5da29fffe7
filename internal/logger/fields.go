package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID).
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name.
	FieldComponent = "component"

	// FieldUserID is the chat user ID.
	FieldUserID = "user_id"
)

// Standard metric fields, attached per log entry.
const (
	// FieldDurationMs is the execution duration in milliseconds.
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field.
	FieldCount = "count"

	// FieldStatus is the operation status.
	FieldStatus = "status"
)
