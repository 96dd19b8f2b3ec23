package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields propagated through the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the archive job ledger ID
	FieldJobID = "job_id"

	// FieldSubdomain is the chat subdomain being archived
	FieldSubdomain = "subdomain"

	// FieldStage is the pipeline stage name
	FieldStage = "stage"

	// FieldRoomID is the chat room ID
	FieldRoomID = "room_id"

	// FieldUploadID is the upload ID
	FieldUploadID = "upload_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Standard metric fields used for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
