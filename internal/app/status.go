package app

// StatusCode identifies one class of voice session outcome. Codes map to
// user-facing toasts and transcript overlay text; the server never retries
// on behalf of the operator.
type StatusCode string

const (
	// StatusListening is emitted when the capture session is live.
	StatusListening StatusCode = "listening"

	// StatusPosted reports a successfully posted sale.
	StatusPosted StatusCode = "posted"

	// StatusCaptureUnsupported reports that the client has no usable
	// speech capture.
	StatusCaptureUnsupported StatusCode = "capture_unsupported"

	// StatusCaptureError reports a capture failure other than plain
	// silence. No-speech timeouts are intentionally not surfaced.
	StatusCaptureError StatusCode = "capture_error"

	// StatusIncomplete reports a command abandoned without its mandatory
	// slots.
	StatusIncomplete StatusCode = "incomplete"

	// StatusEntityNotFound reports a customer or product lookup miss. The
	// message names the spoken term and may carry a phonetic suggestion.
	StatusEntityNotFound StatusCode = "entity_not_found"

	// StatusStoreError reports a persistence failure. The command is not
	// retried; the operator re-issues it.
	StatusStoreError StatusCode = "store_error"
)

// Status is one session event pushed to the client.
type Status struct {
	Code    StatusCode `json:"code"`
	Error   bool       `json:"error"`
	Message string     `json:"message"`
}
