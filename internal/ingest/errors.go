package ingest

type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors.
const (
	ErrInvalidPayload    = constError("invalid sensor payload")
	ErrUnsupportedFormat = constError("unsupported file format")
	ErrMQTTConnect       = constError("mqtt connect failed")
	ErrMQTTSubscribe     = constError("mqtt subscribe failed")
	ErrNotConfigured     = constError("mqtt broker and topic are required")
)
