package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured indicates no API credential is available for the backend.
	ErrNotConfigured = errors.New("llm backend not configured")

	// ErrTransport indicates the model service could not be reached or refused the call.
	ErrTransport = errors.New("llm transport failure")

	// ErrMalformedResponse indicates the model output could not be parsed
	// into the expected structured format.
	ErrMalformedResponse = errors.New("malformed llm response")

	// ErrUnsupportedPayload indicates the backend cannot forward the attached file.
	ErrUnsupportedPayload = errors.New("attachment type not supported by backend")
)

// MalformedError carries the raw model output that failed to parse.
type MalformedError struct {
	Raw   string
	Cause error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMalformedResponse, e.Cause)
}

func (e *MalformedError) Unwrap() []error {
	return []error{ErrMalformedResponse, e.Cause}
}

// classify wraps backend errors that carry no sentinel as ErrTransport.
func classify(err error) error {
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrTransport) || errors.Is(err, ErrUnsupportedPayload) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// errorKind is a short label for the call log.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrUnsupportedPayload):
		return "unsupported_payload"
	default:
		return "transport"
	}
}
