package generator

import "fmt"

// ErrorKind classifies a failed generation.
type ErrorKind string

const (
	// MalformedOutput means the model answered but the payload did not parse as a plan.
	MalformedOutput ErrorKind = "malformed_output"
	// BackendUnavailable means the AI service could not be reached or refused the call.
	BackendUnavailable ErrorKind = "backend_unavailable"
)

// User-facing messages. The state machine shows these verbatim.
const (
	MsgMalformedOutput    = "The generated plan was too large or complex. Try simplifying your details or try again."
	MsgBackendUnavailable = "Could not reach the TotalFit AI service. Please try again."
)

// GenerationError is the only error type Generate returns after the intake
// has been validated.
type GenerationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generation failed (%s)", e.Kind)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func malformed(err error) *GenerationError {
	return &GenerationError{Kind: MalformedOutput, Message: MsgMalformedOutput, Err: err}
}

func unavailable(err error) *GenerationError {
	return &GenerationError{Kind: BackendUnavailable, Message: MsgBackendUnavailable, Err: err}
}
