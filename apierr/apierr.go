package apierr

import "fmt"

const (
	CodeMissingFile         = "missing_file"
	CodeInvalidRequest      = "invalid_request"
	CodeMethodNotAllowed    = "method_not_allowed"
	CodeUnreadablePDF       = "unreadable_pdf"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeMalformedResponse   = "malformed_response"
	CodeEmptyQuiz           = "empty_quiz"
	CodeInternal            = "internal"
)

// Error is what the HTTP edge sends back. Message is safe to show to a user;
// Err keeps the internal cause for logging and is never serialized.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}
