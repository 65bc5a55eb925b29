package quiz

import "errors"

// Failure categories of the generation pipeline. Returned errors wrap one of
// these together with the underlying cause.
var (
	ErrInvalidOptions      = errors.New("invalid quiz options")
	ErrUnreadablePDF       = errors.New("unreadable pdf")
	ErrUpstreamUnavailable = errors.New("upstream model unavailable")
	ErrMalformedResponse   = errors.New("malformed model response")
	ErrEmptyQuiz           = errors.New("no valid questions generated")
)
