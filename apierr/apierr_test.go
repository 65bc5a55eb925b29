package apierr

import (
	"errors"
	"net/http"
	"testing"
)

func TestError(t *testing.T) {
	cause := errors.New("pdf reader: malformed xref")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{name: "with cause", err: New(http.StatusInternalServerError, CodeUnreadablePDF, "Could not read PDF", cause), want: "unreadable_pdf: pdf reader: malformed xref"},
		{name: "message only", err: New(http.StatusBadRequest, CodeMissingFile, "A PDF file is required", nil), want: "A PDF file is required"},
		{name: "bare status", err: New(http.StatusInternalServerError, CodeInternal, "", nil), want: "api error (500)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := error(New(http.StatusInternalServerError, CodeInternal, "Internal server error", cause))

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Errorf("errors.As = %+v", apiErr)
	}
}
