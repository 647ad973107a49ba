package gsheets

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResponse is returned when an operation required a response body but the
// server returned none.
var ErrEmptyResponse = errors.New("empty response from the spreadsheets service")

// AccessError is returned when the service answered a read with an HTML document
// instead of a feed. The service does this, with a 200 status, when the target
// spreadsheet is not published for public reading.
type AccessError struct {
	URL string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("the spreadsheet at %s is not publicly readable; publish it or authenticate", e.URL)
}

// CredentialError is returned when the service rejected the request with a 401,
// meaning the installed credential is missing, expired or not valid for the
// spreadsheet.
type CredentialError struct {
	Body string
}

func (e *CredentialError) Error() string {
	return "invalid authorization credentials"
}

// HTTPError is returned for any other response with a status of 400 or above. It
// carries the status code, its standard reason phrase and the unescaped response
// body so that callers can decide what to do with the failure.
type HTTPError struct {
	StatusCode int
	Reason     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP error %d (%s)", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("HTTP error %d (%s): %s", e.StatusCode, e.Reason, e.Body)
}

// ValidationError is returned when a local precondition fails. It is always raised
// before any request is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ProtocolError is returned when a batch response entry cannot be correlated back
// to a submitted batch id.
type ProtocolError struct {
	BatchID string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("batch response entry %q does not match any submitted cell", e.BatchID)
}

func newHTTPError(statusCode int, body string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Reason:     http.StatusText(statusCode),
		Body:       xmlUnescape(body),
	}
}
