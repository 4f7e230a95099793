package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

const (
	maxErrorBody    = 4 << 10
	maxErrorMessage = 200
)

// Error is returned for transport failures (Status == 0) and non-2xx
// responses. It unwraps to the matching domain sentinel.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Status)
}

func (e *Error) Unwrap() []error {
	if e.Status == 0 {
		return []error{domain.ErrTransport, e.Err}
	}
	return []error{statusSentinel(e.Status)}
}

func statusSentinel(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.ErrUnauthorized
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusConflict:
		return domain.ErrConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return domain.ErrRejected
	default:
		return domain.ErrServer
	}
}

// newStatusError reads a bounded prefix of the body looking for a message in
// the common {"detail": ...} or {"error": ...} envelopes.
func newStatusError(method, path string, resp *http.Response) *Error {
	e := &Error{Method: method, Path: path, Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		var detail string
		if len(envelope.Detail) > 0 && json.Unmarshal(envelope.Detail, &detail) == nil {
			e.Message = detail
		} else if envelope.Error != "" {
			e.Message = envelope.Error
		}
	}
	if e.Message == "" {
		e.Message = truncate(strings.TrimSpace(string(raw)), maxErrorMessage)
	}
	return e
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// StatusOf returns the HTTP status of err, or 0 when it is not a status error.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
