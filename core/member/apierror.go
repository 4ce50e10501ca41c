package member

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// bodyLoc is the location prefix the members API puts on request-body problems.
const bodyLoc = "body"

// FieldProblem is one field-level problem reported by the members API.
type FieldProblem struct {
	Loc   []interface{} `json:"loc"`
	Msg   string        `json:"msg"`
	Input interface{}   `json:"input,omitempty"`
}

// Line renders the problem as `<loc without "body">: <msg>`.
func (p FieldProblem) Line() string {
	parts := make([]string, 0, len(p.Loc))
	for _, l := range p.Loc {
		s := fmt.Sprint(l)
		if s == bodyLoc {
			continue
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return p.Msg
	}
	return strings.Join(parts, ".") + ": " + p.Msg
}

// APIError is a non-2xx response of the members API.
type APIError struct {
	StatusCode int            `json:"status_code"`
	Detail     string         `json:"detail,omitempty"`
	Errors     []FieldProblem `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("members API responded with status %d", e.StatusCode)
}

// Lines returns one line per field problem.
func (e *APIError) Lines() []string {
	lines := make([]string, 0, len(e.Errors))
	for _, p := range e.Errors {
		lines = append(lines, p.Line())
	}
	return lines
}

// ParseAPIError decodes the `{detail, errors}` envelope of a failed response.
// A `detail` holding a list of problems is treated as `errors`.
func ParseAPIError(statusCode int, body []byte) (*APIError, error) {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Errors []FieldProblem  `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrapf(err, "decoding members API error (status %d)", statusCode)
	}

	apiErr := &APIError{StatusCode: statusCode, Errors: envelope.Errors}
	if len(envelope.Detail) > 0 && string(envelope.Detail) != "null" {
		var detail string
		if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
			apiErr.Detail = detail
		} else {
			var problems []FieldProblem
			if err := json.Unmarshal(envelope.Detail, &problems); err != nil {
				return nil, errors.Wrapf(err, "decoding members API error detail (status %d)", statusCode)
			}
			apiErr.Errors = append(apiErr.Errors, problems...)
		}
	}
	if apiErr.Detail == "" {
		apiErr.Detail = http.StatusText(statusCode)
	}
	return apiErr, nil
}
