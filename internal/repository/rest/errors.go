package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/msomdec/solifound/internal/domain"
)

// APIError is a non-2xx response from the hosted backend.
type APIError struct {
	Status  int
	Code    string
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

// Unwrap exposes the domain sentinel matching the response, if any.
func (e *APIError) Unwrap() error { return e.kind }

// errorBody covers both the PostgREST and the GoTrue error shapes.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func newAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status}

	var body errorBody
	if json.Unmarshal(data, &body) == nil {
		apiErr.Code = firstNonEmpty(body.ErrorCode, rawCode(body.Code), body.Error)
		apiErr.Message = firstNonEmpty(body.Message, body.Msg, body.ErrorDescription)
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	apiErr.kind = classify(status, apiErr.Code, apiErr.Message)
	return apiErr
}

func classify(status int, code, message string) error {
	switch code {
	case "23505", "user_already_exists", "email_exists":
		return domain.ErrDuplicateEmail
	case "PGRST116", "user_not_found":
		return domain.ErrNotFound
	case "invalid_credentials", "invalid_grant", "bad_jwt", "session_not_found":
		return domain.ErrUnauthorized
	}
	if strings.Contains(strings.ToLower(message), "already registered") {
		return domain.ErrDuplicateEmail
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrUnauthorized
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusConflict:
		return domain.ErrDuplicateEmail
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return domain.ErrInvalidInput
	}
	return nil
}

// rawCode decodes a code that PostgREST sends as a string and GoTrue as a number.
func rawCode(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
