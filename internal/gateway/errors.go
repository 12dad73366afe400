package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Class buckets a failed submission by what the user can do about it.
type Class string

const (
	ClassNotFound     Class = "not_found"
	ClassUnauthorized Class = "unauthorized"
	ClassValidation   Class = "validation"
	ClassOther        Class = "other"
)

// SubmissionError describes a rejected or failed create-profile call.
type SubmissionError struct {
	Class      Class
	StatusCode int
	// Detail is the service's explanation, when it sent one.
	Detail   string
	Endpoint string
	Err      error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("gateway: %s (%d): %s", e.Class, e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("gateway: %s (%d)", e.Class, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("gateway: %s: %v", e.Class, e.Err)
	default:
		return fmt.Sprintf("gateway: %s", e.Class)
	}
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Classify maps an HTTP status to a failure class.
func Classify(status int) Class {
	switch status {
	case http.StatusNotFound:
		return ClassNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ClassUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ClassValidation
	default:
		return ClassOther
	}
}

// AsSubmissionError extracts a SubmissionError from err, wrapping anything
// else as ClassOther.
func AsSubmissionError(err error) *SubmissionError {
	if err == nil {
		return nil
	}
	var se *SubmissionError
	if errors.As(err, &se) {
		return se
	}
	return &SubmissionError{Class: ClassOther, Err: err}
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
