package wizard

import (
	"errors"
	"fmt"
	"maps"

	"github.com/kingrea/profile-wizard/internal/editor"
	"github.com/kingrea/profile-wizard/internal/gateway"
	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/steps"
)

var (
	// ErrSubmitInProgress is returned while a submission is in flight.
	ErrSubmitInProgress = errors.New("wizard: submission in progress")
	// ErrAlreadySubmitted is returned once the profile has been accepted.
	ErrAlreadySubmitted = errors.New("wizard: profile already submitted")
	// ErrNotOnReview is returned by Submit and EditSection outside the review step.
	ErrNotOnReview = errors.New("wizard: only available on the review step")
	// ErrInvalidStep is returned for steps outside [1, 7].
	ErrInvalidStep = errors.New("wizard: invalid step")
	// ErrPersist wraps a failed draft save. The in-memory change is kept.
	ErrPersist = fmt.Errorf("wizard: %w", editor.ErrNotSaved)
	// ErrSectionType is returned when UpdateList receives the wrong record type.
	ErrSectionType = errors.New("wizard: wrong record type for section")
)

// ErrorKind classifies errors shown to the user.
type ErrorKind string

const (
	KindRecoverableInput   ErrorKind = "recoverable_input"
	KindSubmissionRejected ErrorKind = "submission_rejected"
	KindEndpointNotFound   ErrorKind = "endpoint_not_found"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindSubmissionFailed   ErrorKind = "submission_failed"
)

// MissingNameMessage is shown when Submit is attempted without a full name.
const MissingNameMessage = "Please enter your full name in Step 1 (Basic Information)"

// ErrorInfo is the error the engine keeps in lastError until it is dismissed
// or replaced.
type ErrorInfo struct {
	Kind    ErrorKind
	Message string
	// Step points at the step the user should revisit, or 0.
	Step           profile.Step
	Detail         string
	StatusCode     int
	RequiresReauth bool
	Fields         steps.FieldErrors
	Err            error
}

func (e *ErrorInfo) Error() string {
	return e.Message
}

func (e *ErrorInfo) Unwrap() error {
	return e.Err
}

func (e *ErrorInfo) clone() *ErrorInfo {
	if e == nil {
		return nil
	}
	out := *e
	out.Fields = maps.Clone(e.Fields)
	return &out
}

func missingNameError() *ErrorInfo {
	return &ErrorInfo{
		Kind:    KindRecoverableInput,
		Message: MissingNameMessage,
		Step:    profile.StepBasicInfo,
		Fields:  steps.FieldErrors{"full_name": "Full name is required"},
	}
}

func incompleteSectionError(status profile.SectionStatus) *ErrorInfo {
	return &ErrorInfo{
		Kind:    KindRecoverableInput,
		Message: fmt.Sprintf("Please complete Step %d (%s) before submitting", int(status.Step), status.Section.Title()),
		Step:    status.Step,
	}
}

// classifySubmission turns a gateway failure into the user-facing error.
func classifySubmission(err error) *ErrorInfo {
	se := gateway.AsSubmissionError(err)
	info := &ErrorInfo{
		StatusCode: se.StatusCode,
		Detail:     se.Detail,
		Err:        err,
	}
	switch se.Class {
	case gateway.ClassNotFound:
		info.Kind = KindEndpointNotFound
		endpoint := se.Endpoint
		if endpoint == "" {
			endpoint = "create-profile"
		}
		info.Message = fmt.Sprintf("Profile service endpoint not found (%s). Check the configured API URL.", endpoint)
	case gateway.ClassUnauthorized:
		info.Kind = KindUnauthorized
		info.Message = "Authentication required. Please log in again."
		info.RequiresReauth = true
	case gateway.ClassValidation:
		info.Kind = KindSubmissionRejected
		info.Message = failedMessage(se.Detail)
	default:
		info.Kind = KindSubmissionFailed
		detail := se.Detail
		if detail == "" && se.Err != nil {
			detail = se.Err.Error()
		}
		info.Message = failedMessage(detail)
	}
	return info
}

func failedMessage(detail string) string {
	if detail == "" {
		return "Failed to save profile. Please try again."
	}
	return "Failed to save profile. " + detail
}
