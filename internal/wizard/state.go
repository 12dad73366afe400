package wizard

import (
	"github.com/kingrea/profile-wizard/internal/gateway"
	"github.com/kingrea/profile-wizard/internal/profile"
)

// State is a point-in-time copy of the engine.
type State struct {
	Draft      profile.Draft
	Step       profile.Step
	Submitting bool
	Submitted  bool
	LastError  *ErrorInfo
	// Profile is set once the service has accepted the submission.
	Profile  *gateway.ProfileRef
	Review   []profile.SectionStatus
	Progress float64
}

// CanGoBack reports whether Previous would move.
func (s State) CanGoBack() bool {
	return !s.Submitting && !s.Submitted && s.Step > profile.StepBasicInfo
}

// CanGoForward reports whether Next could move.
func (s State) CanGoForward() bool {
	return !s.Submitting && !s.Submitted && s.Step < profile.StepReview
}

// CanSubmit reports whether Submit would reach the gate.
func (s State) CanSubmit() bool {
	return !s.Submitting && !s.Submitted && s.Step == profile.StepReview
}

// ProfileComplete mirrors profile.ProfileComplete for the snapshot draft.
func (s State) ProfileComplete() bool {
	return profile.ProfileComplete(s.Draft)
}
