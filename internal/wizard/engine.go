// Package wizard implements the profile wizard engine: it owns the draft,
// sequences the seven steps, persists every change and submits the result.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/profile-wizard/internal/draftstore"
	"github.com/kingrea/profile-wizard/internal/gateway"
	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/steps"
)

// Policy selects the submission rule.
type Policy struct {
	// RequireCompleteSections also blocks Submit until basic info, education,
	// experience, projects and skills are all complete.
	RequireCompleteSections bool
}

// Completion is delivered to the completion handler after a successful
// submission, once the stored draft has been cleared.
type Completion struct {
	Profile      gateway.ProfileRef
	CompletedAt  time.Time
	DraftCleared bool
}

// Engine is safe for use from multiple goroutines; Submit is the only
// operation that blocks on I/O beyond the draft store.
type Engine struct {
	store    draftstore.Store
	gateway  gateway.Gateway
	registry *steps.Registry
	policy   Policy
	logger   *zap.Logger
	clock    func() time.Time
	ids      profile.IDSource

	onStep     func(from, to profile.Step)
	onComplete func(Completion)

	mu         sync.Mutex
	draft      profile.Draft
	step       profile.Step
	submitting bool
	submitted  bool
	lastError  *ErrorInfo
	result     *gateway.ProfileRef
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRegistry replaces the default validator registry.
func WithRegistry(reg *steps.Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithPolicy sets the submission policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithIDSource overrides record id generation for editors.
func WithIDSource(ids profile.IDSource) Option {
	return func(e *Engine) {
		if ids != nil {
			e.ids = ids
		}
	}
}

// WithStepChangeHook is called after every step transition, outside the
// engine lock. Hosts use it to reset scroll and focus.
func WithStepChangeHook(fn func(from, to profile.Step)) Option {
	return func(e *Engine) {
		e.onStep = fn
	}
}

// WithCompletionHandler is called once after a successful submission.
func WithCompletionHandler(fn func(Completion)) Option {
	return func(e *Engine) {
		e.onComplete = fn
	}
}

// New wires an engine to its draft store and gateway and restores the stored
// draft. A missing, corrupt or unreadable draft starts the wizard empty.
func New(store draftstore.Store, gw gateway.Gateway, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("wizard: draft store is required")
	}
	if gw == nil {
		return nil, fmt.Errorf("wizard: submission gateway is required")
	}
	e := &Engine{
		store:   store,
		gateway: gw,
		logger:  zap.NewNop(),
		clock:   time.Now,
		ids:     profile.NewID,
		step:    profile.StepBasicInfo,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = steps.NewRegistry(steps.WithClock(e.clock))
	}
	e.draft = e.restore()
	return e, nil
}

func (e *Engine) restore() profile.Draft {
	d, err := e.store.Load()
	switch {
	case err == nil:
		e.logger.Info("draft restored",
			zap.Int("educations", len(d.Educations)),
			zap.Int("experiences", len(d.Experiences)),
			zap.Int("projects", len(d.Projects)),
			zap.Int("skills", len(d.Skills)))
		return d.Normalized()
	case errors.Is(err, draftstore.ErrNotFound):
		return profile.Empty()
	default:
		e.logger.Warn("draft store unreadable; starting empty", zap.Error(err))
		return profile.Empty()
	}
}

// State returns a snapshot of the engine.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	state := State{
		Draft:      e.draft.Clone(),
		Step:       e.step,
		Submitting: e.submitting,
		Submitted:  e.submitted,
		LastError:  e.lastError.clone(),
		Review:     profile.Review(e.draft),
		Progress:   progress(e.step),
	}
	if e.result != nil {
		ref := *e.result
		state.Profile = &ref
	}
	return state
}

// Draft returns a copy of the current draft.
func (e *Engine) Draft() profile.Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Clone()
}

// CurrentStep returns the active step.
func (e *Engine) CurrentStep() profile.Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step
}

// Progress returns currentStep / 7.
func (e *Engine) Progress() float64 {
	return progress(e.CurrentStep())
}

// ProgressPercent returns Progress as a rounded percentage.
func (e *Engine) ProgressPercent() int {
	return int(math.Round(e.Progress() * 100))
}

func progress(step profile.Step) float64 {
	return float64(step) / float64(profile.StepCount)
}

// LastError returns the current user-facing error, if any.
func (e *Engine) LastError() *ErrorInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError.clone()
}

// DismissError clears the current error.
func (e *Engine) DismissError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastError = nil
}

// Next advances one step. It returns false at the review step, while a
// submission is in flight, after submission, or when the current step's
// advance check fails.
func (e *Engine) Next() bool {
	e.mu.Lock()
	if e.locked() || e.step >= profile.StepReview {
		e.mu.Unlock()
		return false
	}
	if errs := e.registry.CheckStep(e.step, e.draft); len(errs) > 0 {
		e.lastError = &ErrorInfo{
			Kind:    KindRecoverableInput,
			Message: fmt.Sprintf("Please fix the highlighted fields in Step %d (%s)", int(e.step), e.step.Title()),
			Step:    e.step,
			Fields:  errs,
		}
		e.mu.Unlock()
		return false
	}
	return e.moveLocked(e.step + 1)
}

// Previous moves back one step. It returns false on the first step, while a
// submission is in flight and after submission.
func (e *Engine) Previous() bool {
	e.mu.Lock()
	if e.locked() || e.step <= profile.StepBasicInfo {
		e.mu.Unlock()
		return false
	}
	return e.moveLocked(e.step - 1)
}

// EditSection jumps from the review step straight to another step without
// running any validator.
func (e *Engine) EditSection(target profile.Step) error {
	if !target.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, int(target))
	}
	e.mu.Lock()
	if err := e.writableLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.step != profile.StepReview {
		e.mu.Unlock()
		return ErrNotOnReview
	}
	e.moveLocked(target)
	return nil
}

// moveLocked switches step, releases the lock and fires the step hook.
func (e *Engine) moveLocked(to profile.Step) bool {
	from := e.step
	e.step = to
	hook := e.onStep
	e.mu.Unlock()
	e.logger.Debug("step changed", zap.Int("from", int(from)), zap.Int("to", int(to)))
	if hook != nil {
		hook(from, to)
	}
	return true
}

func (e *Engine) locked() bool {
	return e.submitting || e.submitted
}

func (e *Engine) writableLocked() error {
	switch {
	case e.submitted:
		return ErrAlreadySubmitted
	case e.submitting:
		return ErrSubmitInProgress
	default:
		return nil
	}
}

// Submit sends the whole draft to the gateway. It is a no-op returning
// ErrNotOnReview, ErrSubmitInProgress or ErrAlreadySubmitted when it does not
// apply; gate and gateway failures are returned as *ErrorInfo and kept as the
// last error.
func (e *Engine) Submit(ctx context.Context) (gateway.ProfileRef, error) {
	e.mu.Lock()
	if e.submitted {
		ref := *e.result
		e.mu.Unlock()
		return ref, ErrAlreadySubmitted
	}
	if e.submitting {
		e.mu.Unlock()
		return gateway.ProfileRef{}, ErrSubmitInProgress
	}
	if e.step != profile.StepReview {
		e.mu.Unlock()
		return gateway.ProfileRef{}, ErrNotOnReview
	}
	if info := e.gateLocked(); info != nil {
		e.lastError = info
		e.mu.Unlock()
		e.logger.Info("submission blocked", zap.String("reason", info.Message))
		return gateway.ProfileRef{}, info.clone()
	}
	e.submitting = true
	e.lastError = nil
	payload := e.draft.Normalized()
	e.mu.Unlock()

	e.logger.Info("submitting profile")
	ref, err := e.gateway.CreateProfile(ctx, payload)

	e.mu.Lock()
	e.submitting = false
	if err != nil {
		info := classifySubmission(err)
		e.lastError = info
		e.mu.Unlock()
		e.logger.Warn("submission failed",
			zap.String("kind", string(info.Kind)),
			zap.Int("status", info.StatusCode),
			zap.Error(err))
		return gateway.ProfileRef{}, info.clone()
	}
	e.submitted = true
	e.result = &ref
	clearErr := e.store.Clear()
	completion := Completion{Profile: ref, CompletedAt: e.clock(), DraftCleared: clearErr == nil}
	handler := e.onComplete
	e.mu.Unlock()

	if clearErr != nil {
		e.logger.Error("profile submitted but draft not cleared", zap.Error(clearErr))
	}
	e.logger.Info("profile submitted", zap.String("profile_id", ref.ID))
	if handler != nil {
		handler(completion)
	}
	return ref, nil
}

// gateLocked applies the submission policy to the current draft.
func (e *Engine) gateLocked() *ErrorInfo {
	if !e.draft.BasicInfo.HasFullName() {
		return missingNameError()
	}
	if e.policy.RequireCompleteSections {
		if status, incomplete := profile.FirstIncomplete(e.draft); incomplete {
			return incompleteSectionError(status)
		}
	}
	return nil
}
