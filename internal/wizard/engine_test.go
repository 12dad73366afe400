package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kingrea/profile-wizard/internal/draftstore"
	"github.com/kingrea/profile-wizard/internal/gateway"
	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/steps"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubGateway struct {
	mu       sync.Mutex
	calls    []profile.Draft
	ref      gateway.ProfileRef
	err      error
	block    chan struct{}
	entered  chan struct{}
	observed func()
}

func (g *stubGateway) CreateProfile(ctx context.Context, d profile.Draft) (gateway.ProfileRef, error) {
	g.mu.Lock()
	g.calls = append(g.calls, d)
	block, entered, observed := g.block, g.entered, g.observed
	g.mu.Unlock()
	if observed != nil {
		observed()
	}
	if entered != nil {
		close(entered)
	}
	if block != nil {
		<-block
	}
	return g.ref, g.err
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type flakyStore struct {
	*draftstore.MemoryStore
	saveErr  error
	clearErr error
}

func (s *flakyStore) Save(d profile.Draft) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStore.Save(d)
}

func (s *flakyStore) Clear() error {
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.MemoryStore.Clear()
}

func sequentialIDs() profile.IDSource {
	var n atomic.Int32
	return func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}
}

func newHarness(t *testing.T, opts ...Option) (*Engine, *draftstore.MemoryStore, *stubGateway) {
	t.Helper()
	store := draftstore.NewMemoryStore()
	gw := &stubGateway{ref: gateway.ProfileRef{ID: "42", Message: "Profile created successfully"}}
	eng, err := New(store, gw, append([]Option{WithIDSource(sequentialIDs())}, opts...)...)
	require.NoError(t, err)
	return eng, store, gw
}

func goToReview(t *testing.T, eng *Engine) {
	t.Helper()
	for eng.Next() {
	}
	require.Equal(t, profile.StepReview, eng.CurrentStep())
}

func strPtr(s string) *string { return &s }

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, &stubGateway{})
	assert.Error(t, err)
	_, err = New(draftstore.NewMemoryStore(), nil)
	assert.Error(t, err)
}

func TestNewStartsEmptyOnFirstRun(t *testing.T) {
	eng, _, _ := newHarness(t)
	state := eng.State()
	assert.Equal(t, profile.StepBasicInfo, state.Step)
	assert.True(t, state.Draft.IsZero())
	assert.NotNil(t, state.Draft.Volunteering)
	assert.Nil(t, state.LastError)
}

func TestNewRecoversPersistedDraft(t *testing.T) {
	store := draftstore.NewMemoryStore()
	want := profile.Draft{
		BasicInfo:  profile.BasicInfo{FullName: "Ada"},
		Educations: []profile.Education{{ID: "e1", Institution: "MIT", Level: profile.LevelDegree, StartDate: "2020-01", IsCurrent: true}},
	}.Normalized()
	require.NoError(t, store.Save(want))

	eng, err := New(store, &stubGateway{})
	require.NoError(t, err)
	if diff := cmp.Diff(want, eng.Draft()); diff != "" {
		t.Fatalf("restored draft mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, profile.StepBasicInfo, eng.CurrentStep())
}

func TestNewTreatsCorruptDraftAsAbsent(t *testing.T) {
	store := draftstore.NewMemoryStore()
	store.SetRaw([]byte("{definitely not json"))
	eng, err := New(store, &stubGateway{})
	require.NoError(t, err)
	assert.True(t, eng.Draft().IsZero())
}

func TestNavigationIsBoundedAndIdempotent(t *testing.T) {
	var transitions [][2]profile.Step
	eng, _, _ := newHarness(t, WithStepChangeHook(func(from, to profile.Step) {
		transitions = append(transitions, [2]profile.Step{from, to})
	}))

	assert.False(t, eng.Previous(), "previous on step 1 is a no-op")
	assert.Equal(t, profile.StepBasicInfo, eng.CurrentStep())

	last := eng.Progress()
	for i := 0; i < 10; i++ {
		eng.Next()
		assert.GreaterOrEqual(t, eng.Progress(), last)
		last = eng.Progress()
		assert.InDelta(t, float64(eng.CurrentStep())/7, eng.Progress(), 1e-9)
	}
	assert.Equal(t, profile.StepReview, eng.CurrentStep())
	assert.False(t, eng.Next(), "next on step 7 is a no-op")
	assert.Equal(t, 100, eng.ProgressPercent())
	assert.Len(t, transitions, 6)
	assert.Equal(t, [2]profile.Step{profile.StepBasicInfo, profile.StepEducation}, transitions[0])

	assert.True(t, eng.Previous())
	assert.Equal(t, profile.StepCertifications, eng.CurrentStep())
	assert.Equal(t, 86, eng.ProgressPercent())
}

func TestNextRunsRegisteredStepCheck(t *testing.T) {
	reg := steps.NewRegistry()
	reg.Register(steps.Gate{
		Section: profile.SectionBasicInfo,
		Kind:    steps.GateRequiredFields,
		Step: func(d profile.Draft) steps.FieldErrors {
			if !d.BasicInfo.HasFullName() {
				return steps.FieldErrors{"full_name": "Full name is required"}
			}
			return nil
		},
	})
	eng, _, _ := newHarness(t, WithRegistry(reg))

	assert.False(t, eng.Next())
	info := eng.LastError()
	require.NotNil(t, info)
	assert.Equal(t, KindRecoverableInput, info.Kind)
	assert.True(t, info.Fields.Has("full_name"))

	require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("Ada")}))
	assert.Nil(t, eng.LastError())
	assert.True(t, eng.Next())
}

func TestEveryMutationIsPersisted(t *testing.T) {
	eng, store, _ := newHarness(t)

	require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("Grace Hopper")}))
	require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{Location: strPtr("Arlington")}))
	_, err := eng.Skills().Add(profile.Skill{Name: "COBOL", Proficiency: 5})
	require.NoError(t, err)
	require.NoError(t, eng.UpdateList(profile.SectionExperiences, []profile.Experience{{ID: "x1", Company: "US Navy", RoleTitle: "Rear Admiral"}}))

	stored, err := store.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(eng.Draft(), stored); diff != "" {
		t.Fatalf("stored draft differs from engine draft (-engine +stored):\n%s", diff)
	}
	assert.Equal(t, "Grace Hopper", stored.BasicInfo.FullName)
	assert.Equal(t, "Arlington", stored.BasicInfo.Location)
	assert.Equal(t, 4, store.Saves())
}

func TestVolunteeringSurvivesReload(t *testing.T) {
	eng, store, _ := newHarness(t)
	require.NoError(t, eng.UpdateVolunteering([]profile.VolunteerRecord{
		{ID: "v1", Fields: map[string]any{"organization": "Red Cross", "hours": 12, "tags": []string{"first aid"}}},
		{ID: "v2", Fields: map[string]any{}},
	}))

	stored, err := store.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(eng.Draft(), stored); diff != "" {
		t.Fatalf("stored draft differs from engine draft (-engine +stored):\n%s", diff)
	}
	assert.Equal(t, float64(12), eng.Draft().Volunteering[0].Fields["hours"])
	assert.Nil(t, eng.Draft().Volunteering[1].Fields)
}

func TestUpdateListRejectsWrongType(t *testing.T) {
	eng, _, _ := newHarness(t)
	err := eng.UpdateList(profile.SectionSkills, []profile.Project{})
	assert.ErrorIs(t, err, ErrSectionType)
	assert.Error(t, eng.UpdateList(profile.Section("hobbies"), nil))
	require.NoError(t, eng.UpdateList(profile.SectionBasicInfo, profile.BasicInfo{FullName: "Ada"}))
	assert.Equal(t, "Ada", eng.Draft().BasicInfo.FullName)
}

func TestUpdateSkillsDeduplicates(t *testing.T) {
	eng, _, _ := newHarness(t)
	require.NoError(t, eng.UpdateSkills([]profile.Skill{{ID: "1", Name: "Go"}, {ID: "2", Name: "GO"}}))
	skills := eng.Draft().Skills
	require.Len(t, skills, 1)
	assert.Equal(t, profile.DefaultProficiency, skills[0].Proficiency)
}

func TestPersistFailureKeepsChange(t *testing.T) {
	store := &flakyStore{MemoryStore: draftstore.NewMemoryStore(), saveErr: errors.New("disk full")}
	eng, err := New(store, &stubGateway{})
	require.NoError(t, err)

	err = eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("Ada")})
	assert.ErrorIs(t, err, ErrPersist)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, "Ada", eng.Draft().BasicInfo.FullName)
}

func TestEditorKeepsRecordAfterFailedSave(t *testing.T) {
	store := &flakyStore{MemoryStore: draftstore.NewMemoryStore(), saveErr: errors.New("disk full")}
	eng, err := New(store, &stubGateway{})
	require.NoError(t, err)

	skills := eng.Skills()
	_, err = skills.Add(profile.Skill{Name: "Go", Proficiency: 3})
	require.ErrorIs(t, err, ErrPersist)
	assert.Equal(t, 1, skills.Len())

	store.saveErr = nil
	_, err = skills.Add(profile.Skill{Name: "Rust", Proficiency: 2})
	require.NoError(t, err)
	var names []string
	for _, s := range eng.Draft().Skills {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Go", "Rust"}, names)
	stored, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, stored.Skills, 2)
}

// Blank name at review: gate blocks, gateway untouched, step unchanged.
func TestSubmitBlockedWithoutFullName(t *testing.T) {
	eng, store, gw := newHarness(t)
	_, err := eng.Educations().Add(profile.Education{Institution: "MIT", StartDate: "2020-09", EndDate: "2024-06"})
	require.NoError(t, err)
	require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("   ")}))
	goToReview(t, eng)

	_, err = eng.Submit(context.Background())
	var info *ErrorInfo
	require.ErrorAs(t, err, &info)
	assert.Equal(t, KindRecoverableInput, info.Kind)
	assert.Equal(t, MissingNameMessage, info.Message)
	assert.Equal(t, profile.StepBasicInfo, info.Step)
	assert.Zero(t, gw.callCount())
	assert.Equal(t, profile.StepReview, eng.CurrentStep())
	require.NotNil(t, eng.LastError())

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, stored.Educations, 1)

	eng.DismissError()
	assert.Nil(t, eng.LastError())
}

func TestSubmitAfterFixingName(t *testing.T) {
	eng, _, gw := newHarness(t)
	goToReview(t, eng)
	_, err := eng.Submit(context.Background())
	require.Error(t, err)

	require.NoError(t, eng.EditSection(profile.StepBasicInfo))
	assert.Equal(t, profile.StepBasicInfo, eng.CurrentStep())
	require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("Ada Lovelace")}))
	assert.Nil(t, eng.LastError(), "fixing the name clears the gate error")

	goToReview(t, eng)
	ref, err := eng.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", ref.ID)
	assert.Equal(t, 1, gw.callCount())
}

func TestSubmitOnlyFromReview(t *testing.T) {
	eng, _, gw := newHarness(t)
	require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("Ada")}))
	_, err := eng.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotOnReview)
	assert.Zero(t, gw.callCount())
	assert.Nil(t, eng.LastError())
}

// Successful submit: store cleared before the completion handler runs.
func TestSubmitSuccessClearsDraftThenCompletes(t *testing.T) {
	store := draftstore.NewMemoryStore()
	gw := &stubGateway{ref: gateway.ProfileRef{ID: "42"}}
	var completion Completion
	var loadErrAtCompletion error
	completed := 0
	eng, err := New(store, gw,
		WithClock(func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }),
		WithCompletionHandler(func(c Completion) {
			completed++
			completion = c
			_, loadErrAtCompletion = store.Load()
		}))
	require.NoError(t, err)

	require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("Ada")}))
	_, err = eng.Educations().Add(profile.Education{Institution: "MIT", StartDate: "2020-09", IsCurrent: true})
	require.NoError(t, err)
	goToReview(t, eng)

	ref, err := eng.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", ref.ID)
	assert.Equal(t, 1, completed)
	assert.True(t, completion.DraftCleared)
	assert.Equal(t, "42", completion.Profile.ID)
	assert.ErrorIs(t, loadErrAtCompletion, draftstore.ErrNotFound)

	_, err = store.Load()
	assert.ErrorIs(t, err, draftstore.ErrNotFound)

	require.Len(t, gw.calls, 1)
	sent := gw.calls[0]
	assert.Equal(t, "Ada", sent.BasicInfo.FullName)
	assert.Len(t, sent.Educations, 1)
	assert.NotNil(t, sent.Volunteering)

	state := eng.State()
	assert.True(t, state.Submitted)
	assert.False(t, state.Submitting)
	require.NotNil(t, state.Profile)
	assert.Equal(t, "42", state.Profile.ID)

	_, err = eng.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.False(t, eng.Previous())
	assert.ErrorIs(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{}), ErrAlreadySubmitted)
	assert.Equal(t, 1, completed)
}

func TestSubmitSucceedsEvenIfClearFails(t *testing.T) {
	store := &flakyStore{MemoryStore: draftstore.NewMemoryStore(), clearErr: errors.New("locked")}
	var completion Completion
	eng, err := New(store, &stubGateway{ref: gateway.ProfileRef{ID: "1"}}, WithCompletionHandler(func(c Completion) { completion = c }))
	require.NoError(t, err)
	require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("Ada")}))
	goToReview(t, eng)

	_, err = eng.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, completion.DraftCleared)
}

func TestSubmitFailureKeepsDraftAndClassifies(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		kind    ErrorKind
		message string
		reauth  bool
	}{
		{
			name:    "unauthorized",
			err:     &gateway.SubmissionError{Class: gateway.ClassUnauthorized, StatusCode: 401},
			kind:    KindUnauthorized,
			message: "Authentication required. Please log in again.",
			reauth:  true,
		},
		{
			name:    "not found",
			err:     &gateway.SubmissionError{Class: gateway.ClassNotFound, StatusCode: 404, Endpoint: "http://svc/api/profiles/create-profile/"},
			kind:    KindEndpointNotFound,
			message: "Profile service endpoint not found (http://svc/api/profiles/create-profile/). Check the configured API URL.",
		},
		{
			name:    "validation",
			err:     &gateway.SubmissionError{Class: gateway.ClassValidation, StatusCode: 400, Detail: "Invalid date format"},
			kind:    KindSubmissionRejected,
			message: "Failed to save profile. Invalid date format",
		},
		{
			name:    "transport",
			err:     errors.New("connection refused"),
			kind:    KindSubmissionFailed,
			message: "Failed to save profile. connection refused",
		},
		{
			name:    "no detail",
			err:     &gateway.SubmissionError{Class: gateway.ClassOther, StatusCode: 500},
			kind:    KindSubmissionFailed,
			message: "Failed to save profile. Please try again.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng, store, gw := newHarness(t)
			gw.err = tc.err
			require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("Ada")}))
			goToReview(t, eng)

			_, err := eng.Submit(context.Background())
			var info *ErrorInfo
			require.ErrorAs(t, err, &info)
			assert.Equal(t, tc.kind, info.Kind)
			assert.Equal(t, tc.message, info.Message)
			assert.Equal(t, tc.reauth, info.RequiresReauth)

			state := eng.State()
			assert.Equal(t, profile.StepReview, state.Step)
			assert.False(t, state.Submitting)
			assert.False(t, state.Submitted)
			require.NotNil(t, state.LastError)
			assert.Equal(t, tc.message, state.LastError.Message)

			stored, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, "Ada", stored.BasicInfo.FullName)
		})
	}
}

func TestSubmitRetryAfterFailureClearsError(t *testing.T) {
	eng, _, gw := newHarness(t)
	gw.err = errors.New("offline")
	require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("Ada")}))
	goToReview(t, eng)
	_, err := eng.Submit(context.Background())
	require.Error(t, err)

	gw.mu.Lock()
	gw.err = nil
	gw.mu.Unlock()
	_, err = eng.Submit(context.Background())
	require.NoError(t, err)
	assert.Nil(t, eng.LastError())
	assert.Equal(t, 2, gw.callCount())
}

// Second Submit while the first is in flight reaches the gateway zero more times.
func TestSubmitIsSingleFlight(t *testing.T) {
	eng, _, gw := newHarness(t)
	gw.block = make(chan struct{})
	gw.entered = make(chan struct{})
	require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("Ada")}))
	goToReview(t, eng)

	done := make(chan error, 1)
	go func() {
		_, err := eng.Submit(context.Background())
		done <- err
	}()
	<-gw.entered

	assert.True(t, eng.State().Submitting)
	_, err := eng.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.False(t, eng.Previous())
	assert.ErrorIs(t, eng.EditSection(profile.StepSkills), ErrSubmitInProgress)
	assert.ErrorIs(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{Location: strPtr("London")}), ErrSubmitInProgress)
	assert.False(t, eng.State().CanSubmit())

	close(gw.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, gw.callCount())
	assert.False(t, eng.State().Submitting)
}

func TestSubmittingFlagVisibleToGateway(t *testing.T) {
	eng, _, gw := newHarness(t)
	var sawSubmitting bool
	gw.observed = func() { sawSubmitting = eng.State().Submitting }
	require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("Ada")}))
	goToReview(t, eng)
	_, err := eng.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, sawSubmitting)
}

func TestEditSection(t *testing.T) {
	eng, _, _ := newHarness(t)
	assert.ErrorIs(t, eng.EditSection(profile.StepSkills), ErrNotOnReview)
	assert.ErrorIs(t, eng.EditSection(profile.Step(9)), ErrInvalidStep)

	goToReview(t, eng)
	require.NoError(t, eng.EditSection(profile.StepExperience))
	assert.Equal(t, profile.StepExperience, eng.CurrentStep())
}

func TestRequireCompleteSectionsPolicy(t *testing.T) {
	eng, _, gw := newHarness(t, WithPolicy(Policy{RequireCompleteSections: true}))
	require.NoError(t, eng.UpdateBasicInfo(profile.BasicInfoPatch{FullName: strPtr("Ada")}))
	goToReview(t, eng)

	_, err := eng.Submit(context.Background())
	var info *ErrorInfo
	require.ErrorAs(t, err, &info)
	assert.Equal(t, profile.StepEducation, info.Step)
	assert.Contains(t, info.Message, "Step 2 (Education)")
	assert.Zero(t, gw.callCount())

	require.NoError(t, eng.UpdateEducations([]profile.Education{{ID: "e", Institution: "MIT", StartDate: "2020-01", IsCurrent: true}}))
	require.NoError(t, eng.UpdateExperiences([]profile.Experience{{ID: "x", Company: "Acme", RoleTitle: "Dev"}}))
	require.NoError(t, eng.UpdateProjects([]profile.Project{{ID: "p", Title: "CLI", Description: "tool"}}))
	require.NoError(t, eng.UpdateSkills([]profile.Skill{{ID: "s", Name: "Go"}}))
	assert.True(t, eng.State().ProfileComplete())

	_, err = eng.Submit(context.Background())
	require.NoError(t, err)
}

func TestEditorsUseEngineCallback(t *testing.T) {
	eng, store, _ := newHarness(t)

	added, err := eng.Certifications().Add(profile.Certification{Name: "CKA", Issuer: "CNCF"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", added.ID)

	require.NoError(t, eng.Certifications().Remove(added.ID))
	assert.Empty(t, eng.Draft().Certifications)

	_, err = eng.Volunteering().Add(profile.VolunteerRecord{Fields: map[string]any{"organization": "Red Cross"}})
	require.NoError(t, err)
	stored, err := store.Load()
	require.NoError(t, err)
	require.Len(t, stored.Volunteering, 1)
	assert.Equal(t, "Red Cross", stored.Volunteering[0].String("organization"))

	errs := eng.CheckBasicInfo()
	assert.True(t, errs.Has("full_name"))
}

func TestStateIsACopy(t *testing.T) {
	eng, _, _ := newHarness(t)
	require.NoError(t, eng.UpdateEducations([]profile.Education{{ID: "e", Institution: "MIT", StartDate: "2020-01", IsCurrent: true, Skills: []string{"math"}}}))
	state := eng.State()
	state.Draft.Educations[0].Skills[0] = "art"
	state.Draft.BasicInfo.FullName = "Mallory"
	assert.Equal(t, "math", eng.Draft().Educations[0].Skills[0])
	assert.Empty(t, eng.Draft().BasicInfo.FullName)
}
