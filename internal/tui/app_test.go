package tui

import (
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/profile-wizard/internal/draftstore"
	"github.com/kingrea/profile-wizard/internal/gateway"
	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/wizard"
)

func TestBasicInfoTypingPersistsDraft(t *testing.T) {
	app, eng, store := newTestApp(t, acceptingGateway())
	typeText(t, app, "Ada Lovelace")
	if got := eng.Draft().BasicInfo.FullName; got != "Ada Lovelace" {
		t.Fatalf("expected full name to be written through, got %q", got)
	}
	saved, err := store.Load()
	if err != nil {
		t.Fatalf("load draft: %v", err)
	}
	if saved.BasicInfo.FullName != "Ada Lovelace" {
		t.Fatalf("expected draft store to hold the name, got %q", saved.BasicInfo.FullName)
	}
}

func TestBasicInfoErrorShowsAfterLeavingFieldAndClearsOnEdit(t *testing.T) {
	app, _, _ := newTestApp(t, acceptingGateway())
	if app.basic.errs.Has("full_name") {
		t.Fatalf("errors must not show before the field is visited")
	}
	press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	if msg := app.basic.errs["full_name"]; msg != "Full name is required" {
		t.Fatalf("expected required error after leaving the field, got %q", msg)
	}
	press(t, app, tea.KeyMsg{Type: tea.KeyShiftTab})
	typeText(t, app, "A")
	if app.basic.errs.Has("full_name") {
		t.Fatalf("editing the field must clear its error")
	}
}

func TestNavigationKeys(t *testing.T) {
	app, eng, _ := newTestApp(t, acceptingGateway())
	press(t, app, tea.KeyMsg{Type: tea.KeyCtrlN})
	if eng.CurrentStep() != profile.StepEducation {
		t.Fatalf("expected step 2, got %d", eng.CurrentStep())
	}
	if view := app.View(); !strings.Contains(view, "Step 2 of 7") {
		t.Fatalf("header missing step counter:\n%s", view)
	}
	press(t, app, runes("n"), runes("n"))
	if eng.CurrentStep() != profile.StepProjects {
		t.Fatalf("expected step 4, got %d", eng.CurrentStep())
	}
	press(t, app, runes("p"))
	if eng.CurrentStep() != profile.StepExperience {
		t.Fatalf("expected step 3, got %d", eng.CurrentStep())
	}
	press(t, app, tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyLeft})
	if eng.CurrentStep() != profile.StepBasicInfo {
		t.Fatalf("previous must stop at step 1, got %d", eng.CurrentStep())
	}
}

func TestEducationFormIsHardGated(t *testing.T) {
	app, eng, _ := newTestApp(t, acceptingGateway())
	press(t, app, tea.KeyMsg{Type: tea.KeyCtrlN}, runes("a"), tea.KeyMsg{Type: tea.KeyCtrlS})
	if app.mode != modeForm {
		t.Fatalf("rejected record must keep the form open")
	}
	for _, field := range []string{"institution", "start_date"} {
		if !app.form.errs.Has(field) {
			t.Fatalf("expected error on %s, got %v", field, app.form.errs)
		}
	}
	if n := len(eng.Draft().Educations); n != 0 {
		t.Fatalf("invalid education must not reach the draft, got %d", n)
	}

	fillForm(t, app, map[string]string{
		"institution": "University of London",
		"start_date":  "2020-09",
		"is_current":  "true",
	})
	press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if app.mode != modeBrowse {
		t.Fatalf("valid record must close the form, errors: %v", app.form.errs)
	}
	educations := eng.Draft().Educations
	if len(educations) != 1 {
		t.Fatalf("expected one education, got %d", len(educations))
	}
	if educations[0].ID == "" || educations[0].Level != profile.LevelDegree {
		t.Fatalf("expected id and default level, got %+v", educations[0])
	}
}

func TestSkillDuplicateAndDelete(t *testing.T) {
	app, eng, _ := newTestApp(t, acceptingGateway())
	gotoStep(t, app, profile.StepSkills)
	addRecord(t, app, map[string]string{"name": "Go", "proficiency": "4"})
	addRecord(t, app, map[string]string{"name": "go"})
	if msg := app.form.errs["name"]; msg != "go is already in your skills" {
		t.Fatalf("expected duplicate error, got %q", msg)
	}
	press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	addRecord(t, app, map[string]string{"name": "SQL"})
	skills := eng.Draft().Skills
	if len(skills) != 2 || skills[1].Proficiency != profile.DefaultProficiency {
		t.Fatalf("unexpected skills %+v", skills)
	}
	if view := app.View(); !strings.Contains(view, "Go · Advanced") {
		t.Fatalf("list should show proficiency label:\n%s", view)
	}

	press(t, app, runes("k"), runes("d"))
	skills = eng.Draft().Skills
	if len(skills) != 1 || skills[0].Name != "SQL" {
		t.Fatalf("expected only SQL to remain, got %+v", skills)
	}
}

func TestReviewEditSectionJumps(t *testing.T) {
	app, eng, _ := newTestApp(t, acceptingGateway())
	gotoStep(t, app, profile.StepReview)
	press(t, app, runes("3"))
	if eng.CurrentStep() != profile.StepExperience {
		t.Fatalf("expected jump to step 3, got %d", eng.CurrentStep())
	}
}

func TestReviewAddsVolunteering(t *testing.T) {
	app, eng, _ := newTestApp(t, acceptingGateway())
	gotoStep(t, app, profile.StepReview)
	press(t, app, runes("v"))
	fillForm(t, app, map[string]string{"organization": "Food Bank", "role": "Driver"})
	press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	vol := eng.Draft().Volunteering
	if len(vol) != 1 || vol[0].String("organization") != "Food Bank" {
		t.Fatalf("unexpected volunteering %+v", vol)
	}
	if view := app.View(); !strings.Contains(view, "Driver · Food Bank") {
		t.Fatalf("review should list the entry:\n%s", view)
	}
}

func TestSubmitWithoutNameShowsBannerAndJumps(t *testing.T) {
	gw := &countingGateway{}
	app, eng, _ := newTestApp(t, gw)
	gotoStep(t, app, profile.StepReview)
	model, cmd := app.Update(runes("s"))
	app, quit := runCommands(t, model, cmd)
	if quit || app.done {
		t.Fatalf("blocked submit must not finish the wizard")
	}
	if gw.calls != 0 {
		t.Fatalf("gateway must not be called without a name")
	}
	info := eng.LastError()
	if info == nil || info.Message != wizard.MissingNameMessage {
		t.Fatalf("expected missing name error, got %+v", info)
	}
	if view := app.View(); !strings.Contains(view, wizard.MissingNameMessage) {
		t.Fatalf("banner missing:\n%s", view)
	}
	press(t, app, runes("g"))
	if eng.CurrentStep() != profile.StepBasicInfo {
		t.Fatalf("expected jump to step 1, got %d", eng.CurrentStep())
	}
	press(t, app, tea.KeyMsg{Type: tea.KeyCtrlX})
	if eng.LastError() != nil {
		t.Fatalf("ctrl+x should dismiss the error")
	}
}

func TestSubmitSuccessShowsMessageAndQuits(t *testing.T) {
	gw := &countingGateway{}
	app, eng, store := newTestApp(t, gw)
	typeText(t, app, "Ada Lovelace")
	gotoStep(t, app, profile.StepReview)
	model, cmd := app.Update(runes("s"))
	app = model.(*App)
	if !app.submitting {
		t.Fatalf("expected submitting flag while the command runs")
	}
	app, quit := runCommands(t, app, cmd)
	if !quit {
		t.Fatalf("expected program to quit after success")
	}
	if !app.done || app.result.ID != "42" {
		t.Fatalf("unexpected result %+v", app.result)
	}
	if gw.calls != 1 {
		t.Fatalf("expected one gateway call, got %d", gw.calls)
	}
	if _, err := store.Load(); err != draftstore.ErrNotFound {
		t.Fatalf("draft should be cleared, got %v", err)
	}
	if !eng.State().Submitted {
		t.Fatalf("engine should be submitted")
	}
	if view := app.View(); !strings.Contains(view, "Profile created successfully") {
		t.Fatalf("success message missing:\n%s", view)
	}
}

func TestSubmitUnauthorizedKeepsDraft(t *testing.T) {
	gw := gateway.Func(func(context.Context, profile.Draft) (gateway.ProfileRef, error) {
		return gateway.ProfileRef{}, &gateway.SubmissionError{Class: gateway.ClassUnauthorized, StatusCode: 401}
	})
	app, eng, store := newTestApp(t, gw)
	typeText(t, app, "Ada")
	gotoStep(t, app, profile.StepReview)
	model, cmd := app.Update(runes("s"))
	app, quit := runCommands(t, model, cmd)
	if quit || app.done {
		t.Fatalf("failed submit must keep the wizard open")
	}
	view := app.View()
	if !strings.Contains(view, "Authentication required") || !strings.Contains(view, "Sign in again") {
		t.Fatalf("expected reauth banner:\n%s", view)
	}
	if eng.Draft().BasicInfo.FullName != "Ada" {
		t.Fatalf("draft must be kept after failure")
	}
	if _, err := store.Load(); err != nil {
		t.Fatalf("stored draft must survive failure: %v", err)
	}
}

func newTestApp(t *testing.T, gw gateway.Gateway) (*App, *wizard.Engine, *draftstore.MemoryStore) {
	t.Helper()
	store := draftstore.NewMemoryStore()
	eng, err := wizard.New(store, gw)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	app, err := NewApp(eng, WithQuitDelay(0))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app, eng, store
}

type countingGateway struct {
	calls int
}

func (g *countingGateway) CreateProfile(context.Context, profile.Draft) (gateway.ProfileRef, error) {
	g.calls++
	return gateway.ProfileRef{ID: "42", Message: "Profile created successfully"}, nil
}

func acceptingGateway() gateway.Gateway {
	return &countingGateway{}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, app *App, keys ...tea.KeyMsg) {
	t.Helper()
	for _, key := range keys {
		model, _ := app.Update(key)
		if model != app {
			t.Fatalf("unexpected model %T", model)
		}
	}
}

func typeText(t *testing.T, app *App, text string) {
	t.Helper()
	for _, r := range text {
		press(t, app, runes(string(r)))
	}
}

func gotoStep(t *testing.T, app *App, step profile.Step) {
	t.Helper()
	for i := 0; i < profile.StepCount && app.engine.CurrentStep() != step; i++ {
		press(t, app, tea.KeyMsg{Type: tea.KeyCtrlN})
	}
	if app.engine.CurrentStep() != step {
		t.Fatalf("could not reach step %d", step)
	}
}

// fillForm walks the open form from the first field, typing the given values.
func fillForm(t *testing.T, app *App, values map[string]string) {
	t.Helper()
	if app.form == nil {
		t.Fatalf("no form open")
	}
	app.form.setFocus(0)
	for _, spec := range app.form.specs {
		if value, ok := values[spec.key]; ok {
			if spec.kind == fieldToggle {
				if (app.form.Value(spec.key) == toggleTrueValue) != (value == toggleTrueValue) {
					press(t, app, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
				}
			} else {
				typeText(t, app, value)
			}
		}
		press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	}
}

func addRecord(t *testing.T, app *App, values map[string]string) {
	t.Helper()
	press(t, app, runes("a"))
	fillForm(t, app, values)
	press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
}

// runCommands feeds command results back into the model until nothing is
// left. Spinner ticks are dropped so the loop ends.
func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) (*App, bool) {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	quit := false
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tea.QuitMsg:
			quit = true
		case spinner.TickMsg:
		default:
			nextModel, nextCmd := app.Update(msg)
			app, ok = nextModel.(*App)
			if !ok {
				t.Fatalf("unexpected model type: %T", nextModel)
			}
			queue = append(queue, nextCmd)
		}
	}
	return app, quit
}
