// internal/tui/app.go
//
// This is the terminal host for the profile wizard.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: the App, which mirrors the wizard engine
// 2. Update: turns key presses into engine calls
// 3. View: renders the current step from an engine snapshot
//
// The engine owns the draft and every rule; the App only decides which step
// form or list to show and forwards edits.

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/profile-wizard/internal/gateway"
	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/steps"
	"github.com/kingrea/profile-wizard/internal/wizard"
)

// viewMode is what the body of a list step shows
type viewMode int

const (
	modeBrowse viewMode = iota // Record list with a cursor
	modeForm                   // Add or edit form for one record
)

const defaultQuitDelay = 1500 * time.Millisecond

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	stepTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	bannerStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Foreground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1)
	bodyStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	statusDoneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	statusPendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	cursorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	mutedStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	successStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
)

// AppOption customizes the App.
type AppOption func(*App)

// WithContext sets the context passed to Submit.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// WithLogger attaches a logger for host-side events.
func WithLogger(logger *zap.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithQuitDelay sets how long the success message stays up before the
// program exits.
func WithQuitDelay(d time.Duration) AppOption {
	return func(a *App) {
		if d >= 0 {
			a.quitDelay = d
		}
	}
}

type submitFinishedMsg struct {
	ref gateway.ProfileRef
	err error
}

type quitMsg struct{}

// App is the main application model
type App struct {
	engine *wizard.Engine
	ctx    context.Context
	logger *zap.Logger

	width  int
	height int

	progress progress.Model
	spinner  spinner.Model

	step      profile.Step
	mode      viewMode
	section   recordSection
	selection int
	form      *form
	editingID string

	basic   *form
	visited map[string]bool

	submitting bool
	done       bool
	result     gateway.ProfileRef
	statusMsg  string
	quitDelay  time.Duration
}

// NewApp creates the host over an engine that has already restored its draft.
func NewApp(eng *wizard.Engine, opts ...AppOption) (*App, error) {
	if eng == nil {
		return nil, errors.New("tui: engine is required")
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	app := &App{
		engine:    eng,
		ctx:       context.Background(),
		logger:    zap.NewNop(),
		progress:  bar,
		spinner:   spin,
		quitDelay: defaultQuitDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.enterStep(eng.CurrentStep())
	return app, nil
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.progress.Width = max(10, msg.Width-24)
		return a, nil

	case spinner.TickMsg:
		if !a.submitting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case submitFinishedMsg:
		return a.handleSubmitFinished(msg)

	case quitMsg:
		return a, tea.Quit

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if a.done {
			if key == "q" || key == "enter" || key == "esc" {
				return a, tea.Quit
			}
			return a, nil
		}
		switch key {
		case "ctrl+n", "pgdown":
			return a.next()
		case "ctrl+p", "pgup":
			return a.previous()
		case "ctrl+x":
			a.engine.DismissError()
			return a, nil
		}
		if a.step == profile.StepBasicInfo {
			return a.handleBasicKey(msg)
		}
		if a.mode == modeForm && a.form != nil {
			return a.handleFormKey(msg)
		}
		return a.handleBrowseKey(msg)
	}
	return a, nil
}

// enterStep rebuilds the body for the engine's current step.
func (a *App) enterStep(step profile.Step) {
	a.step = step
	a.mode = modeBrowse
	a.form = nil
	a.editingID = ""
	a.selection = 0
	a.section = sectionFor(a.engine, step)
	a.basic = nil
	if step == profile.StepBasicInfo {
		a.basic = a.newBasicForm()
	}
}

func (a *App) next() (tea.Model, tea.Cmd) {
	if a.mode == modeForm {
		a.statusMsg = "Save or cancel the open form first"
		return a, nil
	}
	before := a.engine.CurrentStep()
	if a.engine.Next() {
		a.statusMsg = ""
		a.logger.Debug("step advanced", zap.Int("from", int(before)), zap.Int("to", int(a.engine.CurrentStep())))
		a.enterStep(a.engine.CurrentStep())
	}
	return a, nil
}

func (a *App) previous() (tea.Model, tea.Cmd) {
	if a.mode == modeForm {
		a.statusMsg = "Save or cancel the open form first"
		return a, nil
	}
	if a.engine.Previous() {
		a.statusMsg = ""
		a.enterStep(a.engine.CurrentStep())
	}
	return a, nil
}

func (a *App) editSection(target profile.Step) (tea.Model, tea.Cmd) {
	if err := a.engine.EditSection(target); err != nil {
		a.statusMsg = err.Error()
		return a, nil
	}
	a.statusMsg = ""
	a.enterStep(a.engine.CurrentStep())
	return a, nil
}

func (a *App) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := a.rows()
	switch key := msg.String(); key {
	case "q", "esc":
		return a, tea.Quit
	case "x":
		a.engine.DismissError()
	case "n", "right", "l":
		return a.next()
	case "p", "left", "h":
		return a.previous()
	case "up", "k":
		if a.selection > 0 {
			a.selection--
		}
	case "down", "j":
		if a.selection < len(rows)-1 {
			a.selection++
		}
	case "a":
		if a.step != profile.StepReview {
			return a.openForm("")
		}
	case "v":
		if a.step == profile.StepReview {
			return a.openForm("")
		}
	case "e", "enter":
		if a.selection < len(rows) {
			return a.openForm(rows[a.selection].id)
		}
	case "d":
		if a.selection < len(rows) {
			return a.removeRecord(rows[a.selection].id)
		}
	case "s":
		if a.step == profile.StepReview {
			return a.submit()
		}
	case "g":
		if info := a.engine.LastError(); info != nil && info.Step.Valid() && a.step == profile.StepReview {
			return a.editSection(info.Step)
		}
	case "1", "2", "3", "4", "5", "6":
		if a.step == profile.StepReview {
			return a.editSection(profile.Step(key[0] - '0'))
		}
	}
	return a, nil
}

func (a *App) rows() []recordRow {
	if a.section == nil {
		return nil
	}
	return a.section.rows()
}

func (a *App) openForm(id string) (tea.Model, tea.Cmd) {
	if a.section == nil {
		return a, nil
	}
	verb := "Add"
	if id != "" {
		verb = "Edit"
	}
	a.form = newForm(fmt.Sprintf("%s %s", verb, a.section.title()), a.section.fields(), a.section.values(id))
	a.form.onEdit = a.section.touch
	a.editingID = id
	a.mode = modeForm
	return a, nil
}

func (a *App) closeForm() {
	a.form = nil
	a.editingID = ""
	a.mode = modeBrowse
	// Resync with the engine so a failed save shows what the draft holds.
	a.section = sectionFor(a.engine, a.step)
	if n := len(a.rows()); a.selection >= n {
		a.selection = max(0, n-1)
	}
}

func (a *App) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, cmd := a.form.Update(msg)
	switch action {
	case formCancel:
		a.closeForm()
		return a, nil
	case formSubmit:
		err := a.section.save(a.editingID, a.form.Values())
		var fieldErrs steps.FieldErrors
		switch {
		case errors.As(err, &fieldErrs):
			a.form.SetErrors(fieldErrs)
			return a, nil
		case errors.Is(err, wizard.ErrPersist):
			a.statusMsg = "Changes kept for this session but the draft could not be saved"
			a.logger.Warn("draft save failed", zap.Error(err))
		case err != nil:
			a.statusMsg = err.Error()
			return a, nil
		default:
			a.statusMsg = "Saved"
		}
		if a.editingID == "" {
			a.selection = len(a.rows())
		}
		a.closeForm()
		return a, nil
	}
	return a, cmd
}

func (a *App) removeRecord(id string) (tea.Model, tea.Cmd) {
	if err := a.section.remove(id); err != nil {
		if errors.Is(err, wizard.ErrPersist) {
			a.statusMsg = "Removed for this session but the draft could not be saved"
		} else {
			a.statusMsg = err.Error()
		}
	} else {
		a.statusMsg = "Removed"
	}
	a.closeForm()
	return a, nil
}

func (a *App) submit() (tea.Model, tea.Cmd) {
	if a.submitting || !a.engine.State().CanSubmit() {
		return a, nil
	}
	a.submitting = true
	a.statusMsg = ""
	a.logger.Info("submit requested")
	return a, tea.Batch(a.spinner.Tick, a.submitCmd())
}

func (a *App) submitCmd() tea.Cmd {
	ctx := a.ctx
	eng := a.engine
	return func() tea.Msg {
		ref, err := eng.Submit(ctx)
		return submitFinishedMsg{ref: ref, err: err}
	}
}

func (a *App) handleSubmitFinished(msg submitFinishedMsg) (tea.Model, tea.Cmd) {
	a.submitting = false
	if msg.err != nil && !errors.Is(msg.err, wizard.ErrAlreadySubmitted) {
		var info *wizard.ErrorInfo
		if !errors.As(msg.err, &info) {
			a.statusMsg = msg.err.Error()
		}
		return a, nil
	}
	a.done = true
	a.result = msg.ref
	a.logger.Info("profile created", zap.String("profile_id", msg.ref.ID))
	delay := a.quitDelay
	return a, tea.Tick(delay, func(time.Time) tea.Msg {
		return quitMsg{}
	})
}

// View renders the UI
func (a *App) View() string {
	state := a.engine.State()
	width := a.contentWidth()
	sections := []string{a.renderHeader(state)}
	if banner := a.renderBanner(state, width); banner != "" {
		sections = append(sections, banner)
	}
	sections = append(sections, bodyStyle.Width(width).Render(a.renderBody(state, width-4)))
	sections = append(sections, a.renderFooter())
	return strings.Join(sections, "\n")
}

func (a *App) contentWidth() int {
	if a.width <= 0 {
		return 80
	}
	return max(30, a.width-2)
}

func (a *App) renderHeader(state wizard.State) string {
	title := headerStyle.Render("◆ PROFILE WIZARD")
	stepLine := stepTitleStyle.Render(fmt.Sprintf("Step %d of %d · %s", int(state.Step), profile.StepCount, state.Step.Title()))
	bar := fmt.Sprintf("%s %3d%%", a.progress.ViewAs(state.Progress), int(state.Progress*100+0.5))
	return lipgloss.JoinVertical(lipgloss.Left, title, stepLine, bar)
}

func (a *App) renderBanner(state wizard.State, width int) string {
	info := state.LastError
	if info == nil {
		return ""
	}
	lines := []string{"⚠ " + info.Message}
	if info.RequiresReauth {
		lines = append(lines, "Sign in again, then retry.")
	}
	hint := "ctrl+x dismiss"
	if a.step == profile.StepReview && a.mode == modeBrowse {
		hint = "x dismiss"
		if info.Step.Valid() && info.Step != profile.StepReview {
			hint += fmt.Sprintf(" · g go to step %d", int(info.Step))
		}
	}
	lines = append(lines, mutedStyle.Render(hint))
	return bannerStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (a *App) renderBody(state wizard.State, width int) string {
	if a.done {
		return a.renderSuccess()
	}
	if a.step == profile.StepBasicInfo && a.basic != nil {
		return a.basic.View(width)
	}
	if a.mode == modeForm && a.form != nil {
		return a.form.View(width)
	}
	if a.step == profile.StepReview {
		return a.renderReview(state, width)
	}
	return a.renderList(width)
}

func (a *App) renderList(width int) string {
	var b strings.Builder
	b.WriteString(formTitleStyle.Render(a.step.Title()))
	b.WriteString("\n\n")
	rows := a.rows()
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("No entries yet. Press a to add one."))
	}
	for i, row := range rows {
		prefix := "  "
		if i == a.selection {
			prefix = cursorStyle.Render("› ")
		}
		b.WriteString(prefix + row.summary + "\n")
	}
	if a.step == profile.StepEducation {
		b.WriteString("\n" + mutedStyle.Render("Each entry needs an institution and a start date."))
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(b.String())
}

func (a *App) renderReview(state wizard.State, width int) string {
	var b strings.Builder
	b.WriteString(formTitleStyle.Render("Review your profile"))
	b.WriteString("\n\n")
	for _, status := range state.Review {
		marker := statusDoneStyle.Render("✓")
		if !status.Complete {
			marker = statusPendingStyle.Render("○")
		}
		key := fmt.Sprintf("%d", int(status.Step))
		if status.Section == profile.SectionVolunteering {
			key = "v"
		}
		b.WriteString(fmt.Sprintf("%s [%s] %s (%d)\n", marker, key, status.Section.Title(), status.Count))
	}
	if !state.ProfileComplete() {
		b.WriteString("\n" + statusPendingStyle.Render("Some sections are still empty. You can submit anyway."))
	}
	b.WriteString("\n\n" + formTitleStyle.Render("Volunteering") + "\n")
	rows := a.rows()
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("No volunteering yet. Press v to add an entry.") + "\n")
	}
	for i, row := range rows {
		prefix := "  "
		if i == a.selection {
			prefix = cursorStyle.Render("› ")
		}
		b.WriteString(prefix + row.summary + "\n")
	}
	if a.submitting || state.Submitting {
		b.WriteString("\n" + a.spinner.View() + " Submitting your profile...")
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(b.String())
}

func (a *App) renderSuccess() string {
	lines := []string{successStyle.Render("✓ " + successMessage(a.result))}
	if a.result.ID != "" {
		lines = append(lines, fmt.Sprintf("Profile ID: %s", a.result.ID))
	}
	lines = append(lines, mutedStyle.Render("Closing..."))
	return strings.Join(lines, "\n")
}

func successMessage(ref gateway.ProfileRef) string {
	if msg := strings.TrimSpace(ref.Message); msg != "" {
		return msg
	}
	return "Profile created successfully"
}

func (a *App) renderFooter() string {
	var hint string
	switch {
	case a.done:
		hint = "enter/q quit"
	case a.step == profile.StepBasicInfo:
		hint = "ctrl+n/pgdown next · ctrl+c quit"
	case a.mode == modeForm:
		hint = "ctrl+s save · esc cancel"
	case a.step == profile.StepReview:
		hint = "1-6 edit section · v add volunteering · e edit · d delete · s submit · ←/p back · q quit"
	default:
		hint = "a add · e edit · d delete · →/n next · ←/p back · q quit"
	}
	footer := mutedStyle.Render(hint)
	if a.statusMsg != "" {
		footer = lipgloss.JoinVertical(lipgloss.Left, footer, a.statusMsg)
	}
	return lipgloss.NewStyle().MarginTop(1).Render(footer)
}
