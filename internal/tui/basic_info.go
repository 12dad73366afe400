package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/steps"
	"github.com/kingrea/profile-wizard/internal/wizard"
)

var basicInfoFields = []fieldSpec{
	{key: "full_name", label: "Full name"},
	{key: "date_of_birth", label: "Date of birth", placeholder: "YYYY-MM-DD"},
	{key: "location", label: "Location"},
	{key: "headline", label: "Headline", limit: 120},
	{key: "summary", label: "Summary", limit: 500},
}

// newBasicForm seeds the step 1 form from the draft. Each change is written
// straight through to the engine; errors show once a field has been left.
func (a *App) newBasicForm() *form {
	info := a.engine.Draft().BasicInfo
	f := newForm("Basic Information", basicInfoFields, map[string]string{
		"full_name":     info.FullName,
		"date_of_birth": info.DateOfBirth,
		"location":      info.Location,
		"headline":      info.Headline,
		"summary":       info.Summary,
	})
	a.visited = map[string]bool{}
	f.onEdit = a.commitBasicField
	return f
}

func (a *App) commitBasicField(key string) {
	value := a.basic.Value(key)
	var patch profile.BasicInfoPatch
	switch key {
	case "full_name":
		patch.FullName = &value
	case "date_of_birth":
		patch.DateOfBirth = &value
	case "location":
		patch.Location = &value
	case "headline":
		patch.Headline = &value
	case "summary":
		patch.Summary = &value
	default:
		return
	}
	if err := a.engine.UpdateBasicInfo(patch); err != nil {
		if errors.Is(err, wizard.ErrPersist) {
			a.statusMsg = "Changes kept for this session but the draft could not be saved"
		} else {
			a.statusMsg = err.Error()
		}
		a.logger.Warn("basic info update failed", zap.String("field", key), zap.Error(err))
	}
}

func (a *App) handleBasicKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.basic == nil {
		return a, nil
	}
	before := a.basic.focusedKey()
	action, cmd := a.basic.Update(msg)
	if action == formSubmit {
		for _, spec := range basicInfoFields {
			a.visited[spec.key] = true
		}
	} else if a.basic.focusedKey() != before {
		a.visited[before] = true
	}
	if action != formNone || a.basic.focusedKey() != before {
		a.refreshBasicErrors()
	}
	return a, cmd
}

// refreshBasicErrors shows validator errors for the fields the user has left.
func (a *App) refreshBasicErrors() {
	errs := a.engine.CheckBasicInfo()
	shown := steps.FieldErrors{}
	for key, msg := range errs {
		if a.visited[key] {
			shown[key] = msg
		}
	}
	a.basic.SetErrors(shown)
}
