package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/profile-wizard/internal/steps"
)

var (
	formTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	fieldLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	fieldFocusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	fieldErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	fieldHintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	toggleOnMarker   = "[x]"
	toggleOffMarker  = "[ ]"
	toggleTrueValue  = "true"
	toggleFalseValue = ""
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldToggle
)

// fieldSpec describes one input. Key is the JSON field name used by the
// validators, so field errors line up with inputs.
type fieldSpec struct {
	key         string
	label       string
	placeholder string
	kind        fieldKind
	limit       int
}

type formAction int

const (
	formNone formAction = iota
	formSubmit
	formCancel
)

// form is a vertical stack of text inputs and toggles.
type form struct {
	title   string
	specs   []fieldSpec
	inputs  []textinput.Model
	toggles []bool
	focus   int
	errs    steps.FieldErrors
	// onEdit is called with the field key whenever its value changes.
	onEdit func(key string)
}

func newForm(title string, specs []fieldSpec, values map[string]string) *form {
	f := &form{
		title:   title,
		specs:   specs,
		inputs:  make([]textinput.Model, len(specs)),
		toggles: make([]bool, len(specs)),
	}
	for i, spec := range specs {
		if spec.kind == fieldToggle {
			f.toggles[i] = values[spec.key] == toggleTrueValue
			continue
		}
		input := textinput.New()
		input.Placeholder = spec.placeholder
		input.Prompt = ""
		if spec.limit > 0 {
			input.CharLimit = spec.limit
		}
		input.SetValue(values[spec.key])
		f.inputs[i] = input
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(idx int) tea.Cmd {
	if len(f.specs) == 0 {
		return nil
	}
	if idx < 0 {
		idx = len(f.specs) - 1
	}
	if idx >= len(f.specs) {
		idx = 0
	}
	f.inputs[f.focus].Blur()
	f.focus = idx
	if f.specs[idx].kind == fieldToggle {
		return nil
	}
	return f.inputs[idx].Focus()
}

// focusedKey returns the key of the focused field.
func (f *form) focusedKey() string {
	if len(f.specs) == 0 {
		return ""
	}
	return f.specs[f.focus].key
}

// Update routes a key to the focused input.
func (f *form) Update(msg tea.KeyMsg) (formAction, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return formCancel, nil
	case "ctrl+s":
		return formSubmit, nil
	case "tab", "down":
		return formNone, f.setFocus(f.focus + 1)
	case "shift+tab", "up":
		return formNone, f.setFocus(f.focus - 1)
	case "enter":
		if f.focus == len(f.specs)-1 {
			return formSubmit, nil
		}
		return formNone, f.setFocus(f.focus + 1)
	}
	if len(f.specs) == 0 {
		return formNone, nil
	}
	spec := f.specs[f.focus]
	if spec.kind == fieldToggle {
		if msg.String() == " " || msg.String() == "x" {
			f.toggles[f.focus] = !f.toggles[f.focus]
			f.edited(spec.key)
		}
		return formNone, nil
	}
	before := f.inputs[f.focus].Value()
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	if f.inputs[f.focus].Value() != before {
		f.edited(spec.key)
	}
	return formNone, cmd
}

func (f *form) edited(key string) {
	if f.errs != nil {
		f.errs.Clear(key)
	}
	if f.onEdit != nil {
		f.onEdit(key)
	}
}

// Value returns the current value of a field. Toggles read "true" or "".
func (f *form) Value(key string) string {
	for i, spec := range f.specs {
		if spec.key != key {
			continue
		}
		if spec.kind == fieldToggle {
			if f.toggles[i] {
				return toggleTrueValue
			}
			return toggleFalseValue
		}
		return f.inputs[i].Value()
	}
	return ""
}

// Values snapshots every field.
func (f *form) Values() map[string]string {
	out := make(map[string]string, len(f.specs))
	for _, spec := range f.specs {
		out[spec.key] = f.Value(spec.key)
	}
	return out
}

// SetErrors replaces the inline errors.
func (f *form) SetErrors(errs steps.FieldErrors) {
	f.errs = nil
	if len(errs) == 0 {
		return
	}
	f.errs = maps.Clone(errs)
}

func (f *form) View(width int) string {
	var b strings.Builder
	if f.title != "" {
		b.WriteString(formTitleStyle.Render(f.title))
		b.WriteString("\n\n")
	}
	for i, spec := range f.specs {
		label := fieldLabelStyle.Render(spec.label)
		if i == f.focus {
			label = fieldFocusStyle.Render("› " + spec.label)
		}
		var value string
		if spec.kind == fieldToggle {
			marker := toggleOffMarker
			if f.toggles[i] {
				marker = toggleOnMarker
			}
			value = marker
		} else {
			value = f.inputs[i].View()
		}
		b.WriteString(fmt.Sprintf("%s\n  %s\n", label, value))
		if msg, ok := f.errs[spec.key]; ok {
			b.WriteString("  " + fieldErrorStyle.Render(msg) + "\n")
		}
	}
	for _, key := range slices.Sorted(maps.Keys(f.errs)) {
		if !f.hasField(key) {
			b.WriteString(fieldErrorStyle.Render(fmt.Sprintf("%s: %s", key, f.errs[key])) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(fieldHintStyle.Render("tab/↓ next field · shift+tab/↑ previous · space toggles · enter on last field or ctrl+s saves · esc cancels"))
	return lipgloss.NewStyle().Width(max(20, width)).Render(b.String())
}

func (f *form) hasField(key string) bool {
	for _, spec := range f.specs {
		if spec.key == key {
			return true
		}
	}
	return false
}
