package wizard

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kingrea/profile-wizard/internal/editor"
	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/steps"
)

// mutate applies fn to the draft and saves the whole draft. A failed save is
// returned wrapped in ErrPersist; the in-memory change stays.
func (e *Engine) mutate(section profile.Section, fn func(d *profile.Draft)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.writableLocked(); err != nil {
		return err
	}
	fn(&e.draft)
	e.draft = e.draft.Normalized()
	if e.lastError != nil && e.lastError.Kind == KindRecoverableInput &&
		e.lastError.Step == profile.StepBasicInfo && e.draft.BasicInfo.HasFullName() {
		e.lastError = nil
	}
	if err := e.store.Save(e.draft); err != nil {
		e.logger.Warn("draft save failed", zap.String("section", string(section)), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// UpdateBasicInfo merges the patch into the basic info section.
func (e *Engine) UpdateBasicInfo(patch profile.BasicInfoPatch) error {
	return e.mutate(profile.SectionBasicInfo, func(d *profile.Draft) {
		d.BasicInfo = patch.Apply(d.BasicInfo)
	})
}

// SetBasicInfo replaces the basic info section.
func (e *Engine) SetBasicInfo(info profile.BasicInfo) error {
	return e.mutate(profile.SectionBasicInfo, func(d *profile.Draft) {
		d.BasicInfo = info
	})
}

func (e *Engine) UpdateEducations(list []profile.Education) error {
	return e.mutate(profile.SectionEducations, func(d *profile.Draft) {
		d.Educations = slices.Clone(list)
	})
}

func (e *Engine) UpdateExperiences(list []profile.Experience) error {
	return e.mutate(profile.SectionExperiences, func(d *profile.Draft) {
		d.Experiences = slices.Clone(list)
	})
}

func (e *Engine) UpdateProjects(list []profile.Project) error {
	return e.mutate(profile.SectionProjects, func(d *profile.Draft) {
		d.Projects = slices.Clone(list)
	})
}

// UpdateSkills replaces the skills; repeated names keep their first entry.
func (e *Engine) UpdateSkills(list []profile.Skill) error {
	return e.mutate(profile.SectionSkills, func(d *profile.Draft) {
		d.Skills = slices.Clone(list)
	})
}

func (e *Engine) UpdateCertifications(list []profile.Certification) error {
	return e.mutate(profile.SectionCertifications, func(d *profile.Draft) {
		d.Certifications = slices.Clone(list)
	})
}

func (e *Engine) UpdateVolunteering(list []profile.VolunteerRecord) error {
	return e.mutate(profile.SectionVolunteering, func(d *profile.Draft) {
		d.Volunteering = slices.Clone(list)
	})
}

// UpdateList replaces a whole section. list must be the section's record
// slice type; basic info accepts profile.BasicInfo or profile.BasicInfoPatch.
func (e *Engine) UpdateList(section profile.Section, list any) error {
	switch section {
	case profile.SectionBasicInfo:
		switch v := list.(type) {
		case profile.BasicInfo:
			return e.SetBasicInfo(v)
		case profile.BasicInfoPatch:
			return e.UpdateBasicInfo(v)
		}
	case profile.SectionEducations:
		if v, ok := list.([]profile.Education); ok {
			return e.UpdateEducations(v)
		}
	case profile.SectionExperiences:
		if v, ok := list.([]profile.Experience); ok {
			return e.UpdateExperiences(v)
		}
	case profile.SectionProjects:
		if v, ok := list.([]profile.Project); ok {
			return e.UpdateProjects(v)
		}
	case profile.SectionSkills:
		if v, ok := list.([]profile.Skill); ok {
			return e.UpdateSkills(v)
		}
	case profile.SectionCertifications:
		if v, ok := list.([]profile.Certification); ok {
			return e.UpdateCertifications(v)
		}
	case profile.SectionVolunteering:
		if v, ok := list.([]profile.VolunteerRecord); ok {
			return e.UpdateVolunteering(v)
		}
	default:
		return fmt.Errorf("wizard: unknown section %q", section)
	}
	return fmt.Errorf("%w: %s got %T", ErrSectionType, section, list)
}

// Educations returns an editor bound to the current education snapshot.
func (e *Engine) Educations() *editor.List[profile.Education] {
	return editor.Educations(e.registry, e.Draft().Educations, e.UpdateEducations, e.ids)
}

func (e *Engine) Experiences() *editor.List[profile.Experience] {
	return editor.Experiences(e.registry, e.Draft().Experiences, e.UpdateExperiences, e.ids)
}

func (e *Engine) Projects() *editor.List[profile.Project] {
	return editor.Projects(e.registry, e.Draft().Projects, e.UpdateProjects, e.ids)
}

func (e *Engine) Skills() *editor.List[profile.Skill] {
	return editor.Skills(e.registry, e.Draft().Skills, e.UpdateSkills, e.ids)
}

func (e *Engine) Certifications() *editor.List[profile.Certification] {
	return editor.Certifications(e.registry, e.Draft().Certifications, e.UpdateCertifications, e.ids)
}

func (e *Engine) Volunteering() *editor.List[profile.VolunteerRecord] {
	return editor.Volunteering(e.Draft().Volunteering, e.UpdateVolunteering, e.ids)
}

// CheckBasicInfo validates basic info fields for inline display. It never
// blocks navigation.
func (e *Engine) CheckBasicInfo() steps.FieldErrors {
	return e.registry.CheckRecord(profile.SectionBasicInfo, e.Draft().BasicInfo)
}
