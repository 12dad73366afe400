package editor

import (
	"fmt"
	"slices"

	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/steps"
)

func registryCheck[T any](reg *steps.Registry, section profile.Section) Checker[T] {
	if reg == nil {
		return nil
	}
	return func(record T, _ []T) steps.FieldErrors {
		return reg.CheckRecord(section, record)
	}
}

// Educations builds the education editor. Records are hard gated.
func Educations(reg *steps.Registry, snapshot []profile.Education, onUpdate UpdateFunc[profile.Education], ids profile.IDSource) *List[profile.Education] {
	return New(Config[profile.Education]{
		Section:   profile.SectionEducations,
		Snapshot:  snapshot,
		OnUpdate:  onUpdate,
		Check:     registryCheck[profile.Education](reg, profile.SectionEducations),
		Normalize: profile.Education.Normalized,
		IDs:       ids,
	})
}

// Experiences builds the experience editor.
func Experiences(reg *steps.Registry, snapshot []profile.Experience, onUpdate UpdateFunc[profile.Experience], ids profile.IDSource) *List[profile.Experience] {
	return New(Config[profile.Experience]{
		Section:   profile.SectionExperiences,
		Snapshot:  snapshot,
		OnUpdate:  onUpdate,
		Check:     registryCheck[profile.Experience](reg, profile.SectionExperiences),
		Normalize: profile.Experience.Normalized,
		IDs:       ids,
	})
}

// Projects builds the project editor.
func Projects(reg *steps.Registry, snapshot []profile.Project, onUpdate UpdateFunc[profile.Project], ids profile.IDSource) *List[profile.Project] {
	return New(Config[profile.Project]{
		Section:  profile.SectionProjects,
		Snapshot: snapshot,
		OnUpdate: onUpdate,
		Check:    registryCheck[profile.Project](reg, profile.SectionProjects),
		IDs:      ids,
	})
}

// Skills builds the skill editor. Names are unique case-insensitively; a
// duplicate is rejected as a field error on "name".
func Skills(reg *steps.Registry, snapshot []profile.Skill, onUpdate UpdateFunc[profile.Skill], ids profile.IDSource) *List[profile.Skill] {
	base := registryCheck[profile.Skill](reg, profile.SectionSkills)
	check := func(record profile.Skill, existing []profile.Skill) steps.FieldErrors {
		if base != nil {
			if errs := base(record, existing); len(errs) > 0 {
				return errs
			}
		}
		dup := slices.ContainsFunc(existing, func(s profile.Skill) bool {
			return profile.SameName(s.Name, record.Name)
		})
		if dup {
			return steps.FieldErrors{"name": fmt.Sprintf("%s is already in your skills", record.Name)}
		}
		return nil
	}
	return New(Config[profile.Skill]{
		Section:   profile.SectionSkills,
		Snapshot:  snapshot,
		OnUpdate:  onUpdate,
		Check:     check,
		Normalize: profile.Skill.Normalized,
		IDs:       ids,
	})
}

// Certifications builds the certification editor.
func Certifications(reg *steps.Registry, snapshot []profile.Certification, onUpdate UpdateFunc[profile.Certification], ids profile.IDSource) *List[profile.Certification] {
	return New(Config[profile.Certification]{
		Section:   profile.SectionCertifications,
		Snapshot:  snapshot,
		OnUpdate:  onUpdate,
		Check:     registryCheck[profile.Certification](reg, profile.SectionCertifications),
		Normalize: profile.Certification.Normalized,
		IDs:       ids,
	})
}

// Volunteering builds the pass-through volunteering editor.
func Volunteering(snapshot []profile.VolunteerRecord, onUpdate UpdateFunc[profile.VolunteerRecord], ids profile.IDSource) *List[profile.VolunteerRecord] {
	return New(Config[profile.VolunteerRecord]{
		Section:   profile.SectionVolunteering,
		Snapshot:  snapshot,
		OnUpdate:  onUpdate,
		Normalize: profile.VolunteerRecord.Clone,
		IDs:       ids,
	})
}
