package profile

import (
	"slices"
	"strings"
)

// Draft is the full in-progress profile. The same JSON shape is persisted by
// draft stores and posted to the profile service.
type Draft struct {
	BasicInfo      BasicInfo         `json:"basic_info"`
	Educations     []Education       `json:"educations"`
	Experiences    []Experience      `json:"experiences"`
	Projects       []Project         `json:"projects"`
	Skills         []Skill           `json:"skills"`
	Certifications []Certification   `json:"certifications"`
	Volunteering   []VolunteerRecord `json:"volunteering"`
}

// BasicInfo holds the singular fields collected on the first step.
type BasicInfo struct {
	FullName    string `json:"full_name" validate:"nonblank"`
	DateOfBirth string `json:"date_of_birth,omitempty" validate:"omitempty,profiledate"`
	Location    string `json:"location,omitempty"`
	Headline    string `json:"headline,omitempty" validate:"max=120"`
	Summary     string `json:"summary,omitempty" validate:"max=500"`
}

// BasicInfoPatch carries a partial basic info update. Nil fields are left untouched.
type BasicInfoPatch struct {
	FullName    *string
	DateOfBirth *string
	Location    *string
	Headline    *string
	Summary     *string
}

// Apply merges the non-nil fields of the patch into info.
func (p BasicInfoPatch) Apply(info BasicInfo) BasicInfo {
	if p.FullName != nil {
		info.FullName = *p.FullName
	}
	if p.DateOfBirth != nil {
		info.DateOfBirth = *p.DateOfBirth
	}
	if p.Location != nil {
		info.Location = *p.Location
	}
	if p.Headline != nil {
		info.Headline = *p.Headline
	}
	if p.Summary != nil {
		info.Summary = *p.Summary
	}
	return info
}

// HasFullName reports whether the trimmed full name is non-empty.
func (b BasicInfo) HasFullName() bool {
	return strings.TrimSpace(b.FullName) != ""
}

// Empty returns a draft whose sequences are all allocated, so they encode as [] not null.
func Empty() Draft {
	return Draft{}.Normalized()
}

// Normalized fills nil sequences and enforces the record-level invariants that do
// not need a validator: current records drop their end date, non-expiring
// certifications drop their expiry, skills stay unique by name and volunteering
// fields take their decoded JSON form.
func (d Draft) Normalized() Draft {
	out := d.Clone()
	if out.Educations == nil {
		out.Educations = []Education{}
	}
	if out.Experiences == nil {
		out.Experiences = []Experience{}
	}
	if out.Projects == nil {
		out.Projects = []Project{}
	}
	if out.Skills == nil {
		out.Skills = []Skill{}
	}
	if out.Certifications == nil {
		out.Certifications = []Certification{}
	}
	if out.Volunteering == nil {
		out.Volunteering = []VolunteerRecord{}
	}
	for i := range out.Educations {
		out.Educations[i] = out.Educations[i].Normalized()
	}
	for i := range out.Experiences {
		out.Experiences[i] = out.Experiences[i].Normalized()
	}
	for i := range out.Certifications {
		out.Certifications[i] = out.Certifications[i].Normalized()
	}
	for i := range out.Skills {
		out.Skills[i] = out.Skills[i].Normalized()
	}
	out.Skills = UniqueSkills(out.Skills)
	for i := range out.Volunteering {
		out.Volunteering[i] = out.Volunteering[i].Normalized()
	}
	return out
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	out := d
	out.Educations = cloneEducations(d.Educations)
	out.Experiences = slices.Clone(d.Experiences)
	out.Projects = slices.Clone(d.Projects)
	out.Skills = slices.Clone(d.Skills)
	out.Certifications = slices.Clone(d.Certifications)
	if d.Volunteering != nil {
		out.Volunteering = make([]VolunteerRecord, len(d.Volunteering))
		for i, rec := range d.Volunteering {
			out.Volunteering[i] = rec.Clone()
		}
	}
	return out
}

func cloneEducations(in []Education) []Education {
	if in == nil {
		return nil
	}
	out := make([]Education, len(in))
	for i, edu := range in {
		edu.Skills = slices.Clone(edu.Skills)
		out[i] = edu
	}
	return out
}

// IsZero reports whether the draft carries no user input at all.
func (d Draft) IsZero() bool {
	return d.BasicInfo == (BasicInfo{}) &&
		len(d.Educations) == 0 &&
		len(d.Experiences) == 0 &&
		len(d.Projects) == 0 &&
		len(d.Skills) == 0 &&
		len(d.Certifications) == 0 &&
		len(d.Volunteering) == 0
}
