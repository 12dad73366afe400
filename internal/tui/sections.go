package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kingrea/profile-wizard/internal/editor"
	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/wizard"
)

// recordRow is one line of a section list.
type recordRow struct {
	id      string
	summary string
}

// recordSection adapts a typed section editor to string-valued forms.
type recordSection interface {
	title() string
	rows() []recordRow
	fields() []fieldSpec
	values(id string) map[string]string
	// save adds a record when id is empty and updates it otherwise. Rejected
	// input comes back as steps.FieldErrors.
	save(id string, values map[string]string) error
	remove(id string) error
	touch(field string)
}

type listSection[T profile.Record[T]] struct {
	name    string
	open    func() *editor.List[T]
	list    *editor.List[T]
	specs   []fieldSpec
	encode  func(T) map[string]string
	decode  func(T, map[string]string) T
	summary func(T) string
}

func (s *listSection[T]) title() string { return s.name }

func (s *listSection[T]) listEditor() *editor.List[T] {
	if s.list == nil {
		s.list = s.open()
	}
	return s.list
}

func (s *listSection[T]) rows() []recordRow {
	items := s.listEditor().Items()
	rows := make([]recordRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, recordRow{id: item.RecordID(), summary: s.summary(item)})
	}
	return rows
}

func (s *listSection[T]) fields() []fieldSpec { return s.specs }

func (s *listSection[T]) values(id string) map[string]string {
	if id == "" {
		var zero T
		return s.encode(zero)
	}
	record, ok := s.listEditor().Get(id)
	if !ok {
		var zero T
		return s.encode(zero)
	}
	return s.encode(record)
}

func (s *listSection[T]) save(id string, values map[string]string) error {
	list := s.listEditor()
	if id == "" {
		var zero T
		_, err := list.Add(s.decode(zero, values))
		return err
	}
	current, ok := list.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", editor.ErrUnknownRecord, id)
	}
	return list.Update(s.decode(current, values))
}

func (s *listSection[T]) remove(id string) error {
	return s.listEditor().Remove(id)
}

func (s *listSection[T]) touch(field string) {
	s.listEditor().Touch(field)
}

// sectionFor returns the list editor hosted on a step, or nil for basic info.
func sectionFor(eng *wizard.Engine, step profile.Step) recordSection {
	switch step {
	case profile.StepEducation:
		return educationSection(eng)
	case profile.StepExperience:
		return experienceSection(eng)
	case profile.StepProjects:
		return projectSection(eng)
	case profile.StepSkills:
		return skillSection(eng)
	case profile.StepCertifications:
		return certificationSection(eng)
	case profile.StepReview:
		return volunteeringSection(eng)
	default:
		return nil
	}
}

func boolValue(v bool) string {
	if v {
		return toggleTrueValue
	}
	return toggleFalseValue
}

func trimmed(values map[string]string, key string) string {
	return strings.TrimSpace(values[key])
}

func educationSection(eng *wizard.Engine) recordSection {
	levels := make([]string, 0, len(profile.EducationLevels))
	for _, level := range profile.EducationLevels {
		levels = append(levels, string(level))
	}
	return &listSection[profile.Education]{
		name: "Education",
		open: eng.Educations,
		specs: []fieldSpec{
			{key: "institution", label: "Institution"},
			{key: "level", label: "Level", placeholder: strings.Join(levels, " / ")},
			{key: "field_of_study", label: "Field of study"},
			{key: "start_date", label: "Start date", placeholder: "YYYY-MM"},
			{key: "end_date", label: "End date", placeholder: "YYYY-MM"},
			{key: "is_current", label: "I currently study here", kind: fieldToggle},
			{key: "grade", label: "Grade"},
			{key: "description", label: "Description"},
		},
		encode: func(e profile.Education) map[string]string {
			return map[string]string{
				"institution":    e.Institution,
				"level":          string(e.Level),
				"field_of_study": e.FieldOfStudy,
				"start_date":     e.StartDate,
				"end_date":       e.EndDate,
				"is_current":     boolValue(e.IsCurrent),
				"grade":          e.Grade,
				"description":    e.Description,
			}
		},
		decode: func(e profile.Education, v map[string]string) profile.Education {
			e.Institution = v["institution"]
			e.Level = profile.EducationLevel(strings.ToLower(trimmed(v, "level")))
			e.FieldOfStudy = v["field_of_study"]
			e.StartDate = trimmed(v, "start_date")
			e.EndDate = trimmed(v, "end_date")
			e.IsCurrent = v["is_current"] == toggleTrueValue
			e.Grade = v["grade"]
			e.Description = v["description"]
			return e
		},
		summary: func(e profile.Education) string {
			line := e.Institution
			if e.FieldOfStudy != "" {
				line += " · " + e.FieldOfStudy
			}
			return fmt.Sprintf("%s (%s) %s", line, e.Level, profile.FormatRange(e.StartDate, e.EndDate, e.IsCurrent))
		},
	}
}

func experienceSection(eng *wizard.Engine) recordSection {
	return &listSection[profile.Experience]{
		name: "Experience",
		open: eng.Experiences,
		specs: []fieldSpec{
			{key: "company", label: "Company"},
			{key: "role_title", label: "Role"},
			{key: "start_date", label: "Start date", placeholder: "YYYY-MM"},
			{key: "end_date", label: "End date", placeholder: "YYYY-MM"},
			{key: "is_current", label: "I currently work here", kind: fieldToggle},
			{key: "description", label: "Description"},
			{key: "referral_name", label: "Referee name"},
			{key: "referral_email", label: "Referee email"},
		},
		encode: func(e profile.Experience) map[string]string {
			return map[string]string{
				"company":        e.Company,
				"role_title":     e.RoleTitle,
				"start_date":     e.StartDate,
				"end_date":       e.EndDate,
				"is_current":     boolValue(e.IsCurrent),
				"description":    e.Description,
				"referral_name":  e.ReferralName,
				"referral_email": e.ReferralEmail,
			}
		},
		decode: func(e profile.Experience, v map[string]string) profile.Experience {
			e.Company = v["company"]
			e.RoleTitle = v["role_title"]
			e.StartDate = trimmed(v, "start_date")
			e.EndDate = trimmed(v, "end_date")
			e.IsCurrent = v["is_current"] == toggleTrueValue
			e.Description = v["description"]
			e.ReferralName = v["referral_name"]
			e.ReferralEmail = trimmed(v, "referral_email")
			return e
		},
		summary: func(e profile.Experience) string {
			return fmt.Sprintf("%s at %s %s", e.RoleTitle, e.Company, profile.FormatRange(e.StartDate, e.EndDate, e.IsCurrent))
		},
	}
}

func projectSection(eng *wizard.Engine) recordSection {
	return &listSection[profile.Project]{
		name: "Projects",
		open: eng.Projects,
		specs: []fieldSpec{
			{key: "title", label: "Title"},
			{key: "description", label: "Description"},
			{key: "technologies", label: "Technologies"},
			{key: "tools", label: "Tools"},
			{key: "start_date", label: "Start date", placeholder: "YYYY-MM"},
			{key: "end_date", label: "End date", placeholder: "YYYY-MM"},
			{key: "github_link", label: "GitHub link"},
			{key: "live_link", label: "Live link"},
			{key: "contribution", label: "Your contribution"},
			{key: "referral_name", label: "Referee name"},
			{key: "referral_email", label: "Referee email"},
		},
		encode: func(p profile.Project) map[string]string {
			return map[string]string{
				"title":          p.Title,
				"description":    p.Description,
				"technologies":   p.Technologies,
				"tools":          p.Tools,
				"start_date":     p.StartDate,
				"end_date":       p.EndDate,
				"github_link":    p.GithubLink,
				"live_link":      p.LiveLink,
				"contribution":   p.Contribution,
				"referral_name":  p.ReferralName,
				"referral_email": p.ReferralEmail,
			}
		},
		decode: func(p profile.Project, v map[string]string) profile.Project {
			p.Title = v["title"]
			p.Description = v["description"]
			p.Technologies = v["technologies"]
			p.Tools = v["tools"]
			p.StartDate = trimmed(v, "start_date")
			p.EndDate = trimmed(v, "end_date")
			p.GithubLink = trimmed(v, "github_link")
			p.LiveLink = trimmed(v, "live_link")
			p.Contribution = v["contribution"]
			p.ReferralName = v["referral_name"]
			p.ReferralEmail = trimmed(v, "referral_email")
			return p
		},
		summary: func(p profile.Project) string {
			if p.Technologies == "" {
				return p.Title
			}
			return fmt.Sprintf("%s · %s", p.Title, p.Technologies)
		},
	}
}

func skillSection(eng *wizard.Engine) recordSection {
	return &listSection[profile.Skill]{
		name: "Skills",
		open: eng.Skills,
		specs: []fieldSpec{
			{key: "name", label: "Skill"},
			{key: "proficiency", label: "Proficiency", placeholder: "1 (Beginner) to 5 (Expert)", limit: 1},
		},
		encode: func(s profile.Skill) map[string]string {
			level := ""
			if s.Proficiency != 0 {
				level = strconv.Itoa(s.Proficiency)
			}
			return map[string]string{"name": s.Name, "proficiency": level}
		},
		decode: func(s profile.Skill, v map[string]string) profile.Skill {
			s.Name = v["name"]
			s.Proficiency = 0
			if raw := trimmed(v, "proficiency"); raw != "" {
				level, err := strconv.Atoi(raw)
				if err != nil {
					// Out of range so the validator reports it.
					level = -1
				}
				s.Proficiency = level
			}
			return s
		},
		summary: func(s profile.Skill) string {
			return fmt.Sprintf("%s · %s", s.Name, profile.ProficiencyLabel(s.Proficiency))
		},
	}
}

func certificationSection(eng *wizard.Engine) recordSection {
	return &listSection[profile.Certification]{
		name: "Certifications",
		open: eng.Certifications,
		specs: []fieldSpec{
			{key: "name", label: "Name"},
			{key: "issuer", label: "Issuer"},
			{key: "issue_date", label: "Issue date", placeholder: "YYYY-MM"},
			{key: "expiry_date", label: "Expiry date", placeholder: "YYYY-MM"},
			{key: "does_not_expire", label: "Does not expire", kind: fieldToggle},
			{key: "credential_url", label: "Credential URL"},
		},
		encode: func(c profile.Certification) map[string]string {
			return map[string]string{
				"name":            c.Name,
				"issuer":          c.Issuer,
				"issue_date":      c.IssueDate,
				"expiry_date":     c.ExpiryDate,
				"does_not_expire": boolValue(c.DoesNotExpire),
				"credential_url":  c.CredentialURL,
			}
		},
		decode: func(c profile.Certification, v map[string]string) profile.Certification {
			c.Name = v["name"]
			c.Issuer = v["issuer"]
			c.IssueDate = trimmed(v, "issue_date")
			c.ExpiryDate = trimmed(v, "expiry_date")
			c.DoesNotExpire = v["does_not_expire"] == toggleTrueValue
			c.CredentialURL = trimmed(v, "credential_url")
			return c
		},
		summary: func(c profile.Certification) string {
			return fmt.Sprintf("%s · %s", c.Name, c.Issuer)
		},
	}
}

var volunteerFields = []fieldSpec{
	{key: "organization", label: "Organization"},
	{key: "role", label: "Role"},
	{key: "start_date", label: "Start date", placeholder: "YYYY-MM"},
	{key: "end_date", label: "End date", placeholder: "YYYY-MM"},
	{key: "description", label: "Description"},
}

func volunteeringSection(eng *wizard.Engine) recordSection {
	return &listSection[profile.VolunteerRecord]{
		name:  "Volunteering",
		open:  eng.Volunteering,
		specs: volunteerFields,
		encode: func(v profile.VolunteerRecord) map[string]string {
			out := make(map[string]string, len(volunteerFields))
			for _, spec := range volunteerFields {
				out[spec.key] = v.String(spec.key)
			}
			return out
		},
		decode: func(v profile.VolunteerRecord, values map[string]string) profile.VolunteerRecord {
			v = v.Clone()
			if v.Fields == nil {
				v.Fields = map[string]any{}
			}
			for _, spec := range volunteerFields {
				value := strings.TrimSpace(values[spec.key])
				if value == "" {
					delete(v.Fields, spec.key)
					continue
				}
				v.Fields[spec.key] = value
			}
			return v
		},
		summary: func(v profile.VolunteerRecord) string {
			parts := []string{}
			for _, key := range []string{"role", "organization"} {
				if value := v.String(key); value != "" {
					parts = append(parts, value)
				}
			}
			if len(parts) == 0 {
				return "Volunteer entry"
			}
			return strings.Join(parts, " · ")
		},
	}
}
