package profileapi

import (
	"html"

	"github.com/microcosm-cc/bluemonday"

	"github.com/kingrea/profile-wizard/internal/profile"
)

// sanitizer strips markup from free-text fields before they are stored.
type sanitizer struct {
	policy *bluemonday.Policy
}

func newSanitizer() *sanitizer {
	return &sanitizer{policy: bluemonday.StrictPolicy()}
}

// text removes tags. StrictPolicy escapes what it keeps, so entities are
// decoded back to plain text.
func (s *sanitizer) text(value string) string {
	if value == "" {
		return value
	}
	return html.UnescapeString(s.policy.Sanitize(value))
}

func (s *sanitizer) draft(d profile.Draft) profile.Draft {
	out := d.Clone()
	b := &out.BasicInfo
	b.FullName = s.text(b.FullName)
	b.Location = s.text(b.Location)
	b.Headline = s.text(b.Headline)
	b.Summary = s.text(b.Summary)
	for i := range out.Educations {
		e := &out.Educations[i]
		e.Institution = s.text(e.Institution)
		e.FieldOfStudy = s.text(e.FieldOfStudy)
		e.Grade = s.text(e.Grade)
		e.Description = s.text(e.Description)
		for j := range e.Skills {
			e.Skills[j] = s.text(e.Skills[j])
		}
	}
	for i := range out.Experiences {
		e := &out.Experiences[i]
		e.Company = s.text(e.Company)
		e.RoleTitle = s.text(e.RoleTitle)
		e.Description = s.text(e.Description)
		e.ReferralName = s.text(e.ReferralName)
	}
	for i := range out.Projects {
		p := &out.Projects[i]
		p.Title = s.text(p.Title)
		p.Description = s.text(p.Description)
		p.Technologies = s.text(p.Technologies)
		p.Tools = s.text(p.Tools)
		p.Contribution = s.text(p.Contribution)
		p.ReferralName = s.text(p.ReferralName)
	}
	for i := range out.Skills {
		out.Skills[i].Name = s.text(out.Skills[i].Name)
	}
	for i := range out.Certifications {
		c := &out.Certifications[i]
		c.Name = s.text(c.Name)
		c.Issuer = s.text(c.Issuer)
	}
	for i := range out.Volunteering {
		for key, value := range out.Volunteering[i].Fields {
			if str, ok := value.(string); ok {
				out.Volunteering[i].Fields[key] = s.text(str)
			}
		}
	}
	return out
}
