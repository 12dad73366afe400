package profile

import "strings"

// Record is implemented by every list-section record. WithID returns a copy
// carrying the given id.
type Record[T any] interface {
	RecordID() string
	WithID(id string) T
}

// EducationLevel enumerates the supported qualification levels.
type EducationLevel string

const (
	LevelPrimary   EducationLevel = "primary"
	LevelSecondary EducationLevel = "secondary"
	LevelDiploma   EducationLevel = "diploma"
	LevelDegree    EducationLevel = "degree"
	LevelPostgrad  EducationLevel = "postgrad"
	LevelOther     EducationLevel = "other"
)

// EducationLevels lists the levels in display order.
var EducationLevels = []EducationLevel{LevelPrimary, LevelSecondary, LevelDiploma, LevelDegree, LevelPostgrad, LevelOther}

// Education is a single education entry.
type Education struct {
	ID           string         `json:"id"`
	Institution  string         `json:"institution" validate:"nonblank"`
	Level        EducationLevel `json:"level" validate:"omitempty,oneof=primary secondary diploma degree postgrad other"`
	FieldOfStudy string         `json:"field_of_study,omitempty"`
	StartDate    string         `json:"start_date" validate:"nonblank,profiledate"`
	EndDate      string         `json:"end_date,omitempty" validate:"omitempty,profiledate"`
	IsCurrent    bool           `json:"is_current"`
	Grade        string         `json:"grade,omitempty"`
	Description  string         `json:"description,omitempty"`
	Skills       []string       `json:"skills,omitempty"`
}

func (e Education) RecordID() string { return e.ID }

func (e Education) WithID(id string) Education {
	e.ID = id
	return e
}

// Normalized applies the default level and clears the end date of a current entry.
func (e Education) Normalized() Education {
	if e.Level == "" {
		e.Level = LevelDegree
	}
	if e.IsCurrent {
		e.EndDate = ""
	}
	return e
}

// Experience is a single work experience entry.
type Experience struct {
	ID            string `json:"id"`
	Company       string `json:"company" validate:"nonblank"`
	RoleTitle     string `json:"role_title" validate:"nonblank"`
	StartDate     string `json:"start_date,omitempty" validate:"omitempty,profiledate"`
	EndDate       string `json:"end_date,omitempty" validate:"omitempty,profiledate"`
	IsCurrent     bool   `json:"is_current"`
	Description   string `json:"description,omitempty"`
	ReferralName  string `json:"referral_name,omitempty"`
	ReferralEmail string `json:"referral_email,omitempty" validate:"omitempty,email"`
}

func (e Experience) RecordID() string { return e.ID }

func (e Experience) WithID(id string) Experience {
	e.ID = id
	return e
}

// Normalized clears the end date of a current role.
func (e Experience) Normalized() Experience {
	if e.IsCurrent {
		e.EndDate = ""
	}
	return e
}

// Project is a single portfolio project.
type Project struct {
	ID            string `json:"id"`
	Title         string `json:"title" validate:"nonblank"`
	Description   string `json:"description" validate:"nonblank"`
	Technologies  string `json:"technologies,omitempty"`
	Tools         string `json:"tools,omitempty"`
	StartDate     string `json:"start_date,omitempty" validate:"omitempty,profiledate"`
	EndDate       string `json:"end_date,omitempty" validate:"omitempty,profiledate"`
	GithubLink    string `json:"github_link,omitempty" validate:"omitempty,url"`
	LiveLink      string `json:"live_link,omitempty" validate:"omitempty,url"`
	Contribution  string `json:"contribution,omitempty"`
	ReferralName  string `json:"referral_name,omitempty"`
	ReferralEmail string `json:"referral_email,omitempty" validate:"omitempty,email"`
}

func (p Project) RecordID() string { return p.ID }

func (p Project) WithID(id string) Project {
	p.ID = id
	return p
}

// Proficiency bounds and default.
const (
	MinProficiency     = 1
	MaxProficiency     = 5
	DefaultProficiency = 3
)

var proficiencyLabels = map[int]string{
	1: "Beginner",
	2: "Basic",
	3: "Intermediate",
	4: "Advanced",
	5: "Expert",
}

// ProficiencyLabel returns the display label for a proficiency level.
func ProficiencyLabel(level int) string {
	if label, ok := proficiencyLabels[level]; ok {
		return label
	}
	return "Unknown"
}

// Skill is a named skill with a 1..5 proficiency.
type Skill struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"nonblank"`
	Proficiency int    `json:"proficiency" validate:"min=1,max=5"`
}

func (s Skill) RecordID() string { return s.ID }

func (s Skill) WithID(id string) Skill {
	s.ID = id
	return s
}

// Normalized trims the name and applies the default proficiency.
func (s Skill) Normalized() Skill {
	s.Name = strings.TrimSpace(s.Name)
	if s.Proficiency == 0 {
		s.Proficiency = DefaultProficiency
	}
	return s
}

// SameName reports whether two skill names match case-insensitively.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// UniqueSkills drops later skills whose name repeats an earlier one.
func UniqueSkills(skills []Skill) []Skill {
	if skills == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(skills))
	out := make([]Skill, 0, len(skills))
	for _, skill := range skills {
		key := strings.ToLower(strings.TrimSpace(skill.Name))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}

// Certification is a single certification entry.
type Certification struct {
	ID            string `json:"id"`
	Name          string `json:"name" validate:"nonblank"`
	Issuer        string `json:"issuer" validate:"nonblank"`
	IssueDate     string `json:"issue_date,omitempty" validate:"omitempty,profiledate"`
	ExpiryDate    string `json:"expiry_date,omitempty" validate:"omitempty,profiledate"`
	CredentialURL string `json:"credential_url,omitempty" validate:"omitempty,url"`
	DoesNotExpire bool   `json:"does_not_expire"`
}

func (c Certification) RecordID() string { return c.ID }

func (c Certification) WithID(id string) Certification {
	c.ID = id
	return c
}

// Normalized clears the expiry date of a non-expiring certification.
func (c Certification) Normalized() Certification {
	if c.DoesNotExpire {
		c.ExpiryDate = ""
	}
	return c
}
