package profile

import "fmt"

// Step identifies one wizard page, numbered from 1.
type Step int

const (
	StepBasicInfo Step = iota + 1
	StepEducation
	StepExperience
	StepProjects
	StepSkills
	StepCertifications
	StepReview
)

// StepCount is the total number of steps.
const StepCount = int(StepReview)

// Valid reports whether s is within [1, StepCount].
func (s Step) Valid() bool {
	return s >= StepBasicInfo && s <= StepReview
}

// Title returns the heading shown for the step.
func (s Step) Title() string {
	switch s {
	case StepBasicInfo:
		return "Basic Information"
	case StepEducation:
		return "Education"
	case StepExperience:
		return "Experience"
	case StepProjects:
		return "Projects"
	case StepSkills:
		return "Skills"
	case StepCertifications:
		return "Certifications"
	case StepReview:
		return "Review & Submit"
	default:
		return fmt.Sprintf("Step %d", int(s))
	}
}

// Section returns the draft section edited on the step. The review step owns
// the volunteering section.
func (s Step) Section() Section {
	switch s {
	case StepBasicInfo:
		return SectionBasicInfo
	case StepEducation:
		return SectionEducations
	case StepExperience:
		return SectionExperiences
	case StepProjects:
		return SectionProjects
	case StepSkills:
		return SectionSkills
	case StepCertifications:
		return SectionCertifications
	case StepReview:
		return SectionVolunteering
	default:
		return ""
	}
}

// Section names a top-level draft key.
type Section string

const (
	SectionBasicInfo      Section = "basic_info"
	SectionEducations     Section = "educations"
	SectionExperiences    Section = "experiences"
	SectionProjects       Section = "projects"
	SectionSkills         Section = "skills"
	SectionCertifications Section = "certifications"
	SectionVolunteering   Section = "volunteering"
)

// Sections lists every section in payload order.
var Sections = []Section{
	SectionBasicInfo,
	SectionEducations,
	SectionExperiences,
	SectionProjects,
	SectionSkills,
	SectionCertifications,
	SectionVolunteering,
}

// Step returns the wizard step that edits the section.
func (s Section) Step() Step {
	switch s {
	case SectionBasicInfo:
		return StepBasicInfo
	case SectionEducations:
		return StepEducation
	case SectionExperiences:
		return StepExperience
	case SectionProjects:
		return StepProjects
	case SectionSkills:
		return StepSkills
	case SectionCertifications:
		return StepCertifications
	case SectionVolunteering:
		return StepReview
	default:
		return 0
	}
}

// Title returns a display label.
func (s Section) Title() string {
	switch s {
	case SectionBasicInfo:
		return "Basic Information"
	case SectionEducations:
		return "Education"
	case SectionExperiences:
		return "Experience"
	case SectionProjects:
		return "Projects"
	case SectionSkills:
		return "Skills"
	case SectionCertifications:
		return "Certifications"
	case SectionVolunteering:
		return "Volunteering"
	default:
		return string(s)
	}
}
