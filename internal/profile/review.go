package profile

// SectionStatus summarises one section for the review step.
type SectionStatus struct {
	Section  Section
	Step     Step
	Count    int
	Complete bool
}

// Review returns the per-section completeness summary in payload order.
// Certifications and volunteering are optional and always count as complete.
func Review(d Draft) []SectionStatus {
	statuses := make([]SectionStatus, 0, len(Sections))
	for _, section := range Sections {
		status := SectionStatus{Section: section, Step: section.Step()}
		switch section {
		case SectionBasicInfo:
			status.Complete = d.BasicInfo.HasFullName()
			if status.Complete {
				status.Count = 1
			}
		case SectionEducations:
			status.Count = len(d.Educations)
			status.Complete = status.Count > 0
		case SectionExperiences:
			status.Count = len(d.Experiences)
			status.Complete = status.Count > 0
		case SectionProjects:
			status.Count = len(d.Projects)
			status.Complete = status.Count > 0
		case SectionSkills:
			status.Count = len(d.Skills)
			status.Complete = status.Count > 0
		case SectionCertifications:
			status.Count = len(d.Certifications)
			status.Complete = true
		case SectionVolunteering:
			status.Count = len(d.Volunteering)
			status.Complete = true
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// ProfileComplete reports whether basic info, education, experience, projects
// and skills are all complete.
func ProfileComplete(d Draft) bool {
	_, ok := FirstIncomplete(d)
	return !ok
}

// FirstIncomplete returns the earliest required section that is not complete.
func FirstIncomplete(d Draft) (SectionStatus, bool) {
	for _, status := range Review(d) {
		if !status.Complete {
			return status, true
		}
	}
	return SectionStatus{}, false
}
