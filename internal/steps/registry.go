// Package steps holds the per-section validators consulted by section editors
// and the wizard engine.
package steps

import (
	"fmt"
	"time"

	"github.com/kingrea/profile-wizard/internal/profile"
)

// GateKind describes how strictly a section is validated.
type GateKind string

const (
	// GateStructural enforces required fields and date ordering.
	GateStructural GateKind = "structural"
	// GateRequiredFields enforces presence of the section's key fields only.
	GateRequiredFields GateKind = "required_fields"
	// GatePassThrough accepts any record.
	GatePassThrough GateKind = "pass_through"
)

// RecordCheck validates one record of a section. The record is passed by value
// as the section's concrete type.
type RecordCheck func(record any) FieldErrors

// StepCheck runs when the user advances away from a step. A nil StepCheck
// lets the step advance unconditionally.
type StepCheck func(d profile.Draft) FieldErrors

// Gate is one registry entry.
type Gate struct {
	Section profile.Section
	Kind    GateKind
	Record  RecordCheck
	Step    StepCheck
}

// Registry maps sections to their gates.
type Registry struct {
	gates map[profile.Section]Gate
	clock func() time.Time
}

// Option customizes a registry.
type Option func(*Registry)

// WithClock injects the clock used for "not in the future" checks.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRegistry returns the default gates: education is structural, basic info,
// experience, projects, skills and certifications check required fields, and
// volunteering passes through. No section gates step advance.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{gates: make(map[profile.Section]Gate), clock: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	v := newValidator(r.now)
	r.Register(Gate{Section: profile.SectionBasicInfo, Kind: GateRequiredFields, Record: v.check})
	r.Register(Gate{Section: profile.SectionEducations, Kind: GateStructural, Record: v.check})
	r.Register(Gate{Section: profile.SectionExperiences, Kind: GateRequiredFields, Record: v.check})
	r.Register(Gate{Section: profile.SectionProjects, Kind: GateRequiredFields, Record: v.check})
	r.Register(Gate{Section: profile.SectionSkills, Kind: GateRequiredFields, Record: v.check})
	r.Register(Gate{Section: profile.SectionCertifications, Kind: GateRequiredFields, Record: v.check})
	r.Register(Gate{Section: profile.SectionVolunteering, Kind: GatePassThrough})
	return r
}

// Register adds or replaces the gate for its section.
func (r *Registry) Register(g Gate) {
	r.gates[g.Section] = g
}

// Gate returns the gate for a section, falling back to pass-through.
func (r *Registry) Gate(section profile.Section) Gate {
	if g, ok := r.gates[section]; ok {
		return g
	}
	return Gate{Section: section, Kind: GatePassThrough}
}

// CheckRecord validates a record against its section gate.
func (r *Registry) CheckRecord(section profile.Section, record any) FieldErrors {
	g := r.Gate(section)
	if g.Kind == GatePassThrough || g.Record == nil {
		return nil
	}
	return g.Record(record)
}

// CheckStep runs the step-advance check registered for the step's section.
func (r *Registry) CheckStep(step profile.Step, d profile.Draft) FieldErrors {
	g := r.Gate(step.Section())
	if g.Step == nil {
		return nil
	}
	return g.Step(d)
}

// CheckDraft validates every record in the draft and returns the errors keyed
// as "<section>[<index>].<field>". Used by the profile service on receipt.
func (r *Registry) CheckDraft(d profile.Draft) FieldErrors {
	out := FieldErrors{}
	merge := func(prefix string, fe FieldErrors) {
		for field, msg := range fe {
			out[prefix+"."+field] = msg
		}
	}
	merge(string(profile.SectionBasicInfo), r.CheckRecord(profile.SectionBasicInfo, d.BasicInfo))
	for i, rec := range d.Educations {
		merge(fmt.Sprintf("%s[%d]", profile.SectionEducations, i), r.CheckRecord(profile.SectionEducations, rec))
	}
	for i, rec := range d.Experiences {
		merge(fmt.Sprintf("%s[%d]", profile.SectionExperiences, i), r.CheckRecord(profile.SectionExperiences, rec))
	}
	for i, rec := range d.Projects {
		merge(fmt.Sprintf("%s[%d]", profile.SectionProjects, i), r.CheckRecord(profile.SectionProjects, rec))
	}
	for i, rec := range d.Skills {
		merge(fmt.Sprintf("%s[%d]", profile.SectionSkills, i), r.CheckRecord(profile.SectionSkills, rec))
	}
	for i, rec := range d.Certifications {
		merge(fmt.Sprintf("%s[%d]", profile.SectionCertifications, i), r.CheckRecord(profile.SectionCertifications, rec))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (r *Registry) now() time.Time {
	return r.clock()
}
