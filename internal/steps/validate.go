package steps

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kingrea/profile-wizard/internal/profile"
)

// messages are keyed by "<Struct>.<json field>.<tag>".
var messages = map[string]string{
	"BasicInfo.full_name.nonblank":        "Full name is required",
	"BasicInfo.date_of_birth.not_future":  "Birth date cannot be in the future",
	"BasicInfo.headline.max":              "Headline must be at most 120 characters",
	"BasicInfo.summary.max":               "Summary must be at most 500 characters",
	"Education.institution.nonblank":      "Institution name is required",
	"Education.start_date.nonblank":       "Start date is required",
	"Education.end_date.required":         "End date is required (or mark as current)",
	"Education.end_date.after_start":      "End date must be after start date",
	"Experience.company.nonblank":         "Company name is required",
	"Experience.role_title.nonblank":      "Job title is required",
	"Project.title.nonblank":              "Project title is required",
	"Project.description.nonblank":        "Project description is required",
	"Skill.name.nonblank":                 "Skill name is required",
	"Certification.name.nonblank":         "Certification name is required",
	"Certification.issuer.nonblank":       "Issuing organization is required",
	"Certification.credential_url.url":    "Credential URL must be a valid URL",
	"Experience.referral_email.email":     "Referral email must be a valid email address",
	"Project.referral_email.email":        "Referral email must be a valid email address",
	"Project.github_link.url":             "GitHub link must be a valid URL",
	"Project.live_link.url":               "Live link must be a valid URL",
	"Education.level.oneof":               "Choose a valid education level",
	"Skill.proficiency.min":               "Proficiency must be between 1 and 5",
	"Skill.proficiency.max":               "Proficiency must be between 1 and 5",
}

type recordValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

func newValidator(now func() time.Time) *recordValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	mustRegister(v, "nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "profiledate", func(fl validator.FieldLevel) bool {
		return profile.ValidDate(fl.Field().String())
	})
	rv := &recordValidator{validate: v, now: now}
	v.RegisterStructValidation(rv.basicInfoStructValidation, profile.BasicInfo{})
	v.RegisterStructValidation(educationStructValidation, profile.Education{})
	return rv
}

// mustRegister panics on a bad tag registration; the tags are fixed at build time.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("steps: register %q validation: %v", tag, err))
	}
}

func (rv *recordValidator) basicInfoStructValidation(sl validator.StructLevel) {
	info := sl.Current().Interface().(profile.BasicInfo)
	if info.DateOfBirth == "" {
		return
	}
	born, err := profile.ParseDate(info.DateOfBirth)
	if err != nil {
		return
	}
	if born.After(rv.now()) {
		sl.ReportError(info.DateOfBirth, "date_of_birth", "DateOfBirth", "not_future", "")
	}
}

func educationStructValidation(sl validator.StructLevel) {
	edu := sl.Current().Interface().(profile.Education)
	if edu.IsCurrent {
		return
	}
	if strings.TrimSpace(edu.EndDate) == "" {
		sl.ReportError(edu.EndDate, "end_date", "EndDate", "required", "")
		return
	}
	if profile.EndsBefore(edu.StartDate, edu.EndDate) {
		sl.ReportError(edu.EndDate, "end_date", "EndDate", "after_start", "")
	}
}

func (rv *recordValidator) check(record any) FieldErrors {
	err := rv.validate.Struct(record)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	key := fe.Namespace() + "." + fe.Tag()
	if msg, ok := messages[key]; ok {
		return msg
	}
	switch fe.Tag() {
	case "nonblank", "required":
		return "This field is required"
	case "profiledate":
		return "Use YYYY-MM or YYYY-MM-DD"
	case "email":
		return "Enter a valid email address"
	case "url":
		return "Enter a valid URL"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "oneof":
		return "Choose one of: " + fe.Param()
	default:
		return fmt.Sprintf("Invalid value (%s)", fe.Tag())
	}
}
