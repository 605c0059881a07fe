// Package validation implements the field rules for the three wizard
// steps. The same rules run on the client before a save and on the
// server before persisting; the server run is the authoritative one.
package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/mkrivosheev/formflow/internal/models"
)

var (
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	zipcodeRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// Error carries the field-level failures of one validation run.
type Error struct {
	// Fields lists every failed field with its message.
	Fields []models.FieldError
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("validation failed on %d fields", len(e.Fields))
}

// wrap turns a failure list into an *Error, or nil when the list is empty.
func wrap(fields []models.FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &Error{Fields: fields}
}

// Personal checks the personal-info field set. Absent (nil) fields are
// skipped: the save contract is an optional field set where unspecified
// fields are left untouched in storage.
func Personal(p models.PersonalInfo) error {
	var fields []models.FieldError
	if p.Name != nil && utf8.RuneCountInString(*p.Name) < 2 {
		fields = append(fields, models.FieldError{Field: "name", Message: "Name must be at least 2 characters"})
	}
	if p.Email != nil && !emailRe.MatchString(*p.Email) {
		fields = append(fields, models.FieldError{Field: "email", Message: "Please enter a valid email address"})
	}
	if p.AddressLine1 != nil && utf8.RuneCountInString(*p.AddressLine1) < 5 {
		fields = append(fields, models.FieldError{Field: "addressLine1", Message: "Address must be at least 5 characters"})
	}
	if p.City != nil && utf8.RuneCountInString(*p.City) < 2 {
		fields = append(fields, models.FieldError{Field: "city", Message: "City must be at least 2 characters"})
	}
	if p.State != nil && utf8.RuneCountInString(*p.State) < 2 {
		fields = append(fields, models.FieldError{Field: "state", Message: "State must be at least 2 characters"})
	}
	if p.Zipcode != nil && !zipcodeRe.MatchString(*p.Zipcode) {
		fields = append(fields, models.FieldError{Field: "zipcode", Message: "Please enter a valid zipcode"})
	}
	return wrap(fields)
}

// Education checks the education step. Institution is required, and at
// least 2 characters, only while isStudying is true. A submitted
// institution alongside isStudying=false is not an error; the server
// discards it before persisting.
func Education(isStudying bool, institution *string) error {
	if !isStudying {
		return nil
	}
	if institution == nil || utf8.RuneCountInString(*institution) < 2 {
		return wrap([]models.FieldError{{
			Field:   "institution",
			Message: "Institution name must be at least 2 characters when currently studying",
		}})
	}
	return nil
}

// Projects checks the project list sent by the projects step.
func Projects(projects []models.Project) error {
	if len(projects) == 0 {
		return wrap([]models.FieldError{{Field: "projects", Message: "Please add at least one project"}})
	}
	var fields []models.FieldError
	for i, p := range projects {
		if p.ID == "" {
			fields = append(fields, models.FieldError{
				Field:   fmt.Sprintf("projects[%d].id", i),
				Message: "Project ID is required",
			})
		}
		if utf8.RuneCountInString(p.Name) < 2 {
			fields = append(fields, models.FieldError{
				Field:   fmt.Sprintf("projects[%d].name", i),
				Message: "Project name must be at least 2 characters",
			})
		}
		if utf8.RuneCountInString(p.Description) < 10 {
			fields = append(fields, models.FieldError{
				Field:   fmt.Sprintf("projects[%d].description", i),
				Message: "Description must be at least 10 characters",
			})
		}
	}
	return wrap(fields)
}
