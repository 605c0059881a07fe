// Package models defines the core data structures for form submissions and projects.
package models

import "time"

// Submission represents one user's multi-step form submission.
// Exactly one submission exists per owning user.
type Submission struct {
	// ID is the server-generated unique identifier for the submission.
	ID string `json:"id"`
	// UserID is the external auth subject owning the submission. Immutable once set.
	UserID string `json:"userId"`
	// Name is the submitter's full name.
	Name string `json:"name"`
	// Email is the submitter's email address.
	Email string `json:"email"`
	// AddressLine1 is the first address line.
	AddressLine1 string `json:"addressLine1"`
	// AddressLine2 is the optional second address line.
	AddressLine2 string `json:"addressLine2"`
	// City is the city of residence.
	City string `json:"city"`
	// State is the state of residence.
	State string `json:"state"`
	// Zipcode is a 5-digit or 5+4 zipcode.
	Zipcode string `json:"zipcode"`
	// IsStudying reports whether the submitter is currently enrolled.
	IsStudying bool `json:"isStudying"`
	// Institution is the school name. Always nil while IsStudying is false.
	Institution *string `json:"institution"`
	// CreatedAt is when the submission row was first created.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is bumped by every save and by finalize.
	UpdatedAt time.Time `json:"updatedAt"`
	// Projects is the submission's project list in saved order.
	// Omitted from responses that do not load it.
	Projects []Project `json:"projects,omitempty"`
}

// Project is a child of a Submission. The project list is only ever
// replaced wholesale; a single project is never updated in place.
type Project struct {
	// ID is the client-assigned opaque identifier for the project.
	ID string `json:"id"`
	// Name is the project name.
	Name string `json:"name"`
	// Description is the project description.
	Description string `json:"description"`
	// SubmissionID is the owning submission. Empty on the client before the first save.
	SubmissionID string `json:"submissionId,omitempty"`
}

// PersonalInfo is the optional personal field set accepted by the
// personal-info step. A nil field was absent from the request and is
// left untouched in storage.
type PersonalInfo struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	AddressLine1 *string `json:"addressLine1,omitempty"`
	AddressLine2 *string `json:"addressLine2,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	Zipcode      *string `json:"zipcode,omitempty"`
}

// FieldError describes a single field-level validation failure.
type FieldError struct {
	// Field names the offending field, e.g. "email" or "projects[1].name".
	Field string `json:"field"`
	// Message is a human-readable description of the failure.
	Message string `json:"message"`
}
