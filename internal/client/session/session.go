// Package session holds the client-side working copy of a form
// submission for the duration of the wizard. The copy is hydrated once
// from the server; project list edits stay local until the projects
// step is saved, at which point the entire local list replaces the
// server's.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkrivosheev/formflow/internal/models"
	"github.com/mkrivosheev/formflow/internal/validation"
)

// defaultTimeout bounds every request; a save that exceeds it surfaces
// as a plain failure for the current step.
const defaultTimeout = 5 * time.Second

// FormData is the client's working copy of all wizard fields.
type FormData struct {
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	AddressLine1 string           `json:"addressLine1"`
	AddressLine2 string           `json:"addressLine2"`
	City         string           `json:"city"`
	State        string           `json:"state"`
	Zipcode      string           `json:"zipcode"`
	IsStudying   bool             `json:"isStudying"`
	Institution  string           `json:"institution"`
	Projects     []models.Project `json:"projects"`
}

// PersonalForm is the full personal field set gathered by the first step.
type PersonalForm struct {
	Name         string
	Email        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Zipcode      string
}

// Session is the working state of one wizard run for one user.
// Saves are issued strictly sequentially by the owning step, but the
// mutex keeps concurrent readers (progress display etc.) safe.
type Session struct {
	mu      sync.Mutex
	client  *http.Client
	baseURL string
	userID  string

	submissionID string
	loading      bool
	data         FormData
}

// New creates a session for userID against the server at baseURL.
func New(baseURL, userID string) *Session {
	return &Session{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: baseURL,
		userID:  userID,
	}
}

// Data returns a copy of the current working state.
func (s *Session) Data() FormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.data
	cp.Projects = append([]models.Project{}, s.data.Projects...)
	return cp
}

// SubmissionID returns the server-confirmed submission id, or "" before hydration.
func (s *Session) SubmissionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submissionID
}

// Loading reports whether the initial hydrate call is still in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Hydrate loads the user's submission from the server, creating an
// empty one server-side on the first run. It is called once at the
// start of the wizard; the steps reuse the loaded state without
// re-fetching.
func (s *Session) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	u := s.baseURL + "/api/form?userId=" + url.QueryEscape(s.userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch form data: %w", err)
	}
	defer resp.Body.Close()

	sub, err := decodeSubmission(resp)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissionID = sub.ID
	s.merge(sub)
	return nil
}

// SavePersonal validates the personal step locally, sends it to the
// server, and on success merges the canonical row into the session.
// On any failure the local state is left untouched.
func (s *Session) SavePersonal(ctx context.Context, form PersonalForm) error {
	p := models.PersonalInfo{
		Name:         &form.Name,
		Email:        &form.Email,
		AddressLine1: &form.AddressLine1,
		AddressLine2: &form.AddressLine2,
		City:         &form.City,
		State:        &form.State,
		Zipcode:      &form.Zipcode,
	}
	if err := validation.Personal(p); err != nil {
		return err
	}

	payload := map[string]any{
		"id":           s.SubmissionID(),
		"userId":       s.userID,
		"name":         form.Name,
		"email":        form.Email,
		"addressLine1": form.AddressLine1,
		"addressLine2": form.AddressLine2,
		"city":         form.City,
		"state":        form.State,
		"zipcode":      form.Zipcode,
	}
	sub, err := s.post(ctx, "/api/form/personal", payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissionID = sub.ID
	s.merge(sub)
	return nil
}

// SaveEducation validates and saves the education step. When the user
// is not studying the institution is not sent at all; the server
// clears any stored value.
func (s *Session) SaveEducation(ctx context.Context, isStudying bool, institution string) error {
	var inst *string
	if isStudying {
		inst = &institution
	}
	if err := validation.Education(isStudying, inst); err != nil {
		return err
	}

	payload := map[string]any{
		"id":         s.SubmissionID(),
		"userId":     s.userID,
		"isStudying": isStudying,
	}
	if inst != nil {
		payload["institution"] = *inst
	}
	sub, err := s.post(ctx, "/api/form/education", payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissionID = sub.ID
	s.merge(sub)
	return nil
}

// AddProject appends a new empty project with a locally generated id
// and returns it. The server is not contacted: the project only
// reaches it with the next SaveProjects call.
func (s *Session) AddProject() models.Project {
	p := models.Project{ID: uuid.NewString()}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Projects = append(s.data.Projects, p)
	return p
}

// UpdateProject edits a local project's fields by id. Returns false if
// no local project has that id.
func (s *Session) UpdateProject(id, name, description string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Projects {
		if s.data.Projects[i].ID == id {
			s.data.Projects[i].Name = name
			s.data.Projects[i].Description = description
			return true
		}
	}
	return false
}

// RemoveProject drops a local project by id. A project added and
// removed between saves never reaches the server. Returns false if no
// local project has that id.
func (s *Session) RemoveProject(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.data.Projects {
		if p.ID == id {
			s.data.Projects = append(s.data.Projects[:i], s.data.Projects[i+1:]...)
			return true
		}
	}
	return false
}

// SaveProjects validates the current local project list and sends it
// to the server as the full replacement for the stored list.
func (s *Session) SaveProjects(ctx context.Context) error {
	projects := s.Data().Projects
	if err := validation.Projects(projects); err != nil {
		return err
	}

	payload := map[string]any{
		"id":       s.SubmissionID(),
		"userId":   s.userID,
		"projects": projects,
	}
	sub, err := s.post(ctx, "/api/form/projects", payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissionID = sub.ID
	s.merge(sub)
	return nil
}

// Submit finalizes the submission. Steps can still be re-saved afterwards.
func (s *Session) Submit(ctx context.Context) error {
	payload := map[string]any{
		"id":     s.SubmissionID(),
		"userId": s.userID,
	}
	sub, err := s.post(ctx, "/api/form/submit", payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.merge(sub)
	return nil
}

// merge shallow-merges a canonical server row into the working copy.
// The project list is only replaced when the response carries one.
// Callers must hold s.mu.
func (s *Session) merge(sub *models.Submission) {
	s.data.Name = sub.Name
	s.data.Email = sub.Email
	s.data.AddressLine1 = sub.AddressLine1
	s.data.AddressLine2 = sub.AddressLine2
	s.data.City = sub.City
	s.data.State = sub.State
	s.data.Zipcode = sub.Zipcode
	s.data.IsStudying = sub.IsStudying
	if sub.Institution != nil {
		s.data.Institution = *sub.Institution
	} else {
		s.data.Institution = ""
	}
	if sub.Projects != nil {
		s.data.Projects = sub.Projects
	}
}

func (s *Session) post(ctx context.Context, path string, payload any) (*models.Submission, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("save failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeSubmission(resp)
}

// decodeSubmission reads a server response, turning non-2xx statuses
// into errors carrying the server's message.
func decodeSubmission(resp *http.Response) (*models.Submission, error) {
	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error  string              `json:"error"`
			Errors []models.FieldError `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			if len(errBody.Errors) > 0 {
				return nil, &validation.Error{Fields: errBody.Errors}
			}
			if errBody.Error != "" {
				return nil, fmt.Errorf("server: %s (status %d)", errBody.Error, resp.StatusCode)
			}
		}
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var sub models.Submission
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &sub, nil
}
