package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	handler "github.com/mkrivosheev/formflow/internal/server/handler/http"

	"github.com/mkrivosheev/formflow/internal/models"
	"github.com/mkrivosheev/formflow/internal/repository"
	"github.com/mkrivosheev/formflow/internal/service"
)

// memRepo is an in-memory service.FormRepository for wiring the real
// router, handler, and service together in one process.
type memRepo struct {
	mu       sync.Mutex
	subs     map[string]*models.Submission
	projects map[string][]models.Project
}

func newMemRepo() *memRepo {
	return &memRepo{
		subs:     make(map[string]*models.Submission),
		projects: make(map[string][]models.Project),
	}
}

func (m *memRepo) clone(sub *models.Submission) *models.Submission {
	cp := *sub
	cp.Projects = nil
	return &cp
}

func (m *memRepo) FindByUser(_ context.Context, userID string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		if sub.UserID == userID {
			return m.clone(sub), nil
		}
	}
	return nil, nil
}

func (m *memRepo) FindByIDAndUser(_ context.Context, id, userID string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subs[id]; ok && sub.UserID == userID {
		return m.clone(sub), nil
	}
	return nil, nil
}

func (m *memRepo) Create(_ context.Context, userID string, p models.PersonalInfo) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		if sub.UserID == userID {
			return nil, repository.ErrDuplicateUser
		}
	}
	get := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}
	now := time.Now()
	sub := &models.Submission{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         get(p.Name),
		Email:        get(p.Email),
		AddressLine1: get(p.AddressLine1),
		AddressLine2: get(p.AddressLine2),
		City:         get(p.City),
		State:        get(p.State),
		Zipcode:      get(p.Zipcode),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.subs[sub.ID] = sub
	return m.clone(sub), nil
}

func (m *memRepo) Update(_ context.Context, id string, p models.PersonalInfo) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := m.subs[id]
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&sub.Name, p.Name)
	set(&sub.Email, p.Email)
	set(&sub.AddressLine1, p.AddressLine1)
	set(&sub.AddressLine2, p.AddressLine2)
	set(&sub.City, p.City)
	set(&sub.State, p.State)
	set(&sub.Zipcode, p.Zipcode)
	sub.UpdatedAt = time.Now()
	return m.clone(sub), nil
}

func (m *memRepo) UpdateEducation(_ context.Context, id string, isStudying bool, institution *string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := m.subs[id]
	sub.IsStudying = isStudying
	sub.Institution = institution
	sub.UpdatedAt = time.Now()
	return m.clone(sub), nil
}

func (m *memRepo) ReplaceProjects(_ context.Context, submissionID string, projects []models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	replaced := make([]models.Project, len(projects))
	for i, p := range projects {
		p.SubmissionID = submissionID
		replaced[i] = p
	}
	m.projects[submissionID] = replaced
	m.subs[submissionID].UpdatedAt = time.Now()
	return nil
}

func (m *memRepo) ProjectsBySubmission(_ context.Context, submissionID string) ([]models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Project{}, m.projects[submissionID]...), nil
}

func (m *memRepo) Touch(_ context.Context, id string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := m.subs[id]
	sub.UpdatedAt = time.Now()
	return m.clone(sub), nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.NewFormService(newMemRepo())
	h := &handler.FormHandler{FormService: svc, Log: zap.NewNop()}
	srv := httptest.NewServer(handler.NewRouter(h, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func getForm(t *testing.T, baseURL, userID string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(baseURL + "/api/form?userId=" + userID)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestWizard_EndToEnd(t *testing.T) {
	srv := newTestServer(t)

	// New user fetches an empty submission.
	resp, body := getForm(t, srv.URL, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	subID, _ := body["id"].(string)
	require.NotEmpty(t, subID)
	assert.Equal(t, "", body["name"])
	assert.Equal(t, false, body["isStudying"])
	assert.Nil(t, body["institution"])

	// Step 1: personal info.
	resp, body = postJSON(t, srv.URL+"/api/form/personal", map[string]any{
		"id": subID, "userId": "user-1",
		"name": "Jo Lee", "email": "jo@x.com", "addressLine1": "1 Main St",
		"city": "NYC", "state": "NY", "zipcode": "10001",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, subID, body["id"])
	assert.Equal(t, "Jo Lee", body["name"])

	// Step 2: education.
	resp, body = postJSON(t, srv.URL+"/api/form/education", map[string]any{
		"id": subID, "userId": "user-1", "isStudying": true, "institution": "MIT",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MIT", body["institution"])

	// Step 3: projects.
	resp, body = postJSON(t, srv.URL+"/api/form/projects", map[string]any{
		"id": subID, "userId": "user-1",
		"projects": []map[string]string{
			{"id": "p1", "name": "App", "description": "A mobile app for tracking tasks."},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	projects, _ := body["projects"].([]any)
	require.Len(t, projects, 1)

	// Finalize.
	resp, _ = postJSON(t, srv.URL+"/api/form/submit", map[string]any{
		"id": subID, "userId": "user-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Final fetch returns every field plus the project.
	resp, body = getForm(t, srv.URL, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, subID, body["id"])
	assert.Equal(t, "Jo Lee", body["name"])
	assert.Equal(t, "jo@x.com", body["email"])
	assert.Equal(t, "10001", body["zipcode"])
	assert.Equal(t, true, body["isStudying"])
	assert.Equal(t, "MIT", body["institution"])
	projects, _ = body["projects"].([]any)
	require.Len(t, projects, 1)
	first := projects[0].(map[string]any)
	assert.Equal(t, "p1", first["id"])
}

func TestWizard_FetchIsIdempotent(t *testing.T) {
	srv := newTestServer(t)

	_, first := getForm(t, srv.URL, "user-1")
	_, second := getForm(t, srv.URL, "user-1")
	require.NotEmpty(t, first["id"])
	assert.Equal(t, first["id"], second["id"])
}

func TestWizard_SecondSaveReplacesProjectList(t *testing.T) {
	srv := newTestServer(t)

	_, body := getForm(t, srv.URL, "user-1")
	subID := body["id"].(string)

	_, _ = postJSON(t, srv.URL+"/api/form/projects", map[string]any{
		"id": subID, "userId": "user-1",
		"projects": []map[string]string{
			{"id": "p1", "name": "App", "description": "A mobile app for tracking tasks."},
			{"id": "p2", "name": "Site", "description": "A personal portfolio website."},
		},
	})

	// Saving L2 leaves no residue from L1.
	resp, body := postJSON(t, srv.URL+"/api/form/projects", map[string]any{
		"id": subID, "userId": "user-1",
		"projects": []map[string]string{
			{"id": "p3", "name": "Bot", "description": "A chat bot answering questions."},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	projects, _ := body["projects"].([]any)
	require.Len(t, projects, 1)
	assert.Equal(t, "p3", projects[0].(map[string]any)["id"])
}

func TestWizard_CrossUserAccessDenied(t *testing.T) {
	srv := newTestServer(t)

	_, body := getForm(t, srv.URL, "owner")
	subID := body["id"].(string)

	endpoints := []struct {
		path    string
		payload map[string]any
	}{
		{"/api/form/personal", map[string]any{"id": subID, "userId": "intruder", "name": "Ha Ck"}},
		{"/api/form/education", map[string]any{"id": subID, "userId": "intruder", "isStudying": false}},
		{"/api/form/projects", map[string]any{"id": subID, "userId": "intruder", "projects": []map[string]string{
			{"id": "x", "name": "Evil", "description": "an injected project entry"},
		}}},
		{"/api/form/submit", map[string]any{"id": subID, "userId": "intruder"}},
	}
	for _, ep := range endpoints {
		resp, errBody := postJSON(t, srv.URL+ep.path, ep.payload)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, ep.path)
		assert.Equal(t, "Unauthorized", errBody["error"], ep.path)
	}

	// The owner's row is untouched.
	_, after := getForm(t, srv.URL, "owner")
	assert.Equal(t, "", after["name"])
	assert.Nil(t, after["projects"])
}

func TestWizard_EducationClearsStaleInstitution(t *testing.T) {
	srv := newTestServer(t)

	_, body := getForm(t, srv.URL, "user-1")
	subID := body["id"].(string)

	_, _ = postJSON(t, srv.URL+"/api/form/education", map[string]any{
		"id": subID, "userId": "user-1", "isStudying": true, "institution": "MIT",
	})

	// Flipping isStudying off clears institution no matter what is sent.
	resp, body := postJSON(t, srv.URL+"/api/form/education", map[string]any{
		"id": subID, "userId": "user-1", "isStudying": false, "institution": "MIT",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, body["institution"])

	_, after := getForm(t, srv.URL, "user-1")
	assert.Nil(t, after["institution"])
}

func TestWizard_RejectsNonJSONContentType(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/form/submit", "text/plain", bytes.NewBufferString("id=1"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}
