// Package service implements the submission lifecycle business logic,
// delegating persistence to a repository interface.
package service

import (
	"context"
	"errors"

	"github.com/mkrivosheev/formflow/internal/models"
	"github.com/mkrivosheev/formflow/internal/repository"
	"github.com/mkrivosheev/formflow/internal/validation"
)

// ErrUnauthorized is returned when a submission id cannot be resolved
// for the calling user. It covers both "not found" and "not yours" so
// the existence of other users' submissions never leaks.
var ErrUnauthorized = errors.New("unauthorized")

// FormRepository defines the persistence operations needed by the FormService.
type FormRepository interface {
	// FindByUser returns the submission owned by userID, or nil if none exists.
	FindByUser(ctx context.Context, userID string) (*models.Submission, error)
	// FindByIDAndUser returns the submission only when id is owned by userID, else nil.
	FindByIDAndUser(ctx context.Context, id, userID string) (*models.Submission, error)
	// Create inserts a fresh submission for userID with the given personal fields.
	Create(ctx context.Context, userID string, p models.PersonalInfo) (*models.Submission, error)
	// Update merges the given personal fields, bumps updated_at, returns the canonical row.
	Update(ctx context.Context, id string, p models.PersonalInfo) (*models.Submission, error)
	// UpdateEducation sets the education fields and returns the canonical row.
	UpdateEducation(ctx context.Context, id string, isStudying bool, institution *string) (*models.Submission, error)
	// ReplaceProjects atomically swaps the submission's project list.
	ReplaceProjects(ctx context.Context, submissionID string, projects []models.Project) error
	// ProjectsBySubmission fetches the submission's projects in saved order.
	ProjectsBySubmission(ctx context.Context, submissionID string) ([]models.Project, error)
	// Touch bumps updated_at and returns the canonical row.
	Touch(ctx context.Context, id string) (*models.Submission, error)
}

// FormService implements the five submission operations on top of a FormRepository.
type FormService struct {
	// repo is the underlying persistence repository.
	repo FormRepository
}

// NewFormService constructs a FormService with the provided FormRepository.
func NewFormService(repo FormRepository) *FormService {
	return &FormService{repo: repo}
}

// GetOrCreate returns the user's submission with its project list,
// creating an empty submission on first call. If two first calls race,
// the unique constraint on the owner makes the loser re-read the
// winner's row instead of creating a duplicate.
func (s *FormService) GetOrCreate(ctx context.Context, userID string) (*models.Submission, error) {
	sub, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		sub, err = s.repo.Create(ctx, userID, models.PersonalInfo{})
		if errors.Is(err, repository.ErrDuplicateUser) {
			sub, err = s.repo.FindByUser(ctx, userID)
		}
		if err != nil {
			return nil, err
		}
	}
	return s.withProjects(ctx, sub)
}

// SavePersonal validates and persists the personal-info step. With an
// id it updates the caller's existing submission; without one it
// creates a new submission owned by the caller. The returned row does
// not include the project list.
func (s *FormService) SavePersonal(ctx context.Context, id, userID string, p models.PersonalInfo) (*models.Submission, error) {
	if err := validation.Personal(p); err != nil {
		return nil, err
	}

	if id == "" {
		return s.repo.Create(ctx, userID, p)
	}

	if err := s.authorize(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

// SaveEducation validates and persists the education step. Whatever
// institution the client sent is discarded when isStudying is false,
// so a stale institution can never survive in storage.
func (s *FormService) SaveEducation(ctx context.Context, id, userID string, isStudying bool, institution *string) (*models.Submission, error) {
	if err := validation.Education(isStudying, institution); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, id, userID); err != nil {
		return nil, err
	}

	if !isStudying {
		institution = nil
	}
	return s.repo.UpdateEducation(ctx, id, isStudying, institution)
}

// SaveProjects validates the project list and replaces the stored list
// with it wholesale. The response carries the canonical row including
// the new list.
func (s *FormService) SaveProjects(ctx context.Context, id, userID string, projects []models.Project) (*models.Submission, error) {
	if err := validation.Projects(projects); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, id, userID); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceProjects(ctx, id, projects); err != nil {
		return nil, err
	}

	sub, err := s.repo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrUnauthorized
	}
	return s.withProjects(ctx, sub)
}

// Submit finalizes the submission. There is no dedicated submitted
// flag; finalization is the updated_at bump, and later re-saves of any
// step remain permitted.
func (s *FormService) Submit(ctx context.Context, id, userID string) (*models.Submission, error) {
	if err := s.authorize(ctx, id, userID); err != nil {
		return nil, err
	}

	sub, err := s.repo.Touch(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withProjects(ctx, sub)
}

func (s *FormService) authorize(ctx context.Context, id, userID string) error {
	sub, err := s.repo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrUnauthorized
	}
	return nil
}

func (s *FormService) withProjects(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	projects, err := s.repo.ProjectsBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []models.Project{}
	}
	sub.Projects = projects
	return sub, nil
}
