// Package repository provides persistence for form submissions
// using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mkrivosheev/formflow/internal/models"
)

// ErrDuplicateUser is returned by Create when a submission already
// exists for the user. Callers treat it as "re-fetch and use the
// existing row".
var ErrDuplicateUser = errors.New("submission already exists for user")

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

const submissionColumns = `id, user_id, name, email, address_line1, address_line2, city, state, zipcode, is_studying, institution, created_at, updated_at`

// PostgresFormRepository implements submission storage against a PostgreSQL database.
type PostgresFormRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresFormRepository creates a new PostgresFormRepository using the provided *sql.DB.
// db must be a valid connection to a PostgreSQL instance.
func NewPostgresFormRepository(db *sql.DB) *PostgresFormRepository {
	return &PostgresFormRepository{DB: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*models.Submission, error) {
	var (
		sub         models.Submission
		institution sql.NullString
	)
	err := row.Scan(
		&sub.ID, &sub.UserID,
		&sub.Name, &sub.Email,
		&sub.AddressLine1, &sub.AddressLine2,
		&sub.City, &sub.State, &sub.Zipcode,
		&sub.IsStudying, &institution,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if institution.Valid {
		sub.Institution = &institution.String
	}
	return &sub, nil
}

// FindByUser returns the submission owned by userID, or nil if none exists.
func (r *PostgresFormRepository) FindByUser(ctx context.Context, userID string) (*models.Submission, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+submissionColumns+` FROM submissions WHERE user_id = $1
	`, userID)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByUser: %w", err)
	}
	return sub, nil
}

// FindByIDAndUser is the authorization-scoped lookup: it returns nil
// both when id does not exist and when it exists under a different
// owner, so callers cannot tell the two cases apart.
func (r *PostgresFormRepository) FindByIDAndUser(ctx context.Context, id, userID string) (*models.Submission, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+submissionColumns+` FROM submissions WHERE id = $1 AND user_id = $2
	`, id, userID)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByIDAndUser: %w", err)
	}
	return sub, nil
}

// Create inserts a fresh submission for userID, generating its id and
// timestamps. Absent personal fields are stored as empty strings.
// Returns ErrDuplicateUser if the user already owns a submission.
func (r *PostgresFormRepository) Create(ctx context.Context, userID string, p models.PersonalInfo) (*models.Submission, error) {
	sub := &models.Submission{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         strOrEmpty(p.Name),
		Email:        strOrEmpty(p.Email),
		AddressLine1: strOrEmpty(p.AddressLine1),
		AddressLine2: strOrEmpty(p.AddressLine2),
		City:         strOrEmpty(p.City),
		State:        strOrEmpty(p.State),
		Zipcode:      strOrEmpty(p.Zipcode),
	}

	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO submissions (id, user_id, name, email, address_line1, address_line2, city, state, zipcode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, sub.ID, sub.UserID, sub.Name, sub.Email, sub.AddressLine1, sub.AddressLine2, sub.City, sub.State, sub.Zipcode).
		Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("Create: %w", err)
	}
	return sub, nil
}

// Update merges the given personal fields into the submission row,
// bumps updated_at, and returns the canonical row. Nil fields are left
// untouched in storage.
func (r *PostgresFormRepository) Update(ctx context.Context, id string, p models.PersonalInfo) (*models.Submission, error) {
	set := make([]string, 0, 8)
	args := make([]any, 0, 8)
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", p.Name)
	add("email", p.Email)
	add("address_line1", p.AddressLine1)
	add("address_line2", p.AddressLine2)
	add("city", p.City)
	add("state", p.State)
	add("zipcode", p.Zipcode)
	set = append(set, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE submissions SET %s WHERE id = $%d
		RETURNING `+submissionColumns,
		strings.Join(set, ", "), len(args))

	sub, err := scanSubmission(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return sub, nil
}

// UpdateEducation sets the education fields, bumps updated_at, and
// returns the canonical row. institution must already be normalized to
// nil when isStudying is false.
func (r *PostgresFormRepository) UpdateEducation(ctx context.Context, id string, isStudying bool, institution *string) (*models.Submission, error) {
	var inst sql.NullString
	if institution != nil {
		inst = sql.NullString{String: *institution, Valid: true}
	}
	row := r.DB.QueryRowContext(ctx, `
		UPDATE submissions SET is_studying = $1, institution = $2, updated_at = now() WHERE id = $3
		RETURNING `+submissionColumns,
		isStudying, inst, id)
	sub, err := scanSubmission(row)
	if err != nil {
		return nil, fmt.Errorf("UpdateEducation: %w", err)
	}
	return sub, nil
}

// ReplaceProjects atomically swaps the submission's project list for
// projects and bumps updated_at. The delete and inserts run in one
// transaction so a concurrent reader never observes a partial list.
func (r *PostgresFormRepository) ReplaceProjects(ctx context.Context, submissionID string, projects []models.Project) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM projects WHERE submission_id = $1
	`, submissionID); err != nil {
		return fmt.Errorf("delete projects: %w", err)
	}

	for i, p := range projects {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projects (submission_id, id, name, description, position)
			VALUES ($1, $2, $3, $4, $5)
		`, submissionID, p.ID, p.Name, p.Description, i); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE submissions SET updated_at = now() WHERE id = $1
	`, submissionID); err != nil {
		return fmt.Errorf("touch submission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ProjectsBySubmission fetches the submission's projects in saved order.
func (r *PostgresFormRepository) ProjectsBySubmission(ctx context.Context, submissionID string) ([]models.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, description, submission_id FROM projects WHERE submission_id = $1 ORDER BY position
	`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("ProjectsBySubmission: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.SubmissionID); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ProjectsBySubmission: %w", err)
	}
	return projects, nil
}

// Touch bumps updated_at and returns the canonical row. Finalizing a
// submission is represented only by this timestamp.
func (r *PostgresFormRepository) Touch(ctx context.Context, id string) (*models.Submission, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE submissions SET updated_at = now() WHERE id = $1
		RETURNING `+submissionColumns, id)
	sub, err := scanSubmission(row)
	if err != nil {
		return nil, fmt.Errorf("Touch: %w", err)
	}
	return sub, nil
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
