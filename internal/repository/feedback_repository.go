package repository

import (
	"database/sql"

	"casetrack/internal/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts the feedback row. The one-feedback-per-case rule is a
// unique constraint on case_id, so a racing duplicate loses here rather
// than in application code.
func (r *FeedbackRepository) Create(fb *model.Feedback) error {
	query := `
		INSERT INTO feedback (id, case_id, rating, comments, submission_time)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(query, fb.ID, fb.CaseID, fb.Rating, fb.Comments, fb.SubmissionTime)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.ErrAlreadyRated
		}
		return err
	}
	return nil
}

func (r *FeedbackRepository) FindByCase(caseID uuid.UUID) (*model.Feedback, error) {
	query := `
		SELECT id, case_id, rating, comments, submission_time
		FROM feedback
		WHERE case_id = $1
	`
	fb := &model.Feedback{}
	err := r.db.QueryRow(query, caseID).Scan(&fb.ID, &fb.CaseID, &fb.Rating, &fb.Comments, &fb.SubmissionTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return fb, nil
}
