package service

import (
	"time"

	"casetrack/internal/model"

	"github.com/google/uuid"
)

type FeedbackService struct {
	feedbackStore FeedbackStore
	caseStore     CaseStore
}

func NewFeedbackService(feedbackStore FeedbackStore, caseStore CaseStore) *FeedbackService {
	return &FeedbackService{
		feedbackStore: feedbackStore,
		caseStore:     caseStore,
	}
}

// Submit records a post-completion rating. One feedback per case, only by
// the reporter, only once the case is completed. The case itself is never
// touched.
func (s *FeedbackService) Submit(caseRef string, actor model.Identity, req *model.FeedbackRequest) (*model.Feedback, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, model.ErrRatingOutOfRange
	}

	c, err := s.caseStore.FindByRef(caseRef)
	if err != nil {
		return nil, err
	}
	if c.ReporterID != actor.UserID {
		return nil, model.ErrForbidden
	}
	if c.Status != model.StatusCompleted {
		return nil, model.ErrCaseNotCompleted
	}

	fb := &model.Feedback{
		ID:             uuid.New(),
		CaseID:         c.ID,
		Rating:         req.Rating,
		Comments:       req.Comments,
		SubmissionTime: time.Now(),
	}
	if err := s.feedbackStore.Create(fb); err != nil {
		return nil, err
	}
	return fb, nil
}

func (s *FeedbackService) ForCase(caseRef string) (*model.Feedback, error) {
	c, err := s.caseStore.FindByRef(caseRef)
	if err != nil {
		return nil, err
	}
	return s.feedbackStore.FindByCase(c.ID)
}
