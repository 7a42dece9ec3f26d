package service

import (
	"testing"

	"casetrack/internal/model"
	"casetrack/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedbackFixture struct {
	cases    *CaseService
	feedback *FeedbackService
	reporter uuid.UUID
}

// completedCase drives a fresh case through assignment and completion so
// feedback tests start from the only state that accepts a rating.
func newFeedbackFixture(t *testing.T) (*feedbackFixture, string) {
	t.Helper()

	caseStore := repository.NewMemoryCaseStore()
	unitStore := repository.NewMemoryUnitStore()
	cases := NewCaseService(caseStore, unitStore)
	feedback := NewFeedbackService(repository.NewMemoryFeedbackStore(), caseStore)

	unit := seedUnit(t, unitStore, "Roads", true)
	reporterID := uuid.New()

	c, err := cases.Submit(&model.CreateCaseRequest{
		Description: "pothole on Main St",
		EventType:   "road",
	}, reporterID)
	require.NoError(t, err)

	adminActor := admin()
	_, err = cases.Transition(c.CaseRef, adminActor, &model.TransitionRequest{Event: model.EventAssign, UnitID: &unit.ID})
	require.NoError(t, err)
	_, err = cases.Transition(c.CaseRef, adminActor, &model.TransitionRequest{Event: model.EventComplete})
	require.NoError(t, err)

	return &feedbackFixture{cases: cases, feedback: feedback, reporter: reporterID}, c.CaseRef
}

func TestFeedbackSubmit(t *testing.T) {
	f, ref := newFeedbackFixture(t)

	fb, err := f.feedback.Submit(ref, citizen(f.reporter), &model.FeedbackRequest{Rating: 5, Comments: "fast fix"})
	require.NoError(t, err)
	assert.Equal(t, 5, fb.Rating)
	assert.Equal(t, "fast fix", fb.Comments)

	got, err := f.feedback.ForCase(ref)
	require.NoError(t, err)
	assert.Equal(t, fb.ID, got.ID)
}

func TestFeedbackOncePerCase(t *testing.T) {
	f, ref := newFeedbackFixture(t)

	_, err := f.feedback.Submit(ref, citizen(f.reporter), &model.FeedbackRequest{Rating: 5})
	require.NoError(t, err)

	_, err = f.feedback.Submit(ref, citizen(f.reporter), &model.FeedbackRequest{Rating: 3})
	assert.ErrorIs(t, err, model.ErrAlreadyRated)

	// The first rating stands.
	got, err := f.feedback.ForCase(ref)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Rating)
}

func TestFeedbackRatingRange(t *testing.T) {
	f, ref := newFeedbackFixture(t)

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := f.feedback.Submit(ref, citizen(f.reporter), &model.FeedbackRequest{Rating: rating})
		assert.ErrorIs(t, err, model.ErrRatingOutOfRange, "rating %d", rating)
	}
}

func TestFeedbackOnlyByReporter(t *testing.T) {
	f, ref := newFeedbackFixture(t)

	_, err := f.feedback.Submit(ref, citizen(uuid.New()), &model.FeedbackRequest{Rating: 4})
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestFeedbackRequiresCompletion(t *testing.T) {
	caseStore := repository.NewMemoryCaseStore()
	cases := NewCaseService(caseStore, repository.NewMemoryUnitStore())
	feedback := NewFeedbackService(repository.NewMemoryFeedbackStore(), caseStore)
	reporterID := uuid.New()

	c, err := cases.Submit(&model.CreateCaseRequest{
		Description: "pothole",
		EventType:   "road",
	}, reporterID)
	require.NoError(t, err)

	_, err = feedback.Submit(c.CaseRef, citizen(reporterID), &model.FeedbackRequest{Rating: 4})
	assert.ErrorIs(t, err, model.ErrCaseNotCompleted)
}

func TestFeedbackUnknownCase(t *testing.T) {
	f, _ := newFeedbackFixture(t)

	_, err := f.feedback.Submit("A20240101000000-dead", citizen(f.reporter), &model.FeedbackRequest{Rating: 4})
	assert.ErrorIs(t, err, model.ErrNotFound)
}
