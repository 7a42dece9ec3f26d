package service

import (
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"casetrack/internal/model"
	"casetrack/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCaseService(t *testing.T) (*CaseService, *repository.MemoryCaseStore, *repository.MemoryUnitStore) {
	t.Helper()
	caseStore := repository.NewMemoryCaseStore()
	unitStore := repository.NewMemoryUnitStore()
	return NewCaseService(caseStore, unitStore), caseStore, unitStore
}

func seedUnit(t *testing.T, store *repository.MemoryUnitStore, name string, active bool) *model.Unit {
	t.Helper()
	unit := &model.Unit{
		ID:        uuid.New(),
		Name:      name,
		IsActive:  active,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Create(unit))
	return unit
}

func citizen(id uuid.UUID) model.Identity {
	return model.Identity{UserID: id, Role: model.RoleCitizen}
}

func admin() model.Identity {
	return model.Identity{UserID: uuid.New(), Role: model.RoleAdmin}
}

func unitOperator(unitID uuid.UUID) model.Identity {
	return model.Identity{UserID: uuid.New(), Role: model.RoleUnit, UnitID: &unitID}
}

func strPtr(s string) *string { return &s }

func TestSubmitCreatesSubmittedCase(t *testing.T) {
	svc, caseStore, _ := newTestCaseService(t)
	reporterID := uuid.New()

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description:  "pothole on Main St",
		EventType:    "road",
		LocationText: strPtr("Main St & 5th Ave"),
	}, reporterID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusSubmitted, c.Status)
	assert.Equal(t, reporterID, c.ReporterID)
	assert.Regexp(t, regexp.MustCompile(`^A\d{14}-[0-9a-f]{4}$`), c.CaseRef)

	events := caseStore.StagedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.CaseEventSubmitted, events[0].Event)
	assert.Equal(t, c.CaseRef, events[0].CaseRef)
	assert.Equal(t, reporterID.String(), events[0].ReporterID)
}

func TestSubmitValidation(t *testing.T) {
	svc, caseStore, _ := newTestCaseService(t)

	tests := []struct {
		name string
		req  model.CreateCaseRequest
	}{
		{"empty description", model.CreateCaseRequest{Description: "  ", EventType: "road"}},
		{"empty event type", model.CreateCaseRequest{Description: "pothole", EventType: ""}},
		{"unsupported media", model.CreateCaseRequest{Description: "pothole", EventType: "road", MediaURLs: []string{"https://cdn.example.com/report.pdf"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(&tt.req, uuid.New())
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
	assert.Empty(t, caseStore.StagedEvents())
}

func TestSubmitInfersMediaKinds(t *testing.T) {
	svc, _, _ := newTestCaseService(t)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "flooded underpass",
		EventType:   "drainage",
		MediaURLs:   []string{"https://cdn.example.com/a.JPG", "https://cdn.example.com/b.mp4"},
	}, uuid.New())
	require.NoError(t, err)

	require.Len(t, c.Media, 2)
	assert.Equal(t, model.MediaImage, c.Media[0].Kind)
	assert.Equal(t, model.MediaVideo, c.Media[1].Kind)
}

func TestSubmitDraftStagesNoEvent(t *testing.T) {
	svc, caseStore, _ := newTestCaseService(t)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "broken street light",
		EventType:   "lighting",
		Draft:       true,
	}, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, model.StatusDraft, c.Status)
	assert.Empty(t, caseStore.StagedEvents())
}

func TestSubmitClientRefIsIdempotent(t *testing.T) {
	svc, caseStore, _ := newTestCaseService(t)
	reporterID := uuid.New()

	req := &model.CreateCaseRequest{
		Description: "overflowing bin",
		EventType:   "waste",
		ClientRef:   strPtr("req-7b1f"),
	}

	first, err := svc.Submit(req, reporterID)
	require.NoError(t, err)

	second, err := svc.Submit(req, reporterID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CaseRef, second.CaseRef)
	assert.Len(t, caseStore.StagedEvents(), 1)
}

func TestSubmitClientRefScopedToReporter(t *testing.T) {
	svc, caseStore, _ := newTestCaseService(t)
	reporterA := uuid.New()
	reporterB := uuid.New()

	req := func() *model.CreateCaseRequest {
		return &model.CreateCaseRequest{
			Description: "overflowing bin",
			EventType:   "waste",
			ClientRef:   strPtr("shared-key"),
		}
	}

	caseA, err := svc.Submit(req(), reporterA)
	require.NoError(t, err)

	// The same dedupe key from a different citizen files a new case; it
	// must never hand back someone else's report.
	caseB, err := svc.Submit(req(), reporterB)
	require.NoError(t, err)
	assert.NotEqual(t, caseA.ID, caseB.ID)
	assert.Equal(t, reporterB, caseB.ReporterID)

	// Retries still dedupe within each reporter.
	retryA, err := svc.Submit(req(), reporterA)
	require.NoError(t, err)
	assert.Equal(t, caseA.ID, retryA.ID)

	assert.Len(t, caseStore.StagedEvents(), 2)
}

func TestLifecycleHappyPath(t *testing.T) {
	svc, caseStore, unitStore := newTestCaseService(t)
	reporterID := uuid.New()
	roadCrew := seedUnit(t, unitStore, "Road Maintenance", true)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "pothole on Main St",
		EventType:   "road",
	}, reporterID)
	require.NoError(t, err)

	adminActor := admin()

	c, err = svc.Transition(c.CaseRef, adminActor, &model.TransitionRequest{Event: model.EventAccept})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, c.Status)

	c, err = svc.Transition(c.CaseRef, adminActor, &model.TransitionRequest{
		Event:  model.EventAssign,
		UnitID: &roadCrew.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, c.Status)
	require.NotNil(t, c.AssignedUnitID)
	assert.Equal(t, roadCrew.ID, *c.AssignedUnitID)

	operator := unitOperator(roadCrew.ID)
	c, err = svc.Transition(c.CaseRef, operator, &model.TransitionRequest{Event: model.EventComplete})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, c.Status)

	events := caseStore.StagedEvents()
	require.Len(t, events, 3)
	assert.Equal(t, model.CaseEventSubmitted, events[0].Event)
	assert.Equal(t, model.CaseEventAssigned, events[1].Event)
	assert.Equal(t, "Road Maintenance", events[1].UnitName)
	assert.Equal(t, model.CaseEventCompleted, events[2].Event)

	history, err := svc.Assignments(c.CaseRef)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, roadCrew.ID, history[0].UnitID)
}

func TestAssignStraightFromSubmitted(t *testing.T) {
	svc, _, unitStore := newTestCaseService(t)
	unit := seedUnit(t, unitStore, "Sanitation", true)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "illegal dumping",
		EventType:   "waste",
	}, uuid.New())
	require.NoError(t, err)

	c, err = svc.Transition(c.CaseRef, admin(), &model.TransitionRequest{
		Event:  model.EventAssign,
		UnitID: &unit.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, c.Status)
}

func TestTransitionForbidden(t *testing.T) {
	svc, _, unitStore := newTestCaseService(t)
	reporterID := uuid.New()
	unit := seedUnit(t, unitStore, "Parks", true)
	otherUnit := seedUnit(t, unitStore, "Roads", true)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "fallen tree",
		EventType:   "parks",
	}, reporterID)
	require.NoError(t, err)

	tests := []struct {
		name  string
		actor model.Identity
		req   model.TransitionRequest
	}{
		{"citizen accept", citizen(reporterID), model.TransitionRequest{Event: model.EventAccept}},
		{"citizen assign", citizen(reporterID), model.TransitionRequest{Event: model.EventAssign, UnitID: &unit.ID}},
		{"citizen complete", citizen(reporterID), model.TransitionRequest{Event: model.EventComplete}},
		{"citizen mark fake", citizen(reporterID), model.TransitionRequest{Event: model.EventMarkFake}},
		{"unit accept", unitOperator(unit.ID), model.TransitionRequest{Event: model.EventAccept}},
		{"unit mark fake", unitOperator(unit.ID), model.TransitionRequest{Event: model.EventMarkFake}},
		{"stranger cancel", citizen(uuid.New()), model.TransitionRequest{Event: model.EventCancel}},
		{"admin cancel", admin(), model.TransitionRequest{Event: model.EventCancel}},
		{"unit reassign unheld case", unitOperator(otherUnit.ID), model.TransitionRequest{Event: model.EventReassign, UnitID: &unit.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Transition(c.CaseRef, tt.actor, &tt.req)
			assert.ErrorIs(t, err, model.ErrForbidden)
		})
	}

	got, err := svc.Get(c.CaseRef)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, got.Status)
}

func TestForbiddenBeatsInvalidTransition(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	reporterID := uuid.New()

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "graffiti",
		EventType:   "vandalism",
		Draft:       true,
	}, reporterID)
	require.NoError(t, err)

	// Accept is neither allowed for this role nor valid from draft. The
	// role check wins.
	_, err = svc.Transition(c.CaseRef, citizen(reporterID), &model.TransitionRequest{Event: model.EventAccept})
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestTransitionInvalidFromStatus(t *testing.T) {
	svc, _, unitStore := newTestCaseService(t)
	reporterID := uuid.New()
	unit := seedUnit(t, unitStore, "Roads", true)
	adminActor := admin()

	submit := func(draft bool) string {
		c, err := svc.Submit(&model.CreateCaseRequest{
			Description: "pothole",
			EventType:   "road",
			Draft:       draft,
		}, reporterID)
		require.NoError(t, err)
		return c.CaseRef
	}

	t.Run("accept a draft", func(t *testing.T) {
		ref := submit(true)
		_, err := svc.Transition(ref, adminActor, &model.TransitionRequest{Event: model.EventAccept})
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	})

	t.Run("complete before assignment", func(t *testing.T) {
		ref := submit(false)
		_, err := svc.Transition(ref, adminActor, &model.TransitionRequest{Event: model.EventComplete})
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	})

	t.Run("submit twice", func(t *testing.T) {
		ref := submit(false)
		_, err := svc.Transition(ref, citizen(reporterID), &model.TransitionRequest{Event: model.EventSubmit})
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	})

	t.Run("assign a completed case", func(t *testing.T) {
		ref := submit(false)
		_, err := svc.Transition(ref, adminActor, &model.TransitionRequest{Event: model.EventAssign, UnitID: &unit.ID})
		require.NoError(t, err)
		_, err = svc.Transition(ref, adminActor, &model.TransitionRequest{Event: model.EventComplete})
		require.NoError(t, err)

		_, err = svc.Transition(ref, adminActor, &model.TransitionRequest{Event: model.EventAssign, UnitID: &unit.ID})
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	})

	t.Run("mark fake once in progress", func(t *testing.T) {
		ref := submit(false)
		_, err := svc.Transition(ref, adminActor, &model.TransitionRequest{Event: model.EventAssign, UnitID: &unit.ID})
		require.NoError(t, err)

		_, err = svc.Transition(ref, adminActor, &model.TransitionRequest{Event: model.EventMarkFake})
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	})
}

func TestTransitionUnknownEvent(t *testing.T) {
	svc, _, _ := newTestCaseService(t)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "pothole",
		EventType:   "road",
	}, uuid.New())
	require.NoError(t, err)

	_, err = svc.Transition(c.CaseRef, admin(), &model.TransitionRequest{Event: "escalate"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestTransitionUnknownCase(t *testing.T) {
	svc, caseStore, _ := newTestCaseService(t)

	_, err := svc.Transition("A20240101000000-dead", admin(), &model.TransitionRequest{Event: model.EventAccept})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, caseStore.StagedEvents())
}

func TestAssignValidatesUnit(t *testing.T) {
	svc, caseStore, unitStore := newTestCaseService(t)
	mothballed := seedUnit(t, unitStore, "Decommissioned Crew", false)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "collapsed fence",
		EventType:   "parks",
	}, uuid.New())
	require.NoError(t, err)
	staged := len(caseStore.StagedEvents())

	t.Run("missing unit id", func(t *testing.T) {
		_, err := svc.Transition(c.CaseRef, admin(), &model.TransitionRequest{Event: model.EventAssign})
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("unknown unit", func(t *testing.T) {
		ghost := uuid.New()
		_, err := svc.Transition(c.CaseRef, admin(), &model.TransitionRequest{Event: model.EventAssign, UnitID: &ghost})
		assert.ErrorIs(t, err, model.ErrUnknownUnit)
	})

	t.Run("inactive unit", func(t *testing.T) {
		_, err := svc.Transition(c.CaseRef, admin(), &model.TransitionRequest{Event: model.EventAssign, UnitID: &mothballed.ID})
		assert.ErrorIs(t, err, model.ErrUnitInactive)
	})

	got, err := svc.Get(c.CaseRef)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, got.Status)
	assert.Nil(t, got.AssignedUnitID)
	assert.Len(t, caseStore.StagedEvents(), staged)
}

func TestReassignByOwningUnit(t *testing.T) {
	svc, _, unitStore := newTestCaseService(t)
	roads := seedUnit(t, unitStore, "Roads", true)
	drainage := seedUnit(t, unitStore, "Drainage", true)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "sinkhole",
		EventType:   "road",
	}, uuid.New())
	require.NoError(t, err)

	c, err = svc.Transition(c.CaseRef, admin(), &model.TransitionRequest{Event: model.EventAssign, UnitID: &roads.ID})
	require.NoError(t, err)

	c, err = svc.Transition(c.CaseRef, unitOperator(roads.ID), &model.TransitionRequest{
		Event:  model.EventReassign,
		UnitID: &drainage.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, c.Status)
	assert.Equal(t, drainage.ID, *c.AssignedUnitID)

	history, err := svc.Assignments(c.CaseRef)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, roads.ID, history[0].UnitID)
	assert.Equal(t, drainage.ID, history[1].UnitID)
}

func TestReassignRequiresInProgress(t *testing.T) {
	svc, _, unitStore := newTestCaseService(t)
	unit := seedUnit(t, unitStore, "Roads", true)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "pothole",
		EventType:   "road",
	}, uuid.New())
	require.NoError(t, err)

	_, err = svc.Transition(c.CaseRef, admin(), &model.TransitionRequest{Event: model.EventReassign, UnitID: &unit.ID})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestCancelWithdrawsCase(t *testing.T) {
	svc, caseStore, _ := newTestCaseService(t)
	reporterID := uuid.New()

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "noise complaint",
		EventType:   "noise",
	}, reporterID)
	require.NoError(t, err)

	c, err = svc.Transition(c.CaseRef, citizen(reporterID), &model.TransitionRequest{Event: model.EventCancel})
	require.NoError(t, err)
	assert.Equal(t, model.StatusWithdrawn, c.Status)

	events := caseStore.StagedEvents()
	require.Len(t, events, 2)
	assert.Equal(t, model.CaseEventWithdrawn, events[1].Event)

	// Withdrawn is terminal.
	_, err = svc.Transition(c.CaseRef, admin(), &model.TransitionRequest{Event: model.EventAccept})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = svc.Transition(c.CaseRef, citizen(reporterID), &model.TransitionRequest{Event: model.EventSubmit})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = svc.Edit(c.CaseRef, citizen(reporterID), &model.UpdateCaseRequest{Description: strPtr("louder")})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestCancelBlockedAfterAssignment(t *testing.T) {
	svc, _, unitStore := newTestCaseService(t)
	reporterID := uuid.New()
	unit := seedUnit(t, unitStore, "Roads", true)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "pothole",
		EventType:   "road",
	}, reporterID)
	require.NoError(t, err)

	_, err = svc.Transition(c.CaseRef, admin(), &model.TransitionRequest{Event: model.EventAssign, UnitID: &unit.ID})
	require.NoError(t, err)

	_, err = svc.Transition(c.CaseRef, citizen(reporterID), &model.TransitionRequest{Event: model.EventCancel})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestDraftSubmitAndCancel(t *testing.T) {
	svc, caseStore, _ := newTestCaseService(t)
	reporterID := uuid.New()

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "cracked pavement",
		EventType:   "road",
		Draft:       true,
	}, reporterID)
	require.NoError(t, err)

	c, err = svc.Transition(c.CaseRef, citizen(reporterID), &model.TransitionRequest{Event: model.EventSubmit})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, c.Status)

	events := caseStore.StagedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.CaseEventSubmitted, events[0].Event)

	c, err = svc.Transition(c.CaseRef, citizen(reporterID), &model.TransitionRequest{Event: model.EventCancel})
	require.NoError(t, err)
	assert.Equal(t, model.StatusWithdrawn, c.Status)
}

func TestMarkFakeKeepsStatus(t *testing.T) {
	svc, caseStore, _ := newTestCaseService(t)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "dragon sighting",
		EventType:   "other",
	}, uuid.New())
	require.NoError(t, err)
	staged := len(caseStore.StagedEvents())

	c, err = svc.Transition(c.CaseRef, admin(), &model.TransitionRequest{Event: model.EventMarkFake})
	require.NoError(t, err)
	assert.True(t, c.IsFake)
	assert.Equal(t, model.StatusSubmitted, c.Status)
	assert.Len(t, caseStore.StagedEvents(), staged)
}

func TestEditRules(t *testing.T) {
	svc, _, unitStore := newTestCaseService(t)
	reporterID := uuid.New()
	unit := seedUnit(t, unitStore, "Roads", true)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "pothole",
		EventType:   "road",
	}, reporterID)
	require.NoError(t, err)

	updated, err := svc.Edit(c.CaseRef, citizen(reporterID), &model.UpdateCaseRequest{
		Description:  strPtr("deep pothole"),
		LocationText: strPtr("Main St, eastbound lane"),
	})
	require.NoError(t, err)
	assert.Equal(t, "deep pothole", updated.Description)

	_, err = svc.Edit(c.CaseRef, citizen(uuid.New()), &model.UpdateCaseRequest{Description: strPtr("hijacked")})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Transition(c.CaseRef, admin(), &model.TransitionRequest{Event: model.EventAssign, UnitID: &unit.ID})
	require.NoError(t, err)

	_, err = svc.Edit(c.CaseRef, citizen(reporterID), &model.UpdateCaseRequest{Description: strPtr("too late")})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

// interleavingCaseStore runs a hook once after the first successful read,
// simulating a transition landing between Edit's status check and its write.
type interleavingCaseStore struct {
	*repository.MemoryCaseStore
	once       sync.Once
	interleave func()
}

func (s *interleavingCaseStore) FindByRef(ref string) (*model.Case, error) {
	c, err := s.MemoryCaseStore.FindByRef(ref)
	if err == nil && s.interleave != nil {
		s.once.Do(s.interleave)
	}
	return c, err
}

func TestEditLosesRaceWithAccept(t *testing.T) {
	memStore := repository.NewMemoryCaseStore()
	store := &interleavingCaseStore{MemoryCaseStore: memStore}
	svc := NewCaseService(store, repository.NewMemoryUnitStore())
	reporterID := uuid.New()

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "pothole",
		EventType:   "road",
	}, reporterID)
	require.NoError(t, err)

	accepted := model.StatusAccepted
	store.interleave = func() {
		err := memStore.ApplyTransition(&model.CaseTransition{
			CaseID:       c.ID,
			CaseRef:      c.CaseRef,
			Event:        model.EventAccept,
			FromStatuses: []model.CaseStatus{model.StatusSubmitted},
			NewStatus:    &accepted,
		})
		require.NoError(t, err)
	}

	// Edit's status check sees SUBMITTED, but the accept commits before the
	// write. The guarded update must reject the stale edit.
	_, err = svc.Edit(c.CaseRef, citizen(reporterID), &model.UpdateCaseRequest{
		Description: strPtr("edited after acceptance"),
	})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	got, err := memStore.FindByRef(c.CaseRef)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, got.Status)
	assert.Equal(t, "pothole", got.Description)
}

func TestListFilters(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	reporterID := uuid.New()

	_, err := svc.Submit(&model.CreateCaseRequest{Description: "pothole on Main St", EventType: "road"}, reporterID)
	require.NoError(t, err)
	_, err = svc.Submit(&model.CreateCaseRequest{Description: "flickering lamp", EventType: "lighting"}, uuid.New())
	require.NoError(t, err)

	byType, err := svc.List(model.CaseFilter{EventType: "road"})
	require.NoError(t, err)
	assert.Equal(t, 1, byType.Total)

	byQuery, err := svc.List(model.CaseFilter{Query: "main st"})
	require.NoError(t, err)
	assert.Equal(t, 1, byQuery.Total)

	mine, err := svc.ListMine(reporterID)
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Total)
}

func TestConcurrentAssignSingleWinner(t *testing.T) {
	svc, caseStore, unitStore := newTestCaseService(t)
	unitA := seedUnit(t, unitStore, "Crew A", true)
	unitB := seedUnit(t, unitStore, "Crew B", true)

	c, err := svc.Submit(&model.CreateCaseRequest{
		Description: "burst water main",
		EventType:   "water",
	}, uuid.New())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, unitID := range []uuid.UUID{unitA.ID, unitB.ID} {
		wg.Add(1)
		go func(i int, unitID uuid.UUID) {
			defer wg.Done()
			id := unitID
			_, errs[i] = svc.Transition(c.CaseRef, admin(), &model.TransitionRequest{
				Event:  model.EventAssign,
				UnitID: &id,
			})
		}(i, unitID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, model.ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, succeeded)

	got, err := svc.Get(c.CaseRef)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)

	// One submission event plus exactly one assignment event.
	assert.Len(t, caseStore.StagedEvents(), 2)
}

func TestCaseRefFormat(t *testing.T) {
	ref := newCaseRef(time.Date(2024, 1, 31, 15, 45, 2, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^A20240131154502-[0-9a-f]{4}$`), ref)

	// The random suffix keeps same-second submissions distinct.
	seen := make(map[string]bool)
	now := time.Now()
	for i := 0; i < 50; i++ {
		seen[newCaseRef(now)] = true
	}
	assert.Greater(t, len(seen), 1, fmt.Sprintf("expected varied suffixes, got %v", seen))
}
