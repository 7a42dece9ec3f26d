package service

import (
	"fmt"
	"strings"
	"time"

	"casetrack/internal/model"

	"github.com/google/uuid"
)

// CaseService is the case lifecycle engine. It validates and applies
// transitions, enforces who may trigger each one, and stages the reporter
// notification inside the same store transaction as the state change.
type CaseService struct {
	caseStore CaseStore
	unitStore UnitStore
}

func NewCaseService(caseStore CaseStore, unitStore UnitStore) *CaseService {
	return &CaseService{
		caseStore: caseStore,
		unitStore: unitStore,
	}
}

// Submit creates a new case for the reporter, SUBMITTED unless a draft was
// requested. A retried request carrying the same client_ref returns the
// already-created case instead of a duplicate.
func (s *CaseService) Submit(req *model.CreateCaseRequest, reporterID uuid.UUID) (*model.Case, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", model.ErrValidation)
	}
	if strings.TrimSpace(req.EventType) == "" {
		return nil, fmt.Errorf("%w: event_type is required", model.ErrValidation)
	}

	if req.ClientRef != nil && *req.ClientRef != "" {
		existing, err := s.caseStore.FindByClientRef(reporterID, *req.ClientRef)
		if err == nil {
			return existing, nil
		}
		if err != model.ErrNotFound {
			return nil, err
		}
	}

	now := time.Now()
	c := &model.Case{
		ID:           uuid.New(),
		CaseRef:      newCaseRef(now),
		Description:  req.Description,
		LocationText: req.LocationText,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		IncidentTime: req.IncidentTime,
		ReportTime:   now,
		EventType:    req.EventType,
		Severity:     req.Severity,
		Status:       model.StatusSubmitted,
		ReporterID:   reporterID,
		ClientRef:    req.ClientRef,
		UpdatedAt:    now,
	}
	if req.Draft {
		c.Status = model.StatusDraft
	}

	media := make([]model.MediaFile, 0, len(req.MediaURLs))
	for _, url := range req.MediaURLs {
		kind, err := model.MediaKindFromURL(url)
		if err != nil {
			return nil, fmt.Errorf("%w: unsupported media file %q", model.ErrValidation, url)
		}
		media = append(media, model.MediaFile{
			ID:        uuid.New(),
			CaseID:    c.ID,
			URL:       url,
			Kind:      kind,
			CreatedAt: now,
		})
	}

	// Drafts are not announced; the submission notification goes out once
	// the case is actually submitted.
	var notify *model.CaseEventMessage
	if c.Status == model.StatusSubmitted {
		notify = s.eventMessage(c, model.CaseEventSubmitted, "")
	}

	if err := s.caseStore.Create(c, media, notify); err != nil {
		if err == model.ErrAlreadyExists && req.ClientRef != nil {
			// Lost a creation race on the dedupe key.
			return s.caseStore.FindByClientRef(reporterID, *req.ClientRef)
		}
		return nil, err
	}

	c.Media = media
	return c, nil
}

func (s *CaseService) Get(ref string) (*model.Case, error) {
	return s.caseStore.FindByRef(ref)
}

func (s *CaseService) Assignments(ref string) ([]model.Assignment, error) {
	c, err := s.caseStore.FindByRef(ref)
	if err != nil {
		return nil, err
	}
	return s.caseStore.ListAssignments(c.ID)
}

func (s *CaseService) List(filter model.CaseFilter) (*model.CaseListResponse, error) {
	cases, err := s.caseStore.FindAll(filter)
	if err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []model.Case{}
	}
	return &model.CaseListResponse{Cases: cases, Total: len(cases)}, nil
}

func (s *CaseService) ListMine(reporterID uuid.UUID) (*model.CaseListResponse, error) {
	cases, err := s.caseStore.FindByReporter(reporterID)
	if err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []model.Case{}
	}
	return &model.CaseListResponse{Cases: cases, Total: len(cases)}, nil
}

// Edit updates the citizen-mutable fields. Only the reporter may edit, and
// only while the case has not been accepted into processing.
func (s *CaseService) Edit(ref string, actor model.Identity, req *model.UpdateCaseRequest) (*model.Case, error) {
	c, err := s.caseStore.FindByRef(ref)
	if err != nil {
		return nil, err
	}
	if c.ReporterID != actor.UserID {
		return nil, model.ErrForbidden
	}
	if c.Status != model.StatusDraft && c.Status != model.StatusSubmitted {
		return nil, model.ErrInvalidTransition
	}

	if err := s.caseStore.UpdateFields(c.ID, req); err != nil {
		return nil, err
	}
	return s.caseStore.FindByRef(ref)
}

// Transition applies one lifecycle event to a case. Role and ownership are
// checked first (Forbidden beats InvalidTransition), then the mutation is
// committed with a status precondition so that concurrent transitions on
// the same case serialize and the loser is rejected.
func (s *CaseService) Transition(ref string, actor model.Identity, req *model.TransitionRequest) (*model.Case, error) {
	c, err := s.caseStore.FindByRef(ref)
	if err != nil {
		return nil, err
	}

	t := &model.CaseTransition{
		CaseID:  c.ID,
		CaseRef: c.CaseRef,
		Event:   req.Event,
	}

	switch req.Event {
	case model.EventSubmit:
		if actor.Role != model.RoleCitizen || c.ReporterID != actor.UserID {
			return nil, model.ErrForbidden
		}
		t.FromStatuses = []model.CaseStatus{model.StatusDraft}
		t.NewStatus = statusPtr(model.StatusSubmitted)
		t.Notify = s.eventMessage(c, model.CaseEventSubmitted, "")

	case model.EventAccept:
		if actor.Role != model.RoleAdmin {
			return nil, model.ErrForbidden
		}
		t.FromStatuses = []model.CaseStatus{model.StatusSubmitted}
		t.NewStatus = statusPtr(model.StatusAccepted)

	case model.EventAssign:
		if actor.Role != model.RoleAdmin && actor.Role != model.RoleUnit {
			return nil, model.ErrForbidden
		}
		unit, err := s.resolveUnit(req.UnitID)
		if err != nil {
			return nil, err
		}
		t.FromStatuses = []model.CaseStatus{model.StatusSubmitted, model.StatusAccepted}
		t.NewStatus = statusPtr(model.StatusInProgress)
		t.AssignUnitID = &unit.ID
		t.Assignment = s.assignmentEntry(c, unit, actor)
		t.Notify = s.eventMessage(c, model.CaseEventAssigned, unit.Name)

	case model.EventReassign:
		if actor.Role != model.RoleAdmin {
			// A unit-operator may hand off only a case currently held by
			// their own unit.
			if actor.Role != model.RoleUnit || actor.UnitID == nil ||
				c.AssignedUnitID == nil || *actor.UnitID != *c.AssignedUnitID {
				return nil, model.ErrForbidden
			}
		}
		unit, err := s.resolveUnit(req.UnitID)
		if err != nil {
			return nil, err
		}
		t.FromStatuses = []model.CaseStatus{model.StatusInProgress}
		t.NewStatus = statusPtr(model.StatusInProgress)
		t.AssignUnitID = &unit.ID
		t.Assignment = s.assignmentEntry(c, unit, actor)
		t.Notify = s.eventMessage(c, model.CaseEventReassigned, unit.Name)

	case model.EventComplete:
		if actor.Role != model.RoleAdmin && actor.Role != model.RoleUnit {
			return nil, model.ErrForbidden
		}
		t.FromStatuses = []model.CaseStatus{model.StatusInProgress}
		t.NewStatus = statusPtr(model.StatusCompleted)
		t.Notify = s.eventMessage(c, model.CaseEventCompleted, "")

	case model.EventMarkFake:
		if actor.Role != model.RoleAdmin {
			return nil, model.ErrForbidden
		}
		t.FromStatuses = []model.CaseStatus{model.StatusSubmitted}
		t.MarkFake = true

	case model.EventCancel:
		if actor.Role != model.RoleCitizen || c.ReporterID != actor.UserID {
			return nil, model.ErrForbidden
		}
		if c.AssignedUnitID != nil {
			return nil, model.ErrInvalidTransition
		}
		t.FromStatuses = []model.CaseStatus{model.StatusDraft, model.StatusSubmitted}
		t.NewStatus = statusPtr(model.StatusWithdrawn)
		t.Notify = s.eventMessage(c, model.CaseEventWithdrawn, "")

	default:
		return nil, fmt.Errorf("%w: unknown event %q", model.ErrValidation, req.Event)
	}

	if err := s.caseStore.ApplyTransition(t); err != nil {
		return nil, err
	}

	return s.caseStore.FindByRef(ref)
}

func (s *CaseService) resolveUnit(unitID *uuid.UUID) (*model.Unit, error) {
	units, err := s.unitStore.FindAll()
	if err != nil {
		return nil, err
	}
	return ResolveAssignment(unitID, units)
}

func (s *CaseService) assignmentEntry(c *model.Case, unit *model.Unit, actor model.Identity) *model.Assignment {
	return &model.Assignment{
		ID:        uuid.New(),
		CaseID:    c.ID,
		UnitID:    unit.ID,
		ActorID:   actor.UserID,
		CreatedAt: time.Now(),
	}
}

func (s *CaseService) eventMessage(c *model.Case, event, unitName string) *model.CaseEventMessage {
	newStatus := ""
	switch event {
	case model.CaseEventSubmitted:
		newStatus = string(model.StatusSubmitted)
	case model.CaseEventAssigned, model.CaseEventReassigned:
		newStatus = string(model.StatusInProgress)
	case model.CaseEventCompleted:
		newStatus = string(model.StatusCompleted)
	case model.CaseEventWithdrawn:
		newStatus = string(model.StatusWithdrawn)
	}
	return &model.CaseEventMessage{
		CaseID:     c.ID.String(),
		CaseRef:    c.CaseRef,
		Event:      event,
		NewStatus:  newStatus,
		UnitName:   unitName,
		ReporterID: c.ReporterID.String(),
		Timestamp:  time.Now().Unix(),
	}
}

// newCaseRef builds the externally visible case number, e.g.
// A20240131154502-9f3a.
func newCaseRef(now time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("A%s-%x", now.UTC().Format("20060102150405"), u[:2])
}

func statusPtr(s model.CaseStatus) *model.CaseStatus {
	return &s
}
