package repository

import (
	"sort"
	"strings"
	"sync"

	"casetrack/internal/model"

	"github.com/google/uuid"
)

// In-memory store implementations. They back the service tests and mirror
// the Postgres repositories' behavior, including the status guard on
// ApplyTransition and the uniqueness rules enforced by constraints in SQL.

type clientRefKey struct {
	reporterID uuid.UUID
	clientRef  string
}

type MemoryCaseStore struct {
	mu          sync.Mutex
	cases       map[uuid.UUID]*model.Case
	byRef       map[string]uuid.UUID
	byClientRef map[clientRefKey]uuid.UUID
	media       map[uuid.UUID][]model.MediaFile
	assignments map[uuid.UUID][]model.Assignment
	staged      []model.CaseEventMessage
}

func NewMemoryCaseStore() *MemoryCaseStore {
	return &MemoryCaseStore{
		cases:       make(map[uuid.UUID]*model.Case),
		byRef:       make(map[string]uuid.UUID),
		byClientRef: make(map[clientRefKey]uuid.UUID),
		media:       make(map[uuid.UUID][]model.MediaFile),
		assignments: make(map[uuid.UUID][]model.Assignment),
	}
}

func (s *MemoryCaseStore) Create(c *model.Case, media []model.MediaFile, notify *model.CaseEventMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ClientRef != nil {
		if _, ok := s.byClientRef[clientRefKey{c.ReporterID, *c.ClientRef}]; ok {
			return model.ErrAlreadyExists
		}
	}
	if _, ok := s.byRef[c.CaseRef]; ok {
		return model.ErrAlreadyExists
	}

	stored := *c
	s.cases[c.ID] = &stored
	s.byRef[c.CaseRef] = c.ID
	if c.ClientRef != nil {
		s.byClientRef[clientRefKey{c.ReporterID, *c.ClientRef}] = c.ID
	}
	s.media[c.ID] = append(s.media[c.ID], media...)
	if notify != nil {
		s.staged = append(s.staged, *notify)
	}
	return nil
}

func (s *MemoryCaseStore) FindByRef(ref string) (*model.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byRef[ref]
	if !ok {
		return nil, model.ErrNotFound
	}
	c := *s.cases[id]
	c.Media = append([]model.MediaFile(nil), s.media[id]...)
	return &c, nil
}

func (s *MemoryCaseStore) FindByClientRef(reporterID uuid.UUID, clientRef string) (*model.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byClientRef[clientRefKey{reporterID, clientRef}]
	if !ok {
		return nil, model.ErrNotFound
	}
	c := *s.cases[id]
	return &c, nil
}

func (s *MemoryCaseStore) FindAll(filter model.CaseFilter) ([]model.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cases []model.Case
	for _, c := range s.cases {
		if filter.EventType != "" && c.EventType != filter.EventType {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Query != "" {
			q := strings.ToLower(filter.Query)
			loc := ""
			if c.LocationText != nil {
				loc = *c.LocationText
			}
			if !strings.Contains(strings.ToLower(c.Description), q) &&
				!strings.Contains(strings.ToLower(loc), q) &&
				!strings.Contains(strings.ToLower(c.CaseRef), q) {
				continue
			}
		}
		cases = append(cases, *c)
	}

	sort.Slice(cases, func(i, j int) bool {
		return cases[i].ReportTime.After(cases[j].ReportTime)
	})
	if len(cases) > 50 {
		cases = cases[:50]
	}
	return cases, nil
}

func (s *MemoryCaseStore) FindByReporter(reporterID uuid.UUID) ([]model.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cases []model.Case
	for _, c := range s.cases {
		if c.ReporterID == reporterID {
			cases = append(cases, *c)
		}
	}
	sort.Slice(cases, func(i, j int) bool {
		return cases[i].ReportTime.After(cases[j].ReportTime)
	})
	return cases, nil
}

func (s *MemoryCaseStore) UpdateFields(id uuid.UUID, req *model.UpdateCaseRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return model.ErrNotFound
	}
	if c.Status != model.StatusDraft && c.Status != model.StatusSubmitted {
		return model.ErrInvalidTransition
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.LocationText != nil {
		c.LocationText = req.LocationText
	}
	if req.Latitude != nil {
		c.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		c.Longitude = req.Longitude
	}
	if req.IncidentTime != nil {
		c.IncidentTime = req.IncidentTime
	}
	if req.Severity != nil {
		c.Severity = req.Severity
	}
	return nil
}

func (s *MemoryCaseStore) ApplyTransition(t *model.CaseTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[t.CaseID]
	if !ok {
		return model.ErrNotFound
	}

	allowed := false
	for _, from := range t.FromStatuses {
		if c.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return model.ErrInvalidTransition
	}

	if t.NewStatus != nil {
		c.Status = *t.NewStatus
	}
	if t.AssignUnitID != nil {
		id := *t.AssignUnitID
		c.AssignedUnitID = &id
	}
	if t.MarkFake {
		c.IsFake = true
	}
	if t.Assignment != nil {
		s.assignments[t.CaseID] = append(s.assignments[t.CaseID], *t.Assignment)
	}
	if t.Notify != nil {
		s.staged = append(s.staged, *t.Notify)
	}
	return nil
}

func (s *MemoryCaseStore) ListAssignments(caseID uuid.UUID) ([]model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Assignment(nil), s.assignments[caseID]...), nil
}

// StagedEvents returns the outbox-equivalent events committed so far.
func (s *MemoryCaseStore) StagedEvents() []model.CaseEventMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.CaseEventMessage(nil), s.staged...)
}

type MemoryUnitStore struct {
	mu    sync.Mutex
	units map[uuid.UUID]*model.Unit
}

func NewMemoryUnitStore() *MemoryUnitStore {
	return &MemoryUnitStore{units: make(map[uuid.UUID]*model.Unit)}
}

func (s *MemoryUnitStore) Create(unit *model.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.units {
		if strings.EqualFold(u.Name, unit.Name) {
			return model.ErrAlreadyExists
		}
	}
	stored := *unit
	s.units[unit.ID] = &stored
	return nil
}

func (s *MemoryUnitStore) FindAll() ([]model.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var units []model.Unit
	for _, u := range s.units {
		units = append(units, *u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	return units, nil
}

func (s *MemoryUnitStore) Deactivate(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.units[id]
	if !ok {
		return model.ErrNotFound
	}
	u.IsActive = false
	return nil
}

type MemoryFeedbackStore struct {
	mu     sync.Mutex
	byCase map[uuid.UUID]*model.Feedback
}

func NewMemoryFeedbackStore() *MemoryFeedbackStore {
	return &MemoryFeedbackStore{byCase: make(map[uuid.UUID]*model.Feedback)}
}

func (s *MemoryFeedbackStore) Create(fb *model.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byCase[fb.CaseID]; ok {
		return model.ErrAlreadyRated
	}
	stored := *fb
	s.byCase[fb.CaseID] = &stored
	return nil
}

func (s *MemoryFeedbackStore) FindByCase(caseID uuid.UUID) (*model.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fb, ok := s.byCase[caseID]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *fb
	return &copied, nil
}

type MemoryNotificationStore struct {
	mu            sync.Mutex
	notifications []model.Notification
}

func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{}
}

func (s *MemoryNotificationStore) Create(n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *MemoryNotificationStore) ListForUser(userID uuid.UUID) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryNotificationStore) UnreadCount(userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryNotificationStore) MarkRead(notificationID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == notificationID && s.notifications[i].UserID == userID {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return model.ErrNotFound
}

func (s *MemoryNotificationStore) MarkAllRead(userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].UserID == userID {
			s.notifications[i].IsRead = true
		}
	}
	return nil
}

type MemoryUserStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*model.User
	byEmail map[string]uuid.UUID
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:   make(map[uuid.UUID]*model.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *MemoryUserStore) Create(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return model.ErrAlreadyExists
	}
	stored := *user
	s.users[user.ID] = &stored
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *MemoryUserStore) FindByEmail(email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *s.users[id]
	return &copied, nil
}

func (s *MemoryUserStore) FindByID(id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryUserStore) Suspend(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.ErrNotFound
	}
	u.IsActive = false
	return nil
}
