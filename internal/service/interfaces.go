package service

import (
	"casetrack/internal/model"

	"github.com/google/uuid"
)

// Store contracts consumed by the services. The Postgres repositories and
// the in-memory stores in internal/repository both satisfy them.

type CaseStore interface {
	Create(c *model.Case, media []model.MediaFile, notify *model.CaseEventMessage) error
	FindByRef(ref string) (*model.Case, error)
	FindByClientRef(reporterID uuid.UUID, clientRef string) (*model.Case, error)
	FindAll(filter model.CaseFilter) ([]model.Case, error)
	FindByReporter(reporterID uuid.UUID) ([]model.Case, error)
	UpdateFields(id uuid.UUID, req *model.UpdateCaseRequest) error
	ApplyTransition(t *model.CaseTransition) error
	ListAssignments(caseID uuid.UUID) ([]model.Assignment, error)
}

type UnitStore interface {
	Create(unit *model.Unit) error
	FindAll() ([]model.Unit, error)
	Deactivate(id uuid.UUID) error
}

type FeedbackStore interface {
	Create(fb *model.Feedback) error
	FindByCase(caseID uuid.UUID) (*model.Feedback, error)
}

type NotificationStore interface {
	Create(n *model.Notification) error
	ListForUser(userID uuid.UUID) ([]model.Notification, error)
	UnreadCount(userID uuid.UUID) (int, error)
	MarkRead(notificationID, userID uuid.UUID) error
	MarkAllRead(userID uuid.UUID) error
}

type UserStore interface {
	Create(user *model.User) error
	FindByEmail(email string) (*model.User, error)
	FindByID(id uuid.UUID) (*model.User, error)
	Suspend(id uuid.UUID) error
}
