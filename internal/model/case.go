package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CaseStatus string

const (
	StatusDraft      CaseStatus = "draft"
	StatusSubmitted  CaseStatus = "submitted"
	StatusAccepted   CaseStatus = "accepted"
	StatusInProgress CaseStatus = "in_progress"
	StatusCompleted  CaseStatus = "completed"
	StatusWithdrawn  CaseStatus = "withdrawn"
)

// TransitionEvent names an action an actor can take on a case.
type TransitionEvent string

const (
	EventSubmit   TransitionEvent = "submit"
	EventAccept   TransitionEvent = "accept"
	EventAssign   TransitionEvent = "assign"
	EventReassign TransitionEvent = "reassign"
	EventComplete TransitionEvent = "complete"
	EventMarkFake TransitionEvent = "mark_fake"
	EventCancel   TransitionEvent = "cancel"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

var allowedMediaExtensions = map[string]MediaKind{
	"png":  MediaImage,
	"jpg":  MediaImage,
	"jpeg": MediaImage,
	"gif":  MediaImage,
	"mp4":  MediaVideo,
	"mov":  MediaVideo,
}

// MediaKindFromURL infers the media kind from the URL's file extension.
// Returns ErrValidation for extensions outside the allowed set.
func MediaKindFromURL(url string) (MediaKind, error) {
	idx := strings.LastIndex(url, ".")
	if idx < 0 || idx == len(url)-1 {
		return "", ErrValidation
	}
	kind, ok := allowedMediaExtensions[strings.ToLower(url[idx+1:])]
	if !ok {
		return "", ErrValidation
	}
	return kind, nil
}

type Case struct {
	ID             uuid.UUID   `json:"id"`
	CaseRef        string      `json:"case_ref"`
	Description    string      `json:"description"`
	LocationText   *string     `json:"location_text,omitempty"`
	Latitude       *float64    `json:"latitude,omitempty"`
	Longitude      *float64    `json:"longitude,omitempty"`
	IncidentTime   *time.Time  `json:"incident_time,omitempty"`
	ReportTime     time.Time   `json:"report_time"`
	EventType      string      `json:"event_type"`
	Severity       *string     `json:"severity,omitempty"`
	Status         CaseStatus  `json:"status"`
	IsFake         bool        `json:"is_fake"`
	ReporterID     uuid.UUID   `json:"reporter_id"`
	AssignedUnitID *uuid.UUID  `json:"assigned_unit_id,omitempty"`
	AssignedUnit   *Unit       `json:"assigned_unit,omitempty"`
	ClientRef      *string     `json:"-"`
	Media          []MediaFile `json:"media,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type Unit struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type MediaFile struct {
	ID        uuid.UUID `json:"id"`
	CaseID    uuid.UUID `json:"case_id"`
	URL       string    `json:"url"`
	Kind      MediaKind `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Assignment is one entry in a case's assignment history. A case gains one
// entry per assign or reassign; entries are never rewritten.
type Assignment struct {
	ID        uuid.UUID `json:"id"`
	CaseID    uuid.UUID `json:"case_id"`
	UnitID    uuid.UUID `json:"unit_id"`
	ActorID   uuid.UUID `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CaseRef   *string   `json:"case_ref,omitempty"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type Feedback struct {
	ID             uuid.UUID `json:"id"`
	CaseID         uuid.UUID `json:"case_id"`
	Rating         int       `json:"rating"`
	Comments       string    `json:"comments"`
	SubmissionTime time.Time `json:"submission_time"`
}

// Request/Response DTOs
type CreateCaseRequest struct {
	Description  string     `json:"description" binding:"required"`
	EventType    string     `json:"event_type" binding:"required"`
	LocationText *string    `json:"location_text"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	IncidentTime *time.Time `json:"incident_time"`
	Severity     *string    `json:"severity"`
	MediaURLs    []string   `json:"media_urls"`
	ClientRef    *string    `json:"client_ref"`
	Draft        bool       `json:"draft"`
}

type UpdateCaseRequest struct {
	Description  *string    `json:"description"`
	LocationText *string    `json:"location_text"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	IncidentTime *time.Time `json:"incident_time"`
	Severity     *string    `json:"severity"`
}

type TransitionRequest struct {
	Event  TransitionEvent `json:"event" binding:"required"`
	UnitID *uuid.UUID      `json:"unit_id"`
}

type CreateUnitRequest struct {
	Name string `json:"name" binding:"required"`
}

type FeedbackRequest struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

type CaseFilter struct {
	Query     string
	EventType string
	Status    CaseStatus
}

type CaseListResponse struct {
	Cases []Case `json:"cases"`
	Total int    `json:"total"`
}

type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
