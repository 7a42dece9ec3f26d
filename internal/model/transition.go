package model

import "github.com/google/uuid"

// CaseTransition describes one atomic lifecycle mutation. The store applies
// the whole struct in a single transaction: the case row update is guarded
// by FromStatuses (compare-and-swap on status), the assignment history entry
// and the staged notification commit with it or not at all.
type CaseTransition struct {
	CaseID       uuid.UUID
	CaseRef      string
	Event        TransitionEvent
	FromStatuses []CaseStatus
	NewStatus    *CaseStatus
	AssignUnitID *uuid.UUID
	MarkFake     bool
	Assignment   *Assignment
	Notify       *CaseEventMessage
}

// Event names carried on CaseEventMessage and used as notification type
// tags.
const (
	CaseEventSubmitted  = "submitted"
	CaseEventAssigned   = "assigned"
	CaseEventReassigned = "reassigned"
	CaseEventCompleted  = "completed"
	CaseEventWithdrawn  = "withdrawn"
)

// CaseEventMessage is the wire payload staged in the outbox and published to
// the broker. The consumer turns it into a durable notification row.
type CaseEventMessage struct {
	CaseID     string `json:"case_id"`
	CaseRef    string `json:"case_ref"`
	Event      string `json:"event"`
	NewStatus  string `json:"new_status,omitempty"`
	UnitName   string `json:"unit_name,omitempty"`
	ReporterID string `json:"reporter_id"`
	Timestamp  int64  `json:"timestamp"`
}
